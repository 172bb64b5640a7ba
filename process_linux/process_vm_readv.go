//go:build linux

package process_linux

import (
	"errors"
	"fmt"
	"unsafe"

	"valscan/process"

	"golang.org/x/sys/unix"
)

// process_vm_readv uses the process_vm_readv syscall to read memory from another process
func process_vm_readv(
	pid process.ProcessID,
	localBuf []byte,
	remoteAddr process.ProcessMemoryAddress,
) (int, error) {
	if len(localBuf) == 0 {
		return 0, nil
	}

	// Create iovec for local buffer
	localIov := unix.Iovec{
		Base: &localBuf[0],
	}
	localIov.SetLen(len(localBuf))

	// Create iovec for remote buffer
	remoteIov := unix.RemoteIovec{
		Base: uintptr(remoteAddr),
		Len:  len(localBuf),
	}

	n, _, errno := unix.Syscall6(
		unix.SYS_PROCESS_VM_READV,
		uintptr(pid),                        // Remote process PID
		uintptr(unsafe.Pointer(&localIov)),  // Local iovec
		uintptr(1),                          // Number of local iovecs
		uintptr(unsafe.Pointer(&remoteIov)), // Remote iovec
		uintptr(1),                          // Number of remote iovecs
		uintptr(0),                          // Flags (reserved for future use)
	)

	if errno != 0 {
		return 0, errno
	}
	return int(n), nil
}

// vmImage is a process.MemoryImage reading through process_vm_readv.
// There is nothing to hold open, so Close is a no-op.
type vmImage struct {
	pid process.ProcessID
}

func (img *vmImage) ReadAt(b []byte, off int64) (int, error) {
	n, err := process_vm_readv(img.pid, b, process.ProcessMemoryAddress(off))
	return vmReadResult(img.pid, n, len(b), err)
}

// vmReadResult maps the outcome of one process_vm_readv call onto the
// errors the word reader classifies. A partial read stops at the first page
// that is no longer mapped, which /proc/<pid>/mem reports as a fault too.
func vmReadResult(pid process.ProcessID, n, want int, err error) (int, error) {
	switch {
	case errors.Is(err, unix.ESRCH):
		return 0, fmt.Errorf("pid %d: %w", pid, process.ErrProcessGone)
	case errors.Is(err, unix.EPERM), errors.Is(err, unix.EACCES):
		return 0, fmt.Errorf("pid %d: process_vm_readv: %w: %w", pid, process.ErrMemoryUnavailable, err)
	case err != nil:
		return 0, fmt.Errorf("process_vm_readv: %w", err)
	case n < want:
		return n, fmt.Errorf("process_vm_readv: %d of %d bytes: %w", n, want, unix.EFAULT)
	}
	return n, nil
}

func (img *vmImage) Close() error {
	return nil
}
