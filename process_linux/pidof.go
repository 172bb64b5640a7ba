//go:build linux

package process_linux

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"valscan/process"

	"golang.org/x/sys/unix"
)

// ListPIDs returns every numeric directory under the proc root, lowest first.
// The calling process is left out so that name searches never match themselves.
func (p *ProcFS) ListPIDs() ([]process.ProcessID, error) {
	entries, err := os.ReadDir(p.root)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p.root, err)
	}

	var out []process.ProcessID
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(e.Name())
		if err != nil || pid <= 0 {
			continue // not a PID dir
		}
		if process.ProcessID(pid) == p.self {
			continue // skip ourselves
		}
		out = append(out, process.ProcessID(pid))
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// Exists reports whether pid still has an entry under the proc root and has
// not exited. A zombie keeps its entry until it is reaped but has no memory left.
func (p *ProcFS) Exists(pid process.ProcessID) bool {
	if pid <= 0 {
		return false
	}
	return procExists(p.root, int(pid))
}

func procExists(root string, pid int) bool {
	// Fast path: stat /proc/<pid>
	_, err := os.Stat(filepath.Join(root, strconv.Itoa(pid)))
	if err == nil {
		return !procExited(root, pid)
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false
	}
	// For transient errors (permission, EIO): fall back to kill 0.
	// EPERM still means the pid exists.
	err = unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

// procExited reports whether the state field of /proc/<pid>/stat says the
// process is a zombie or dead. An unreadable stat file says nothing.
func procExited(root string, pid int) bool {
	raw, err := os.ReadFile(filepath.Join(root, strconv.Itoa(pid), "stat"))
	if err != nil {
		return false
	}

	// comm may itself contain ')', the state follows the last one
	i := bytes.LastIndexByte(raw, ')')
	if i < 0 || i+2 >= len(raw) {
		return false
	}
	switch raw[i+2] {
	case 'Z', 'X', 'x':
		return true
	}
	return false
}
