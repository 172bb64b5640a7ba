package process

import (
	"io"

	"valscan/process/memory_map"
)

// Process is a handle on a live process. It only carries the pid; everything
// else is read fresh from the ProcessDirectory on every call.
type Process interface {
	// GetPID returns the process ID
	GetPID() ProcessID

	// DisplayName returns the command line of the process
	DisplayName() (string, error)

	// Regions reads and parses the memory map, preserving file order
	Regions() ([]memory_map.MemoryRegion, error)

	// IsAlive checks the process table again
	IsAlive() bool

	// OpenMemory opens the raw memory image for positioned reads
	OpenMemory() (MemoryImage, error)
}

// MemoryImage is a process address space supporting positioned reads.
// ReadAt offsets are virtual addresses.
type MemoryImage interface {
	io.ReaderAt
	io.Closer
}

// ProcessDirectory is the OS process table. Implementations must be safe to
// call for pids that have already exited.
type ProcessDirectory interface {
	// ListPIDs returns the pids currently known to the OS
	ListPIDs() ([]ProcessID, error)

	// Exists reports whether pid has a live entry
	Exists(pid ProcessID) bool

	// ReadMaps returns the raw memory mapping table of pid
	ReadMaps(pid ProcessID) ([]byte, error)

	// ReadCmdline returns the raw command-line description of pid
	ReadCmdline(pid ProcessID) ([]byte, error)

	// OpenMemory opens the raw memory image of pid
	OpenMemory(pid ProcessID) (MemoryImage, error)
}
