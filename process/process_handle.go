package process

import (
	"bytes"
	"fmt"
	"strings"

	"valscan/process/memory_map"
)

// handle implements Process on top of a ProcessDirectory
type handle struct {
	pid ProcessID
	dir ProcessDirectory
}

// Open returns a handle for pid if the directory has a live entry for it.
// Existence is checked once here; use IsAlive to check again later.
func Open(dir ProcessDirectory, pid ProcessID) (Process, bool) {
	if pid <= 0 {
		return nil, false
	}
	if !dir.Exists(pid) {
		return nil, false
	}
	return &handle{pid: pid, dir: dir}, true
}

// Attach is like Open but returns an error describing why pid was rejected.
func Attach(dir ProcessDirectory, pid ProcessID) (Process, error) {
	if pid <= 0 {
		return nil, fmt.Errorf("pid %d: %w", pid, ErrInvalidPID)
	}
	p, ok := Open(dir, pid)
	if !ok {
		return nil, fmt.Errorf("pid %d: %w", pid, ErrProcessGone)
	}
	return p, nil
}

func (h *handle) GetPID() ProcessID {
	return h.pid
}

func (h *handle) IsAlive() bool {
	return h.dir.Exists(h.pid)
}

func (h *handle) DisplayName() (string, error) {
	raw, err := h.dir.ReadCmdline(h.pid)
	if err != nil {
		return "", err
	}
	// cmdline is NUL separated and NUL terminated
	raw = bytes.TrimRight(raw, "\x00")
	return strings.ReplaceAll(string(raw), "\x00", " "), nil
}

func (h *handle) Regions() ([]memory_map.MemoryRegion, error) {
	raw, err := h.dir.ReadMaps(h.pid)
	if err != nil {
		return nil, fmt.Errorf("pid %d: %w: %w", h.pid, ErrMapsUnavailable, err)
	}
	return memory_map.ParseMemoryMap(raw)
}

func (h *handle) OpenMemory() (MemoryImage, error) {
	img, err := h.dir.OpenMemory(h.pid)
	if err != nil {
		return nil, fmt.Errorf("pid %d: %w: %w", h.pid, ErrMemoryUnavailable, err)
	}
	return img, nil
}

func (h *handle) String() string {
	return fmt.Sprintf("process-%d", h.pid)
}
