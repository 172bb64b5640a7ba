// Package processtest provides an in-memory process table for tests of code
// built on process.ProcessDirectory.
package processtest

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"valscan/process"
)

// Directory is a fake process table. The zero value is not usable; call NewDirectory.
type Directory struct {
	mu    sync.Mutex
	procs map[process.ProcessID]*Process
}

// Process is one fake process: a command line, a maps table and a sparse memory image.
type Process struct {
	mu      sync.Mutex
	cmdline string
	maps    []string
	mem     map[uint64]byte

	// MapsErr and MemErr make ReadMaps / OpenMemory fail
	MapsErr error
	MemErr  error
	// ReadErr makes every read of an opened image fail
	ReadErr error
}

func NewDirectory() *Directory {
	return &Directory{procs: make(map[process.ProcessID]*Process)}
}

// Add registers pid with the given command line arguments.
func (d *Directory) Add(pid process.ProcessID, args ...string) *Process {
	d.mu.Lock()
	defer d.mu.Unlock()

	p := &Process{
		cmdline: strings.Join(args, "\x00") + "\x00",
		mem:     make(map[uint64]byte),
	}
	d.procs[pid] = p
	return p
}

// Remove makes pid disappear, as if it had exited.
func (d *Directory) Remove(pid process.ProcessID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.procs, pid)
}

func (d *Directory) get(pid process.ProcessID) (*Process, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.procs[pid]
	if !ok {
		return nil, fmt.Errorf("pid %d: %w", pid, os.ErrNotExist)
	}
	return p, nil
}

func (d *Directory) ListPIDs() ([]process.ProcessID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	pids := make([]process.ProcessID, 0, len(d.procs))
	for pid := range d.procs {
		pids = append(pids, pid)
	}
	sort.Slice(pids, func(i, j int) bool { return pids[i] < pids[j] })
	return pids, nil
}

func (d *Directory) Exists(pid process.ProcessID) bool {
	_, err := d.get(pid)
	return err == nil
}

func (d *Directory) ReadMaps(pid process.ProcessID) ([]byte, error) {
	p, err := d.get(pid)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.MapsErr != nil {
		return nil, p.MapsErr
	}
	return []byte(strings.Join(p.maps, "\n") + "\n"), nil
}

func (d *Directory) ReadCmdline(pid process.ProcessID) ([]byte, error) {
	p, err := d.get(pid)
	if err != nil {
		return nil, err
	}
	return []byte(p.cmdline), nil
}

func (d *Directory) OpenMemory(pid process.ProcessID) (process.MemoryImage, error) {
	p, err := d.get(pid)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.MemErr != nil {
		return nil, p.MemErr
	}
	return &image{dir: d, pid: pid, proc: p}, nil
}

// Map appends a raw maps line.
func (p *Process) Map(line string) *Process {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.maps = append(p.maps, line)
	return p
}

// Region appends a maps line for [start, end) with perms and zero-fills it.
func (p *Process) Region(start, end uint64, perms string) *Process {
	p.Map(fmt.Sprintf("%08x-%08x %s 00000000 00:00 0", start, end, perms))
	p.mu.Lock()
	defer p.mu.Unlock()
	for a := start; a < end; a++ {
		if _, ok := p.mem[a]; !ok {
			p.mem[a] = 0
		}
	}
	return p
}

// ClearMaps drops every maps line. Memory contents are kept.
func (p *Process) ClearMaps() *Process {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.maps = nil
	return p
}

// PutUint32 stores v at addr in little-endian order.
func (p *Process) PutUint32(addr uint64, v uint32) *Process {
	return p.PutUint32Order(addr, v, binary.LittleEndian)
}

// PutUint32Order stores v at addr in the given byte order.
func (p *Process) PutUint32Order(addr uint64, v uint32, order binary.ByteOrder) *Process {
	var b [4]byte
	order.PutUint32(b[:], v)
	return p.Write(addr, b[:])
}

// Write stores raw bytes at addr, backing them even outside any region.
func (p *Process) Write(addr uint64, data []byte) *Process {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, b := range data {
		p.mem[addr+uint64(i)] = b
	}
	return p
}

// image reads from the sparse memory of a fake process. Bytes that were
// never written are absent; reading them stops the read short.
type image struct {
	dir  *Directory
	pid  process.ProcessID
	proc *Process
}

func (img *image) ReadAt(b []byte, off int64) (int, error) {
	if !img.dir.Exists(img.pid) {
		return 0, fmt.Errorf("pid %d: %w", img.pid, process.ErrProcessGone)
	}
	if off < 0 {
		return 0, fmt.Errorf("negative offset %d", off)
	}

	img.proc.mu.Lock()
	defer img.proc.mu.Unlock()

	if img.proc.ReadErr != nil {
		return 0, img.proc.ReadErr
	}
	for i := range b {
		v, ok := img.proc.mem[uint64(off)+uint64(i)]
		if !ok {
			return i, io.EOF
		}
		b[i] = v
	}
	return len(b), nil
}

func (img *image) Close() error {
	return nil
}
