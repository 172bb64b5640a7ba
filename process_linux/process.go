//go:build linux

package process_linux

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"valscan/process"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// DefaultRoot is where procfs is normally mounted
const DefaultRoot = "/proc"

// MemorySource selects how OpenMemory reads another process
type MemorySource string

const (
	// MemorySourceFile reads through /proc/[pid]/mem
	MemorySourceFile MemorySource = "mem"

	// MemorySourceVMReadv reads with the process_vm_readv syscall
	MemorySourceVMReadv MemorySource = "vm_readv"
)

// ProcFS implements the process.ProcessDirectory interface on top of procfs
type ProcFS struct {
	root   string
	source MemorySource
	self   process.ProcessID
	log    *logger.Logger
}

// Option configures a ProcFS
type Option func(*ProcFS)

// WithRoot points the directory at another procfs mount (or a fake tree in tests)
func WithRoot(root string) Option {
	return func(p *ProcFS) {
		p.root = root
	}
}

// WithMemorySource selects the memory image implementation
func WithMemorySource(source MemorySource) Option {
	return func(p *ProcFS) {
		p.source = source
	}
}

// New creates a ProcFS rooted at /proc reading memory through /proc/[pid]/mem
func New(options ...Option) process.ProcessDirectory {
	p := &ProcFS{
		root:   DefaultRoot,
		source: MemorySourceFile,
		self:   process.ProcessID(os.Getpid()),
	}
	for _, opt := range options {
		opt(p)
	}

	p.log = logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "procfs"))
	p.log.Debugln("Using", p.root, "with memory source", string(p.source))

	return p
}

func (p *ProcFS) pidPath(pid process.ProcessID, name string) string {
	return filepath.Join(p.root, strconv.Itoa(int(pid)), name)
}

// ReadMaps returns the contents of /proc/[pid]/maps
func (p *ProcFS) ReadMaps(pid process.ProcessID) ([]byte, error) {
	return os.ReadFile(p.pidPath(pid, "maps"))
}

// ReadCmdline returns the contents of /proc/[pid]/cmdline
func (p *ProcFS) ReadCmdline(pid process.ProcessID) ([]byte, error) {
	return os.ReadFile(p.pidPath(pid, "cmdline"))
}

// OpenMemory opens the memory image of pid using the configured source
func (p *ProcFS) OpenMemory(pid process.ProcessID) (process.MemoryImage, error) {
	switch p.source {
	case MemorySourceVMReadv:
		if !p.Exists(pid) {
			return nil, fmt.Errorf("pid %d: %w", pid, process.ErrProcessGone)
		}
		return &vmImage{pid: pid}, nil
	case MemorySourceFile, "":
		f, err := os.Open(p.pidPath(pid, "mem"))
		if err != nil {
			return nil, err
		}
		return f, nil
	default:
		return nil, fmt.Errorf("unknown memory source %q", p.source)
	}
}
