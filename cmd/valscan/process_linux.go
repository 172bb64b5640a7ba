package main

import (
	"fmt"

	"valscan/config"
	"valscan/process"
	"valscan/process_linux"
)

func newDirectory(c *config.Config) process.ProcessDirectory {
	return process_linux.New(
		process_linux.WithRoot(c.ProcRoot),
		process_linux.WithMemorySource(process_linux.MemorySource(c.MemorySource)),
	)
}

// getProcess resolves the target either by pid or by a command line substring.
func getProcess(dir process.ProcessDirectory, pid int, name string) (process.Process, error) {
	if pid != 0 {
		return process.Attach(dir, process.ProcessID(pid))
	}

	if name == "" {
		return nil, fmt.Errorf("either --pid or --name is required")
	}

	procs, err := process.Discover(dir)
	if err != nil {
		return nil, err
	}
	p, ok := process.FindByNameSubstring(procs, name)
	if !ok {
		return nil, fmt.Errorf("no process found with command line containing '%s'", name)
	}
	return p, nil
}
