package process

import "strings"

// Discover opens every pid the directory lists. Pids that exit between
// listing and opening are skipped.
func Discover(dir ProcessDirectory) ([]Process, error) {
	pids, err := dir.ListPIDs()
	if err != nil {
		return nil, err
	}

	procs := make([]Process, 0, len(pids))
	for _, pid := range pids {
		p, ok := Open(dir, pid)
		if !ok {
			continue
		}
		procs = append(procs, p)
	}
	return procs, nil
}

// FindByNameSubstring returns the first process whose display name contains
// needle. Processes whose name cannot be read are skipped.
func FindByNameSubstring(candidates []Process, needle string) (Process, bool) {
	for _, p := range candidates {
		name, err := p.DisplayName()
		if err != nil {
			continue
		}
		if strings.Contains(name, needle) {
			return p, true
		}
	}
	return nil, false
}

// List returns pid and display name for each process. Unreadable names are
// replaced with "<<unknown>>".
func List(procs []Process) []ProcessInfo {
	infos := make([]ProcessInfo, 0, len(procs))
	for _, p := range procs {
		name, err := p.DisplayName()
		if err != nil {
			name = "<<unknown>>"
		}
		infos = append(infos, ProcessInfo{PID: p.GetPID(), Name: name})
	}
	return infos
}
