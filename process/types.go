package process

// ProcessID represents a unique identifier for a process
type ProcessID int

// ProcessInfo is what process listings show for one pid
type ProcessInfo struct {
	PID  ProcessID // Process ID
	Name string    // Command line, NUL separators replaced by spaces
}
