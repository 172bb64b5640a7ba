// Package process models a target process, its memory map and raw reads of its memory.
package process

import "errors"

var (
	// ErrInvalidPID is returned for pid 0 or negative pids.
	ErrInvalidPID = errors.New("invalid pid")

	// ErrProcessGone is returned when the target no longer exists in the process table.
	ErrProcessGone = errors.New("process no longer available")

	// ErrMapsUnavailable is returned when the memory map of a process cannot be read.
	ErrMapsUnavailable = errors.New("memory map unavailable")

	// ErrMemoryUnavailable is returned when the memory image of a process cannot be opened or reading it is refused.
	ErrMemoryUnavailable = errors.New("memory image unavailable")

	// ErrTruncatedRead is returned when fewer bytes than requested exist at an address.
	ErrTruncatedRead = errors.New("truncated read")

	// ErrRegionFault is returned when the OS refuses a read inside a mapped region.
	ErrRegionFault = errors.New("region read fault")
)
