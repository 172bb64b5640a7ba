package scan

import (
	"slices"

	"valscan/process"
)

// Candidates is the set of addresses still believed to hold the searched value.
// It is kept sorted and free of duplicates.
type Candidates []process.ProcessMemoryAddress

// newCandidates sorts and de-duplicates addrs in place.
func newCandidates(addrs []process.ProcessMemoryAddress) Candidates {
	slices.Sort(addrs)
	return Candidates(slices.Compact(addrs))
}

func (c Candidates) Len() int {
	return len(c)
}

// Contains reports whether addr is in the set
func (c Candidates) Contains(addr process.ProcessMemoryAddress) bool {
	_, found := slices.BinarySearch(c, addr)
	return found
}

// IsSubsetOf reports whether every address of c is also in other
func (c Candidates) IsSubsetOf(other Candidates) bool {
	for _, addr := range c {
		if !other.Contains(addr) {
			return false
		}
	}
	return true
}

// Clone returns an independent copy
func (c Candidates) Clone() Candidates {
	return slices.Clone(c)
}
