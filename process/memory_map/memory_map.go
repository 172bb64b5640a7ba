package memory_map

import (
	"bufio"
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// MemoryRegion is one line of /proc/[pid]/maps
type MemoryRegion struct {
	Range    AddressRange // [start, end) of the mapping
	Perms    Permissions
	Offset   Address // offset into the backing file, never dereferenced
	Device   string  // major:minor
	Inode    uint64
	Pathname string // empty for anonymous mappings
}

// String returns the region as a canonical maps line
func (r MemoryRegion) String() string {
	line := fmt.Sprintf("%s %s %08x %s %d", r.Range, r.Perms, uint64(r.Offset), r.Device, r.Inode)
	if r.Pathname != "" {
		line += " " + r.Pathname
	}
	return line
}

func (r MemoryRegion) IsReadable() bool {
	return r.Perms.Read
}

func (r MemoryRegion) IsWritable() bool {
	return r.Perms.Write
}

// Size returns the size of the region in bytes
func (r MemoryRegion) Size() uint64 {
	return r.Range.Size()
}

// ParseMemoryRegion parses one maps line. It returns false for empty or
// malformed lines so that callers can skip them.
//
// Field order: address-range perms offset dev inode [pathname]
func ParseMemoryRegion(line string) (MemoryRegion, bool) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return MemoryRegion{}, false
	}

	addrRange, err := ParseAddressRange(fields[0])
	if err != nil {
		return MemoryRegion{}, false
	}

	perms, err := ParsePermissions(fields[1])
	if err != nil {
		return MemoryRegion{}, false
	}

	offset, err := ParseAddress(fields[2])
	if err != nil {
		return MemoryRegion{}, false
	}

	region := MemoryRegion{
		Range:  addrRange,
		Perms:  perms,
		Offset: offset,
	}

	if len(fields) > 3 {
		region.Device = fields[3]
	}
	if len(fields) > 4 {
		// inode is metadata only; a garbled value is left at zero
		region.Inode, _ = strconv.ParseUint(fields[4], 10, 64)
	}
	if len(fields) > 5 {
		// keep suffixes such as " (deleted)" with the path
		region.Pathname = strings.Join(fields[5:], " ")
	}

	return region, true
}

// ParseMemoryMap parses a whole maps table, skipping lines that do not parse.
// File order is preserved.
func ParseMemoryMap(data []byte) ([]MemoryRegion, error) {
	var regions []MemoryRegion

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	for scanner.Scan() {
		region, ok := ParseMemoryRegion(scanner.Text())
		if !ok {
			continue
		}
		regions = append(regions, region)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return regions, nil
}

// SortByAddress returns a copy of regions ordered by start address.
func SortByAddress(regions []MemoryRegion) []MemoryRegion {
	sorted := make([]MemoryRegion, len(regions))
	copy(sorted, regions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Range.Start < sorted[j].Range.Start
	})
	return sorted
}

// FindRegion returns the region containing addr. regions must be sorted by start address.
// When addr is the end bound of one region and the start of the next, the next one wins.
func FindRegion(addr Address, regions []MemoryRegion) *MemoryRegion {
	i := sort.Search(len(regions), func(i int) bool {
		return regions[i].Range.End >= addr
	})

	var edge *MemoryRegion
	for ; i < len(regions) && regions[i].Range.Start <= addr; i++ {
		if addr < regions[i].Range.End {
			return &regions[i]
		}
		if edge == nil && regions[i].Range.Contains(addr) {
			edge = &regions[i]
		}
	}
	return edge
}
