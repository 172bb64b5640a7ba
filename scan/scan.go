// Package scan finds the addresses of a 32-bit value in another process and
// narrows them down as the value changes.
package scan

import (
	"errors"
	"fmt"

	"valscan/process"
	"valscan/process/memory_map"
)

var (
	// ErrNoReadableRegions is returned when a pass finds nothing it is allowed to read.
	ErrNoReadableRegions = errors.New("no readable regions")

	// ErrNotScanning is returned by Narrow before a first scan completed.
	ErrNotScanning = errors.New("no candidate set yet")
)

// WordSource reads words from the memory image of the target.
// *process.WordReader is the production implementation.
type WordSource interface {
	ReadRegion(region memory_map.MemoryRegion, fn func(addr process.ProcessMemoryAddress, value uint32)) error
	ReadRegionWord(region memory_map.MemoryRegion, addr process.ProcessMemoryAddress) (uint32, bool, error)
}

// Stats describes the work done by one pass
type Stats struct {
	Regions        int    // readable regions considered
	RegionsFaulted int    // regions skipped because the OS refused the read
	BytesScanned   uint64 // bytes read by a first scan
	Dropped        int    // candidates dropped by a narrowing scan
}

// FirstScan reads every aligned word of every readable region and returns
// the addresses holding target. An empty result is not an error, but a pass
// in which every readable region faulted fails with ErrMemoryUnavailable.
func FirstScan(regions []memory_map.MemoryRegion, src WordSource, target uint32) (Candidates, Stats, error) {
	var stats Stats
	var found []process.ProcessMemoryAddress
	var regionHits []process.ProcessMemoryAddress

	for _, region := range regions {
		if !region.IsReadable() {
			continue
		}
		stats.Regions++

		regionHits = regionHits[:0]
		err := src.ReadRegion(region, func(addr process.ProcessMemoryAddress, value uint32) {
			if value == target {
				regionHits = append(regionHits, addr)
			}
		})
		if err != nil {
			if errors.Is(err, process.ErrRegionFault) {
				stats.RegionsFaulted++
				continue
			}
			return nil, stats, fmt.Errorf("region %s: %w", region.Range, err)
		}

		stats.BytesScanned += region.Size()
		found = append(found, regionHits...)
	}

	if stats.Regions == 0 {
		return nil, stats, ErrNoReadableRegions
	}
	if stats.RegionsFaulted == stats.Regions {
		return nil, stats, fmt.Errorf("all %d readable regions faulted: %w", stats.Regions, process.ErrMemoryUnavailable)
	}

	return newCandidates(found), stats, nil
}

// Narrow re-reads every address of previous and keeps those that now hold
// target. Addresses outside every readable region are dropped. The result
// is always a subset of previous.
func Narrow(previous Candidates, regions []memory_map.MemoryRegion, src WordSource, target uint32) (Candidates, Stats, error) {
	var stats Stats

	readable := make([]memory_map.MemoryRegion, 0, len(regions))
	for _, region := range regions {
		if region.IsReadable() {
			readable = append(readable, region)
		}
	}
	stats.Regions = len(readable)
	if stats.Regions == 0 {
		return nil, stats, ErrNoReadableRegions
	}
	readable = memory_map.SortByAddress(readable)

	current := make(Candidates, 0, len(previous))
	for _, addr := range previous {
		region := memory_map.FindRegion(addr, readable)
		if region == nil {
			stats.Dropped++
			continue
		}

		value, ok, err := src.ReadRegionWord(*region, addr)
		if err != nil {
			if errors.Is(err, process.ErrRegionFault) {
				stats.Dropped++
				continue
			}
			return nil, stats, fmt.Errorf("candidate %s: %w", addr.ToString(), err)
		}
		if !ok || value != target {
			stats.Dropped++
			continue
		}
		current = append(current, addr)
	}

	return current, stats, nil
}
