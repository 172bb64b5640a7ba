package scan

import (
	"fmt"
	"math/rand"
	"testing"

	"valscan/process"
	"valscan/process/memory_map"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWords is a WordSource over a map of word values. Addresses missing
// from the map read as zero; addresses in faults fail with ErrRegionFault.
type fakeWords struct {
	words  map[process.ProcessMemoryAddress]uint32
	faults map[process.ProcessMemoryAddress]bool
}

func (f *fakeWords) ReadRegion(region memory_map.MemoryRegion, fn func(process.ProcessMemoryAddress, uint32)) error {
	if !region.IsReadable() {
		return nil
	}
	if f.faults[region.Range.Start] {
		return fmt.Errorf("region %s: %w", region.Range, process.ErrRegionFault)
	}
	for addr := region.Range.Start; addr+process.WordSize <= region.Range.End; addr += process.WordSize {
		fn(addr, f.words[addr])
	}
	return nil
}

func (f *fakeWords) ReadRegionWord(region memory_map.MemoryRegion, addr process.ProcessMemoryAddress) (uint32, bool, error) {
	if !region.IsReadable() || addr < region.Range.Start || addr+process.WordSize > region.Range.End {
		return 0, false, nil
	}
	if f.faults[addr] {
		return 0, false, fmt.Errorf("%s: %w", addr.ToString(), process.ErrRegionFault)
	}
	return f.words[addr], true, nil
}

func mkRegion(start, end uint64, perms string) memory_map.MemoryRegion {
	p, _ := memory_map.ParsePermissions(perms)
	return memory_map.MemoryRegion{
		Range: memory_map.AddressRange{Start: memory_map.Address(start), End: memory_map.Address(end)},
		Perms: p,
	}
}

func TestFirstScan(t *testing.T) {
	src := &fakeWords{words: map[process.ProcessMemoryAddress]uint32{
		0x1000: 42,
		0x1004: 7,
		0x2000: 42,
		0x3000: 42, // unreadable region
		0x1ffc: 42, // last word of the first region
	}}
	regions := []memory_map.MemoryRegion{
		mkRegion(0x2000, 0x2100, "rw-p"),
		mkRegion(0x1000, 0x2000, "r--p"),
		mkRegion(0x3000, 0x3100, "---p"),
	}

	found, stats, err := FirstScan(regions, src, 42)
	require.NoError(t, err)
	assert.Equal(t, Candidates{0x1000, 0x1ffc, 0x2000}, found)
	assert.Equal(t, 2, stats.Regions)
	assert.Equal(t, uint64(0x1100), stats.BytesScanned)
}

func TestFirstScanNoMatches(t *testing.T) {
	src := &fakeWords{words: map[process.ProcessMemoryAddress]uint32{0x1000: 1}}

	found, _, err := FirstScan([]memory_map.MemoryRegion{mkRegion(0x1000, 0x1100, "rw-p")}, src, 99)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestFirstScanNoReadableRegions(t *testing.T) {
	src := &fakeWords{}

	_, _, err := FirstScan([]memory_map.MemoryRegion{mkRegion(0x1000, 0x1100, "-w-p")}, src, 0)
	assert.ErrorIs(t, err, ErrNoReadableRegions)

	_, _, err = FirstScan(nil, src, 0)
	assert.ErrorIs(t, err, ErrNoReadableRegions)
}

func TestFirstScanSkipsFaultingRegions(t *testing.T) {
	src := &fakeWords{
		words:  map[process.ProcessMemoryAddress]uint32{0x1000: 5, 0x2000: 5},
		faults: map[process.ProcessMemoryAddress]bool{0x2000: true},
	}
	regions := []memory_map.MemoryRegion{
		mkRegion(0x1000, 0x1100, "rw-p"),
		mkRegion(0x2000, 0x2100, "r--p"),
	}

	found, stats, err := FirstScan(regions, src, 5)
	require.NoError(t, err)
	assert.Equal(t, Candidates{0x1000}, found)
	assert.Equal(t, 1, stats.RegionsFaulted)
}

func TestFirstScanEveryRegionFaulted(t *testing.T) {
	src := &fakeWords{
		faults: map[process.ProcessMemoryAddress]bool{0x1000: true, 0x2000: true},
	}
	regions := []memory_map.MemoryRegion{
		mkRegion(0x1000, 0x1100, "rw-p"),
		mkRegion(0x2000, 0x2100, "r--p"),
		mkRegion(0x3000, 0x3100, "---p"),
	}

	found, stats, err := FirstScan(regions, src, 0)
	assert.ErrorIs(t, err, process.ErrMemoryUnavailable)
	assert.Nil(t, found)
	assert.Equal(t, 2, stats.RegionsFaulted)
}

func TestNarrow(t *testing.T) {
	src := &fakeWords{
		words: map[process.ProcessMemoryAddress]uint32{
			0x1000: 43,
			0x1004: 42,
			0x2000: 43,
			0x3000: 43,
			0x4000: 43,
		},
		faults: map[process.ProcessMemoryAddress]bool{0x4000: true},
	}
	regions := []memory_map.MemoryRegion{
		mkRegion(0x4000, 0x4100, "rw-p"),
		mkRegion(0x1000, 0x1100, "rw-p"),
		mkRegion(0x2000, 0x2100, "r--p"),
		mkRegion(0x3000, 0x3100, "---p"),
	}

	previous := Candidates{0x1000, 0x1004, 0x2000, 0x3000, 0x4000, 0x5000}
	current, stats, err := Narrow(previous, regions, src, 43)
	require.NoError(t, err)
	// 0x1004 changed, 0x3000 unreadable, 0x4000 faults, 0x5000 unmapped
	assert.Equal(t, Candidates{0x1000, 0x2000}, current)
	assert.Equal(t, 4, stats.Dropped)
}

func TestNarrowNoReadableRegions(t *testing.T) {
	_, _, err := Narrow(Candidates{0x1000}, []memory_map.MemoryRegion{mkRegion(0x1000, 0x1100, "---p")}, &fakeWords{}, 0)
	assert.ErrorIs(t, err, ErrNoReadableRegions)
}

func TestNarrowMonotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	regions := []memory_map.MemoryRegion{
		mkRegion(0x1000, 0x1400, "rw-p"),
		mkRegion(0x8000, 0x8400, "rw-p"),
	}

	src := &fakeWords{words: map[process.ProcessMemoryAddress]uint32{}}
	randomize := func() {
		for _, r := range regions {
			for addr := r.Range.Start; addr < r.Range.End; addr += process.WordSize {
				src.words[addr] = uint32(rng.Intn(3))
			}
		}
	}

	randomize()
	prev, _, err := FirstScan(regions, src, 1)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		randomize()
		cur, _, err := Narrow(prev, regions, src, uint32(rng.Intn(3)))
		require.NoError(t, err)
		assert.True(t, cur.IsSubsetOf(prev), "pass %d", i)
		assert.LessOrEqual(t, cur.Len(), prev.Len())
		prev = cur
	}
}
