package memory_map

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMaps = `55d4c8a00000-55d4c8a02000 r--p 00000000 08:01 1835066                    /usr/bin/cat
55d4c8a02000-55d4c8a07000 r-xp 00002000 08:01 1835066                    /usr/bin/cat
55d4c9f4e000-55d4c9f6f000 rw-p 00000000 00:00 0                          [heap]
7f1c2a000000-7f1c2a021000 rw-p 00000000 00:00 0
this line is garbage
7f1c2a200000-7f1c2a201000 rw-s 00000000 00:05 42                         /memfd:shm (deleted)
7ffd1e4e2000-7ffd1e503000 rw-p 00000000 00:00 0                          [stack]
ffffffffff600000-ffffffffff601000 --xp 00000000 00:00 0                  [vsyscall]
`

func TestParseMemoryRegion(t *testing.T) {
	region, ok := ParseMemoryRegion("55d4c8a02000-55d4c8a07000 r-xp 00002000 08:01 1835066    /usr/bin/cat")
	require.True(t, ok)

	assert.Equal(t, Address(0x55d4c8a02000), region.Range.Start)
	assert.Equal(t, Address(0x55d4c8a07000), region.Range.End)
	assert.Equal(t, Permissions{Read: true, Execute: true, Private: true}, region.Perms)
	assert.Equal(t, Address(0x2000), region.Offset)
	assert.Equal(t, "08:01", region.Device)
	assert.Equal(t, uint64(1835066), region.Inode)
	assert.Equal(t, "/usr/bin/cat", region.Pathname)
	assert.Equal(t, uint64(0x5000), region.Size())

	line := region.String()
	assert.Equal(t, "55d4c8a02000-55d4c8a07000 r-xp 00002000 08:01 1835066 /usr/bin/cat", line)

	again, ok := ParseMemoryRegion(line)
	require.True(t, ok)
	assert.Equal(t, region, again)
}

func TestParseMemoryRegionAnonymous(t *testing.T) {
	region, ok := ParseMemoryRegion("7f1c2a000000-7f1c2a021000 rw-p 00000000 00:00 0")
	require.True(t, ok)
	assert.Empty(t, region.Pathname)
	assert.True(t, region.IsReadable())
	assert.True(t, region.IsWritable())
}

func TestParseMemoryRegionRejects(t *testing.T) {
	for _, line := range []string{
		"",
		"   ",
		"55d4c8a02000-55d4c8a07000",
		"55d4c8a02000-55d4c8a07000 r-xp",
		"55d4c8a07000-55d4c8a02000 r-xp 00002000 08:01 1835066 /usr/bin/cat",
		"55d4c8a02000 r-xp 00002000 08:01 1835066 /usr/bin/cat",
		"55d4c8a02000-55d4c8a07000 r-x 00002000 08:01 1835066 /usr/bin/cat",
		"55d4c8a02000-55d4c8a07000 r-xp 0000z000 08:01 1835066 /usr/bin/cat",
	} {
		_, ok := ParseMemoryRegion(line)
		assert.False(t, ok, line)
	}
}

func TestParseMemoryMap(t *testing.T) {
	regions, err := ParseMemoryMap([]byte(sampleMaps))
	require.NoError(t, err)
	require.Len(t, regions, 7)

	assert.Equal(t, "/usr/bin/cat", regions[0].Pathname)
	assert.Equal(t, "[heap]", regions[2].Pathname)
	assert.Empty(t, regions[3].Pathname)
	assert.Equal(t, "/memfd:shm (deleted)", regions[4].Pathname)
	assert.True(t, regions[4].Perms.Shared)
	assert.Equal(t, "[vsyscall]", regions[6].Pathname)
	assert.False(t, regions[6].IsReadable())
}

func TestFindRegion(t *testing.T) {
	regions := []MemoryRegion{
		{Range: AddressRange{Start: 0x1000, End: 0x2000}},
		{Range: AddressRange{Start: 0x2000, End: 0x3000}},
		{Range: AddressRange{Start: 0x5000, End: 0x6000}},
	}

	tests := []struct {
		addr  Address
		start Address
		found bool
	}{
		{addr: 0x0fff},
		{addr: 0x1000, start: 0x1000, found: true},
		{addr: 0x1ffc, start: 0x1000, found: true},
		{addr: 0x2000, start: 0x2000, found: true},
		{addr: 0x3000, start: 0x2000, found: true},
		{addr: 0x3004},
		{addr: 0x6000, start: 0x5000, found: true},
		{addr: 0x6001},
	}

	for _, tt := range tests {
		got := FindRegion(tt.addr, regions)
		if !tt.found {
			assert.Nil(t, got, tt.addr.ToString())
			continue
		}
		require.NotNil(t, got, tt.addr.ToString())
		assert.Equal(t, tt.start, got.Range.Start, tt.addr.ToString())
	}
}

func TestSortByAddress(t *testing.T) {
	regions := []MemoryRegion{
		{Range: AddressRange{Start: 0x5000, End: 0x6000}},
		{Range: AddressRange{Start: 0x1000, End: 0x2000}},
	}
	sorted := SortByAddress(regions)
	assert.Equal(t, Address(0x1000), sorted[0].Range.Start)
	assert.Equal(t, Address(0x5000), regions[0].Range.Start)
}
