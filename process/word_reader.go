package process

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"valscan/process/memory_map"
)

// regionChunkSize bounds one positioned read while walking a region
const regionChunkSize = 4096 << 4

// WordReader reads 32-bit words from one open memory image. The byte order
// is fixed for the lifetime of the reader.
type WordReader struct {
	img   MemoryImage
	order binary.ByteOrder
	word  [WordSize]byte
	chunk []byte
}

// NewWordReader wraps an open image. The caller keeps ownership of img.
func NewWordReader(img MemoryImage, order binary.ByteOrder) *WordReader {
	return &WordReader{img: img, order: order}
}

// ReadWord reads the word at addr without consulting any region.
func (r *WordReader) ReadWord(addr ProcessMemoryAddress) (uint32, error) {
	if err := r.readAt(r.word[:], addr); err != nil {
		return 0, err
	}
	return r.order.Uint32(r.word[:]), nil
}

// ReadRegionWord reads the word at addr if region allows it. It returns
// false with a nil error when the region is not readable or the word does
// not fit between addr and the region end.
func (r *WordReader) ReadRegionWord(region memory_map.MemoryRegion, addr ProcessMemoryAddress) (uint32, bool, error) {
	if !region.IsReadable() || !wordFits(region, addr) {
		return 0, false, nil
	}
	v, err := r.ReadWord(addr)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

// ReadRegion calls fn for every aligned word from the region start up to,
// not including, the region end. Unreadable regions yield nothing.
func (r *WordReader) ReadRegion(region memory_map.MemoryRegion, fn func(addr ProcessMemoryAddress, value uint32)) error {
	if !region.IsReadable() {
		return nil
	}

	if r.chunk == nil {
		r.chunk = make([]byte, regionChunkSize)
	}

	cursor := region.Range.Start
	for cursor < region.Range.End && uint64(region.Range.End-cursor) >= WordSize {
		n := uint64(region.Range.End - cursor)
		if n > regionChunkSize {
			n = regionChunkSize
		}
		n -= n % WordSize

		buf := r.chunk[:n]
		if err := r.readAt(buf, cursor); err != nil {
			return err
		}

		for off := uint64(0); off < n; off += WordSize {
			fn(cursor+ProcessMemoryAddress(off), r.order.Uint32(buf[off:off+WordSize]))
		}
		cursor += ProcessMemoryAddress(n)
	}
	return nil
}

// readAt fills buf from addr. Short reads become ErrTruncatedRead and a
// refused permission becomes ErrMemoryUnavailable. Other OS errors become
// ErrRegionFault.
func (r *WordReader) readAt(buf []byte, addr ProcessMemoryAddress) error {
	n, err := r.img.ReadAt(buf, int64(addr))
	if n == len(buf) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%s: %d of %d bytes: %w", addr.ToString(), n, len(buf), ErrTruncatedRead)
	}
	if errors.Is(err, ErrProcessGone) || errors.Is(err, ErrMemoryUnavailable) {
		return err
	}
	if errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%s: %w: %w", addr.ToString(), ErrMemoryUnavailable, err)
	}
	return fmt.Errorf("%s: %w: %w", addr.ToString(), ErrRegionFault, err)
}

func wordFits(region memory_map.MemoryRegion, addr ProcessMemoryAddress) bool {
	if addr < region.Range.Start || addr >= region.Range.End {
		return false
	}
	return uint64(region.Range.End-addr) >= WordSize
}

// ErrNotMapped is returned when an address lies in no readable region or
// its word would cross the region end.
var ErrNotMapped = errors.New("address not in a readable region")

// RegionReader reads single words of a process through the permission and
// bounds gate of the region holding them. The regions are captured once
// when the reader is opened.
type RegionReader struct {
	img     MemoryImage
	reader  *WordReader
	regions []memory_map.MemoryRegion
}

// OpenRegionReader reads the current memory map of p and opens its memory image.
func OpenRegionReader(p Process, order binary.ByteOrder) (*RegionReader, error) {
	regions, err := p.Regions()
	if err != nil {
		return nil, err
	}

	img, err := p.OpenMemory()
	if err != nil {
		return nil, err
	}

	return &RegionReader{
		img:     img,
		reader:  NewWordReader(img, order),
		regions: memory_map.SortByAddress(regions),
	}, nil
}

// Word returns the word at addr. Addresses outside every readable region
// fail with ErrNotMapped without touching the image.
func (r *RegionReader) Word(addr ProcessMemoryAddress) (uint32, error) {
	region := memory_map.FindRegion(addr, r.regions)
	if region == nil {
		return 0, fmt.Errorf("%s: %w", addr.ToString(), ErrNotMapped)
	}

	v, ok, err := r.reader.ReadRegionWord(*region, addr)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%s: %w", addr.ToString(), ErrNotMapped)
	}
	return v, nil
}

func (r *RegionReader) Close() error {
	return r.img.Close()
}

// ReadWord reads one word of p at addr through a fresh RegionReader.
func ReadWord(p Process, addr ProcessMemoryAddress, order binary.ByteOrder) (uint32, error) {
	r, err := OpenRegionReader(p, order)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	return r.Word(addr)
}
