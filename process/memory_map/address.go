package memory_map

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrNotHex is returned when an address token contains a character that is not a hex digit.
	ErrNotHex = errors.New("address is not hex")

	// ErrOverflow is returned when an address token does not fit in 64 bits.
	ErrOverflow = errors.New("address overflows 64 bits")

	// ErrBadRange is returned for a range token without a single '-' separator,
	// with unparsable bounds, or with start > end.
	ErrBadRange = errors.New("bad address range")
)

// Address is a virtual memory location inside a process
type Address uint64

// ParseAddress parses a base-16 address without prefix or sign
func ParseAddress(text string) (Address, error) {
	v, err := strconv.ParseUint(text, 16, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return 0, fmt.Errorf("%q: %w", text, ErrOverflow)
		}
		return 0, fmt.Errorf("%q: %w", text, ErrNotHex)
	}
	return Address(v), nil
}

// String renders the address as 16 zero-padded lowercase hex digits.
func (a Address) String() string {
	return fmt.Sprintf("%016x", uint64(a))
}

// ToString matches the 0x-prefixed form used in log lines.
func (a Address) ToString() string {
	return fmt.Sprintf("0x%X", uint64(a))
}

// AddressRange is the [Start, End] span of one mapping. End is the first
// byte past the mapping as reported by the kernel.
type AddressRange struct {
	Start Address
	End   Address
}

// ParseAddressRange parses "start-end". Both bounds must be hex and start <= end.
func ParseAddressRange(text string) (AddressRange, error) {
	parts := strings.Split(text, "-")
	if len(parts) != 2 {
		return AddressRange{}, fmt.Errorf("%q: missing separator: %w", text, ErrBadRange)
	}

	start, err := ParseAddress(parts[0])
	if err != nil {
		return AddressRange{}, fmt.Errorf("start of %q: %w: %w", text, ErrBadRange, err)
	}

	end, err := ParseAddress(parts[1])
	if err != nil {
		return AddressRange{}, fmt.Errorf("end of %q: %w: %w", text, ErrBadRange, err)
	}

	if start > end {
		return AddressRange{}, fmt.Errorf("%q: start after end: %w", text, ErrBadRange)
	}

	return AddressRange{Start: start, End: end}, nil
}

// Contains reports whether addr lies in the range, both bounds inclusive.
func (r AddressRange) Contains(addr Address) bool {
	return addr >= r.Start && addr <= r.End
}

// Size is the number of bytes between Start and End.
func (r AddressRange) Size() uint64 {
	return uint64(r.End - r.Start)
}

func (r AddressRange) String() string {
	return fmt.Sprintf("%08x-%08x", uint64(r.Start), uint64(r.End))
}
