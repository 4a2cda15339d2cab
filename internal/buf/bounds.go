// Package buf contains overflow-safe offset arithmetic and bounds-checked
// views over an arena span. Every offset read from the arena is untrusted:
// a corrupted descriptor can hold any 64-bit value.
package buf

import (
	"fmt"
	"math"
	"math/bits"
)

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow uint64.
func AddOverflowSafe(a, b uint64) (uint64, bool) {
	sum, carry := bits.Add64(a, b, 0)
	return sum, carry == 0
}

// MulOverflowSafe multiplies a and b, returning ok = false when the result would overflow uint64.
// This guards count * elementSize calculations such as Calloc.
func MulOverflowSafe(a, b uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a, b)
	return lo, hi == 0
}

// IntSize converts a non-negative int to uint64, returning ok = false for negative values.
func IntSize(n int) (uint64, bool) {
	if n < 0 {
		return 0, false
	}
	return uint64(n), true
}

// ToInt converts a uint64 size to int, returning ok = false when it does not fit.
func ToInt(n uint64) (int, bool) {
	if n > math.MaxInt {
		return 0, false
	}
	return int(n), true
}

// CheckRange validates that n bytes starting at off fit in a span of spanLen
// bytes. Returns the end offset if valid, or an error describing the specific
// failure (overflow or out of bounds).
//
//	end, err := buf.CheckRange(uint64(len(mem)), off, format.DescriptorSize)
//	if err != nil {
//	    return fmt.Errorf("descriptor: %w", err)
//	}
func CheckRange(spanLen, off, n uint64) (uint64, error) {
	end, ok := AddOverflowSafe(off, n)
	if !ok {
		return 0, fmt.Errorf("overflow: offset=%d + size=%d", off, n)
	}
	if end > spanLen {
		return 0, fmt.Errorf("bounds: end=%d > len=%d", end, spanLen)
	}
	return end, nil
}

// Slice returns the sub-slice [off:off+n] if it fits within len(b).
func Slice(b []byte, off, n uint64) ([]byte, bool) {
	end, err := CheckRange(uint64(len(b)), off, n)
	if err != nil {
		return nil, false
	}
	return b[off:end:end], true
}

// Has reports whether b[off:off+n] is within bounds.
func Has(b []byte, off, n uint64) bool {
	_, err := CheckRange(uint64(len(b)), off, n)
	return err == nil
}
