package format

import "math/bits"

// Alignment utilities for block sizes. Alignments are powers of two.

// AlignUp returns n rounded up to the next multiple of align.
//
// Example:
//
//	AlignUp(1, 16)  = 16
//	AlignUp(16, 16) = 16
//	AlignUp(17, 8)  = 24
func AlignUp(n, align uint64) uint64 {
	mask := align - 1
	return (n + mask) &^ mask
}

// ValidAlignment reports whether align can be used by an arena.
func ValidAlignment(align int) bool {
	return align >= MinAlignment && align <= MaxAlignment && align&(align-1) == 0
}

// AlignShift encodes a valid alignment as its log2 for the header byte.
func AlignShift(align int) uint8 {
	return uint8(bits.TrailingZeros(uint(align)))
}

// AlignFromShift decodes the header alignment byte.
func AlignFromShift(shift uint8) int {
	return 1 << shift
}
