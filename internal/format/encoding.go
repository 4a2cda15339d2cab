package format

import "encoding/binary"

// Binary encoding utilities for little-endian integers.
//
// Implementation: Uses encoding/binary.LittleEndian. The compiler inlines
// these calls; callers bounds-check offsets through internal/buf before
// reaching here.

// PutU64 writes a uint64 value to the buffer at the specified offset in little-endian format.
func PutU64(b []byte, off uint64, v uint64) {
	binary.LittleEndian.PutUint64(b[off:off+8], v)
}

// ReadU64 reads a uint64 value from the buffer at the specified offset in little-endian format.
func ReadU64(b []byte, off uint64) uint64 {
	return binary.LittleEndian.Uint64(b[off : off+8])
}

// Reach returns the reach field of the descriptor at off.
func Reach(b []byte, off uint64) uint64 {
	return ReadU64(b, off+DescReachOffset)
}

// Next returns the next field of the descriptor at off.
func Next(b []byte, off uint64) uint64 {
	return ReadU64(b, off+DescNextOffset)
}

// PutDescriptor writes a full descriptor at off.
func PutDescriptor(b []byte, off, reach, next uint64) {
	PutU64(b, off+DescReachOffset, reach)
	PutU64(b, off+DescNextOffset, next)
}

// PutGuard writes GuardPattern at off.
func PutGuard(b []byte, off uint64) {
	PutU64(b, off, GuardPattern)
}

// GuardIntact reports whether the canary at off still holds GuardPattern.
func GuardIntact(b []byte, off uint64) bool {
	return ReadU64(b, off) == GuardPattern
}
