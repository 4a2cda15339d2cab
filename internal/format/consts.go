// Package format houses the on-arena binary layout of the allocator: the
// header written at the start of every arena, the block descriptors chained
// behind it, and the guard pattern bracketing user data. Everything is
// little-endian and addressed by arena-relative offsets so higher-level
// packages never touch raw pointers.
package format

// ArenaMagic identifies an initialized arena header.
// Layout:
//
//	0x08  'F' 'B' 'H' '1'
var ArenaMagic = []byte{'F', 'B', 'H', '1'}

const (
	// HeaderSize is the size of the allocator header at offset 0 of the arena.
	HeaderSize = 16

	// DescriptorSize is the size of a block descriptor. It doubles as the
	// header of an allocated block, so a used block always has reach ==
	// DescriptorSize.
	DescriptorSize = 16

	// HeadOffset is the fixed, immutable offset of the first descriptor.
	HeadOffset = HeaderSize

	// MinArenaSize is the smallest span that can hold the header, the head
	// descriptor and the descriptor a first split would need.
	MinArenaSize = HeaderSize + 2*DescriptorSize

	// NoNext marks the terminal descriptor. Offset 0 is the allocator header
	// and can never be a descriptor.
	NoNext = 0
)

// Header field offsets, relative to the start of the arena.
const (
	HeaderSizeOffset  = 0x00 // u64 total arena size
	HeaderMagicOffset = 0x08 // [4]byte ArenaMagic
	HeaderFitOffset   = 0x0C // u8 fit strategy
	HeaderFlagsOffset = 0x0D // u8 flags
	HeaderAlignOffset = 0x0E // u8 log2(alignment)
	HeaderMagicLen    = 4
)

// Header flag bits.
const (
	FlagGuard = 1 << 0
)

// Descriptor field offsets, relative to the descriptor.
const (
	DescReachOffset = 0x00 // u64 reach
	DescNextOffset  = 0x08 // u64 next descriptor offset, NoNext when terminal
)

const (
	// GuardSize is the width of one canary.
	GuardSize = 8

	// GuardPattern is written before and after every guarded allocation.
	GuardPattern uint64 = 0x7F84E666_A110CA7E
)

const (
	// DefaultAlignment is the alignment applied to request sizes. With a
	// 16-byte header and 16-byte descriptors every returned offset stays
	// 16-aligned relative to the arena base.
	DefaultAlignment = 16

	// MinAlignment is the smallest supported alignment; descriptors hold
	// 8-byte fields.
	MinAlignment = 8

	// MaxAlignment is the largest supported alignment. Two guard widths must
	// be a multiple of the alignment so guarded blocks keep descriptors
	// aligned.
	MaxAlignment = 2 * GuardSize
)
