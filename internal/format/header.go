package format

import (
	"bytes"
	"fmt"

	"github.com/joshuapare/heapkit/internal/buf"
)

// Header is the decoded allocator header stored at offset 0 of every arena.
//
//	Offset  Size  Description
//	------  ----  ----------------------------------------------------------
//	 0x00    8    Total arena size in bytes
//	 0x08    4    'F' 'B' 'H' '1'
//	 0x0C    1    Fit strategy (0 = first, 1 = best, 2 = worst)
//	 0x0D    1    Flags (bit 0 = guard canaries)
//	 0x0E    1    log2(alignment)
//	 0x0F    1    Reserved, zero
type Header struct {
	Size      uint64
	Fit       uint8
	Guard     bool
	Alignment int
}

// ParseHeader validates and extracts the allocator header from an arena.
func ParseHeader(b []byte) (Header, error) {
	magic, ok := buf.Slice(b, HeaderMagicOffset, HeaderMagicLen)
	if !ok || len(b) < HeaderSize {
		return Header{}, fmt.Errorf("arena header: %w", ErrTruncated)
	}
	if !bytes.Equal(magic, ArenaMagic) {
		return Header{}, fmt.Errorf("arena header: %w", ErrSignatureMismatch)
	}
	h := Header{
		Size:      ReadU64(b, HeaderSizeOffset),
		Fit:       b[HeaderFitOffset],
		Guard:     b[HeaderFlagsOffset]&FlagGuard != 0,
		Alignment: AlignFromShift(b[HeaderAlignOffset]),
	}
	if h.Size != uint64(len(b)) {
		return Header{}, fmt.Errorf("arena header: recorded %d, span %d: %w", h.Size, len(b), ErrSizeMismatch)
	}
	if !ValidAlignment(h.Alignment) {
		return Header{}, fmt.Errorf("arena header: alignment %d: %w", h.Alignment, ErrUnsupported)
	}
	return h, nil
}

// PutHeader writes h at offset 0 of b. The caller guarantees len(b) >= HeaderSize.
func PutHeader(b []byte, h Header) {
	PutU64(b, HeaderSizeOffset, h.Size)
	copy(b[HeaderMagicOffset:HeaderMagicOffset+HeaderMagicLen], ArenaMagic)
	b[HeaderFitOffset] = h.Fit
	var flags uint8
	if h.Guard {
		flags |= FlagGuard
	}
	b[HeaderFlagsOffset] = flags
	b[HeaderAlignOffset] = AlignShift(h.Alignment)
	b[HeaderSize-1] = 0
}
