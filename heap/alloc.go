package heap

import (
	"errors"
	"fmt"

	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/format"
)

// Alloc reserves size bytes and returns a reference to them.
//
// A zero size returns the sentinel without touching the block list. The size
// is rounded up to the arena alignment; guarded arenas reserve two more
// guard widths around it. ErrNoSpace is returned, and not recorded in the
// last-error slot, when no free span is large enough.
func (h *Heap) Alloc(size int) (Ref, error) {
	if size == 0 {
		h.stats.Allocs++
		return h.Sentinel(), nil
	}
	n, ok := buf.IntSize(size)
	if !ok {
		h.stats.OutOfMemory++
		return Nil, fmt.Errorf("heap.Alloc(%d): negative size: %w", size, ErrNoSpace)
	}

	aligned := format.AlignUp(n, h.align)
	reserved := aligned
	if h.guard {
		reserved += 2 * format.GuardSize
	}

	off, found, err := h.fit.fn()(h.chain, reserved)
	if err != nil {
		h.record("Alloc", err)
		return Nil, fmt.Errorf("heap.Alloc(%d): %w", size, err)
	}
	if !found {
		h.stats.OutOfMemory++
		return Nil, fmt.Errorf("heap.Alloc(%d): %s-fit: %w", size, h.fit, ErrNoSpace)
	}

	block := h.split(off, reserved)
	ref := Ref(block)
	if h.guard {
		format.PutGuard(h.mem, block)
		format.PutGuard(h.mem, block+format.GuardSize+aligned)
		ref = Ref(block + format.GuardSize)
	}

	h.stats.Allocs++
	h.obs.OnAlloc(h, ref, size)
	return ref, nil
}

// split carves reserved bytes out of the free span of the descriptor at off
// and returns the offset of the new block. A descriptor is written right
// after the block taking over the remaining free bytes; the split descriptor
// shrinks to a bare header owning the block.
func (h *Heap) split(off, reserved uint64) uint64 {
	reach, next := format.Reach(h.mem, off), format.Next(h.mem, off)
	block := off + format.DescriptorSize
	rest := block + reserved
	format.PutDescriptor(h.mem, rest, reach-reserved-format.DescriptorSize, next)
	format.PutDescriptor(h.mem, off, format.DescriptorSize, rest)

	h.stats.Splits++
	h.debug("split", "descriptor", off, "block", block, "reserved", reserved, "remainder", rest)
	return block
}

// Calloc allocates count*size zeroed bytes.
func (h *Heap) Calloc(count, size int) (Ref, error) {
	c, okc := buf.IntSize(count)
	s, oks := buf.IntSize(size)
	if !okc || !oks {
		return Nil, fmt.Errorf("heap.Calloc(%d, %d): negative size: %w", count, size, ErrNoSpace)
	}
	total, ok := buf.MulOverflowSafe(c, s)
	n, fits := buf.ToInt(total)
	if !ok || !fits {
		return Nil, fmt.Errorf("heap.Calloc(%d, %d): %w", count, size, ErrOverflow)
	}

	ref, err := h.Alloc(n)
	if err != nil || n == 0 {
		return ref, err
	}
	clear(h.mem[ref : uint64(ref)+total])
	return ref, nil
}

// Realloc resizes the allocation at ref.
//
// Nil and the sentinel behave like Alloc; a zero size frees ref and returns
// the sentinel. A block whose usable size already covers size is returned
// unchanged. Otherwise the contents move to a new block and ref is freed; if
// the new allocation or the free of ref fails, ref is left untouched.
func (h *Heap) Realloc(ref Ref, size int) (Ref, error) {
	if ref == Nil || ref == h.Sentinel() {
		return h.Alloc(size)
	}
	if size < 0 {
		return Nil, fmt.Errorf("heap.Realloc(%#x, %d): negative size: %w", uint64(ref), size, ErrNoSpace)
	}
	if size == 0 {
		if err := h.Free(ref); err != nil {
			return Nil, err
		}
		return h.Sentinel(), nil
	}

	usable, err := h.UsableSize(ref)
	if err != nil {
		return Nil, err
	}
	if usable >= size {
		h.stats.Reallocs++
		return ref, nil
	}

	moved, err := h.Alloc(size)
	if err != nil {
		return Nil, err
	}
	copy(h.mem[moved:uint64(moved)+uint64(usable)], h.mem[ref:uint64(ref)+uint64(usable)])
	if err := h.Free(ref); err != nil {
		if undo := h.Free(moved); undo != nil {
			return Nil, errors.Join(err, undo)
		}
		return Nil, err
	}
	h.stats.Reallocs++
	return moved, nil
}
