package heap

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/format"
)

// UsableSize returns how many bytes the caller may use at ref: the block
// size minus guard canaries, which already includes alignment padding. The
// sentinel reports 0. Unknown references fail with ErrNotAllocated.
func (h *Heap) UsableSize(ref Ref) (int, error) {
	if ref == h.Sentinel() {
		return 0, nil
	}
	d, err := h.lookup("UsableSize", ref)
	if err != nil {
		return 0, err
	}
	size := d.gap()
	if h.guard {
		size -= 2 * format.GuardSize
	}
	n, ok := buf.ToInt(size)
	if !ok {
		return 0, h.fail("UsableSize", ref, ErrOverflow)
	}
	return n, nil
}

// lookup resolves ref to its owning descriptor without mutating anything.
func (h *Heap) lookup(op string, ref Ref) (desc, error) {
	block := uint64(ref)
	if h.guard {
		if block < format.GuardSize {
			return desc{}, h.fail(op, ref, ErrNotAllocated)
		}
		block -= format.GuardSize
	}
	d, found, err := h.chain.owner(block)
	if err != nil {
		return desc{}, h.fail(op, ref, err)
	}
	if !found {
		return desc{}, h.fail(op, ref, ErrNotAllocated)
	}
	if h.guard && d.gap() < 2*format.GuardSize {
		return desc{}, h.fail(op, ref, &GuardError{Ref: ref, Offset: block, Leading: true})
	}
	return d, nil
}

// Bytes returns the first n user bytes of the allocation at ref. The view
// aliases the arena and is capped so appends cannot spill into neighbours.
func (h *Heap) Bytes(ref Ref, n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("heap.Bytes(%#x, %d): negative length: %w", uint64(ref), n, ErrOverflow)
	}
	if n == 0 {
		return []byte{}, nil
	}
	usable, err := h.UsableSize(ref)
	if err != nil {
		return nil, err
	}
	if n > usable {
		return nil, fmt.Errorf("heap.Bytes(%#x, %d): usable size is %d: %w", uint64(ref), n, usable, ErrOverflow)
	}
	b, _ := buf.Slice(h.mem, uint64(ref), uint64(n))
	return b, nil
}

// Walk visits every region of the arena once, in ascending address order:
// each descriptor's free span, then the allocated block it owns if any. The
// sizes of all visited blocks add up to the arena size minus the header.
// Walk stops early when visit returns false and aborts with ErrCorruption at
// the first descriptor that fails validation.
func (h *Heap) Walk(visit func(Block) bool) error {
	err := h.chain.each(func(d desc) bool {
		if !visit(Block{Offset: Ref(d.off), Size: d.reach, Free: true}) {
			return false
		}
		if gap := d.gap(); gap > 0 {
			return visit(Block{Offset: Ref(d.off + d.reach), Size: gap})
		}
		return true
	})
	if err != nil {
		return h.fail("Walk", Ref(format.HeadOffset), err)
	}
	return nil
}

// Blocks collects Walk into a slice.
func (h *Heap) Blocks() ([]Block, error) {
	var blocks []Block
	err := h.Walk(func(b Block) bool {
		blocks = append(blocks, b)
		return true
	})
	return blocks, err
}

// Check validates the whole block list, including that the last descriptor
// ends exactly at the arena end.
func (h *Heap) Check() error {
	if err := h.chain.check(); err != nil {
		return h.fail("Check", Ref(format.HeadOffset), err)
	}
	return nil
}

// Stats walks the block list and returns totals with the arena's counters.
// Free and used bytes together cover the arena after the header.
func (h *Heap) Stats() (Stats, error) {
	s := Stats{Size: uint64(len(h.mem)), Counters: h.stats}
	var largestSpan uint64
	err := h.chain.each(func(d desc) bool {
		// A bare descriptor is only the header of the block after it.
		if d.reach > format.DescriptorSize {
			s.FreeBlocks++
			s.FreeBytes += d.reach
			largestSpan = max(largestSpan, d.reach)
		} else {
			s.UsedBytes += d.reach
		}
		if free, ok := d.usable(); ok {
			s.LargestFree = max(s.LargestFree, free)
		}
		if gap := d.gap(); gap > 0 {
			s.UsedBlocks++
			s.UsedBytes += gap
		}
		return true
	})
	if err != nil {
		return Stats{}, h.fail("Stats", Ref(format.HeadOffset), err)
	}
	if s.FreeBytes > 0 {
		s.Fragmentation = 1 - float64(largestSpan)/float64(s.FreeBytes)
	}
	return s, nil
}
