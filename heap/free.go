package heap

import (
	"github.com/joshuapare/heapkit/internal/format"
)

// Free releases the allocation at ref.
//
// The sentinel is always accepted. A reference no descriptor owns fails with
// ErrNotAllocated, which is also how a double free surfaces. A descriptor
// that fails validation aborts the walk with ErrCorruption. In guarded
// arenas a damaged canary fails with ErrGuardViolation and the block stays
// allocated. Every failure leaves the block list untouched and is recorded
// in the last-error slot.
func (h *Heap) Free(ref Ref) error {
	if ref == h.Sentinel() {
		h.stats.Frees++
		return nil
	}

	block := uint64(ref)
	if h.guard {
		if block < format.GuardSize {
			return h.fail("Free", ref, ErrNotAllocated)
		}
		block -= format.GuardSize
	}

	owner, found, err := h.chain.owner(block)
	if err != nil {
		return h.fail("Free", ref, err)
	}
	if !found {
		return h.fail("Free", ref, ErrNotAllocated)
	}
	succ, err := h.chain.validate(owner.next)
	if err != nil {
		return h.fail("Free", ref, err)
	}
	if h.guard {
		if err := h.checkGuards(ref, owner); err != nil {
			return h.fail("Free", ref, err)
		}
	}

	h.coalesce(owner, succ)
	h.stats.Frees++
	h.obs.OnFree(h, ref)
	return nil
}

// coalesce hands the owner's block and the successor's free bytes to the
// owner: its reach now extends to where the successor's own block begins,
// and the successor descriptor drops out of the chain.
func (h *Heap) coalesce(owner, succ desc) {
	reach := (succ.off - owner.off) + succ.reach
	format.PutDescriptor(h.mem, owner.off, reach, succ.next)

	h.stats.Coalesces++
	h.debug("coalesce", "descriptor", owner.off, "absorbed", succ.off, "reach", reach)
}
