package heap

import (
	"github.com/joshuapare/heapkit/internal/format"
)

// checkGuards verifies both canaries of the guarded block owned by d. The
// leading canary opens the block; the trailing one closes it, right before
// the successor descriptor.
func (h *Heap) checkGuards(ref Ref, d desc) error {
	lead := d.off + d.reach
	if d.gap() < 2*format.GuardSize {
		return &GuardError{Ref: ref, Offset: lead, Leading: true}
	}
	if !format.GuardIntact(h.mem, lead) {
		return &GuardError{Ref: ref, Offset: lead, Leading: true}
	}
	trail := d.next - format.GuardSize
	if !format.GuardIntact(h.mem, trail) {
		return &GuardError{Ref: ref, Offset: trail}
	}
	return nil
}
