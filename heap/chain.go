package heap

import (
	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/format"
)

// chain is the descriptor list embedded in an arena. Descriptors are read
// through validate only: a corrupted field is caught the first time it is
// read instead of steering the walk somewhere wild.
type chain struct {
	mem []byte
}

// desc is a validated snapshot of one descriptor.
type desc struct {
	off, reach, next uint64
}

func (d desc) terminal() bool { return d.next == format.NoNext }

// gap is the size of the allocated block between the descriptor's free
// bytes and its successor. Terminal descriptors own no block.
func (d desc) gap() uint64 {
	if d.terminal() {
		return 0
	}
	return d.next - d.off - d.reach
}

// usable is the free space a fit may hand out, reserving room for the
// used-block header and the descriptor a split leaves behind.
func (d desc) usable() (uint64, bool) {
	if d.reach < 2*format.DescriptorSize {
		return 0, false
	}
	return d.reach - 2*format.DescriptorSize, true
}

// validate reads the descriptor at off and checks that it cannot lead a
// traversal out of the arena: it lies inside the span, its reach covers at
// least its own header, its reach stays before its successor (or the arena
// end when terminal), and its successor is ascending and inside the span.
func (c chain) validate(off uint64) (desc, error) {
	size := uint64(len(c.mem))
	if !buf.Has(c.mem, off, format.DescriptorSize) || off < format.HeadOffset {
		return desc{}, &CorruptionError{Offset: off, Reason: "descriptor outside arena"}
	}
	d := desc{off: off, reach: format.Reach(c.mem, off), next: format.Next(c.mem, off)}
	if d.reach < format.DescriptorSize {
		return d, corrupt(d, "reach shorter than descriptor")
	}
	if d.terminal() {
		if d.reach > size-off {
			return d, corrupt(d, "reach overruns arena end")
		}
		return d, nil
	}
	if d.next <= off {
		return d, corrupt(d, "successor not ascending")
	}
	if !buf.Has(c.mem, d.next, format.DescriptorSize) {
		return d, corrupt(d, "successor outside arena")
	}
	if d.reach > d.next-off {
		return d, corrupt(d, "reach overruns successor")
	}
	return d, nil
}

func corrupt(d desc, reason string) *CorruptionError {
	return &CorruptionError{Offset: d.off, Reach: d.reach, Next: d.next, Reason: reason}
}

// each walks the chain from the head, validating every descriptor before
// handing it to fn. It stops when fn returns false or at the first invalid
// descriptor.
func (c chain) each(fn func(desc) bool) error {
	for off := uint64(format.HeadOffset); ; {
		d, err := c.validate(off)
		if err != nil {
			return err
		}
		if !fn(d) || d.terminal() {
			return nil
		}
		off = d.next
	}
}

// owner finds the descriptor whose allocated block starts at block.
// found is false when no descriptor owns it.
func (c chain) owner(block uint64) (d desc, found bool, err error) {
	err = c.each(func(cur desc) bool {
		if cur.off+cur.reach == block && cur.gap() > 0 {
			d, found = cur, true
			return false
		}
		return true
	})
	return
}

// check validates the whole chain and that it tiles the arena exactly.
func (c chain) check() error {
	var last desc
	err := c.each(func(d desc) bool {
		last = d
		return true
	})
	if err != nil {
		return err
	}
	if last.off+last.reach != uint64(len(c.mem)) {
		return corrupt(last, "terminal descriptor does not reach arena end")
	}
	return nil
}
