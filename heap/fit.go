package heap

// fitFunc selects the descriptor whose free span receives reserved bytes.
// All strategies share one eligibility rule (desc.usable >= reserved) and
// resolve ties in favour of the lowest address, so swapping them never
// changes which requests can succeed, only where they land.
type fitFunc func(c chain, reserved uint64) (off uint64, found bool, err error)

func (s Strategy) fn() fitFunc {
	switch s {
	case BestFit:
		return fitBest
	case WorstFit:
		return fitWorst
	default:
		return fitFirst
	}
}

func fitFirst(c chain, reserved uint64) (off uint64, found bool, err error) {
	err = c.each(func(d desc) bool {
		if free, ok := d.usable(); ok && free >= reserved {
			off, found = d.off, true
			return false
		}
		return true
	})
	return
}

func fitBest(c chain, reserved uint64) (off uint64, found bool, err error) {
	var best uint64
	err = c.each(func(d desc) bool {
		if free, ok := d.usable(); ok && free >= reserved && (!found || free < best) {
			off, best, found = d.off, free, true
		}
		return true
	})
	return
}

func fitWorst(c chain, reserved uint64) (off uint64, found bool, err error) {
	var worst uint64
	err = c.each(func(d desc) bool {
		if free, ok := d.usable(); ok && free >= reserved && (!found || free > worst) {
			off, worst, found = d.off, free, true
		}
		return true
	})
	return
}
