package heap

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/joshuapare/heapkit/internal/format"
	"github.com/joshuapare/heapkit/internal/logger"
)

// Heap is a handle on one arena. All allocator state lives inside the arena
// bytes except the observer, the logger, the last-error slot and counters.
//
// A Heap is not safe for concurrent use; independent Heaps are fully isolated.
type Heap struct {
	mem   []byte
	chain chain
	align uint64
	guard bool
	fit   Strategy

	obs Observer
	log *slog.Logger

	last  Code
	stats Counters
}

// New bootstraps an allocator in mem: it writes the header and a single
// free descriptor covering everything after it. Any previous content of mem
// is ignored. mem must stay reachable and unmoved for the Heap's lifetime.
func New(mem []byte, opts Options) (*Heap, error) {
	align := opts.Alignment
	if align == 0 {
		align = format.DefaultAlignment
	}
	if !format.ValidAlignment(align) {
		return nil, fmt.Errorf("heap.New: alignment %d: %w", opts.Alignment, ErrBadAlignment)
	}
	if !opts.Fit.valid() {
		return nil, fmt.Errorf("heap.New: %v: %w", opts.Fit, format.ErrUnsupported)
	}
	if len(mem) < format.MinArenaSize {
		return nil, fmt.Errorf("heap.New: %d bytes, need %d: %w", len(mem), format.MinArenaSize, ErrArenaTooSmall)
	}

	h := newHandle(mem, opts)
	h.align = uint64(align)
	h.guard = opts.Guard
	h.fit = opts.Fit
	h.bootstrap()
	return h, nil
}

// Open attaches to a span that already holds an arena written by New, such
// as a file-backed mapping. Guard flag, fit strategy and alignment come from
// the header; only Observer and Logger are taken from opts.
func Open(mem []byte, opts Options) (*Heap, error) {
	hdr, err := format.ParseHeader(mem)
	if err != nil {
		return nil, fmt.Errorf("heap.Open: %w: %w", ErrBadHeader, err)
	}
	fit := Strategy(hdr.Fit)
	if !fit.valid() {
		return nil, fmt.Errorf("heap.Open: %v: %w", fit, ErrBadHeader)
	}
	if len(mem) < format.MinArenaSize {
		return nil, fmt.Errorf("heap.Open: %w", ErrArenaTooSmall)
	}

	h := newHandle(mem, opts)
	h.align = uint64(hdr.Alignment)
	h.guard = hdr.Guard
	h.fit = fit
	if _, err := h.chain.validate(format.HeadOffset); err != nil {
		return nil, fmt.Errorf("heap.Open: %w", err)
	}
	return h, nil
}

func newHandle(mem []byte, opts Options) *Heap {
	h := &Heap{
		mem:   mem,
		chain: chain{mem: mem},
		obs:   opts.Observer,
		log:   opts.Logger,
	}
	if h.obs == nil {
		h.obs = NopObserver{}
	}
	return h
}

// debug and warn write to Options.Logger, or to the package logger as it is
// at the time of the call when none was given.
func (h *Heap) debug(msg string, args ...any) {
	if h.log == nil {
		logger.Debug(msg, args...)
		return
	}
	h.log.Debug(msg, args...)
}

func (h *Heap) warn(msg string, args ...any) {
	if h.log == nil {
		logger.Warn(msg, args...)
		return
	}
	h.log.Warn(msg, args...)
}

func (h *Heap) bootstrap() {
	format.PutHeader(h.mem, format.Header{
		Size:      uint64(len(h.mem)),
		Fit:       uint8(h.fit),
		Guard:     h.guard,
		Alignment: int(h.align),
	})
	format.PutDescriptor(h.mem, format.HeadOffset, uint64(len(h.mem))-format.HeaderSize, format.NoNext)
}

// Reset discards every allocation and bootstraps the arena again with the
// same options. Counters and the last-error slot are cleared.
func (h *Heap) Reset() {
	h.bootstrap()
	h.last = CodeNone
	h.stats = Counters{}
}

// Size returns the arena size in bytes.
func (h *Heap) Size() int { return len(h.mem) }

// Guarded reports whether allocations carry guard canaries.
func (h *Heap) Guarded() bool { return h.guard }

// Alignment returns the alignment applied to request sizes.
func (h *Heap) Alignment() int { return int(h.align) }

// Fit returns the active placement strategy.
func (h *Heap) Fit() Strategy { return h.fit }

// SetFit switches the placement strategy. It takes effect on the next
// allocation and is persisted in the arena header.
func (h *Heap) SetFit(s Strategy) error {
	if !s.valid() {
		return fmt.Errorf("heap.SetFit: %v: %w", s, format.ErrUnsupported)
	}
	h.fit = s
	h.mem[format.HeaderFitOffset] = uint8(s)
	return nil
}

// Sentinel returns the reference handed out for zero-size allocations.
// Freeing it is always a no-op.
func (h *Heap) Sentinel() Ref { return Ref(format.HeadOffset) }

// Arena returns the raw arena span, header included.
func (h *Heap) Arena() []byte { return h.mem }

// LastError returns the classification of the most recent failure. It is
// not cleared by later successful calls; see ClearError.
func (h *Heap) LastError() Code { return h.last }

// ClearError resets the last-error slot to CodeNone.
func (h *Heap) ClearError() { h.last = CodeNone }

// Counters returns the running operation totals.
func (h *Heap) Counters() Counters { return h.stats }

// fail records err and returns it wrapped with the operation name.
func (h *Heap) fail(op string, ref Ref, err error) error {
	h.record(op, err)
	return fmt.Errorf("heap.%s(%#x): %w", op, uint64(ref), err)
}

// record classifies err into the last-error slot and counters and logs
// detected corruption.
func (h *Heap) record(op string, err error) {
	code := CodeOf(err)
	switch code {
	case CodeNotAllocated:
		h.stats.NotAllocated++
	case CodeStructuralCorruption:
		h.stats.Corruptions++
		var ce *CorruptionError
		if errors.As(err, &ce) {
			h.warn("structural corruption", "op", op, "offset", ce.Offset, "reach", ce.Reach, "next", ce.Next, "reason", ce.Reason)
		}
	case CodeGuardViolation:
		h.stats.GuardViolations++
		var ge *GuardError
		if errors.As(err, &ge) {
			h.warn("guard violation", "op", op, "ref", uint64(ge.Ref), "offset", ge.Offset, "leading", ge.Leading)
		}
	}
	if code != CodeNone {
		h.last = code
	}
}
