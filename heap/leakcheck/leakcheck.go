// Package leakcheck tracks live allocations of one or more heaps and reports
// the ones that were never freed.
//
// A Tracker is a heap.Observer; chain it in front of any other observer:
//
//	tr := leakcheck.New(nil)
//	h, _ := heap.New(mem, heap.Options{Observer: tr})
//	defer func() {
//	    if err := tr.Err(); err != nil {
//	        t.Fatal(err)
//	    }
//	}()
package leakcheck

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/joshuapare/heapkit/heap"
)

// ErrLeaked is wrapped by the error Err returns when allocations are live.
var ErrLeaked = errors.New("leakcheck: allocations leaked")

// Allocation is one live allocation.
type Allocation struct {
	Heap *heap.Heap
	Ref  heap.Ref
	Size int    // requested size
	Seq  uint64 // allocation order, starting at 1
}

type key struct {
	h   *heap.Heap
	ref heap.Ref
}

// Tracker records allocations between OnAlloc and OnFree. It is not safe for
// concurrent use, like the heaps it observes.
type Tracker struct {
	next heap.Observer
	live map[key]Allocation
	seq  uint64

	bytes     int
	peak      int
	peakBytes int
}

// New returns a Tracker forwarding every event to next after recording it.
// next may be nil.
func New(next heap.Observer) *Tracker {
	if next == nil {
		next = heap.NopObserver{}
	}
	return &Tracker{next: next, live: make(map[key]Allocation)}
}

func (t *Tracker) OnAlloc(h *heap.Heap, ref heap.Ref, size int) {
	t.seq++
	t.live[key{h, ref}] = Allocation{Heap: h, Ref: ref, Size: size, Seq: t.seq}
	t.bytes += size
	t.peak = max(t.peak, len(t.live))
	t.peakBytes = max(t.peakBytes, t.bytes)
	t.next.OnAlloc(h, ref, size)
}

func (t *Tracker) OnFree(h *heap.Heap, ref heap.Ref) {
	k := key{h, ref}
	if a, ok := t.live[k]; ok {
		t.bytes -= a.Size
		delete(t.live, k)
	}
	t.next.OnFree(h, ref)
}

// Live returns the number of allocations not yet freed.
func (t *Tracker) Live() int { return len(t.live) }

// LiveBytes returns the requested bytes not yet freed.
func (t *Tracker) LiveBytes() int { return t.bytes }

// Peak returns the highest number of simultaneously live allocations and
// their requested bytes at the byte high-water mark.
func (t *Tracker) Peak() (count, bytes int) { return t.peak, t.peakBytes }

// Leaks returns the live allocations in allocation order.
func (t *Tracker) Leaks() []Allocation {
	leaks := make([]Allocation, 0, len(t.live))
	for _, a := range t.live {
		leaks = append(leaks, a)
	}
	slices.SortFunc(leaks, func(a, b Allocation) int {
		switch {
		case a.Seq < b.Seq:
			return -1
		case a.Seq > b.Seq:
			return 1
		}
		return 0
	})
	return leaks
}

// Forget drops every allocation of h, for instance after h.Reset.
func (t *Tracker) Forget(h *heap.Heap) {
	for k, a := range t.live {
		if k.h == h {
			t.bytes -= a.Size
			delete(t.live, k)
		}
	}
}

// Report writes one line per leaked allocation and a summary line.
func (t *Tracker) Report(w io.Writer) error {
	leaks := t.Leaks()
	for _, a := range leaks {
		if _, err := fmt.Fprintf(w, "leak #%d: %d bytes at %#x\n", a.Seq, a.Size, uint64(a.Ref)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d allocation(s) leaked, %d bytes\n", len(leaks), t.bytes)
	return err
}

// Err returns nil when nothing leaked and otherwise an error wrapping
// ErrLeaked that lists the leaked references.
func (t *Tracker) Err() error {
	leaks := t.Leaks()
	if len(leaks) == 0 {
		return nil
	}
	refs := make([]string, len(leaks))
	for i, a := range leaks {
		refs[i] = fmt.Sprintf("%#x(%d)", uint64(a.Ref), a.Size)
	}
	return fmt.Errorf("%w: %d allocation(s), %d bytes: %s", ErrLeaked, len(leaks), t.bytes, strings.Join(refs, " "))
}

var _ heap.Observer = (*Tracker)(nil)
