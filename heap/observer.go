package heap

// Observer receives allocation events after the block list mutation has
// committed, so observed state always matches the arena. Leak and overflow
// checkers plug in here; see the leakcheck package.
type Observer interface {
	OnAlloc(h *Heap, ref Ref, size int)
	OnFree(h *Heap, ref Ref)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) OnAlloc(*Heap, Ref, int) {}
func (NopObserver) OnFree(*Heap, Ref)       {}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	Alloc func(h *Heap, ref Ref, size int)
	Free  func(h *Heap, ref Ref)
}

func (o ObserverFuncs) OnAlloc(h *Heap, ref Ref, size int) {
	if o.Alloc != nil {
		o.Alloc(h, ref, size)
	}
}

func (o ObserverFuncs) OnFree(h *Heap, ref Ref) {
	if o.Free != nil {
		o.Free(h, ref)
	}
}

var _ Observer = NopObserver{}
var _ Observer = ObserverFuncs{}
