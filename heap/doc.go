// Package heap implements a freestanding allocator over one caller-supplied
// byte span.
//
// # Overview
//
// The allocator needs nothing but the span it manages: its header, its block
// list and every guard canary live inside the arena bytes. This makes it
// usable for test harnesses that shadow a platform allocator, for arenas
// backed by a memory-mapped file, and for anything else that must control
// exactly which bytes are handed out.
//
// # Usage Example
//
//	mem := make([]byte, 64<<10)
//	h, err := heap.New(mem, heap.Options{Guard: true, Fit: heap.BestFit})
//	if err != nil {
//	    return err
//	}
//
//	ref, err := h.Alloc(100)
//	if err != nil {
//	    return err // heap.ErrNoSpace when nothing fits
//	}
//	b, _ := h.Bytes(ref, 100)
//	copy(b, payload)
//
//	if err := h.Free(ref); err != nil {
//	    log.Printf("free failed: %v (%s)", err, h.LastError())
//	}
//
// # Arena Layout
//
//	 0x00  allocator header (16 bytes): size, magic, fit, flags, alignment
//	 0x10  head descriptor (16 bytes): reach, next
//	 ...   free bytes, allocated blocks and further descriptors
//
// Descriptors form a singly linked chain in ascending address order. Each
// descriptor is followed by reach-16 free bytes and then, unless it is the
// last one, by the allocated block that ends where the next descriptor
// starts. An allocated block's header is simply a descriptor with reach 16.
//
// Allocation splits a free span: the chosen descriptor shrinks to a bare
// header and a new descriptor after the block takes over the remaining free
// bytes. Freeing merges the block and the next descriptor's free bytes back
// into the owning descriptor.
//
// # Fit Strategies
//
//   - FirstFit: lowest-addressed span that fits (default)
//   - BestFit: span leaving the smallest remainder
//   - WorstFit: span leaving the largest remainder
//
// Strategies can be swapped with SetFit at any time.
//
// # Corruption Detection
//
// Every descriptor is validated the moment a traversal reads it; a reach that
// overruns its successor or a successor outside the arena aborts the
// operation with ErrCorruption before anything is written. With Options.Guard
// each block is bracketed by 8-byte canaries verified on Free; a damaged
// canary fails with ErrGuardViolation and the block stays allocated.
//
// Failures are returned as errors and also recorded in a per-arena
// last-error slot (LastError) using the classifications NOT_ALLOCATED,
// STRUCTURAL_CORRUPTION and GUARD_VIOLATION. Running out of space is an
// ordinary ErrNoSpace and is not recorded.
//
// # Thread Safety
//
// A Heap is not safe for concurrent use. Callers must synchronize access
// externally; separate Heaps never share state.
//
// # Related Packages
//
//   - github.com/joshuapare/heapkit/heap/leakcheck: Observer that reports leaked allocations
//   - github.com/joshuapare/heapkit/internal/mmfile: mmap-backed arena spans
//   - github.com/joshuapare/heapkit/internal/format: on-arena binary layout
package heap
