package heap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/internal/format"
)

const testArenaSize = 64 << 10

// newTestHeap bootstraps a heap over a fresh span of the given size.
func newTestHeap(t testing.TB, size int, opts Options) *Heap {
	t.Helper()
	h, err := New(make([]byte, size), opts)
	require.NoError(t, err)
	return h
}

// mustAlloc allocates size bytes and fails the test on error.
func mustAlloc(t testing.TB, h *Heap, size int) Ref {
	t.Helper()
	ref, err := h.Alloc(size)
	require.NoError(t, err, "Alloc(%d)", size)
	return ref
}

// snapshot copies the arena so tests can assert it was left untouched.
func snapshot(h *Heap) []byte {
	return append([]byte(nil), h.Arena()...)
}

// requireTiled checks that the walked blocks cover the arena after the header
// with no gap or overlap, and that the chain validates end to end.
func requireTiled(t testing.TB, h *Heap) {
	t.Helper()
	blocks, err := h.Blocks()
	require.NoError(t, err)

	next := Ref(format.HeadOffset)
	var total uint64
	for _, b := range blocks {
		require.Equal(t, next, b.Offset, "block at %#x does not follow previous block", uint64(b.Offset))
		next = b.Offset + Ref(b.Size)
		total += b.Size
	}
	require.Equal(t, uint64(h.Size()-format.HeaderSize), total, "blocks must account for every byte after the header")
	require.NoError(t, h.Check())
}

// putReach overwrites the reach field of the descriptor at off.
func putReach(h *Heap, off uint64, reach uint64) {
	format.PutU64(h.Arena(), off+format.DescReachOffset, reach)
}
