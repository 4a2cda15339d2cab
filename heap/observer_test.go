package heap

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/internal/format"
	"github.com/joshuapare/heapkit/internal/logger"
)

func TestObserver_SeesCommittedState(t *testing.T) {
	type event struct {
		op   string
		ref  Ref
		size int
	}
	var events []event

	obs := ObserverFuncs{
		Alloc: func(h *Heap, ref Ref, size int) {
			_, err := h.UsableSize(ref)
			require.NoError(t, err, "OnAlloc runs after the block is in place")
			events = append(events, event{"alloc", ref, size})
		},
		Free: func(h *Heap, ref Ref) {
			_, err := h.UsableSize(ref)
			require.ErrorIs(t, err, ErrNotAllocated, "OnFree runs after the block is released")
			h.ClearError()
			events = append(events, event{"free", ref, 0})
		},
	}
	h := newTestHeap(t, 1024, Options{Observer: obs})

	a := mustAlloc(t, h, 24)
	_ = mustAlloc(t, h, 0)
	require.NoError(t, h.Free(h.Sentinel()))
	require.NoError(t, h.Free(a))
	require.Error(t, h.Free(a))

	require.Equal(t, []event{{"alloc", a, 24}, {"free", a, 0}}, events)
}

func TestObserver_NilFuncsIgnored(t *testing.T) {
	h := newTestHeap(t, 1024, Options{Observer: ObserverFuncs{}})
	ref := mustAlloc(t, h, 8)
	require.NoError(t, h.Free(ref))
}

func TestLogger_ReportsCorruption(t *testing.T) {
	var out bytes.Buffer
	log := slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := newTestHeap(t, 1024, Options{Logger: log})

	ref := mustAlloc(t, h, 16)
	require.NoError(t, h.Free(ref))
	require.Contains(t, out.String(), "msg=split")
	require.Contains(t, out.String(), "msg=coalesce")

	ref = mustAlloc(t, h, 16)
	putReach(h, 16, 37)
	require.Error(t, h.Free(ref))
	require.Contains(t, out.String(), "structural corruption")
	require.Contains(t, out.String(), "op=Free")
}

func TestLogger_DefaultsToPackageLogger(t *testing.T) {
	saved := logger.L
	t.Cleanup(func() { logger.L = saved })

	h := newTestHeap(t, 1024, Options{})

	// Init after New still reaches the heap.
	var out bytes.Buffer
	logger.Init(logger.Options{Enabled: true, Output: &out, Level: slog.LevelDebug})

	ref := mustAlloc(t, h, 16)
	require.Contains(t, out.String(), "msg=split")
	putReach(h, format.HeadOffset, 37)
	require.Error(t, h.Free(ref))
	require.Contains(t, out.String(), "level=WARN msg=\"structural corruption\"")
}

func TestStats(t *testing.T) {
	h := newTestHeap(t, 1024, Options{})
	a := mustAlloc(t, h, 16)
	_ = mustAlloc(t, h, 32)
	require.NoError(t, h.Free(a))

	s, err := h.Stats()
	require.NoError(t, err)
	require.Equal(t, uint64(1024), s.Size)
	require.Equal(t, 2, s.FreeBlocks)
	require.Equal(t, uint64(48+928), s.FreeBytes)
	require.Equal(t, 1, s.UsedBlocks)
	require.Equal(t, uint64(32), s.UsedBytes)
	require.Equal(t, uint64(928-32), s.LargestFree)
	require.InDelta(t, 1-928.0/976.0, s.Fragmentation, 1e-9)
	require.Equal(t, s.Size-16, s.FreeBytes+s.UsedBytes)

	require.Equal(t, Counters{Allocs: 2, Frees: 1, Splits: 2, Coalesces: 1}, s.Counters)
}

func TestStats_PackedAllocationsLeaveOneSpan(t *testing.T) {
	h := newTestHeap(t, 1024, Options{})
	for range 10 {
		_ = mustAlloc(t, h, 16)
	}

	s, err := h.Stats()
	require.NoError(t, err)
	require.Equal(t, 1, s.FreeBlocks)
	require.Equal(t, uint64(1008-10*32), s.FreeBytes)
	require.Equal(t, 10, s.UsedBlocks)
	require.Equal(t, uint64(10*32), s.UsedBytes, "block headers count as used")
	require.Zero(t, s.Fragmentation)
	require.Equal(t, uint64(1008-10*32-32), s.LargestFree)
	require.Equal(t, s.Size-16, s.FreeBytes+s.UsedBytes)
}

func TestStats_FullArenaHasNoFreeSpan(t *testing.T) {
	h := newTestHeap(t, 64, Options{})
	_ = mustAlloc(t, h, 16) // head 16 -> block 32 -> terminal 48 with reach 16

	s, err := h.Stats()
	require.NoError(t, err)
	require.Zero(t, s.FreeBlocks)
	require.Zero(t, s.FreeBytes)
	require.Zero(t, s.LargestFree)
	require.Zero(t, s.Fragmentation)
	require.Equal(t, uint64(48), s.UsedBytes)
}

func TestStats_FreshArenaIsUnfragmented(t *testing.T) {
	h := newTestHeap(t, 1024, Options{})
	s, err := h.Stats()
	require.NoError(t, err)
	require.Zero(t, s.Fragmentation)
	require.Equal(t, uint64(1024-16-32), s.LargestFree)
}
