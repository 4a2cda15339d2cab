package heap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFirstFit_ReusesLowestGap(t *testing.T) {
	h := newTestHeap(t, testArenaSize, Options{Fit: FirstFit})
	a := mustAlloc(t, h, 16)
	_ = mustAlloc(t, h, 16)
	c := mustAlloc(t, h, 16)
	require.NoError(t, h.Free(a))
	require.NoError(t, h.Free(c))

	require.Equal(t, a, mustAlloc(t, h, 16))
}

// bestFitLayout leaves two holes: A's former 32-byte gap at the head and C's
// former 16-byte gap between B and D. The arena size decides how large the
// trailing span is.
func bestFitLayout(t *testing.T, size int, fit Strategy) (h *Heap, a, c, d Ref) {
	t.Helper()
	h = newTestHeap(t, size, Options{Fit: fit})
	a = mustAlloc(t, h, 32)
	_ = mustAlloc(t, h, 16)
	c = mustAlloc(t, h, 16)
	d = mustAlloc(t, h, 16)
	require.NoError(t, h.Free(a))
	require.NoError(t, h.Free(c))
	return h, a, c, d
}

func TestBestFit_PicksTightestGap(t *testing.T) {
	h, _, c, _ := bestFitLayout(t, testArenaSize, BestFit)
	require.Equal(t, c, mustAlloc(t, h, 16))
}

func TestWorstFit_TightArenaPicksLargestHole(t *testing.T) {
	// 208 bytes leave a trailing span with 16 usable bytes, so A's former gap
	// is the largest one that can take 32.
	h, a, _, _ := bestFitLayout(t, 208, WorstFit)
	require.Equal(t, a, mustAlloc(t, h, 32))
}

func TestWorstFit_PrefersMergedTail(t *testing.T) {
	h := newTestHeap(t, testArenaSize, Options{Fit: WorstFit})
	a := mustAlloc(t, h, 32)
	_ = mustAlloc(t, h, 16)
	c := mustAlloc(t, h, 16)
	require.NoError(t, h.Free(a))
	require.NoError(t, h.Free(c)) // merges with the trailing span

	require.Equal(t, c, mustAlloc(t, h, 32))
}

func TestFit_StrategiesDiverge(t *testing.T) {
	// Free spans after the layout: A's gap (32 usable), C's gap (16 usable)
	// and a trailing span with 48 usable bytes at 160.
	const tail = Ref(160 + 16)
	cases := []struct {
		fit  Strategy
		size int
		want func(a, c Ref) Ref
	}{
		{FirstFit, 16, func(a, _ Ref) Ref { return a }},
		{BestFit, 16, func(_, c Ref) Ref { return c }},
		{WorstFit, 16, func(Ref, Ref) Ref { return tail }},
		{FirstFit, 32, func(a, _ Ref) Ref { return a }},
		{BestFit, 32, func(a, _ Ref) Ref { return a }},
		{WorstFit, 32, func(Ref, Ref) Ref { return tail }},
	}
	for _, tc := range cases {
		t.Run(tc.fit.String(), func(t *testing.T) {
			h, a, c, _ := bestFitLayout(t, 240, tc.fit)
			require.Equal(t, tc.want(a, c), mustAlloc(t, h, tc.size))
			requireTiled(t, h)
		})
	}
}

func TestBestFit_TieGoesToLowestAddress(t *testing.T) {
	h := newTestHeap(t, testArenaSize, Options{Fit: BestFit})
	a := mustAlloc(t, h, 16)
	_ = mustAlloc(t, h, 16)
	c := mustAlloc(t, h, 16)
	_ = mustAlloc(t, h, 16)
	require.NoError(t, h.Free(a))
	require.NoError(t, h.Free(c))

	require.Equal(t, a, mustAlloc(t, h, 16))
	require.Equal(t, c, mustAlloc(t, h, 16))
}

func TestSetFit_PersistsAndApplies(t *testing.T) {
	h, a, c, _ := bestFitLayout(t, testArenaSize, FirstFit)

	require.NoError(t, h.SetFit(BestFit))
	require.Equal(t, BestFit, h.Fit())
	require.Equal(t, c, mustAlloc(t, h, 16))

	require.NoError(t, h.SetFit(FirstFit))
	require.Equal(t, a, mustAlloc(t, h, 16))

	require.Error(t, h.SetFit(Strategy(3)))
	require.Equal(t, FirstFit, h.Fit())
}

func TestParseStrategy(t *testing.T) {
	cases := map[string]Strategy{
		"first":     FirstFit,
		"best":      BestFit,
		"worst":     WorstFit,
		"Best-Fit":  BestFit,
		" worst ":   WorstFit,
		"FIRST-FIT": FirstFit,
	}
	for in, want := range cases {
		got, err := ParseStrategy(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := ParseStrategy("next")
	require.Error(t, err)
	require.Equal(t, "Strategy(9)", Strategy(9).String())
}
