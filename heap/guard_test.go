package heap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/internal/format"
)

func TestGuard_Layout(t *testing.T) {
	h := newTestHeap(t, 1024, Options{Guard: true})
	ref := mustAlloc(t, h, 16)

	// block at 32: leading canary, 16 user bytes, trailing canary.
	require.Equal(t, Ref(40), ref)
	require.True(t, format.GuardIntact(h.Arena(), 32))
	require.True(t, format.GuardIntact(h.Arena(), 56))
	require.Equal(t, uint64(64), format.Next(h.Arena(), format.HeadOffset))

	n, err := h.UsableSize(ref)
	require.NoError(t, err)
	require.Equal(t, 16, n)
	requireTiled(t, h)
}

func TestGuard_TrailingCanaryEndsAtSuccessor(t *testing.T) {
	h := newTestHeap(t, 1024, Options{Guard: true, Alignment: 8})
	ref := mustAlloc(t, h, 5)

	next := format.Next(h.Arena(), format.HeadOffset)
	require.Equal(t, uint64(ref)+8+format.GuardSize, next)
	require.True(t, format.GuardIntact(h.Arena(), next-format.GuardSize))
}

func TestGuard_OverwriteBefore(t *testing.T) {
	h := newTestHeap(t, 1024, Options{Guard: true})
	ref := mustAlloc(t, h, 16)
	h.Arena()[ref-1] = 0xFF

	err := h.Free(ref)
	require.ErrorIs(t, err, ErrGuardViolation)
	require.Equal(t, CodeGuardViolation, h.LastError())

	var ge *GuardError
	require.True(t, errors.As(err, &ge))
	require.True(t, ge.Leading)
	require.Equal(t, uint64(ref)-format.GuardSize, ge.Offset)

	// The block stays allocated.
	n, err := h.UsableSize(ref)
	require.NoError(t, err)
	require.Equal(t, 16, n)
	blocks, err := h.Blocks()
	require.NoError(t, err)
	require.Contains(t, blocks, Block{Offset: ref - format.GuardSize, Size: 32})

	format.PutGuard(h.Arena(), uint64(ref)-format.GuardSize)
	require.NoError(t, h.Free(ref))
	requireTiled(t, h)
}

func TestGuard_OverwriteAfter(t *testing.T) {
	h := newTestHeap(t, 1024, Options{Guard: true})
	ref := mustAlloc(t, h, 16)
	h.Arena()[ref+16] ^= 0x01

	err := h.Free(ref)
	require.ErrorIs(t, err, ErrGuardViolation)

	var ge *GuardError
	require.True(t, errors.As(err, &ge))
	require.False(t, ge.Leading)
	require.Equal(t, uint64(ref)+16, ge.Offset)
	require.Equal(t, 1, h.Counters().GuardViolations)

	_, err = h.UsableSize(ref)
	require.NoError(t, err, "a guard violation does not release the block")
}

func TestGuard_UserBytesDoNotTrip(t *testing.T) {
	h := newTestHeap(t, 1024, Options{Guard: true})
	ref := mustAlloc(t, h, 10)

	b, err := h.Bytes(ref, 16)
	require.NoError(t, err)
	for i := range b {
		b[i] = 0xEE
	}
	require.NoError(t, h.Free(ref))
}

func TestGuard_RejectsUnguardedAddresses(t *testing.T) {
	h := newTestHeap(t, 1024, Options{Guard: true})
	ref := mustAlloc(t, h, 16)

	require.ErrorIs(t, h.Free(ref-format.GuardSize), ErrNotAllocated, "the block start is not the user reference")
	require.ErrorIs(t, h.Free(4), ErrNotAllocated)
	require.NoError(t, h.Free(ref))
}
