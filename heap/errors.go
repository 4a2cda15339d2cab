package heap

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSpace indicates that no free span is large enough for the request.
	// It is an expected outcome and never recorded in the last-error slot.
	ErrNoSpace = errors.New("heap: no free block large enough")

	// ErrNotAllocated indicates a reference that no descriptor owns: a wild,
	// foreign or already-freed reference.
	ErrNotAllocated = errors.New("heap: reference not allocated")

	// ErrCorruption indicates a descriptor whose fields cannot be trusted.
	ErrCorruption = errors.New("heap: block list corrupted")

	// ErrGuardViolation indicates a canary next to user data was overwritten.
	ErrGuardViolation = errors.New("heap: guard canary overwritten")

	// ErrArenaTooSmall indicates a span that cannot hold the header and the head descriptor.
	ErrArenaTooSmall = errors.New("heap: arena too small")

	// ErrBadAlignment indicates an unsupported alignment option.
	ErrBadAlignment = errors.New("heap: unsupported alignment")

	// ErrBadHeader indicates a span that does not hold an initialized arena.
	ErrBadHeader = errors.New("heap: bad arena header")

	// ErrOverflow indicates a size computation that does not fit in the address space.
	ErrOverflow = errors.New("heap: size overflow")
)

// Code classifies the most recent failure of an arena.
type Code uint8

const (
	CodeNone Code = iota
	CodeNotAllocated
	CodeStructuralCorruption
	CodeGuardViolation
)

func (c Code) String() string {
	switch c {
	case CodeNone:
		return "NONE"
	case CodeNotAllocated:
		return "NOT_ALLOCATED"
	case CodeStructuralCorruption:
		return "STRUCTURAL_CORRUPTION"
	case CodeGuardViolation:
		return "GUARD_VIOLATION"
	default:
		return fmt.Sprintf("Code(%d)", uint8(c))
	}
}

// CodeOf maps an error returned by this package to its classification.
// Errors that are not recorded in the last-error slot map to CodeNone.
func CodeOf(err error) Code {
	switch {
	case err == nil:
		return CodeNone
	case errors.Is(err, ErrCorruption):
		return CodeStructuralCorruption
	case errors.Is(err, ErrGuardViolation):
		return CodeGuardViolation
	case errors.Is(err, ErrNotAllocated):
		return CodeNotAllocated
	default:
		return CodeNone
	}
}

// CorruptionError describes the first descriptor that failed validation.
type CorruptionError struct {
	Offset uint64 // descriptor offset
	Reach  uint64 // reach as read from the arena
	Next   uint64 // next as read from the arena
	Reason string
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("heap: descriptor %#x (reach=%d next=%#x): %s", e.Offset, e.Reach, e.Next, e.Reason)
}

func (e *CorruptionError) Unwrap() error { return ErrCorruption }

// GuardError describes an overwritten canary.
type GuardError struct {
	Ref     Ref    // reference passed to Free
	Offset  uint64 // offset of the damaged canary
	Leading bool   // true for the canary before user data
}

func (e *GuardError) Error() string {
	side := "trailing"
	if e.Leading {
		side = "leading"
	}
	return fmt.Sprintf("heap: %s guard of %#x at %#x overwritten", side, uint64(e.Ref), e.Offset)
}

func (e *GuardError) Unwrap() error { return ErrGuardViolation }
