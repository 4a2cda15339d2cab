package heap

import (
	"fmt"
	"log/slog"
	"strings"
)

// Ref is an arena-relative byte offset. References returned by Alloc point
// at user data; offset 0 is the allocator header and never valid.
type Ref uint64

// Nil is the null reference.
const Nil Ref = 0

// Block is one region reported by Walk.
type Block struct {
	Offset Ref
	Size   uint64
	Free   bool
}

// Strategy selects the free span that satisfies an allocation.
type Strategy uint8

const (
	// FirstFit takes the lowest-addressed span that fits.
	FirstFit Strategy = iota
	// BestFit takes the span that leaves the smallest remainder.
	BestFit
	// WorstFit takes the span that leaves the largest remainder.
	WorstFit
)

// Strategies lists every supported strategy in header order.
var Strategies = []Strategy{FirstFit, BestFit, WorstFit}

func (s Strategy) String() string {
	switch s {
	case FirstFit:
		return "first"
	case BestFit:
		return "best"
	case WorstFit:
		return "worst"
	default:
		return fmt.Sprintf("Strategy(%d)", uint8(s))
	}
}

// ParseStrategy parses "first", "best" or "worst" (case-insensitive, an
// optional "-fit" suffix is accepted).
func ParseStrategy(s string) (Strategy, error) {
	name := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "-fit")
	for _, st := range Strategies {
		if st.String() == name {
			return st, nil
		}
	}
	return FirstFit, fmt.Errorf("heap: unknown fit strategy %q", s)
}

func (s Strategy) valid() bool {
	return s <= WorstFit
}

// Options configures New and Open. The zero value selects first-fit,
// 16-byte alignment, no guards, no observer and the package logger.
type Options struct {
	// Guard brackets every allocation with canaries checked on Free.
	// Open ignores it and uses the flag recorded in the arena header.
	Guard bool

	// Fit is the initial placement strategy. Open ignores it.
	Fit Strategy

	// Alignment applied to request sizes: 8 or 16. Zero means 16.
	// Open ignores it.
	Alignment int

	// Observer receives allocation and free events.
	Observer Observer

	// Logger receives split/coalesce debug records and corruption warnings.
	// Nil routes them to the process-wide heapkit logger.
	Logger *slog.Logger
}

// Counters are running operation totals for one arena.
type Counters struct {
	Allocs          int // successful Alloc calls, sentinel included
	Frees           int // successful Free calls, sentinel included
	Reallocs        int // successful Realloc calls
	OutOfMemory     int // Alloc calls that returned ErrNoSpace
	NotAllocated    int // failures classified CodeNotAllocated
	Corruptions     int // failures classified CodeStructuralCorruption
	GuardViolations int // failures classified CodeGuardViolation
	Splits          int
	Coalesces       int
}

// Stats is a snapshot of the block list plus the arena's counters.
type Stats struct {
	Size          uint64  // arena size
	FreeBytes     uint64  // bytes in free spans, descriptors included
	UsedBytes     uint64  // bytes in allocated blocks plus headers not shared with a free span
	FreeBlocks    int     // descriptors with free bytes behind them
	UsedBlocks    int     // allocated blocks
	LargestFree   uint64  // largest request a fit could satisfy, before alignment and guards
	Fragmentation float64 // 1 - largest free span / all free bytes; 0 when nothing is free
	Counters      Counters
}
