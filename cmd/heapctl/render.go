package main

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/internal/format"
)

// numbers formats counts and byte totals with grouping separators.
var numbers = message.NewPrinter(language.English)

// blockRow is one line of the block map, also used for JSON output.
type blockRow struct {
	Offset uint64 `json:"offset"`
	Ref    uint64 `json:"ref,omitempty"`
	Size   uint64 `json:"size"`
	Free   bool   `json:"free"`
}

func blockRows(h *heap.Heap, blocks []heap.Block) []blockRow {
	rows := make([]blockRow, len(blocks))
	for i, b := range blocks {
		rows[i] = blockRow{Offset: uint64(b.Offset), Size: b.Size, Free: b.Free}
		if !b.Free {
			rows[i].Ref = uint64(refOf(h, b))
		}
	}
	return rows
}

// refOf returns the reference Alloc handed out for a used block.
func refOf(h *heap.Heap, b heap.Block) heap.Ref {
	if h.Guarded() {
		return b.Offset + format.GuardSize
	}
	return b.Offset
}

// describeBlock renders one block as a table row.
func describeBlock(h *heap.Heap, b heap.Block) string {
	if b.Free {
		return fmt.Sprintf("%#08x  %8d  %s", uint64(b.Offset), b.Size, paint(freeStyle, "free"))
	}
	return fmt.Sprintf("%#08x  %8d  %s  ref=%#x", uint64(b.Offset), b.Size, paint(usedStyle, "used"), uint64(refOf(h, b)))
}

// renderBar draws the arena as width cells: '#' where most of the cell's
// bytes are allocated, '.' otherwise.
func renderBar(h *heap.Heap, blocks []heap.Block, width int) string {
	if width <= 0 || len(blocks) == 0 {
		return ""
	}
	total := uint64(h.Size() - format.HeaderSize)
	var sb strings.Builder
	for i := range width {
		lo := uint64(i)*total/uint64(width) + format.HeadOffset
		hi := uint64(i+1)*total/uint64(width) + format.HeadOffset
		var used uint64
		for _, b := range blocks {
			if b.Free {
				continue
			}
			start, end := max(lo, uint64(b.Offset)), min(hi, uint64(b.Offset)+b.Size)
			if end > start {
				used += end - start
			}
		}
		if used > 0 && 2*used >= hi-lo {
			sb.WriteString(paint(usedStyle, "#"))
		} else {
			sb.WriteString(paint(freeStyle, "."))
		}
	}
	return sb.String()
}

// renderMap writes the block table and the arena bar.
func renderMap(w io.Writer, h *heap.Heap) error {
	blocks, err := h.Blocks()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s  %s bytes, %s-fit, align %d, guard %v\n",
		paint(headerStyle, "arena"), numbers.Sprintf("%d", h.Size()), h.Fit(), h.Alignment(), h.Guarded())
	fmt.Fprintf(w, "%s\n", paint(descStyle, "offset        size  state"))
	for _, b := range blocks {
		fmt.Fprintln(w, describeBlock(h, b))
	}
	fmt.Fprintf(w, "[%s]\n", renderBar(h, blocks, 64))
	return nil
}

// renderStats writes a human-readable Stats summary.
func renderStats(w io.Writer, s heap.Stats) {
	p := numbers
	p.Fprintf(w, "Arena:         %d bytes\n", s.Size)
	p.Fprintf(w, "Free:          %d bytes in %d span(s)\n", s.FreeBytes, s.FreeBlocks)
	p.Fprintf(w, "Used:          %d bytes in %d block(s)\n", s.UsedBytes, s.UsedBlocks)
	p.Fprintf(w, "Largest free:  %d bytes\n", s.LargestFree)
	p.Fprintf(w, "Fragmentation: %.1f%%\n", s.Fragmentation*100)
	c := s.Counters
	p.Fprintf(w, "Operations:    %d alloc, %d free, %d realloc, %d out of memory\n", c.Allocs, c.Frees, c.Reallocs, c.OutOfMemory)
	p.Fprintf(w, "List changes:  %d split(s), %d coalesce(s)\n", c.Splits, c.Coalesces)
	if failures := c.NotAllocated + c.Corruptions + c.GuardViolations; failures > 0 {
		fmt.Fprintln(w, paint(warnStyle, p.Sprintf("Failures:      %d not allocated, %d corruption, %d guard",
			c.NotAllocated, c.Corruptions, c.GuardViolations)))
	}
}
