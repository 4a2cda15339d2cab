// Package testutil provides arena fixtures shared by tests outside the heap
// package.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/internal/mmfile"
)

// NewHeap bootstraps a heap over a fresh anonymous span of size bytes. The
// span is released when the test ends.
//
// Example:
//
//	h := testutil.NewHeap(t, 4096, heap.Options{Guard: true})
func NewHeap(t testing.TB, size int, opts heap.Options) *heap.Heap {
	t.Helper()

	span, err := mmfile.Anonymous(size)
	if err != nil {
		t.Fatalf("Failed to map arena: %v", err)
	}
	t.Cleanup(func() { span.Close() })

	h, err := heap.New(span.Bytes(), opts)
	if err != nil {
		t.Fatalf("Failed to create heap: %v", err)
	}
	return h
}

// SetupArenaFile creates a file-backed arena in a temporary directory, lets
// build populate it and closes the mapping. Returns the file path.
//
// Example:
//
//	path := testutil.SetupArenaFile(t, 4096, heap.Options{}, func(h *heap.Heap) {
//	    h.Alloc(100)
//	})
func SetupArenaFile(t testing.TB, size int, opts heap.Options, build func(*heap.Heap)) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "arena.bin")
	span, err := mmfile.Create(path, size)
	if err != nil {
		t.Fatalf("Failed to create arena file: %v", err)
	}
	h, err := heap.New(span.Bytes(), opts)
	if err != nil {
		span.Close()
		t.Fatalf("Failed to create heap: %v", err)
	}
	if build != nil {
		build(h)
	}
	if err := span.Close(); err != nil {
		t.Fatalf("Failed to close arena file: %v", err)
	}
	return path
}

// OpenArenaFile maps an existing arena file and attaches to it. The mapping
// is released when the test ends.
func OpenArenaFile(t testing.TB, path string, opts heap.Options) *heap.Heap {
	t.Helper()

	span, err := mmfile.Open(path)
	if err != nil {
		t.Fatalf("Failed to map arena file: %v", err)
	}
	t.Cleanup(func() { span.Close() })

	h, err := heap.Open(span.Bytes(), opts)
	if err != nil {
		t.Fatalf("Failed to attach arena: %v", err)
	}
	return h
}
