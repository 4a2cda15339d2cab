// Package mmfile provides backing spans for arenas: anonymous memory, and
// files mapped shared so an arena outlives the process that built it.
package mmfile

import (
	"errors"
	"fmt"
	"os"
)

// ErrClosed indicates use of a Span after Close.
var ErrClosed = errors.New("mmfile: span closed")

// Span is a writable byte range backing one arena.
type Span struct {
	data []byte
	file *os.File
}

// Bytes returns the span. The slice is invalid after Close.
func (s *Span) Bytes() []byte { return s.data }

// Len returns the span size in bytes.
func (s *Span) Len() int { return len(s.data) }

// Path returns the backing file path, or "" for anonymous spans.
func (s *Span) Path() string {
	if s.file == nil {
		return ""
	}
	return s.file.Name()
}

// Sync flushes a file-backed span to disk. Anonymous spans have nothing to
// flush.
func (s *Span) Sync() error {
	if s.data == nil {
		return ErrClosed
	}
	if s.file == nil {
		return nil
	}
	return s.sync()
}

// Close flushes and releases the span. Closing twice is a no-op.
func (s *Span) Close() error {
	if s.data == nil {
		return nil
	}
	var errs []error
	if s.file != nil {
		errs = append(errs, s.sync())
	}
	errs = append(errs, s.release())
	if s.file != nil {
		errs = append(errs, s.file.Close())
	}
	s.data, s.file = nil, nil
	return errors.Join(errs...)
}

// Anonymous returns a zeroed span of size bytes not backed by any file.
func Anonymous(size int) (*Span, error) {
	if size <= 0 {
		return nil, fmt.Errorf("mmfile: invalid size %d", size)
	}
	return anonymous(size)
}

// Create creates (or truncates) the file at path, sizes it to size bytes and
// maps it shared and writable.
func Create(path string, size int) (*Span, error) {
	if size <= 0 {
		return nil, fmt.Errorf("mmfile: invalid size %d", size)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	s, err := mapFile(f, size, true)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmfile: create %s: %w", path, err)
	}
	return s, nil
}

// Open maps an existing file shared and writable at its current size.
func Open(path string) (*Span, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	size := info.Size()
	if size == 0 {
		f.Close()
		return nil, fmt.Errorf("mmfile: %s is empty", path)
	}
	if size > int64(^uint(0)>>1) {
		f.Close()
		return nil, fmt.Errorf("mmfile: file too large to map (%d bytes)", size)
	}
	s, err := mapFile(f, int(size), false)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmfile: open %s: %w", path, err)
	}
	return s, nil
}
