//go:build !unix

package mmfile

import (
	"io"
	"os"
)

// Without mmap the span lives on the Go heap; file-backed spans are read on
// open and written back on Sync and Close.

func anonymous(size int) (*Span, error) {
	return &Span{data: make([]byte, size)}, nil
}

func mapFile(f *os.File, size int, truncate bool) (*Span, error) {
	data := make([]byte, size)
	if truncate {
		if err := f.Truncate(int64(size)); err != nil {
			return nil, err
		}
	} else if _, err := io.ReadFull(f, data); err != nil {
		return nil, err
	}
	return &Span{data: data, file: f}, nil
}

func (s *Span) sync() error {
	if _, err := s.file.WriteAt(s.data, 0); err != nil {
		return err
	}
	return s.file.Sync()
}

func (s *Span) release() error { return nil }
