//go:build unix

package mmfile

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

func anonymous(size int) (*Span, error) {
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, err
	}
	return &Span{data: data}, nil
}

func mapFile(f *os.File, size int, truncate bool) (*Span, error) {
	fd := int(f.Fd())
	if truncate {
		if err := unix.Ftruncate(fd, int64(size)); err != nil {
			return nil, err
		}
	}
	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	return &Span{data: data, file: f}, nil
}

// sync flushes the whole mapping; msync needs the original mapping address
// on some platforms, so sub-ranges are never passed.
func (s *Span) sync() error {
	return unix.Msync(s.data, unix.MS_SYNC)
}

func (s *Span) release() error {
	err := unix.Munmap(s.data)
	if errors.Is(err, unix.EINVAL) {
		// Treat double-unmap as no-op for callers.
		return nil
	}
	return err
}
