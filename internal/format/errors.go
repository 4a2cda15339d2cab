package format

import "errors"

var (
	// ErrSignatureMismatch indicates the arena header did not carry ArenaMagic.
	ErrSignatureMismatch = errors.New("format: signature mismatch")
	// ErrTruncated indicates the buffer lacked the bytes required for a structure.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrSizeMismatch indicates the recorded arena size disagrees with the span.
	ErrSizeMismatch = errors.New("format: arena size mismatch")
	// ErrUnsupported indicates a header field holds a value this version cannot use.
	ErrUnsupported = errors.New("format: unsupported feature")
)
