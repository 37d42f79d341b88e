package barch

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFormat marks a packed stream or image that cannot be represented.
	ErrFormat = errors.New("barch: invalid packed format")
	// ErrDecodeParity marks lines whose bitstream did not fill the line exactly.
	ErrDecodeParity = errors.New("barch: decode parity mismatch")
)

// LineMismatch describes one scan line whose bits and pixels disagreed.
type LineMismatch struct {
	Line       int // scan line index
	Pixels     int // pixels decoded before stopping
	Want       int // pixels expected
	UnreadBits int // bits left after stopping
	Reason     string
}

func (m LineMismatch) String() string {
	return fmt.Sprintf("line %d: %s (pixels %d/%d, %d bits unread)", m.Line, m.Reason, m.Pixels, m.Want, m.UnreadBits)
}

// ParityError collects every mismatched line of one decode.
type ParityError struct {
	Lines []LineMismatch
}

func (e *ParityError) Error() string {
	if len(e.Lines) == 1 {
		return fmt.Sprintf("%v: %s", ErrDecodeParity, e.Lines[0])
	}
	parts := make([]string, 0, len(e.Lines))
	for _, l := range e.Lines {
		parts = append(parts, l.String())
	}
	return fmt.Sprintf("%v: %d lines: %s", ErrDecodeParity, len(e.Lines), strings.Join(parts, "; "))
}

func (e *ParityError) Unwrap() error {
	return ErrDecodeParity
}
