package barch

import (
	"fmt"
	"strings"
)

// Axis selects how the 2-D buffer is linearized into scan lines.
type Axis int

const (
	// AxisColumns scans each column bottom to top: one line per x.
	AxisColumns Axis = iota
	// AxisRows scans each row left to right: one line per y.
	AxisRows
)

func (a Axis) String() string {
	switch a {
	case AxisColumns:
		return "columns"
	case AxisRows:
		return "rows"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

// ParseAxis accepts "columns"/"cols" or "rows".
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "columns", "column", "cols":
		return AxisColumns, nil
	case "rows", "row":
		return AxisRows, nil
	}
	return 0, fmt.Errorf("unknown scan axis %q (columns|rows)", s)
}

// Options for encoding and decoding. A nil *Options means the defaults.
type Options struct {
	Axis Axis
	// LegacyTrailingRun drops the final 1-3 pixels of a line's last run
	// instead of flushing them as single pixel codes.
	LegacyTrailingRun bool
	// LegacySentinel marks a line as the all-white sentinel when no color
	// transition was coded, rather than when every pixel is white.
	LegacySentinel bool
}

// LegacyOptions drops trailing runs and uses transition-based sentinels,
// matching files written by the first barch encoder.
func LegacyOptions(axis Axis) *Options {
	return &Options{Axis: axis, LegacyTrailingRun: true, LegacySentinel: true}
}

func (o *Options) orDefault() Options {
	if o == nil {
		return Options{}
	}
	return *o
}

// lines returns the number of scan lines and the length of each
// for a width x height image.
func (a Axis) lines(width, height int) (count, length int) {
	if a == AxisRows {
		return height, width
	}
	return width, height
}

// index maps position i of scan line n to an offset into a row-major buffer.
func (a Axis) index(width, n, i int) int {
	if a == AxisRows {
		return n*width + i
	}
	return i*width + n
}
