package barch

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/jpfielding/barch.go/pkg/raster"
)

// Encoder turns pixel buffers into packed images. It reuses one bit
// writer across lines and is not safe for concurrent use.
type Encoder struct {
	opts Options
	bw   *BitWriter
}

// NewEncoder creates an encoder; opts may be nil.
func NewEncoder(opts *Options) *Encoder {
	return &Encoder{opts: opts.orDefault()}
}

// Encode packs b with the given options.
func Encode(b *raster.Buffer, opts *Options) (*PackedImage, error) {
	return NewEncoder(opts).Encode(b)
}

// Encode packs every scan line of b.
func (e *Encoder) Encode(b *raster.Buffer) (*PackedImage, error) {
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if b.Width > math.MaxUint16 || b.Height > math.MaxUint16 {
		return nil, fmt.Errorf("%w: dimensions %dx%d exceed packed header", ErrFormat, b.Width, b.Height)
	}

	count, length := e.opts.Axis.lines(b.Width, b.Height)
	e.bw = NewBitWriter(MaxLineBytes(length))
	p := &PackedImage{
		Width:  uint16(b.Width),
		Height: uint16(b.Height),
		Lines:  make([]Line, count),
	}
	sentinels := 0
	for n := 0; n < count; n++ {
		p.Lines[n] = e.encodeLine(b, n, length)
		if p.Lines[n].IsSentinel() {
			sentinels++
		}
	}
	slog.Debug("encoded packed image",
		slog.Int("width", b.Width),
		slog.Int("height", b.Height),
		slog.String("axis", e.opts.Axis.String()),
		slog.Int("lines", count),
		slog.Int("sentinels", sentinels))
	return p, nil
}

// encodeLine codes scan line n. Runs are coded as groups of four plus
// single pixel codes for the remainder when the color changes.
func (e *Encoder) encodeLine(b *raster.Buffer, n, length int) Line {
	e.bw.Reset()
	white := false // lines start in black
	run := 0
	coded := 0 // single pixel codes emitted at color changes
	allWhite := true

	for i := 0; i < length; i++ {
		px := raster.IsWhite(b.Pix[e.opts.Axis.index(b.Width, n, i)])
		if !px {
			allWhite = false
		}
		if px == white {
			run++
			if run == groupLen {
				e.bw.Put(group(white), 1)
				run = 0
			}
			continue
		}
		// the ending run's remainder, coded one pixel at a time
		e.bw.Put(single(white), run)
		coded += run
		white = px
		run = 1
	}
	if !e.opts.LegacyTrailingRun {
		e.bw.Put(single(white), run)
	}

	sentinel := allWhite
	if e.opts.LegacySentinel {
		sentinel = coded == 0
	}
	if sentinel {
		return nil
	}
	bits := e.bw.Flush()
	line := make(Line, len(bits))
	copy(line, bits)
	return line
}

// MaxLineBytes is the largest packed size of a line of n pixels:
// three bits per pixel, plus a partial trailing byte.
func MaxLineBytes(n int) int {
	return (n*3+7)/8 + 1
}
