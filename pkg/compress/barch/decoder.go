package barch

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jpfielding/barch.go/pkg/raster"
)

// Decoder rebuilds pixel buffers from packed images.
type Decoder struct {
	opts Options
}

// NewDecoder creates a decoder; opts may be nil. The axis must match the
// one used to encode.
func NewDecoder(opts *Options) *Decoder {
	return &Decoder{opts: opts.orDefault()}
}

// Decode unpacks p with the given options.
func Decode(p *PackedImage, opts *Options) (*raster.Buffer, error) {
	return NewDecoder(opts).Decode(p)
}

// Decode unpacks every line of p. When some lines do not decode to exactly
// their length the buffer is still returned, together with a *ParityError.
func (d *Decoder) Decode(p *PackedImage) (*raster.Buffer, error) {
	if err := p.Validate(d.opts.Axis); err != nil {
		return nil, err
	}
	b, err := raster.New(int(p.Width), int(p.Height))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}

	_, length := d.opts.Axis.lines(b.Width, b.Height)
	var perr *ParityError
	for n, line := range p.Lines {
		m, ok := d.decodeLine(b, n, length, line)
		if ok {
			continue
		}
		slog.Warn("packed line parity mismatch",
			slog.Int("line", m.Line),
			slog.Int("pixels", m.Pixels),
			slog.Int("want", m.Want),
			slog.Int("unreadBits", m.UnreadBits),
			slog.String("reason", m.Reason))
		if perr == nil {
			perr = &ParityError{}
		}
		perr.Lines = append(perr.Lines, m)
	}
	if perr != nil {
		return b, perr
	}
	return b, nil
}

// decodeLine fills scan line n. Pixels the bitstream does not reach stay black.
func (d *Decoder) decodeLine(b *raster.Buffer, n, length int, line Line) (LineMismatch, bool) {
	axis := d.opts.Axis
	put := func(i int, v byte) {
		b.Pix[axis.index(b.Width, n, i)] = v
	}

	if line.IsSentinel() {
		for i := 0; i < length; i++ {
			put(i, raster.White)
		}
		return LineMismatch{}, true
	}

	br := NewBitReader(line)
	i := 0
	for i < length {
		sym, err := br.Next()
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return LineMismatch{Line: n, Pixels: i, Want: length, UnreadBits: br.Remaining(), Reason: "bits exhausted before line end"}, false
		}
		var v byte = raster.Black
		if sym == White || sym == White4 {
			v = raster.White
		}
		count := 1
		if sym == White4 || sym == Black4 {
			count = groupLen
		}
		for k := 0; k < count; k++ {
			if i == length {
				return LineMismatch{Line: n, Pixels: i, Want: length, UnreadBits: br.Remaining(), Reason: fmt.Sprintf("%v overflows line", sym)}, false
			}
			put(i, v)
			i++
		}
	}
	if br.Remaining() >= 8 {
		return LineMismatch{Line: n, Pixels: i, Want: length, UnreadBits: br.Remaining(), Reason: "unread bytes after line end"}, false
	}
	return LineMismatch{}, true
}
