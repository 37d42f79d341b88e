// Package convert turns bitmap files into packed files and back.
//
// Outputs are written to a temporary sibling and renamed into place only
// after the whole file was written, so a failed call leaves no partial
// output behind.
package convert

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/jpfielding/barch.go/pkg/bmp"
	"github.com/jpfielding/barch.go/pkg/compress/barch"
	"github.com/jpfielding/barch.go/pkg/util"
)

// Error kinds callers can test with errors.Is.
var (
	ErrIO                     = bmp.ErrIO
	ErrFormat                 = bmp.ErrFormat
	ErrUnsupportedDepth       = bmp.ErrUnsupportedDepth
	ErrUnsupportedOrientation = bmp.ErrUnsupportedOrientation
	ErrPackedFormat           = barch.ErrFormat
	ErrDecodeParity           = barch.ErrDecodeParity
)

// Options for Compress and Decompress. A nil *Options means the defaults.
type Options struct {
	Codec *barch.Options
	// Strict fails Decompress on decode parity mismatches instead of
	// logging them and keeping the output.
	Strict bool
}

func (o *Options) codec() *barch.Options {
	if o == nil {
		return nil
	}
	return o.Codec
}

func (o *Options) strict() bool {
	return o != nil && o.Strict
}

// Compress reads the bitmap at in and writes its packed form to out.
func Compress(ctx context.Context, in, out string, opts *Options) error {
	start := time.Now()
	b, err := bmp.ReadFile(in)
	if err != nil {
		return fmt.Errorf("compress %s: %w", in, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := barch.Encode(b, opts.codec())
	if err != nil {
		return fmt.Errorf("compress %s: %w", in, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	n, err := writeAtomic(out, p.WriteTo)
	if err != nil {
		return fmt.Errorf("compress %s: %w", in, err)
	}
	stats := p.Stats()
	slog.DebugContext(ctx, "compressed",
		slog.String("in", in),
		slog.String("out", out),
		slog.Int("width", b.Width),
		slog.Int("height", b.Height),
		slog.Int64("bytes", n),
		slog.Int("sentinels", stats.Sentinels),
		slog.Float64("ratio", stats.Ratio),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

// Decompress reads the packed file at in and writes it to out as a bitmap.
func Decompress(ctx context.Context, in, out string, opts *Options) error {
	start := time.Now()
	p, err := ReadPackedFile(in)
	if err != nil {
		return fmt.Errorf("decompress %s: %w", in, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := barch.Decode(p, opts.codec())
	var perr *barch.ParityError
	switch {
	case errors.As(err, &perr) && !opts.strict():
		slog.WarnContext(ctx, "decoded with parity mismatches",
			slog.String("in", in),
			slog.Int("lines", len(perr.Lines)))
	case err != nil:
		return fmt.Errorf("decompress %s: %w", in, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	n, err := writeAtomic(out, func(w io.Writer) (int64, error) {
		return bmp.Write(w, b)
	})
	if err != nil {
		return fmt.Errorf("decompress %s: %w", in, err)
	}
	slog.DebugContext(ctx, "decompressed",
		slog.String("in", in),
		slog.String("out", out),
		slog.Int("width", b.Width),
		slog.Int("height", b.Height),
		slog.Int64("bytes", n),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

// ReadPackedFile reads a packed image from disk.
func ReadPackedFile(path string) (*barch.PackedImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrIO, path, err)
	}
	defer f.Close()
	return barch.ReadPacked(bufio.NewReader(f))
}

// writeAtomic streams fn into a temporary file next to path and renames
// it over path once fn and the close succeed.
func writeAtomic(path string, fn func(io.Writer) (int64, error)) (int64, error) {
	tmp := util.TempPath(path)
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return 0, fmt.Errorf("%w: creating %s: %v", ErrIO, path, err)
	}
	n, err := fn(f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("%w: closing %s: %v", ErrIO, tmp, cerr)
	}
	if err == nil {
		if rerr := os.Rename(tmp, path); rerr != nil {
			err = fmt.Errorf("%w: renaming to %s: %v", ErrIO, path, rerr)
		}
	}
	if err != nil {
		os.Remove(tmp)
		if !errors.Is(err, ErrIO) && !errors.Is(err, ErrFormat) && !errors.Is(err, ErrPackedFormat) {
			err = fmt.Errorf("%w: writing %s: %v", ErrIO, path, err)
		}
		return n, err
	}
	return n, nil
}
