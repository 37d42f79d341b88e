package bmp

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jpfielding/barch.go/pkg/raster"
)

// ReadFile reads a bitmap from disk.
func ReadFile(path string) (*raster.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrIO, path, err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses a bitmap. Rows are returned in file order, so row 0 of the
// buffer is the bottom row of the picture. Any data between the headers and
// the pixel offset (palettes, vendor metadata) is skipped.
func Read(r io.ReadSeeker) (*raster.Buffer, error) {
	h, err := DecodeConfig(r)
	if err != nil {
		return nil, err
	}
	if _, err := r.Seek(int64(h.File.OffBits), io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: seeking to pixel data at %d: %v", ErrIO, h.File.OffBits, err)
	}

	width, height := int(h.Info.Width), int(h.Info.Height)
	b, err := raster.New(width, height)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	br := bufio.NewReader(r)
	stride := h.Stride()
	slog.Debug("reading bitmap pixels",
		slog.Int("width", width),
		slog.Int("height", height),
		slog.Int("stride", stride),
		slog.Int("offset", int(h.File.OffBits)))

	if stride == width {
		if _, err := io.ReadFull(br, b.Pix); err != nil {
			return nil, fmt.Errorf("%w: pixel data truncated: %v", ErrFormat, err)
		}
		return b, nil
	}
	padding := make([]byte, stride-width)
	for y := 0; y < height; y++ {
		if _, err := io.ReadFull(br, b.Pix[y*width:(y+1)*width]); err != nil {
			return nil, fmt.Errorf("%w: row %d truncated: %v", ErrFormat, y, err)
		}
		if _, err := io.ReadFull(br, padding); err != nil {
			return nil, fmt.Errorf("%w: row %d padding truncated: %v", ErrFormat, y, err)
		}
	}
	return b, nil
}
