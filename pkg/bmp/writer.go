package bmp

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/jpfielding/barch.go/pkg/raster"
)

// WriteFile writes b to path as an 8-bit grayscale bitmap.
func WriteFile(path string, b *raster.Buffer) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("%w: creating %s: %v", ErrIO, path, err)
	}
	n, err := Write(f, b)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("%w: closing %s: %v", ErrIO, path, cerr)
	}
	return n, err
}

// NewHeader describes an 8-bit bottom-up bitmap of the given size followed
// by a full grayscale palette.
func NewHeader(width, height int) Header {
	stride := Stride(width)
	offset := FileHeaderSize + InfoHeaderSize + PaletteSize
	sizeImage := stride * height
	return Header{
		File: FileHeader{
			Type:    [2]byte{'B', 'M'},
			Size:    uint32(offset + sizeImage),
			OffBits: uint32(offset),
		},
		Info: InfoHeader{
			Size:            InfoHeaderSize,
			Width:           int32(width),
			Height:          int32(height),
			Planes:          1,
			BitCount:        8,
			Compression:     compressionRGB,
			SizeImage:       uint32(sizeImage),
			XPixelsPerM:     pixelsPerMeter,
			YPixelsPerM:     pixelsPerMeter,
			ColorsUsed:      PaletteEntries,
			ColorsImportant: 0,
		},
	}
}

// Write serializes b: file header, info header, grayscale palette and the
// rows in buffer order, each padded with zeros to a 4 byte boundary.
// It returns the number of bytes written.
func Write(w io.Writer, b *raster.Buffer) (int64, error) {
	if err := b.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	cw := &CountingWriter{Writer: w}
	bw := bufio.NewWriter(cw)

	h := NewHeader(b.Width, b.Height)
	if err := binary.Write(bw, binary.LittleEndian, h.File); err != nil {
		return cw.Count.Load(), fmt.Errorf("%w: writing file header: %v", ErrIO, err)
	}
	if err := binary.Write(bw, binary.LittleEndian, h.Info); err != nil {
		return cw.Count.Load(), fmt.Errorf("%w: writing info header: %v", ErrIO, err)
	}
	if _, err := bw.Write(grayPalette()); err != nil {
		return cw.Count.Load(), fmt.Errorf("%w: writing palette: %v", ErrIO, err)
	}

	stride := h.Stride()
	if stride == b.Width {
		if _, err := bw.Write(b.Pix); err != nil {
			return cw.Count.Load(), fmt.Errorf("%w: writing pixels: %v", ErrIO, err)
		}
	} else {
		padding := make([]byte, stride-b.Width)
		for y := 0; y < b.Height; y++ {
			if _, err := bw.Write(b.Pix[y*b.Width : (y+1)*b.Width]); err != nil {
				return cw.Count.Load(), fmt.Errorf("%w: writing row %d: %v", ErrIO, y, err)
			}
			if _, err := bw.Write(padding); err != nil {
				return cw.Count.Load(), fmt.Errorf("%w: writing row %d: %v", ErrIO, y, err)
			}
		}
	}
	if err := bw.Flush(); err != nil {
		return cw.Count.Load(), fmt.Errorf("%w: %v", ErrIO, err)
	}
	return cw.Count.Load(), nil
}

// CountingWriter counts the bytes successfully written through it.
type CountingWriter struct {
	Count  atomic.Int64
	Writer io.Writer
}

func (c *CountingWriter) Write(p []byte) (int, error) {
	n, err := c.Writer.Write(p)
	if err == nil {
		c.Count.Add(int64(n))
	}
	return n, err
}
