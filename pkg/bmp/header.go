// Package bmp reads and writes 8-bit grayscale, uncompressed, bottom-up
// Windows bitmaps.
package bmp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	FileHeaderSize = 14
	InfoHeaderSize = 40
	PaletteEntries = 256
	PaletteSize    = PaletteEntries * 4

	// biCompression value for uncompressed pixels
	compressionRGB = 0
	// 72 DPI
	pixelsPerMeter = 2835
	// limit on width*height accepted by the reader
	maxPixels = 1 << 30
)

var (
	// ErrIO marks a file that cannot be opened, created, read or written.
	ErrIO = errors.New("bmp: i/o error")
	// ErrFormat marks a file that is not a well formed bitmap.
	ErrFormat = errors.New("bmp: invalid format")
	// ErrUnsupportedDepth marks a bitmap whose bit count is not 8.
	ErrUnsupportedDepth = errors.New("bmp: unsupported bit depth")
	// ErrUnsupportedOrientation marks a top-down bitmap (negative height).
	ErrUnsupportedOrientation = errors.New("bmp: unsupported orientation")
)

// FileHeader is the 14 byte BITMAPFILEHEADER.
type FileHeader struct {
	Type      [2]byte // "BM"
	Size      uint32  // size of the whole file in bytes
	Reserved1 uint16
	Reserved2 uint16
	OffBits   uint32 // offset of the pixel array from the start of the file
}

// InfoHeader is the 40 byte BITMAPINFOHEADER.
type InfoHeader struct {
	Size            uint32
	Width           int32
	Height          int32 // positive: bottom-up rows, negative: top-down
	Planes          uint16
	BitCount        uint16
	Compression     uint32
	SizeImage       uint32
	XPixelsPerM     int32
	YPixelsPerM     int32
	ColorsUsed      uint32
	ColorsImportant uint32
}

// Header holds both leading headers of a bitmap file.
type Header struct {
	File FileHeader
	Info InfoHeader
}

// Stride returns the padded on-disk length of one row of 8-bit pixels.
func Stride(width int) int {
	return (width + 3) &^ 3
}

// Stride returns the padded row length for this header.
func (h *Header) Stride() int {
	return Stride(int(h.Info.Width))
}

// Validate checks that the headers describe a bitmap this package can read.
func (h *Header) Validate() error {
	if string(h.File.Type[:]) != "BM" {
		return fmt.Errorf("%w: bad magic %q", ErrFormat, h.File.Type[:])
	}
	if h.Info.BitCount != 8 {
		return fmt.Errorf("%w: %d bits per pixel", ErrUnsupportedDepth, h.Info.BitCount)
	}
	if h.Info.Height < 0 {
		return fmt.Errorf("%w: top-down bitmap (height %d)", ErrUnsupportedOrientation, h.Info.Height)
	}
	if h.Info.Width <= 0 || h.Info.Height == 0 {
		return fmt.Errorf("%w: invalid dimensions %dx%d", ErrFormat, h.Info.Width, h.Info.Height)
	}
	if int64(h.Info.Width)*int64(h.Info.Height) > maxPixels {
		return fmt.Errorf("%w: %dx%d is too large", ErrFormat, h.Info.Width, h.Info.Height)
	}
	if h.Info.Compression != compressionRGB {
		return fmt.Errorf("%w: compressed bitmap (method %d)", ErrFormat, h.Info.Compression)
	}
	if h.File.OffBits < FileHeaderSize+InfoHeaderSize {
		return fmt.Errorf("%w: pixel offset %d inside headers", ErrFormat, h.File.OffBits)
	}
	return nil
}

// readHeader reads the file and info headers without validating them.
func readHeader(r io.Reader) (Header, error) {
	var h Header
	if err := binary.Read(r, binary.LittleEndian, &h.File); err != nil {
		return h, fmt.Errorf("%w: reading file header: %v", ErrFormat, err)
	}
	// check the magic first so non-bitmaps shorter than 54 bytes say so
	if string(h.File.Type[:]) != "BM" {
		return h, fmt.Errorf("%w: bad magic %q", ErrFormat, h.File.Type[:])
	}
	if err := binary.Read(r, binary.LittleEndian, &h.Info); err != nil {
		return h, fmt.Errorf("%w: reading info header: %v", ErrFormat, err)
	}
	return h, nil
}

// DecodeConfig reads and validates the headers of a bitmap.
func DecodeConfig(r io.Reader) (Header, error) {
	h, err := readHeader(r)
	if err != nil {
		return h, err
	}
	return h, h.Validate()
}

// grayPalette returns the identity grayscale color table (B, G, R, 0 entries).
func grayPalette() []byte {
	p := make([]byte, PaletteSize)
	for i := 0; i < PaletteEntries; i++ {
		p[i*4+0] = byte(i)
		p[i*4+1] = byte(i)
		p[i*4+2] = byte(i)
	}
	return p
}
