package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

const (
	// White is the only byte value classified as white; everything else is black.
	White byte = 0xFF
	// Black is the value written for black pixels.
	Black byte = 0x00
)

// ErrBounds is returned for coordinates or lengths outside a Buffer.
var ErrBounds = errors.New("raster: out of bounds")

// Buffer is an owned 8-bit single channel pixel array.
// Pix[y*Width+x] holds the pixel at column x of row y, with no row padding.
type Buffer struct {
	Width  int
	Height int
	Pix    []byte
}

// IsWhite reports whether v is classified as a white pixel.
func IsWhite(v byte) bool {
	return v == White
}

// New allocates a zeroed (all black) buffer.
func New(width, height int) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid dimensions %dx%d", ErrBounds, width, height)
	}
	return &Buffer{Width: width, Height: height, Pix: make([]byte, width*height)}, nil
}

// FromPix wraps pix without copying after checking len(pix) == width*height.
func FromPix(width, height int, pix []byte) (*Buffer, error) {
	b := &Buffer{Width: width, Height: height, Pix: pix}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Validate checks the buffer invariants.
func (b *Buffer) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil buffer", ErrBounds)
	}
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("%w: invalid dimensions %dx%d", ErrBounds, b.Width, b.Height)
	}
	if len(b.Pix) != b.Width*b.Height {
		return fmt.Errorf("%w: pixel data length %d, expected %d", ErrBounds, len(b.Pix), b.Width*b.Height)
	}
	return nil
}

func (b *Buffer) offset(x, y int) (int, error) {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return 0, fmt.Errorf("%w: (%d, %d) not in %dx%d", ErrBounds, x, y, b.Width, b.Height)
	}
	return y*b.Width + x, nil
}

// At returns the pixel at (x, y).
func (b *Buffer) At(x, y int) (byte, error) {
	i, err := b.offset(x, y)
	if err != nil {
		return 0, err
	}
	return b.Pix[i], nil
}

// Set stores v at (x, y).
func (b *Buffer) Set(x, y int, v byte) error {
	i, err := b.offset(x, y)
	if err != nil {
		return err
	}
	b.Pix[i] = v
	return nil
}

// Row returns row y as a sub-slice of Pix.
func (b *Buffer) Row(y int) ([]byte, error) {
	if y < 0 || y >= b.Height {
		return nil, fmt.Errorf("%w: row %d not in 0..%d", ErrBounds, y, b.Height-1)
	}
	return b.Pix[y*b.Width : (y+1)*b.Width], nil
}

// Fill sets every pixel to v.
func (b *Buffer) Fill(v byte) {
	for i := range b.Pix {
		b.Pix[i] = v
	}
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	pix := make([]byte, len(b.Pix))
	copy(pix, b.Pix)
	return &Buffer{Width: b.Width, Height: b.Height, Pix: pix}
}

// ToGray copies the buffer into an *image.Gray using the buffer's row order.
func (b *Buffer) ToGray() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, b.Width, b.Height))
	for y := 0; y < b.Height; y++ {
		copy(img.Pix[y*img.Stride:], b.Pix[y*b.Width:(y+1)*b.Width])
	}
	return img
}

// FromImage converts any image into a Buffer through the gray color model.
func FromImage(img image.Image) (*Buffer, error) {
	bounds := img.Bounds()
	buf, err := New(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}
	if src, ok := img.(*image.Gray); ok {
		for y := 0; y < buf.Height; y++ {
			off := y * src.Stride
			copy(buf.Pix[y*buf.Width:(y+1)*buf.Width], src.Pix[off:off+buf.Width])
		}
		return buf, nil
	}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			buf.Pix[(y-bounds.Min.Y)*buf.Width+(x-bounds.Min.X)] = g.Y
		}
	}
	return buf, nil
}
