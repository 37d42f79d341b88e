package raster

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidDimensions(t *testing.T) {
	for _, dims := range [][2]int{{0, 1}, {1, 0}, {-3, 4}} {
		_, err := New(dims[0], dims[1])
		assert.ErrorIs(t, err, ErrBounds, "dims %v", dims)
	}
}

func TestFromPix_LengthMismatch(t *testing.T) {
	_, err := FromPix(3, 2, make([]byte, 5))
	require.ErrorIs(t, err, ErrBounds)

	b, err := FromPix(3, 2, make([]byte, 6))
	require.NoError(t, err)
	assert.Equal(t, 3, b.Width)
	assert.Equal(t, 2, b.Height)
}

func TestBuffer_AtSetBounds(t *testing.T) {
	b, err := New(3, 2)
	require.NoError(t, err)

	require.NoError(t, b.Set(2, 1, White))
	v, err := b.At(2, 1)
	require.NoError(t, err)
	assert.Equal(t, White, v)
	assert.Equal(t, White, b.Pix[1*3+2])

	_, err = b.At(3, 0)
	assert.ErrorIs(t, err, ErrBounds)
	assert.ErrorIs(t, b.Set(0, 2, White), ErrBounds)
	assert.ErrorIs(t, b.Set(-1, 0, White), ErrBounds)

	_, err = b.Row(2)
	assert.ErrorIs(t, err, ErrBounds)
	row, err := b.Row(1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, White}, row)
}

func TestIsWhite(t *testing.T) {
	assert.True(t, IsWhite(0xFF))
	assert.False(t, IsWhite(0xFE))
	assert.False(t, IsWhite(0x00))
}

func TestBuffer_CloneIsDeep(t *testing.T) {
	b, err := New(2, 2)
	require.NoError(t, err)
	c := b.Clone()
	c.Fill(White)
	assert.Equal(t, []byte{0, 0, 0, 0}, b.Pix)
	assert.Equal(t, []byte{White, White, White, White}, c.Pix)
}

func TestBuffer_GrayRoundTrip(t *testing.T) {
	b, err := FromPix(3, 2, []byte{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)

	img := b.ToGray()
	assert.Equal(t, color.Gray{Y: 6}, img.GrayAt(2, 1))

	back, err := FromImage(img)
	require.NoError(t, err)
	assert.Equal(t, b.Pix, back.Pix)
}

func TestFromImage_SubImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = byte(i)
	}
	sub := img.SubImage(image.Rect(1, 1, 3, 3))

	b, err := FromImage(sub)
	require.NoError(t, err)
	assert.Equal(t, []byte{5, 6, 9, 10}, b.Pix)
}

func TestFromImage_Paletted(t *testing.T) {
	pal := color.Palette{color.Black, color.White}
	img := image.NewPaletted(image.Rect(0, 0, 2, 1), pal)
	img.SetColorIndex(1, 0, 1)

	b, err := FromImage(img)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xFF}, b.Pix)
}
