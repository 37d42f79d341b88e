package bmp

import (
	"bytes"
	"encoding/binary"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/jpfielding/barch.go/pkg/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xbmp "golang.org/x/image/bmp"
)

func pattern(t *testing.T, width, height int) *raster.Buffer {
	t.Helper()
	b, err := raster.New(width, height)
	require.NoError(t, err)
	for i := range b.Pix {
		b.Pix[i] = byte(i*37 + 11)
	}
	return b
}

func TestWriteRead_RoundTrip(t *testing.T) {
	for width := 1; width <= 9; width++ {
		for _, height := range []int{1, 2, 5} {
			b := pattern(t, width, height)

			var buf bytes.Buffer
			n, err := Write(&buf, b)
			require.NoError(t, err)
			assert.Equal(t, int64(buf.Len()), n)
			assert.Equal(t, FileHeaderSize+InfoHeaderSize+PaletteSize+Stride(width)*height, buf.Len())

			got, err := Read(bytes.NewReader(buf.Bytes()))
			require.NoError(t, err, "%dx%d", width, height)
			assert.Equal(t, b.Width, got.Width)
			assert.Equal(t, b.Height, got.Height)
			assert.Equal(t, b.Pix, got.Pix, "%dx%d", width, height)
		}
	}
}

func TestWrite_HeaderFields(t *testing.T) {
	b := pattern(t, 5, 3)
	var buf bytes.Buffer
	_, err := Write(&buf, b)
	require.NoError(t, err)

	h, err := DecodeConfig(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, uint32(buf.Len()), h.File.Size)
	assert.Equal(t, uint32(FileHeaderSize+InfoHeaderSize+PaletteSize), h.File.OffBits)
	assert.Equal(t, uint32(InfoHeaderSize), h.Info.Size)
	assert.Equal(t, int32(5), h.Info.Width)
	assert.Equal(t, int32(3), h.Info.Height)
	assert.Equal(t, uint16(1), h.Info.Planes)
	assert.Equal(t, uint16(8), h.Info.BitCount)
	assert.Equal(t, uint32(8*3), h.Info.SizeImage)

	// padding bytes are zero
	data := buf.Bytes()[h.File.OffBits:]
	for y := 0; y < 3; y++ {
		assert.Equal(t, []byte{0, 0, 0}, data[y*8+5:y*8+8], "row %d", y)
	}
}

func TestWrite_ThirdPartyDecodable(t *testing.T) {
	b := pattern(t, 7, 4)
	var buf bytes.Buffer
	_, err := Write(&buf, b)
	require.NoError(t, err)

	img, err := xbmp.Decode(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	pal, ok := img.(*image.Paletted)
	require.True(t, ok, "expected *image.Paletted, got %T", img)
	assert.Equal(t, image.Rect(0, 0, 7, 4), pal.Bounds())

	// x/image flips bottom-up rows into top-down order
	for y := 0; y < 4; y++ {
		for x := 0; x < 7; x++ {
			want := b.Pix[(3-y)*7+x]
			idx := pal.ColorIndexAt(x, y)
			assert.Equal(t, want, idx, "(%d,%d)", x, y)
			r, g, bl, _ := pal.At(x, y).RGBA()
			assert.Equal(t, uint32(want)*0x101, r)
			assert.Equal(t, r, g)
			assert.Equal(t, r, bl)
		}
	}
}

// rawBitmap assembles a bitmap by hand so tests can corrupt single fields.
func rawBitmap(t *testing.T, h Header, gap []byte, pixels []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, h.File))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, h.Info))
	buf.Write(gap)
	buf.Write(pixels)
	return buf.Bytes()
}

func TestRead_VendorGapAndPadding(t *testing.T) {
	// 3x2 image, stride 4, with 10 bytes of junk before the pixels
	h := NewHeader(3, 2)
	h.File.OffBits = FileHeaderSize + InfoHeaderSize + 10
	gap := bytes.Repeat([]byte{0xEE}, 10)
	pixels := []byte{
		1, 2, 3, 0xAA,
		4, 5, 6, 0xBB,
	}
	got, err := Read(bytes.NewReader(rawBitmap(t, h, gap, pixels)))
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, got.Pix)
}

func TestRead_Rejects(t *testing.T) {
	good := NewHeader(4, 2)
	pixels := make([]byte, 8)

	tests := []struct {
		name   string
		mutate func(h *Header)
		want   error
	}{
		{"Magic", func(h *Header) { h.File.Type = [2]byte{'P', 'K'} }, ErrFormat},
		{"Depth24", func(h *Header) { h.Info.BitCount = 24 }, ErrUnsupportedDepth},
		{"Depth1", func(h *Header) { h.Info.BitCount = 1 }, ErrUnsupportedDepth},
		{"TopDown", func(h *Header) { h.Info.Height = -2 }, ErrUnsupportedOrientation},
		{"ZeroWidth", func(h *Header) { h.Info.Width = 0 }, ErrFormat},
		{"ZeroHeight", func(h *Header) { h.Info.Height = 0 }, ErrFormat},
		{"RLE8", func(h *Header) { h.Info.Compression = 1 }, ErrFormat},
		{"OffsetInHeaders", func(h *Header) { h.File.OffBits = 20 }, ErrFormat},
		{"Huge", func(h *Header) { h.Info.Width, h.Info.Height = 1<<16, 1<<16 }, ErrFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := good
			h.File.OffBits = FileHeaderSize + InfoHeaderSize
			tt.mutate(&h)
			_, err := Read(bytes.NewReader(rawBitmap(t, h, nil, pixels)))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRead_NotABitmap(t *testing.T) {
	for _, data := range [][]byte{nil, []byte("X"), []byte("PK\x03\x04 not a bitmap at all, but long enough to hold both headers....")} {
		_, err := Read(bytes.NewReader(data))
		assert.ErrorIs(t, err, ErrFormat)
	}
}

func TestRead_Truncated(t *testing.T) {
	h := NewHeader(5, 3)
	h.File.OffBits = FileHeaderSize + InfoHeaderSize
	data := rawBitmap(t, h, nil, make([]byte, 8*2+3))
	_, err := Read(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrFormat)

	h = NewHeader(4, 3)
	h.File.OffBits = FileHeaderSize + InfoHeaderSize
	data = rawBitmap(t, h, nil, make([]byte, 11))
	_, err = Read(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrFormat)

	// headers cut short after a valid magic
	_, err = Read(bytes.NewReader(data[:30]))
	assert.ErrorIs(t, err, ErrFormat)
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "img.bmp")
	b := pattern(t, 6, 6)

	n, err := WriteFile(path, b)
	require.NoError(t, err)
	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, st.Size(), n)

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, b.Pix, got.Pix)

	_, err = ReadFile(filepath.Join(dir, "missing.bmp"))
	assert.ErrorIs(t, err, ErrIO)

	_, err = WriteFile(filepath.Join(dir, "nope", "out.bmp"), b)
	assert.ErrorIs(t, err, ErrIO)
}

func TestWrite_InvalidBuffer(t *testing.T) {
	_, err := Write(&bytes.Buffer{}, &raster.Buffer{Width: 2, Height: 2})
	assert.ErrorIs(t, err, ErrFormat)
}
