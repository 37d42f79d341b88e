package convert

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jpfielding/barch.go/pkg/bmp"
	"github.com/jpfielding/barch.go/pkg/compress/barch"
	"github.com/jpfielding/barch.go/pkg/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lineArt draws a black frame and a diagonal on white, like a scanned sketch.
func lineArt(t *testing.T, width, height int) *raster.Buffer {
	t.Helper()
	b, err := raster.New(width, height)
	require.NoError(t, err)
	b.Fill(raster.White)
	for x := 0; x < width; x++ {
		b.Pix[x] = raster.Black
		b.Pix[(height-1)*width+x] = raster.Black
	}
	for y := 0; y < height; y++ {
		b.Pix[y*width] = raster.Black
		b.Pix[y*width+width-1] = raster.Black
		if x := y * width / height; x < width {
			b.Pix[y*width+x] = raster.Black
		}
	}
	return b
}

func writeBitmap(t *testing.T, dir, name string, b *raster.Buffer) string {
	t.Helper()
	path := filepath.Join(dir, name)
	_, err := bmp.WriteFile(path, b)
	require.NoError(t, err)
	return path
}

func dirNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestCompressDecompress_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for _, axis := range []barch.Axis{barch.AxisColumns, barch.AxisRows} {
		t.Run(axis.String(), func(t *testing.T) {
			dir := t.TempDir()
			src := lineArt(t, 37, 21)
			in := writeBitmap(t, dir, "art.bmp", src)
			packed := in + barch.Extension
			out := packed + ".bmp"
			opts := &Options{Codec: &barch.Options{Axis: axis}, Strict: true}

			require.NoError(t, Compress(ctx, in, packed, opts))
			require.NoError(t, Decompress(ctx, packed, out, opts))

			got, err := bmp.ReadFile(out)
			require.NoError(t, err)
			assert.Equal(t, src.Pix, got.Pix)

			inInfo, err := os.Stat(in)
			require.NoError(t, err)
			packedInfo, err := os.Stat(packed)
			require.NoError(t, err)
			assert.Less(t, packedInfo.Size(), inInfo.Size())

			assert.ElementsMatch(t, []string{"art.bmp", "art.bmp.barch", "art.bmp.barch.bmp"}, dirNames(t, dir))
		})
	}
}

func TestCompress_Errors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	err := Compress(ctx, filepath.Join(dir, "missing.bmp"), filepath.Join(dir, "x.barch"), nil)
	assert.ErrorIs(t, err, ErrIO)

	notBitmap := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(notBitmap, []byte("hello, this is not a bitmap at all, not even close"), 0644))
	err = Compress(ctx, notBitmap, filepath.Join(dir, "x.barch"), nil)
	assert.ErrorIs(t, err, ErrFormat)

	in := writeBitmap(t, dir, "ok.bmp", lineArt(t, 8, 8))
	err = Compress(ctx, in, filepath.Join(dir, "no", "such", "dir.barch"), nil)
	assert.ErrorIs(t, err, ErrIO)

	assert.ElementsMatch(t, []string{"notes.txt", "ok.bmp"}, dirNames(t, dir), "no partial outputs")
}

func TestCompress_Cancelled(t *testing.T) {
	dir := t.TempDir()
	in := writeBitmap(t, dir, "ok.bmp", lineArt(t, 8, 8))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Compress(ctx, in, in+".barch", nil)
	assert.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(in + ".barch")
	assert.True(t, os.IsNotExist(statErr))
}

func TestDecompress_Parity(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	packed := filepath.Join(dir, "bad.barch")
	// 4x1 scanned by rows: White4 fills the line and a whole byte is left over
	p := &barch.PackedImage{Width: 4, Height: 1, Lines: []barch.Line{{0x00, 0x00}}}
	data, err := p.MarshalBinary()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(packed, data, 0644))

	codec := &barch.Options{Axis: barch.AxisRows}
	out := filepath.Join(dir, "bad.bmp")
	err = Decompress(ctx, packed, out, &Options{Codec: codec, Strict: true})
	assert.ErrorIs(t, err, ErrDecodeParity)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))

	require.NoError(t, Decompress(ctx, packed, out, &Options{Codec: codec}))
	got, err := bmp.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF}, got.Pix)
}

func TestDecompress_Errors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	err := Decompress(ctx, filepath.Join(dir, "missing.barch"), filepath.Join(dir, "x.bmp"), nil)
	assert.ErrorIs(t, err, ErrIO)

	truncated := filepath.Join(dir, "short.barch")
	require.NoError(t, os.WriteFile(truncated, []byte{0x04, 0x00, 0x04}, 0644))
	err = Decompress(ctx, truncated, filepath.Join(dir, "x.bmp"), nil)
	assert.ErrorIs(t, err, ErrPackedFormat)

	// header says 4 columns but only one line follows
	wrongCount := filepath.Join(dir, "count.barch")
	require.NoError(t, os.WriteFile(wrongCount, []byte{0x04, 0x00, 0x04, 0x00, 0x00, 0x00}, 0644))
	err = Decompress(ctx, wrongCount, filepath.Join(dir, "x.bmp"), nil)
	assert.ErrorIs(t, err, ErrPackedFormat)
}
