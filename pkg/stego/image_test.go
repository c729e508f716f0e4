package stego

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xob0t/GoHide/pkg/bitcodec"
	"github.com/xob0t/GoHide/pkg/stegerr"
)

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func patternImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = byte(i*37 + 11)
		if i%4 == 3 {
			img.Pix[i] = 0xFF
		}
	}
	return img
}

func TestEncodeImageRoundTrip(t *testing.T) {
	img := solidImage(10, 10, color.NRGBA{R: 200, G: 100, B: 50, A: 255})

	out, err := EncodeImage(img, "hi", Options{})
	require.NoError(t, err)

	text, found := DecodeImage(out, Options{})
	assert.True(t, found)
	assert.Equal(t, "hi", text)
}

func TestEncodeImageCapacityBoundary(t *testing.T) {
	// 8×8×3 = 192 bits = 24 bytes = 11 characters + terminator.
	img := patternImage(8, 8)
	before := append([]byte(nil), img.Pix...)

	out, err := EncodeImage(img, "hello world", Options{})
	require.NoError(t, err)
	text, found := DecodeImage(out, Options{})
	assert.True(t, found)
	assert.Equal(t, "hello world", text)

	_, err = EncodeImage(img, "hello world!", Options{})
	require.Error(t, err)
	assert.True(t, stegerr.IsKind(err, stegerr.KindCapacityExceeded))
	assert.Equal(t, before, img.Pix, "carrier must not change")
}

func TestDecodePlainImage(t *testing.T) {
	img := solidImage(4, 4, color.NRGBA{A: 255})
	_, found := DecodeImage(img, Options{})
	assert.False(t, found)
}

func TestDecodeImageIsIdempotent(t *testing.T) {
	out, err := EncodeImage(patternImage(12, 12), "again", Options{})
	require.NoError(t, err)

	t1, f1 := DecodeImage(out, Options{})
	t2, f2 := DecodeImage(out, Options{})
	assert.Equal(t, t1, t2)
	assert.Equal(t, f1, f2)
	assert.True(t, f1)
}

func TestEncodeImageLeavesTailUntouched(t *testing.T) {
	img := patternImage(10, 10)
	out, err := EncodeImage(img, "hi", Options{})
	require.NoError(t, err)

	src, _, _ := rgbPixels(img)
	got, _, _ := rgbPixels(out)
	n := bitcodec.BitLen("hi")
	assert.Equal(t, src[n:], got[n:])
	for i := 0; i < n; i++ {
		assert.Equal(t, src[i]&0xFE, got[i]&0xFE, "unit %d changed above the LSB", i)
	}
}

func TestEncodeImageDoesNotModifyInput(t *testing.T) {
	img := patternImage(10, 10)
	before := append([]byte(nil), img.Pix...)
	_, err := EncodeImage(img, "hi", Options{})
	require.NoError(t, err)
	assert.Equal(t, before, img.Pix)
}

func TestEncodeImageDropsAlpha(t *testing.T) {
	img := solidImage(10, 10, color.NRGBA{R: 10, G: 20, B: 30, A: 0x40})
	out, err := EncodeImage(img, "hi", Options{})
	require.NoError(t, err)

	assert.True(t, out.Opaque())
	// Past the payload the colour survives without premultiplication.
	last := out.NRGBAAt(9, 9)
	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 255}, last)

	text, found := DecodeImage(out, Options{})
	assert.True(t, found)
	assert.Equal(t, "hi", text)
}

func TestEncodeImageSubImage(t *testing.T) {
	sub := patternImage(20, 20).SubImage(image.Rect(5, 5, 15, 15))
	out, err := EncodeImage(sub, "hi", Options{})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 10, 10), out.Bounds())

	text, found := DecodeImage(out, Options{})
	assert.True(t, found)
	assert.Equal(t, "hi", text)
}

func TestEncodeImageColumnMajor(t *testing.T) {
	img := solidImage(10, 10, color.NRGBA{A: 255})
	opts := Options{Order: ColumnMajor}

	out, err := EncodeImage(img, "hi", opts)
	require.NoError(t, err)

	text, found := DecodeImage(out, opts)
	assert.True(t, found)
	assert.Equal(t, "hi", text)

	_, found = DecodeImage(out, Options{})
	assert.False(t, found, "row-major decode must not see a column-major payload")
}

func TestScanOrderOffset(t *testing.T) {
	// 4×2 image: column-major unit 3 is the red channel of pixel (0,1).
	assert.Equal(t, 3, RowMajor.offset(3, 4, 2))
	assert.Equal(t, 12, ColumnMajor.offset(3, 4, 2))
	assert.Equal(t, 14, ColumnMajor.offset(5, 4, 2))
	assert.Equal(t, 3, ColumnMajor.offset(6, 4, 2))
}

func TestParseScanOrder(t *testing.T) {
	for in, want := range map[string]ScanOrder{
		"":             RowMajor,
		"row":          RowMajor,
		"Row-Major":    RowMajor,
		"column":       ColumnMajor,
		"column-major": ColumnMajor,
		"col":          ColumnMajor,
	} {
		got, err := ParseScanOrder(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseScanOrder("diagonal")
	assert.Error(t, err)
}

func TestEncodeImageRejectsWideCharacters(t *testing.T) {
	_, err := EncodeImage(patternImage(10, 10), "5 €", Options{})
	require.Error(t, err)
	assert.True(t, stegerr.IsKind(err, stegerr.KindEncoding))

	var se *stegerr.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "hide image", se.Op)
	assert.Equal(t, stegerr.Buffer, se.Target)
}

// ── Files ──

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func TestImageFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "cover.png")
	writePNG(t, in, patternImage(16, 16))

	for _, ext := range []string{".png", ".bmp", ".tif", ".tiff"} {
		t.Run(ext, func(t *testing.T) {
			out := filepath.Join(dir, "stego"+ext)
			require.NoError(t, EncodeImageFile(in, out, "secret", Options{}))

			text, found, err := DecodeImageFile(out, Options{})
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, "secret", text)
		})
	}
}

func TestEncodeImageFileRejectsLossyOutput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "stego.jpg")

	// The input does not exist: the output format is checked first.
	err := EncodeImageFile(filepath.Join(dir, "missing.png"), out, "hi", Options{})
	require.Error(t, err)
	assert.True(t, stegerr.IsKind(err, stegerr.KindInvalidFormat))
	assert.NoFileExists(t, out)
	assert.False(t, LosslessImageExt(out))
	assert.True(t, LosslessImageExt("x.PNG"))
}

func TestEncodeImageFileErrors(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.png")

	err := EncodeImageFile(filepath.Join(dir, "missing.png"), out, "hi", Options{})
	assert.True(t, stegerr.IsKind(err, stegerr.KindNotFound))

	garbage := filepath.Join(dir, "garbage.png")
	require.NoError(t, os.WriteFile(garbage, []byte("not an image"), 0o644))
	err = EncodeImageFile(garbage, out, "hi", Options{})
	assert.True(t, stegerr.IsKind(err, stegerr.KindInvalidFormat))

	small := filepath.Join(dir, "small.png")
	writePNG(t, small, patternImage(2, 2))
	err = EncodeImageFile(small, out, "hi", Options{})
	assert.True(t, stegerr.IsKind(err, stegerr.KindCapacityExceeded))

	var se *stegerr.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, small, se.Target)
	assert.NoFileExists(t, out)
}
