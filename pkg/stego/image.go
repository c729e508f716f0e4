// image.go - LSB embedding in still images.
// Units are the R, G, B channel bytes of each pixel; alpha is discarded.
package stego

import (
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/xob0t/GoHide/pkg/bitcodec"
	"github.com/xob0t/GoHide/pkg/stegerr"
)

// ImageCapacity returns the number of bits img can carry.
func ImageCapacity(img image.Image) int {
	b := img.Bounds()
	return b.Dx() * b.Dy() * 3
}

// EncodeImage returns an opaque copy of img with text hidden in it.
// img is not modified. Channels past the end of the payload keep their value.
func EncodeImage(img image.Image, text string, opts Options) (*image.NRGBA, error) {
	return encodeImage("hide image", stegerr.Buffer, img, text, opts)
}

func encodeImage(op, target string, img image.Image, text string, opts Options) (*image.NRGBA, error) {
	bits, err := payloadBits(op, target, text, ImageCapacity(img))
	if err != nil {
		return nil, err
	}
	pix, w, h := rgbPixels(img)
	embedUnits(pix, w, h, opts.Order, bits)

	opts.log().Debug("payload embedded in image",
		zap.String("target", target),
		zap.Int("bits", len(bits)),
		zap.Int("capacity", len(pix)),
		zap.Stringer("order", opts.Order))
	return toNRGBA(pix, w, h), nil
}

// DecodeImage scans every pixel of img and returns the hidden text and
// whether a terminator was found.
func DecodeImage(img image.Image, opts Options) (string, bool) {
	pix, w, h := rgbPixels(img)
	return bitcodec.FromBits(extractUnits(pix, w, h, opts.Order))
}

// rgbPixels flattens img into row-major R, G, B bytes with alpha dropped.
func rgbPixels(img image.Image) ([]byte, int, int) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	pix := make([]byte, 0, w*h*3)

	if src, ok := img.(*image.NRGBA); ok {
		for y := 0; y < h; y++ {
			row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
			for x := 0; x < w; x++ {
				pix = append(pix, row[4*x], row[4*x+1], row[4*x+2])
			}
		}
		return pix, w, h
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			pix = append(pix, c.R, c.G, c.B)
		}
	}
	return pix, w, h
}

func toNRGBA(pix []byte, w, h int) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i, j := 0, 0; i < len(pix); i, j = i+3, j+4 {
		out.Pix[j] = pix[i]
		out.Pix[j+1] = pix[i+1]
		out.Pix[j+2] = pix[i+2]
		out.Pix[j+3] = 0xFF
	}
	return out
}

// ── Files ──

// imageEncoders lists the lossless output formats by extension.
var imageEncoders = map[string]func(io.Writer, image.Image) error{
	".png": png.Encode,
	".bmp": bmp.Encode,
	".tif": func(w io.Writer, m image.Image) error {
		return tiff.Encode(w, m, &tiff.Options{Compression: tiff.Deflate})
	},
	".tiff": func(w io.Writer, m image.Image) error {
		return tiff.Encode(w, m, &tiff.Options{Compression: tiff.Deflate})
	},
}

// LosslessImageExt reports whether path names an image format that keeps
// every pixel value.
func LosslessImageExt(path string) bool {
	_, ok := imageEncoders[strings.ToLower(filepath.Ext(path))]
	return ok
}

// EncodeImageFile hides text in the image at in and writes the result to out.
// The output format follows out's extension and must be lossless.
func EncodeImageFile(in, out, text string, opts Options) error {
	const op = "hide image"
	encode, ok := imageEncoders[strings.ToLower(filepath.Ext(out))]
	if !ok {
		return stegerr.New(stegerr.KindInvalidFormat, op, out,
			"output format %q is lossy or unsupported: use .png, .bmp or .tiff", filepath.Ext(out))
	}

	img, err := readImage(op, in)
	if err != nil {
		return err
	}
	stego, err := encodeImage(op, in, img, text, opts)
	if err != nil {
		return err
	}
	if err := writeFile(op, out, func(w io.Writer) error { return encode(w, stego) }); err != nil {
		return err
	}
	opts.log().Debug("payload hidden", zap.String("media", string(MediaImage)), zap.String("in", in), zap.String("out", out))
	return nil
}

// DecodeImageFile reveals the text hidden in the image at in.
func DecodeImageFile(in string, opts Options) (string, bool, error) {
	img, err := readImage("reveal image", in)
	if err != nil {
		return "", false, err
	}
	text, found := DecodeImage(img, opts)
	return text, found, nil
}

func readImage(op, path string) (image.Image, error) {
	f, err := openInput(op, path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, stegerr.Wrap(stegerr.KindInvalidFormat, op, path, err, "decode image")
	}
	return img, nil
}

func imageCapacityFile(path string) (int, error) {
	const op = "image capacity"
	f, err := openInput(op, path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, stegerr.Wrap(stegerr.KindInvalidFormat, op, path, err, "decode image header")
	}
	return cfg.Width * cfg.Height * 3, nil
}

// openInput opens a carrier file, reporting a missing file as NotFound.
func openInput(op, path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, stegerr.Wrap(stegerr.KindNotFound, op, path, err, "carrier not found")
		}
		return nil, stegerr.Wrap(stegerr.KindIO, op, path, err, "open carrier")
	}
	return f, nil
}

// writeFile creates path and fills it with write. A partial file is removed.
func writeFile(op, path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return stegerr.Wrap(stegerr.KindIO, op, path, err, "create output")
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return stegerr.Wrap(stegerr.KindIO, op, path, err, "write output")
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return stegerr.Wrap(stegerr.KindIO, op, path, err, "close output")
	}
	return nil
}
