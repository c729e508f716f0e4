// image.go - Lossless still image writers.
package generator

import (
	"image"
	"image/png"
	"io"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func writeTIFF(w io.Writer, img image.Image) error {
	return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
}

// imageEncoders maps an extension to its encoder. Only lossless formats are
// listed: a cover must keep every pixel value once a payload is embedded.
var imageEncoders = map[string]func(io.Writer, image.Image) error{
	".png":  png.Encode,
	".bmp":  bmp.Encode,
	".tif":  writeTIFF,
	".tiff": writeTIFF,
}
