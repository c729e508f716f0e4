// Package avi streams frames in and out of RIFF/AVI files.
//
// Reading supports a single video stream stored as uncompressed 24-bit DIB or
// Motion JPEG. Writing produces 24-bit DIB (lossless) or Motion JPEG. Frames are
// handled one at a time; nothing holds the whole movie in memory.
package avi

import (
	"errors"
	"image"
	"image/color"
)

// ErrFormat is wrapped by every error caused by malformed or unsupported input.
var ErrFormat = errors.New("avi: invalid format")

// ErrTooLarge is returned by Writer.WriteFrame when the frame would push the
// file past what the 32-bit RIFF sizes and idx1 offsets can address.
var ErrTooLarge = errors.New("avi: output too large")

// Codec identifies how frame chunks are stored.
type Codec string

const (
	CodecRaw   Codec = "raw"  // BI_RGB, 24 bits per pixel
	CodecMJPEG Codec = "mjpg" // Motion JPEG, lossy
)

// Info describes the video stream.
type Info struct {
	Width  int
	Height int
	// Frames is the frame count declared by the container header.
	Frames int
	// Rate/Scale is the frame rate in frames per second.
	Rate  uint32
	Scale uint32
	Codec Codec
}

// FPS returns Rate/Scale, or 0 when Scale is unset.
func (i Info) FPS() float64 {
	if i.Scale == 0 {
		return 0
	}
	return float64(i.Rate) / float64(i.Scale)
}

func (i Info) microSecPerFrame() uint32 {
	if i.Rate == 0 {
		return 0
	}
	return uint32(uint64(i.Scale) * 1000000 / uint64(i.Rate))
}

// Frame is one decoded picture: top-down rows, 3 bytes per pixel in B, G, R
// order, no row padding.
type Frame struct {
	Width  int
	Height int
	Pix    []byte
}

// NewFrame allocates a black frame.
func NewFrame(width, height int) *Frame {
	return &Frame{Width: width, Height: height, Pix: make([]byte, width*height*3)}
}

// FrameFromImage converts img into a frame.
func FrameFromImage(img image.Image) *Frame {
	b := img.Bounds()
	f := NewFrame(b.Dx(), b.Dy())
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			f.Pix[i], f.Pix[i+1], f.Pix[i+2] = c.B, c.G, c.R
			i += 3
		}
	}
	return f
}

// Image returns the frame as an opaque RGBA image.
func (f *Frame) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for i, j := 0, 0; i < len(f.Pix); i, j = i+3, j+4 {
		img.Pix[j] = f.Pix[i+2]
		img.Pix[j+1] = f.Pix[i+1]
		img.Pix[j+2] = f.Pix[i]
		img.Pix[j+3] = 0xFF
	}
	return img
}

// dibStride is the padded row size of a 24-bit DIB.
func dibStride(width int) int {
	return (width*3 + 3) &^ 3
}
