// Package generator provides cover media generation for steganography.
//
// All visual output follows one pipeline: create an image.Image first, then
// write it as a lossless still (PNG, BMP, TIFF) or repeat it as the frames of
// an AVI. Audio covers are PCM sine tones.
package generator

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xob0t/GoHide/pkg/avi"
)

// Defaults applied to zero Config fields.
const (
	DefaultWidth       = 1280
	DefaultHeight      = 720
	DefaultVideoWidth  = 320
	DefaultVideoHeight = 240
	DefaultFPS         = 15
	DefaultSampleRate  = 44100
	DefaultTone        = 440.0
)

// Config holds parameters for media generation.
type Config struct {
	Width     int         // Pixel width (default: 1280, 320 for video)
	Height    int         // Pixel height (default: 720, 240 for video)
	Duration  int         // Seconds, AVI and WAV only (default: 1)
	Color     string      // Hex "#rrggbb", "random" or "noise"
	Text      string      // Optional caption drawn near the bottom edge
	TextColor string      // Caption colour, hex (default: white)
	Image     image.Image // Pre-rendered image; overrides Width/Height/Color

	FPS   int       // AVI frame rate (default: 15)
	Codec avi.Codec // AVI codec (default: raw)

	SampleRate int     // WAV sample rate (default: 44100)
	Channels   int     // WAV channels (default: 1)
	BitDepth   int     // WAV bits per sample: 8, 16, 24 or 32 (default: 16)
	Tone       float64 // WAV tone frequency in Hz (default: 440)
}

// Generate creates an output file. The format is inferred from the file extension:
//   - ".png", ".bmp", ".tif", ".tiff" → still image
//   - ".avi" → uncompressed or MJPEG AVI video
//   - ".wav" → PCM sine tone
//
// If cfg.Image is nil, the image is created from cfg.Color/Width/Height.
func Generate(output string, cfg Config) error {
	ext := strings.ToLower(filepath.Ext(output))
	if !Supported(ext) {
		return unsupported(ext)
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}
	if err := GenerateToWriter(f, ext, cfg); err != nil {
		f.Close()
		os.Remove(output)
		return err
	}
	return f.Close()
}

// GenerateToWriter writes media to w. The format is specified by ext.
// AVI output needs an io.WriteSeeker since sizes are patched at the end.
// This is useful for in-memory generation (e.g., WASM).
func GenerateToWriter(w io.Writer, ext string, cfg Config) error {
	switch ext = strings.ToLower(ext); ext {
	case ".wav":
		return writeWAV(w, cfg)
	case ".avi":
		ws, ok := w.(io.WriteSeeker)
		if !ok {
			return fmt.Errorf("AVI output needs a seekable writer")
		}
		img, err := resolveImage(cfg, DefaultVideoWidth, DefaultVideoHeight)
		if err != nil {
			return err
		}
		return writeAVI(ws, img, cfg)
	}

	encode, ok := imageEncoders[ext]
	if !ok {
		return unsupported(ext)
	}
	img, err := resolveImage(cfg, DefaultWidth, DefaultHeight)
	if err != nil {
		return err
	}
	if err := encode(w, img); err != nil {
		return fmt.Errorf("encode %s: %w", strings.TrimPrefix(ext, "."), err)
	}
	return nil
}

// Supported reports whether ext names a format Generate can write.
func Supported(ext string) bool {
	ext = strings.ToLower(ext)
	_, ok := imageEncoders[ext]
	return ok || ext == ".avi" || ext == ".wav"
}

func unsupported(ext string) error {
	return fmt.Errorf("unsupported format %q: use .png, .bmp, .tiff, .avi or .wav", ext)
}

// resolveImage returns the source image from config, creating a solid or
// noise image if none is provided, and draws the caption.
func resolveImage(cfg Config, defW, defH int) (image.Image, error) {
	var img image.Image
	if cfg.Image != nil {
		img = cfg.Image
	} else {
		w, h := cfg.Width, cfg.Height
		if w <= 0 {
			w = defW
		}
		if h <= 0 {
			h = defH
		}

		if cfg.Color == "noise" {
			noise, err := NewNoiseImage(w, h)
			if err != nil {
				return nil, err
			}
			img = noise
		} else {
			r, g, b, err := ParseColor(cfg.Color)
			if err != nil {
				return nil, err
			}
			img = NewSolidImage(w, h, toRGBA(r, g, b))
		}
	}

	if cfg.Text == "" {
		return img, nil
	}
	return DrawCaption(img, cfg.Text, ParseHexRGBA(cfg.TextColor))
}
