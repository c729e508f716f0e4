// files.go - Media dispatch for file-based front ends.
package stego

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/xob0t/GoHide/pkg/bitcodec"
	"github.com/xob0t/GoHide/pkg/stegerr"
)

// Media is a carrier kind.
type Media string

const (
	MediaImage Media = "image"
	MediaAudio Media = "audio"
	MediaVideo Media = "video"
)

var mediaByExt = map[string]Media{
	".png":  MediaImage,
	".bmp":  MediaImage,
	".tif":  MediaImage,
	".tiff": MediaImage,
	".jpg":  MediaImage,
	".jpeg": MediaImage,
	".gif":  MediaImage,
	".webp": MediaImage,
	".wav":  MediaAudio,
	".wave": MediaAudio,
	".avi":  MediaVideo,
}

// DetectMedia infers the carrier kind from a file extension.
func DetectMedia(path string) (Media, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if m, ok := mediaByExt[ext]; ok {
		return m, nil
	}
	return "", stegerr.New(stegerr.KindInvalidFormat, "detect media", path, "unsupported extension %q", ext)
}

// ParseMedia parses a media name as given on the command line or in a form.
func ParseMedia(name string) (Media, error) {
	switch m := Media(strings.ToLower(strings.TrimSpace(name))); m {
	case MediaImage, MediaAudio, MediaVideo:
		return m, nil
	}
	return "", stegerr.New(stegerr.KindInvalidFormat, "parse media", stegerr.Buffer,
		"unknown media type %q: use image, audio or video", name)
}

// HideFile hides text in the carrier at in and writes the stego file to out.
func HideFile(ctx context.Context, m Media, in, out, text string, opts Options) error {
	switch m {
	case MediaImage:
		return EncodeImageFile(in, out, text, opts)
	case MediaAudio:
		return EncodeAudioFile(in, out, text, opts)
	case MediaVideo:
		_, err := EncodeVideoFile(ctx, in, out, text, opts)
		return err
	}
	return unknownMedia("hide", m)
}

// RevealFile returns the text hidden in the carrier at in.
func RevealFile(ctx context.Context, m Media, in string, opts Options) (string, bool, error) {
	switch m {
	case MediaImage:
		return DecodeImageFile(in, opts)
	case MediaAudio:
		return DecodeAudioFile(in)
	case MediaVideo:
		return DecodeVideoFile(ctx, in, opts)
	}
	return "", false, unknownMedia("reveal", m)
}

// Capacity describes how much a carrier can hold.
type Capacity struct {
	Media    Media `json:"media"`
	Bits     int   `json:"bits"`
	MaxChars int   `json:"max_chars"`
}

// CapacityFile reports the capacity of the carrier at in. Images only have
// their header read.
func CapacityFile(m Media, in string) (Capacity, error) {
	var bits int
	var err error
	switch m {
	case MediaImage:
		bits, err = imageCapacityFile(in)
	case MediaAudio:
		bits, err = audioCapacityFile(in)
	case MediaVideo:
		bits, err = videoCapacityFile(in)
	default:
		err = unknownMedia("capacity", m)
	}
	if err != nil {
		return Capacity{}, err
	}
	return Capacity{Media: m, Bits: bits, MaxChars: bitcodec.MaxTextLen(bits)}, nil
}

func unknownMedia(op string, m Media) error {
	return stegerr.New(stegerr.KindInvalidFormat, op, stegerr.Buffer, "unknown media type %q", string(m))
}
