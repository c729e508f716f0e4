//go:build js && wasm

// GoHide WASM - in-browser hide and reveal for images and WAV audio.
// Compiled with: GOOS=js GOARCH=wasm go build -o gohide.wasm ./clients/wasm/
package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"syscall/js"

	"github.com/xob0t/GoHide/pkg/bitcodec"
	"github.com/xob0t/GoHide/pkg/generator"
	"github.com/xob0t/GoHide/pkg/stego"
	"github.com/xob0t/GoHide/pkg/wav"
)

func main() {
	fmt.Println("GoHide WASM loaded")

	js.Global().Set("goHide", js.FuncOf(hide))
	js.Global().Set("goReveal", js.FuncOf(reveal))
	js.Global().Set("goCapacity", js.FuncOf(capacity))
	js.Global().Set("goGenerateCover", js.FuncOf(generateCover))
	js.Global().Set("goReady", js.ValueOf(true))

	select {}
}

func errorValue(format string, args ...any) js.Value {
	return js.ValueOf("error: " + fmt.Sprintf(format, args...))
}

// carrierArgs reads the media type and base64 payload shared by every call.
func carrierArgs(args []js.Value, want int, usage string) (stego.Media, []byte, error) {
	if len(args) < want {
		return "", nil, fmt.Errorf("need %s", usage)
	}
	media, err := stego.ParseMedia(args[0].String())
	if err != nil {
		return "", nil, err
	}
	if media == stego.MediaVideo {
		return "", nil, fmt.Errorf("video is not supported in the browser")
	}
	data, err := base64.StdEncoding.DecodeString(args[1].String())
	if err != nil {
		return "", nil, fmt.Errorf("invalid base64: %w", err)
	}
	return media, data, nil
}

// orderArg reads the optional scan order at args[i].
func orderArg(args []js.Value, i int) (stego.ScanOrder, error) {
	if len(args) <= i || args[i].Type() != js.TypeString {
		return stego.RowMajor, nil
	}
	return stego.ParseScanOrder(args[i].String())
}

// goHide(type, base64Data, message, [order]) - returns the base64 stego file.
// Images always come back as PNG.
func hide(this js.Value, args []js.Value) interface{} {
	media, data, err := carrierArgs(args, 3, "type, base64Data, message")
	if err != nil {
		return errorValue("%v", err)
	}
	order, err := orderArg(args, 3)
	if err != nil {
		return errorValue("%v", err)
	}
	opts := stego.Options{Order: order}
	message := args[2].String()

	var buf bytes.Buffer
	switch media {
	case stego.MediaImage:
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return errorValue("decode image: %v", err)
		}
		out, err := stego.EncodeImage(img, message, opts)
		if err != nil {
			return errorValue("%v", err)
		}
		if err := png.Encode(&buf, out); err != nil {
			return errorValue("encode PNG: %v", err)
		}
	case stego.MediaAudio:
		f, err := wav.Decode(bytes.NewReader(data))
		if err != nil {
			return errorValue("decode WAV: %v", err)
		}
		out, err := stego.EncodeAudio(f, message, opts)
		if err != nil {
			return errorValue("%v", err)
		}
		if err := out.Encode(&buf); err != nil {
			return errorValue("encode WAV: %v", err)
		}
	}
	return js.ValueOf(base64.StdEncoding.EncodeToString(buf.Bytes()))
}

// goReveal(type, base64Data, [order]) - returns {found, text}.
func reveal(this js.Value, args []js.Value) interface{} {
	media, data, err := carrierArgs(args, 2, "type, base64Data")
	if err != nil {
		return errorValue("%v", err)
	}
	order, err := orderArg(args, 2)
	if err != nil {
		return errorValue("%v", err)
	}

	var text string
	var found bool
	switch media {
	case stego.MediaImage:
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return errorValue("decode image: %v", err)
		}
		text, found = stego.DecodeImage(img, stego.Options{Order: order})
	case stego.MediaAudio:
		f, err := wav.Decode(bytes.NewReader(data))
		if err != nil {
			return errorValue("decode WAV: %v", err)
		}
		text, found = stego.DecodeAudio(f)
	}
	return js.ValueOf(map[string]interface{}{"found": found, "text": text})
}

// goCapacity(type, base64Data) - returns {bits, maxChars}.
func capacity(this js.Value, args []js.Value) interface{} {
	media, data, err := carrierArgs(args, 2, "type, base64Data")
	if err != nil {
		return errorValue("%v", err)
	}

	var bits int
	switch media {
	case stego.MediaImage:
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return errorValue("decode image: %v", err)
		}
		bits = cfg.Width * cfg.Height * 3
	case stego.MediaAudio:
		f, err := wav.Decode(bytes.NewReader(data))
		if err != nil {
			return errorValue("decode WAV: %v", err)
		}
		bits = stego.AudioCapacity(f)
	}
	return js.ValueOf(map[string]interface{}{
		"bits":     bits,
		"maxChars": bitcodec.MaxTextLen(bits),
	})
}

// coverSpec is the JSON shape accepted by goGenerateCover.
type coverSpec struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Duration   int     `json:"duration"`
	Color      string  `json:"color"`
	Text       string  `json:"text"`
	TextColor  string  `json:"textColor"`
	SampleRate int     `json:"sampleRate"`
	Channels   int     `json:"channels"`
	BitDepth   int     `json:"bitDepth"`
	Tone       float64 `json:"tone"`
}

// goGenerateCover(ext, configJSON) - returns a base64 PNG or WAV cover.
func generateCover(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorValue("need ext, [configJSON]")
	}
	ext := args[0].String()
	if ext == ".avi" {
		return errorValue("video covers are not supported in the browser")
	}

	var spec coverSpec
	if len(args) > 1 && args[1].Type() == js.TypeString && args[1].String() != "" {
		if err := json.Unmarshal([]byte(args[1].String()), &spec); err != nil {
			return errorValue("parse config: %v", err)
		}
	}
	cfg := generator.Config{
		Width:      spec.Width,
		Height:     spec.Height,
		Duration:   spec.Duration,
		Color:      spec.Color,
		Text:       spec.Text,
		TextColor:  spec.TextColor,
		SampleRate: spec.SampleRate,
		Channels:   spec.Channels,
		BitDepth:   spec.BitDepth,
		Tone:       spec.Tone,
	}

	var buf bytes.Buffer
	if err := generator.GenerateToWriter(&buf, ext, cfg); err != nil {
		return errorValue("generate: %v", err)
	}
	return js.ValueOf(base64.StdEncoding.EncodeToString(buf.Bytes()))
}
