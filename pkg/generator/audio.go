// audio.go - PCM sine tone writer.
package generator

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/xob0t/GoHide/pkg/wav"
)

// toneAmplitude keeps the tone at half scale.
const toneAmplitude = 0.5

func writeWAV(w io.Writer, cfg Config) error {
	rate := cfg.SampleRate
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	channels := max(cfg.Channels, 1)
	depth := cfg.BitDepth
	if depth == 0 {
		depth = 16
	}
	switch depth {
	case 8, 16, 24, 32:
	default:
		return fmt.Errorf("unsupported bit depth %d: use 8, 16, 24 or 32", depth)
	}
	tone := cfg.Tone
	if tone <= 0 {
		tone = DefaultTone
	}

	format := wav.PCM(channels, rate, depth)
	samples := max(cfg.Duration, 1) * rate
	width := depth / 8
	frames := make([]byte, samples*int(format.BlockAlign))

	peak := float64(int64(1)<<(depth-1)-1) * toneAmplitude
	for i := 0; i < samples; i++ {
		v := int64(math.Round(peak * math.Sin(2*math.Pi*tone*float64(i)/float64(rate))))
		for c := 0; c < channels; c++ {
			putSample(frames[(i*channels+c)*width:], v, width)
		}
	}

	return wav.New(format, frames).Encode(w)
}

// putSample stores v little-endian in width bytes. 8-bit PCM is unsigned.
func putSample(dst []byte, v int64, width int) {
	switch width {
	case 1:
		dst[0] = byte(v + 128)
	case 2:
		binary.LittleEndian.PutUint16(dst, uint16(int16(v)))
	case 3:
		u := uint32(int32(v))
		dst[0], dst[1], dst[2] = byte(u), byte(u>>8), byte(u>>16)
	case 4:
		binary.LittleEndian.PutUint32(dst, uint32(int32(v)))
	}
}
