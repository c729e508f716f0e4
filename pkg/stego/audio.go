// audio.go - LSB embedding in PCM WAV audio.
// Units are the raw bytes of the data chunk in file order, whatever the
// sample width. Every other chunk is carried over untouched.
package stego

import (
	"bufio"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/xob0t/GoHide/pkg/bitcodec"
	"github.com/xob0t/GoHide/pkg/stegerr"
	"github.com/xob0t/GoHide/pkg/wav"
)

// AudioCapacity returns the number of bits f can carry.
func AudioCapacity(f *wav.File) int {
	return len(f.Frames())
}

// EncodeAudio returns a copy of f with text hidden in its sample bytes.
// f is not modified.
func EncodeAudio(f *wav.File, text string, opts Options) (*wav.File, error) {
	return encodeAudio("hide audio", stegerr.Buffer, f, text, opts)
}

func encodeAudio(op, target string, f *wav.File, text string, opts Options) (*wav.File, error) {
	bits, err := payloadBits(op, target, text, AudioCapacity(f))
	if err != nil {
		return nil, err
	}
	out := f.Clone()
	bitcodec.Embed(out.Frames(), bits)

	opts.log().Debug("payload embedded in audio",
		zap.String("target", target),
		zap.Int("bits", len(bits)),
		zap.Int("capacity", AudioCapacity(f)),
		zap.Uint16("channels", f.Format.Channels),
		zap.Uint16("bits_per_sample", f.Format.BitsPerSample))
	return out, nil
}

// DecodeAudio returns the hidden text and whether a terminator was found.
// Scanning stops at the terminator.
func DecodeAudio(f *wav.File) (string, bool) {
	var s bitcodec.Scanner
	for _, b := range f.Frames() {
		if s.WriteBit(bitcodec.LSB(b)) {
			break
		}
	}
	return s.Text(), s.Found()
}

// EncodeAudioFile hides text in the WAV file at in and writes the result to out.
func EncodeAudioFile(in, out, text string, opts Options) error {
	const op = "hide audio"
	f, err := readWAV(op, in)
	if err != nil {
		return err
	}
	stego, err := encodeAudio(op, in, f, text, opts)
	if err != nil {
		return err
	}
	if err := writeFile(op, out, stego.Encode); err != nil {
		return err
	}
	opts.log().Debug("payload hidden", zap.String("media", string(MediaAudio)), zap.String("in", in), zap.String("out", out))
	return nil
}

// DecodeAudioFile reveals the text hidden in the WAV file at in.
func DecodeAudioFile(in string) (string, bool, error) {
	f, err := readWAV("reveal audio", in)
	if err != nil {
		return "", false, err
	}
	text, found := DecodeAudio(f)
	return text, found, nil
}

func readWAV(op, path string) (*wav.File, error) {
	fh, err := openInput(op, path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	f, err := wav.Decode(bufio.NewReader(fh))
	if err != nil {
		return nil, containerErr(op, path, err, wav.ErrFormat)
	}
	return f, nil
}

func audioCapacityFile(path string) (int, error) {
	f, err := readWAV("audio capacity", path)
	if err != nil {
		return 0, err
	}
	return AudioCapacity(f), nil
}

// containerErr classifies a container parse error as InvalidFormat when it
// wraps formatErr or the input is truncated, and as IOError otherwise.
func containerErr(op, path string, err, formatErr error) error {
	if errors.Is(err, formatErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return stegerr.Wrap(stegerr.KindInvalidFormat, op, path, err, "parse carrier")
	}
	return stegerr.Wrap(stegerr.KindIO, op, path, err, "read carrier")
}
