package stego

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/riff"

	"github.com/xob0t/GoHide/pkg/stegerr"
	"github.com/xob0t/GoHide/pkg/wav"
)

func pcmFile(n int) *wav.File {
	frames := make([]byte, n)
	for i := range frames {
		frames[i] = byte(i*13 + 7)
	}
	return wav.New(wav.PCM(2, 44100, 16), frames)
}

func TestEncodeAudioRoundTrip(t *testing.T) {
	f := pcmFile(4096)
	before := append([]byte(nil), f.Frames()...)

	out, err := EncodeAudio(f, "hello world", Options{})
	require.NoError(t, err)
	assert.Equal(t, before, f.Frames(), "input must not change")

	text, found := DecodeAudio(out)
	assert.True(t, found)
	assert.Equal(t, "hello world", text)
	assert.Equal(t, f.Format, out.Format)
}

func TestEncodeAudioCapacity(t *testing.T) {
	// "hello world" is 11 characters: (11+13)*8 = 192 bits.
	_, err := EncodeAudio(pcmFile(192), "hello world", Options{})
	require.NoError(t, err)

	f := pcmFile(191)
	before := append([]byte(nil), f.Frames()...)
	_, err = EncodeAudio(f, "hello world", Options{})
	require.Error(t, err)
	assert.True(t, stegerr.IsKind(err, stegerr.KindCapacityExceeded))
	assert.Equal(t, before, f.Frames())
}

func TestEncodeAudioLeavesTailUntouched(t *testing.T) {
	f := pcmFile(1000)
	out, err := EncodeAudio(f, "hi", Options{})
	require.NoError(t, err)
	assert.Equal(t, f.Frames()[120:], out.Frames()[120:])
}

func TestDecodeAudioWithoutPayload(t *testing.T) {
	f := wav.New(wav.PCM(1, 8000, 8), make([]byte, 400))
	text, found := DecodeAudio(f)
	assert.False(t, found)
	assert.Len(t, text, 50)
}

func TestEncodeAudioKeepsOtherChunks(t *testing.T) {
	f := pcmFile(512)
	f.Chunks = append(f.Chunks, wav.Chunk{ID: riff.FourCC{'L', 'I', 'S', 'T'}, Data: []byte("INFOtag")})

	out, err := EncodeAudio(f, "x", Options{})
	require.NoError(t, err)
	require.Len(t, out.Chunks, 3)
	assert.Equal(t, f.Chunks[0], out.Chunks[0])
	assert.Equal(t, f.Chunks[2], out.Chunks[2])
}

func TestAudioFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "tone.wav")
	out := filepath.Join(dir, "stego.wav")
	require.NoError(t, wav.WriteFile(in, pcmFile(2048)))

	require.NoError(t, EncodeAudioFile(in, out, "audio secret", Options{}))
	text, found, err := DecodeAudioFile(out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "audio secret", text)

	// Header and size are unchanged.
	a, err := os.Stat(in)
	require.NoError(t, err)
	b, err := os.Stat(out)
	require.NoError(t, err)
	assert.Equal(t, a.Size(), b.Size())
}

func TestAudioFileWithoutPadByte(t *testing.T) {
	// 8-bit mono with an odd frame count, written the way Python's wave
	// module does it: no pad byte after data and a RIFF size to match.
	var buf bytes.Buffer
	require.NoError(t, wav.New(wav.PCM(1, 8000, 8), make([]byte, 1001)).Encode(&buf))
	raw := buf.Bytes()[:buf.Len()-1]
	binary.LittleEndian.PutUint32(raw[4:], uint32(len(raw)-8))
	require.Len(t, raw, 1045)

	dir := t.TempDir()
	in := filepath.Join(dir, "odd.wav")
	out := filepath.Join(dir, "stego.wav")
	require.NoError(t, os.WriteFile(in, raw, 0o644))

	_, found, err := DecodeAudioFile(in)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, EncodeAudioFile(in, out, "hi", Options{}))
	text, found, err := DecodeAudioFile(out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "hi", text)
}

func TestEncodeAudioFileTooSmall(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "short.wav")
	out := filepath.Join(dir, "out.wav")
	require.NoError(t, wav.WriteFile(in, wav.New(wav.PCM(1, 8000, 8), make([]byte, 50))))

	err := EncodeAudioFile(in, out, "hello world", Options{})
	require.Error(t, err)
	assert.True(t, stegerr.IsKind(err, stegerr.KindCapacityExceeded))
	assert.NoFileExists(t, out)
}

func TestAudioFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, _, err := DecodeAudioFile(filepath.Join(dir, "missing.wav"))
	assert.True(t, stegerr.IsKind(err, stegerr.KindNotFound))

	bogus := filepath.Join(dir, "bogus.wav")
	require.NoError(t, os.WriteFile(bogus, []byte("RIFF\x04\x00\x00\x00AVI "), 0o644))
	_, _, err = DecodeAudioFile(bogus)
	assert.True(t, stegerr.IsKind(err, stegerr.KindInvalidFormat))

	float := filepath.Join(dir, "float.wav")
	format := wav.PCM(1, 8000, 32)
	format.AudioFormat = 0x0003
	require.NoError(t, wav.WriteFile(float, wav.New(format, make([]byte, 64))))
	_, _, err = DecodeAudioFile(float)
	assert.True(t, stegerr.IsKind(err, stegerr.KindInvalidFormat))
}
