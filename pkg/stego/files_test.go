package stego

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xob0t/GoHide/pkg/avi"
	"github.com/xob0t/GoHide/pkg/stegerr"
	"github.com/xob0t/GoHide/pkg/wav"
)

func TestDetectMedia(t *testing.T) {
	for path, want := range map[string]Media{
		"a/cover.PNG":  MediaImage,
		"photo.jpeg":   MediaImage,
		"scan.tiff":    MediaImage,
		"pic.webp":     MediaImage,
		"voice.wav":    MediaAudio,
		"clip.avi":     MediaVideo,
		"/tmp/x.y.bmp": MediaImage,
	} {
		got, err := DetectMedia(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	_, err := DetectMedia("movie.mp4")
	assert.True(t, stegerr.IsKind(err, stegerr.KindInvalidFormat))
	_, err = DetectMedia("noext")
	assert.True(t, stegerr.IsKind(err, stegerr.KindInvalidFormat))
}

func TestParseMedia(t *testing.T) {
	m, err := ParseMedia(" Audio ")
	require.NoError(t, err)
	assert.Equal(t, MediaAudio, m)

	_, err = ParseMedia("text")
	assert.True(t, stegerr.IsKind(err, stegerr.KindInvalidFormat))
}

func TestHideRevealFile(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	image := filepath.Join(dir, "cover.png")
	writePNG(t, image, patternImage(20, 20))
	audio := filepath.Join(dir, "cover.wav")
	require.NoError(t, wav.WriteFile(audio, pcmFile(4096)))
	video := filepath.Join(dir, "cover.avi")
	writeAVI(t, video, avi.CodecRaw, newSliceSource(2, 8, 8).frames)

	cases := []struct {
		media   Media
		in, out string
		bits    int
	}{
		{MediaImage, image, filepath.Join(dir, "stego.png"), 20 * 20 * 3},
		{MediaAudio, audio, filepath.Join(dir, "stego.wav"), 4096},
		{MediaVideo, video, filepath.Join(dir, "stego.avi"), 2 * 8 * 8 * 3},
	}
	for _, tc := range cases {
		t.Run(string(tc.media), func(t *testing.T) {
			c, err := CapacityFile(tc.media, tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.bits, c.Bits)
			assert.Equal(t, tc.bits/8-13, c.MaxChars)

			require.NoError(t, HideFile(ctx, tc.media, tc.in, tc.out, "dispatch", Options{}))
			text, found, err := RevealFile(ctx, tc.media, tc.out, Options{})
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, "dispatch", text)
		})
	}
}

func TestDispatchUnknownMedia(t *testing.T) {
	ctx := context.Background()
	err := HideFile(ctx, Media("text"), "a", "b", "x", Options{})
	assert.True(t, stegerr.IsKind(err, stegerr.KindInvalidFormat))
	_, _, err = RevealFile(ctx, Media("text"), "a", Options{})
	assert.True(t, stegerr.IsKind(err, stegerr.KindInvalidFormat))
	_, err = CapacityFile(Media("text"), "a")
	assert.True(t, stegerr.IsKind(err, stegerr.KindInvalidFormat))
}

func TestHideFileLogsOnlyAtDebug(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	image := filepath.Join(dir, "cover.png")
	writePNG(t, image, patternImage(20, 20))
	audio := filepath.Join(dir, "cover.wav")
	require.NoError(t, wav.WriteFile(audio, pcmFile(4096)))
	video := filepath.Join(dir, "cover.avi")
	writeAVI(t, video, avi.CodecRaw, newSliceSource(2, 8, 8).frames)

	core, logs := observer.New(zapcore.DebugLevel)
	opts := Options{Logger: zap.New(core)}
	require.NoError(t, HideFile(ctx, MediaImage, image, filepath.Join(dir, "s.png"), "quiet", opts))
	require.NoError(t, HideFile(ctx, MediaAudio, audio, filepath.Join(dir, "s.wav"), "quiet", opts))
	require.NoError(t, HideFile(ctx, MediaVideo, video, filepath.Join(dir, "s.avi"), "quiet", opts))

	assert.Equal(t, 3, logs.FilterMessage("payload hidden").Len())
	assert.Zero(t, logs.Filter(func(e observer.LoggedEntry) bool {
		return e.Level > zapcore.DebugLevel
	}).Len(), "front ends report success themselves")
}
