package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConsoleLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(Options{Level: "warn", ToConsole: true}, &buf)
	require.NoError(t, err)

	logger.Info("quiet")
	logger.Warn("loud", zap.String("media", "image"))
	require.NoError(t, logger.Sync())

	out := buf.String()
	assert.NotContains(t, out, "quiet")
	assert.Contains(t, out, "loud")
	assert.Contains(t, out, `"media": "image"`)
}

func TestFileOutputIsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "gohide.log")
	logger, err := New(Options{Level: "debug", FilePath: path})
	require.NoError(t, err)

	logger.Debug("frame embedded", zap.Int("frame", 3))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "frame embedded", entry["msg"])
	assert.Equal(t, float64(3), entry["frame"])
}

func TestNoOutputIsNop(t *testing.T) {
	logger, err := New(Options{})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.ErrorLevel))
}

func TestInvalidLevel(t *testing.T) {
	_, err := New(Options{Level: "chatty", ToConsole: true})
	assert.Error(t, err)
}

func TestDefaults(t *testing.T) {
	d := Defaults()
	assert.Equal(t, "info", d.Level)
	assert.True(t, d.ToConsole)
	assert.Empty(t, d.FilePath)
}
