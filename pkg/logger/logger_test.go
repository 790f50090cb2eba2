package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_WritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "debug").With(String("component", "ingest"))

	l.Info("batch stored",
		Int("accepted", 12),
		Float64("ratio", 1.5),
		Duration("took_ms", 1500*time.Millisecond),
		Bool("cached", false),
		Error(errors.New("boom")),
	)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "batch stored", entry["message"])
	assert.Equal(t, "ingest", entry["component"])
	assert.EqualValues(t, 12, entry["accepted"])
	assert.EqualValues(t, 1.5, entry["ratio"])
	assert.EqualValues(t, 1500, entry["took_ms"])
	assert.Equal(t, false, entry["cached"])
	assert.Equal(t, "boom", entry["error"])
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "warn")
	l.Info("dropped")
	l.Debug("dropped")
	assert.Zero(t, buf.Len())
	l.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud", Output: "stdout"})
	require.Error(t, err)
}

func TestNew_RotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := New(&Config{Level: "info", Format: "json", Output: path, MaxSizeMB: 1})
	require.NoError(t, err)
	l.Info("hello")
	assert.FileExists(t, path)
}
