package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLoggerEmitsFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Format: "json"}, &buf)

	logger.Info("cache refreshed", F("flow_count", 42), F("forced", true))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "cache refreshed", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, float64(42), entry["flow_count"])
	assert.Equal(t, true, entry["forced"])
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "warn", Format: "json"}, &buf)

	logger.Debug("dropped")
	logger.Info("also dropped")
	logger.Warn("kept")

	output := buf.String()
	assert.NotContains(t, output, "dropped")
	assert.Contains(t, output, "kept")
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Format: "text"}, &buf)

	logger.Info("server started", F("addr", "localhost:8080"))

	line := buf.String()
	assert.Contains(t, line, "msg=\"server started\"")
	assert.Contains(t, line, "addr=localhost:8080")
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Format: "json"}, &buf)

	scoped := logger.WithFields(F("component", "scheduler"))
	scoped.Info("tick")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "scheduler", entry["component"])
}

func TestUnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "verbose", Format: "json"}, &buf)

	logger.Debug("dropped")
	logger.Info("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 1)
}

func TestNopLoggerDiscards(t *testing.T) {
	// Must not panic and must accept every level
	logger := NewNop()
	logger.Debug("a")
	logger.Info("b")
	logger.Warn("c")
	logger.Error("d", F("error", assert.AnError))
}
