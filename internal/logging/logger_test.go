package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Output: &buf, Component: "pipeline"})

	log.Warn("failed to load config", FieldPath, "tailwind.config.js", FieldError, errors.New("syntax"), FieldIndex, 2)

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "warn", e["level"])
	assert.Equal(t, "pipeline", e["component"])
	assert.Equal(t, "tailwind.config.js", e["path"])
	assert.Equal(t, "syntax", e["error"])
	assert.EqualValues(t, 2, e["index"])
	assert.Equal(t, "failed to load config", e["message"])
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Output: &buf, Level: "warn"})

	log.Info("hidden")
	log.Error("shown")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "shown", entries[0]["message"])
}

func TestLogger_WithComponent(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Output: &buf}).WithComponent("watch")
	log.Info("started")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "watch", entries[0]["component"])
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().Warn("ignored", "k", "v")
	})
}
