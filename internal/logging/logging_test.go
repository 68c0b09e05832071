package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" warning "))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNew_ProdWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithWriter(&buf, "prod", "info", "api-server")

	logger.Debug("hidden")
	logger.Info("booked", slog.String("slot", "srv|2025-06-01|10:00 AM"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "booked", line["msg"])
	assert.Equal(t, "api-server", line["service"])
	assert.Equal(t, "srv|2025-06-01|10:00 AM", line["slot"])
}

func TestNew_DevWritesText(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithWriter(&buf, "dev", "debug", "seed")

	logger.Debug("starting")
	assert.Contains(t, buf.String(), "msg=starting")
	assert.Contains(t, buf.String(), "service=seed")
}
