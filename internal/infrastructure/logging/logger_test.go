package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"lora-lending/internal/config"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(config.LoggerConfig{Level: "info", Encoding: "json"}, &buf)

	logger.Debug("hidden")
	logger.Info("Loan approved", "loanID", "L-ABCDEFGH")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Loan approved", entry["msg"])
	assert.Equal(t, "L-ABCDEFGH", entry["loanID"])
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(config.LoggerConfig{Level: "debug", Encoding: "text"}, &buf)

	logger.Debug("catalog refreshed", "count", 3)
	assert.Contains(t, buf.String(), "count=3")
}
