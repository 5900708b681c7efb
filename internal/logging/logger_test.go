package logging_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/aretw0/intake/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_RenamesErrorKey(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, slog.LevelInfo, logging.FormatText)

	logger.Error("commit failed", "error", errors.New("quota"))

	assert.Contains(t, buf.String(), "err=quota")
	assert.NotContains(t, buf.String(), "error=quota")
}

func TestNewWithWriter_MasksPersonalData(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, slog.LevelDebug, logging.FormatText)

	logger.Debug("committing", "user_id", "42", "phone", "+49 170 0000", "row", []string{"a", "b"}, "client_secret", "s3cr3t")

	out := buf.String()
	assert.Contains(t, out, "user_id=42")
	assert.Contains(t, out, "phone="+logging.Masked)
	assert.Contains(t, out, "row="+logging.Masked)
	assert.NotContains(t, out, "170")
	assert.NotContains(t, out, "s3cr3t")
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, slog.LevelDebug, logging.FormatJSON)

	logger.Debug("transition", "user_id", "42")

	assert.Contains(t, buf.String(), `"user_id":"42"`)
}

func TestParseLevel(t *testing.T) {
	level, err := logging.ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	level, err = logging.ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)

	_, err = logging.ParseLevel("loud")
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := logging.ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, logging.FormatJSON, f)

	_, err = logging.ParseFormat("xml")
	assert.Error(t, err)
}
