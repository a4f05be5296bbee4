package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/opsync/internal/config"
)

func TestNew_TextToWriter(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.DefaultConfig().Logging
	cfg.Level = "warn"

	logger, closer, err := New(cfg, &buf)
	require.NoError(t, err)
	defer closer.Close()

	logger.Info("hidden")
	logger.Warn("Storage reopened", "attempt", 2)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "Storage reopened")
	assert.Contains(t, out, "attempt=2")
}

func TestNew_JSONToRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opsync.log")
	cfg := config.DefaultConfig().Logging
	cfg.Format = "json"
	cfg.File = path

	logger, closer, err := New(cfg, nil)
	require.NoError(t, err)

	logger.Info("Backup imported", "entities", 3)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &record))
	assert.Equal(t, "Backup imported", record["msg"])
	assert.Equal(t, float64(3), record["entities"])
}

func TestNew_InvalidLevel(t *testing.T) {
	cfg := config.DefaultConfig().Logging
	cfg.Level = "verbose"

	_, _, err := New(cfg, &bytes.Buffer{})
	assert.ErrorIs(t, err, config.ErrInvalidValue)
}
