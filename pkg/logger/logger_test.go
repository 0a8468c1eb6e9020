package logger

import (
	"os"
	"path/filepath"
	"testing"

	"studysync_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLevel(t *testing.T) {
	assert.Equal(t, zap.DebugLevel, level(&config.Config{Server: config.ServerConfig{Mode: "debug"}}))
	assert.Equal(t, zap.InfoLevel, level(&config.Config{Server: config.ServerConfig{Mode: "release"}}))
	assert.Equal(t, zap.WarnLevel, level(&config.Config{Log: config.LogConfig{Level: "warn"}}))
	assert.Equal(t, zap.InfoLevel, level(&config.Config{Log: config.LogConfig{Level: "loud"}}))
}

func TestInitLoggerWritesJSONFile(t *testing.T) {
	prev := Log
	t.Cleanup(func() { Log = prev })

	file := filepath.Join(t.TempDir(), "studysync.log")
	InitLogger(&config.Config{Log: config.LogConfig{File: file, Level: "info", MaxSizeMB: 1}})
	Log.Info("usage limits reloaded", zap.String("tier", "FREE"))
	Log.Debug("dropped")
	require.NoError(t, Log.Sync())

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"usage limits reloaded"`)
	assert.Contains(t, string(data), `"service":"studysync"`)
	assert.NotContains(t, string(data), "dropped")
}
