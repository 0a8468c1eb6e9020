package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644))
	return dir
}

func TestLoadConfig(t *testing.T) {
	uploads := filepath.Join(t.TempDir(), "files")
	dir := writeConfig(t, `
server:
  port: "8080"
  mode: debug
jwt:
  secret: short
  expire_hours: 24
storage:
  type: local
  local_path: `+uploads+`
usage:
  limits:
    free:
      quizzes: 7
    student_plus:
      uploads: -1
`)
	t.Setenv("PORT", "9090")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 24*time.Hour, cfg.JWT.ExpireTime)
	assert.Equal(t, 25, cfg.Upload.MaxFileSizeMB)
	assert.Equal(t, 10, cfg.Upload.MaxFiles)
	assert.Equal(t, "USD", cfg.Billing.Currency)
	assert.Equal(t, "studysync.events", cfg.RabbitMQ.Exchange)

	require.Contains(t, cfg.Usage.Limits, "free")
	require.NotNil(t, cfg.Usage.Limits["free"].Quizzes)
	assert.Equal(t, 7, *cfg.Usage.Limits["free"].Quizzes)
	assert.Nil(t, cfg.Usage.Limits["free"].Uploads)
	require.NotNil(t, cfg.Usage.Limits["student_plus"].Uploads)
	assert.Equal(t, -1, *cfg.Usage.Limits["student_plus"].Uploads)

	// 本地存储目录会被自动创建
	info, err := os.Stat(uploads)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLoadConfig_ReleaseRequiresStrongSecret(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: release
jwt:
  secret: too-short
storage:
  type: minio
`)
	_, err := LoadConfig(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT secret is too short")
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(t.TempDir())
	assert.Error(t, err)
}
