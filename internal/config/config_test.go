package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	viper.Reset()

	cfg, err := LoadConfig(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, "trades.json", cfg.Storage.Path)
	assert.False(t, cfg.Auth.Enabled)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoadConfigFromFile(t *testing.T) {
	viper.Reset()

	dir := t.TempDir()
	content := []byte(`
server:
  port: 9090
storage:
  backend: sqlite
  dsn: journal.db
auth:
  enabled: true
  mode: remote
  verify_url: https://id.example/verify
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), content, 0o644))

	cfg, err := LoadConfig(dir)

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "journal.db", cfg.Storage.DSN)
	assert.True(t, cfg.Auth.Enabled)
	assert.Equal(t, "remote", cfg.Auth.Mode)
	// Unset keys fall back to defaults.
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, int64(10<<20), cfg.Attachments.MaxBytes)
}
