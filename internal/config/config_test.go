package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "127.0.0.1", cfg.Daemon.Host)
	assert.Equal(t, 8417, cfg.Daemon.Port)
	assert.Equal(t, "ecodash.db", cfg.Storage.SQLiteFile)
	assert.True(t, cfg.Advisor.Enabled)
	assert.Equal(t, 10080, cfg.Advisor.IntervalMinutes)
	assert.Equal(t, 60, cfg.Advisor.TimeoutSeconds)
	assert.NotEmpty(t, cfg.Advisor.Model)
	assert.NotEmpty(t, cfg.Advisor.APIURL)
}

func TestLoad_MergesWithDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
daemon:
  port: 9000
advisor:
  model: llama-3.3-70b-versatile
  interval_minutes: 30
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Daemon.Port)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.Advisor.Model)
	assert.Equal(t, 30, cfg.Advisor.IntervalMinutes)
	// Untouched fields keep defaults.
	assert.Equal(t, "127.0.0.1", cfg.Daemon.Host)
	assert.Equal(t, 350, cfg.Advisor.MaxTokens)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("daemon: [not: a map"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadOrCreateAt_WritesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "config.yaml")

	cfg, err := LoadOrCreateAt(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Daemon.Port, cfg.Daemon.Port)

	// File now exists and loads back identically.
	_, err = os.Stat(path)
	require.NoError(t, err)

	again, err := LoadOrCreateAt(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestAPIKeyEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("advisor:\n  api_key: from-file\n"), 0644))

	t.Setenv(APIKeyEnv, "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Advisor.APIKey)
}

func TestDatabasePath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Path = "/tmp/ecodash-test"

	path, err := cfg.DatabasePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/ecodash-test", "ecodash.db"), path)
}
