package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CLIENT_BASEURL", "https://api.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.Client.BaseURL)
	assert.Equal(t, EnvDevelopment, cfg.Client.Env)
	assert.Equal(t, 10*time.Second, cfg.Client.Timeout.Connect)
	assert.Equal(t, 30*time.Second, cfg.Client.Timeout.Receive)
	assert.Equal(t, 3, cfg.Client.Retry.Max)
	assert.Equal(t, 500*time.Millisecond, cfg.Client.Retry.BaseDelay)
	assert.Equal(t, 250*time.Millisecond, cfg.Client.Retry.JitterMax)
	assert.Zero(t, cfg.Client.Rate.Limit)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 2048, cfg.Log.MaxPayloadBytes)
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	writeConfigFile(t, dir, "config.yaml", `
client:
  baseurl: https://api.example.com
  retry:
    max: 5
    basedelay: 1s
log:
  level: debug
`)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Client.Retry.Max)
	assert.Equal(t, time.Second, cfg.Client.Retry.BaseDelay)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Untouched keys keep their defaults
	assert.Equal(t, 30*time.Second, cfg.Client.Timeout.Receive)
}

func TestLoadEnvironmentOverlay(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	writeConfigFile(t, dir, "config.yaml", `
client:
  baseurl: https://api.example.com
  env: staging
  retry:
    max: 5
`)
	writeConfigFile(t, dir, "config.staging.yaml", `
client:
  timeout:
    receive: 60s
`)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Client.Env)
	assert.Equal(t, 60*time.Second, cfg.Client.Timeout.Receive, "environment overlay wins over the base file")
	assert.Equal(t, 5, cfg.Client.Retry.Max, "base file values survive where the overlay is silent")
}

func TestLoadEnvVarsWin(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	writeConfigFile(t, dir, "config.yaml", `
client:
  baseurl: https://api.example.com
  retry:
    max: 5
`)
	t.Setenv("CLIENT_RETRY_MAX", "7")
	t.Setenv("CLIENT_TIMEOUT_RECEIVE", "45s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Client.Retry.Max)
	assert.Equal(t, 45*time.Second, cfg.Client.Timeout.Receive)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	// No base URL anywhere
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}
