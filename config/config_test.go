package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "upstream:\n  base_url: http://upstream.local\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, float64(10), cfg.Server.RateLimitPerSec)
	assert.Equal(t, "http://upstream.local", cfg.Upstream.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, time.Second, cfg.Upstream.ReconnectMin)
	assert.Equal(t, 30*time.Second, cfg.Upstream.ReconnectMax)
	assert.Equal(t, "stationd.db", cfg.Journal.DSN)
	assert.Equal(t, 3600, cfg.Push.TTL)
	assert.Equal(t, 1, cfg.WorkerPool.Size)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadExplicitValues(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
  rate_limit_per_sec: 25
upstream:
  base_url: http://upstream.local
  timeout_seconds: 5
  reconnect_min_seconds: 2
  reconnect_max_seconds: 60
journal:
  dsn: "postgres://station:secret@db/station"
log:
  level: debug
  pretty: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, 2*time.Second, cfg.Upstream.ReconnectMin)
	assert.Equal(t, 60*time.Second, cfg.Upstream.ReconnectMax)
	assert.Equal(t, "postgres://station:secret@db/station", cfg.Journal.DSN)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
