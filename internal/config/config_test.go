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
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
pending:
  cron: "*/10 * * * *"
  timeout: 2m
downloader:
  enabled: true
  host: torrent.local
  category: tv
`)
	t.Setenv("DELAYGATE_SERVER_PORT", "9100")
	t.Setenv("DELAYGATE_PENDING_CONCURRENCY", "8")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port, "environment wins over the file")
	assert.Equal(t, "*/10 * * * *", cfg.Pending.Cron)
	assert.Equal(t, 2*time.Minute, cfg.Pending.Timeout)
	assert.Equal(t, 8, cfg.Pending.Concurrency)
	assert.True(t, cfg.Downloader.Enabled)
	assert.Equal(t, "torrent.local", cfg.Downloader.Host)
	assert.Equal(t, "/gui/", cfg.Downloader.URLBase)
	assert.Equal(t, "0.0.0.0:9100", cfg.Server.Address())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"no database", func(c *Config) { c.Database.Path = "" }},
		{"bad cron", func(c *Config) { c.Pending.Cron = "every five minutes" }},
		{"downloader without host", func(c *Config) { c.Downloader.Enabled = true }},
	}

	require.NoError(t, Default().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_DisabledPendingSkipsCron(t *testing.T) {
	cfg := Default()
	cfg.Pending.Enabled = false
	cfg.Pending.Cron = ""
	assert.NoError(t, cfg.Validate())
}
