package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
	assert.Equal(t, 1500*time.Millisecond, cfg.Editor.Latency)
	assert.Equal(t, time.Second, cfg.Editor.AutosaveQuiet)
	assert.Equal(t, 1, cfg.Credits.AssistantCost)
	assert.Equal(t, 100, cfg.Credits.SignupBonus)
	assert.Equal(t, 200, cfg.Credits.RefereeBonus)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 10, cfg.RateLimit.MaxRequests)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "webforge.yaml")
	content := `
server:
  addr: 0.0.0.0:9000
database:
  path: /tmp/forge.db
editor:
  latency: 0s
credits:
  assistant_cost: 2
rate_limit:
  max_requests: 50
site_url: https://forge.example.com
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr)
	assert.Equal(t, "/tmp/forge.db", cfg.Database.Path)
	assert.Equal(t, time.Duration(0), cfg.Editor.Latency)
	assert.Equal(t, 2, cfg.Credits.AssistantCost)
	assert.Equal(t, 50, cfg.RateLimit.MaxRequests)
	assert.Equal(t, "https://forge.example.com", cfg.SiteURL)
	assert.Equal(t, 100, cfg.Credits.SignupBonus, "unset keys keep defaults")
}

func TestLoad_Env(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("WEBFORGE_SERVER_ADDR", ":7000")
	t.Setenv("WEBFORGE_CREDITS_ASSISTANT_COST", "3")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, 3, cfg.Credits.AssistantCost)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Credits.AssistantCost = 0
	assert.Error(t, cfg.Validate())

	cfg.Credits.AssistantCost = 1
	cfg.RateLimit.MaxRequests = 0
	assert.Error(t, cfg.Validate())

	cfg.RateLimit.Enabled = false
	assert.NoError(t, cfg.Validate())
}
