package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, 3000, config.Server.Port)
	assert.Equal(t, "localhost", config.Server.Host)
	assert.True(t, config.Browser.Headless)
	assert.Equal(t, "https://www.linkedin.com", config.Target.BaseURL)
	assert.NotEmpty(t, config.Target.ProfilePathPattern)
	assert.Equal(t, 587, config.SMTP.Port)
	assert.False(t, config.KeepAlive.Enabled)
}

func TestLoadFromFiles_OverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scriba.toml")

	content := `
environment = "production"

[server]
port = 8080

[browser]
headless = false

[smtp]
host = "smtp.example.com"
from = "noreply@example.com"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.Equal(t, "production", config.Environment)
	assert.True(t, config.IsProduction())
	assert.Equal(t, 8080, config.Server.Port)
	assert.False(t, config.Browser.Headless)
	assert.Equal(t, "smtp.example.com", config.SMTP.Host)
	// Untouched sections keep their defaults.
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, 587, config.SMTP.Port)
}

func TestLoadFromFiles_LaterFileWins(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "base.toml")
	second := filepath.Join(dir, "local.toml")

	require.NoError(t, os.WriteFile(first, []byte("[server]\nport = 8080\n"), 0644))
	require.NoError(t, os.WriteFile(second, []byte("[server]\nport = 9090\n"), 0644))

	config, err := LoadFromFiles(first, second)
	require.NoError(t, err)
	assert.Equal(t, 9090, config.Server.Port)
}

func TestLoadFromFiles_MissingFile(t *testing.T) {
	_, err := LoadFromFiles(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestLoadFromFiles_EnvOverrides(t *testing.T) {
	t.Setenv("SCRIBA_SERVER_PORT", "4444")
	t.Setenv("SCRIBA_BOT_USERNAME", "bot@example.com")
	t.Setenv("LINKEDIN_PASSWORD", "legacy-secret")

	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, 4444, config.Server.Port)
	assert.Equal(t, "bot@example.com", config.Bot.Username)
	assert.Equal(t, "legacy-secret", config.Bot.Password)
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()

	ApplyFlagOverrides(config, 7070, "0.0.0.0")
	assert.Equal(t, 7070, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)

	ApplyFlagOverrides(config, 0, "")
	assert.Equal(t, 7070, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)
}
