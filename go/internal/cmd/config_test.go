package main

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
	path := filepath.Join(t.TempDir(), "oddcard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	config, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, []int{4, 5, 6}, config.Game.GridSizes)
	assert.Equal(t, 10*time.Second, config.Game.RoundDuration)
	assert.Equal(t, ContentSourceEmbedded, config.Content.Source)
	assert.Equal(t, "8080", config.Server.Port)
	assert.False(t, config.NATS.Enabled)
	assert.Equal(t, "info", config.Log.Level)
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
game:
  grid_sizes: [2, 3]
  round_duration: 5s
  reveal_delay: 150ms
content:
  source: file
  file: pairs.yaml
server:
  port: "9090"
nats:
  enabled: true
  url: nats://nats:4222
`)

	config, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []int{2, 3}, config.Game.GridSizes)
	assert.Equal(t, 5*time.Second, config.Game.RoundDuration)
	assert.Equal(t, 150*time.Millisecond, config.Game.RevealDelay)
	// Unset keys keep their defaults.
	assert.Equal(t, 3, config.Game.CountdownFrom)
	assert.Equal(t, time.Second, config.Game.FailDelay)

	assert.Equal(t, ContentSourceFile, config.Content.Source)
	assert.Equal(t, "pairs.yaml", config.Content.File)
	assert.Equal(t, "9090", config.Server.Port)
	assert.True(t, config.NATS.Enabled)
	assert.Equal(t, "nats://nats:4222", config.NATS.URL)
	assert.Equal(t, "ODDCARD_EVENTS", config.NATS.StreamName)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "server:\n  port: \"9090\"\n")
	t.Setenv("PORT", "7000")
	t.Setenv("NATS_ENABLED", "true")
	t.Setenv("CONTENT_SOURCE", "POSTGRES")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SESSION_IDLE_MINUTES", "5")

	config, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "7000", config.Server.Port)
	assert.True(t, config.NATS.Enabled)
	assert.Equal(t, ContentSourcePostgres, config.Content.Source)
	assert.Equal(t, "debug", config.Log.Level)
	assert.Equal(t, 5*time.Minute, config.Server.SessionIdleTimeout)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed yaml", "game: [\n"},
		{"empty ladder", "game:\n  grid_sizes: []\n"},
		{"unknown content source", "content:\n  source: s3\n"},
		{"file source without path", "content:\n  source: file\n"},
		{"zero idle timeout", "server:\n  session_idle_timeout: 0s\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("ODDCARD_TEST_INT", "42")
	t.Setenv("ODDCARD_TEST_BAD_INT", "forty")
	t.Setenv("ODDCARD_TEST_BOOL", "1")

	assert.Equal(t, 42, getEnvAsInt("ODDCARD_TEST_INT", 7))
	assert.Equal(t, 7, getEnvAsInt("ODDCARD_TEST_BAD_INT", 7))
	assert.Equal(t, 7, getEnvAsInt("ODDCARD_TEST_UNSET", 7))
	assert.True(t, getEnvAsBool("ODDCARD_TEST_BOOL", false))
	assert.Equal(t, "fallback", getEnv("ODDCARD_TEST_UNSET", "fallback"))
}
