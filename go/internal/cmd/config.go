package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mcdev12/oddcard/go/internal/game"
	"gopkg.in/yaml.v3"
)

// Content sources for the word-pair table
const (
	ContentSourceEmbedded = "embedded"
	ContentSourceFile     = "file"
	ContentSourcePostgres = "postgres"
)

type Config struct {
	Game game.Rules `yaml:"game"`

	Content struct {
		Source string `yaml:"source"`
		File   string `yaml:"file"`
	} `yaml:"content"`

	Server struct {
		Port               string        `yaml:"port"`
		SessionIdleTimeout time.Duration `yaml:"session_idle_timeout"`
		ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	NATS struct {
		Enabled       bool   `yaml:"enabled"`
		URL           string `yaml:"url"`
		StreamName    string `yaml:"stream_name"`
		SubjectPrefix string `yaml:"subject_prefix"`
	} `yaml:"nats"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

func defaultConfig() *Config {
	var config Config
	config.Game = game.DefaultRules()
	config.Content.Source = ContentSourceEmbedded
	config.Server.Port = "8080"
	config.Server.SessionIdleTimeout = 30 * time.Minute
	config.Server.ShutdownTimeout = 10 * time.Second
	config.NATS.URL = "nats://localhost:4222"
	config.NATS.StreamName = "ODDCARD_EVENTS"
	config.NATS.SubjectPrefix = "oddcard.events"
	config.Log.Level = "info"
	return &config
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// loadConfig reads the YAML file at path on top of the defaults and then
// applies environment overrides. A missing file leaves the defaults in place.
func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnvOverrides(config)

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func applyEnvOverrides(config *Config) {
	config.Server.Port = getEnv("PORT", config.Server.Port)
	config.NATS.URL = getEnv("NATS_URL", config.NATS.URL)
	config.NATS.Enabled = getEnvAsBool("NATS_ENABLED", config.NATS.Enabled)
	config.Content.Source = strings.ToLower(getEnv("CONTENT_SOURCE", config.Content.Source))
	config.Content.File = getEnv("CONTENT_FILE", config.Content.File)
	config.Log.Level = getEnv("LOG_LEVEL", config.Log.Level)

	if minutes := getEnvAsInt("SESSION_IDLE_MINUTES", 0); minutes > 0 {
		config.Server.SessionIdleTimeout = time.Duration(minutes) * time.Minute
	}
}

func (c *Config) validate() error {
	if err := c.Game.Validate(); err != nil {
		return err
	}

	switch c.Content.Source {
	case ContentSourceEmbedded, ContentSourcePostgres:
	case ContentSourceFile:
		if c.Content.File == "" {
			return fmt.Errorf("content source %q requires content.file", c.Content.Source)
		}
	default:
		return fmt.Errorf("unknown content source %q", c.Content.Source)
	}

	if c.Server.SessionIdleTimeout <= 0 {
		return fmt.Errorf("server.session_idle_timeout must be positive")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive")
	}
	return nil
}
