// Package config holds the contratos configuration: backend connection,
// editor behavior, and local storage. Configuration loads from a YAML file
// with environment-variable overrides for the connection settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Editor  EditorConfig  `yaml:"editor"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig configures the backend client.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
	Timeout string `yaml:"timeout"`
}

// EditorConfig configures editor behavior.
type EditorConfig struct {
	HistoryLimit int    `yaml:"history_limit"`
	Theme        string `yaml:"theme"` // light, dark, or auto
}

// StorageConfig configures the offline annotation store.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	Offline      bool   `yaml:"offline"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`
}

// DefaultConfig returns the defaults used when no file is present.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		API: APIConfig{
			BaseURL: "http://localhost:8000",
			Timeout: "15s",
		},
		Editor: EditorConfig{
			HistoryLimit: 500,
			Theme:        "auto",
		},
		Storage: StorageConfig{
			DatabasePath: filepath.Join(home, ".contratos", "annotations.db"),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the config file at path, falling back to defaults when the
// file does not exist. Environment variables override the connection
// settings: CONTRATOS_API_URL, CONTRATOS_API_TOKEN, CONTRATOS_OFFLINE.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults apply.
		case err != nil:
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CONTRATOS_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("CONTRATOS_API_TOKEN"); v != "" {
		cfg.API.Token = v
	}
	if v := os.Getenv("CONTRATOS_OFFLINE"); v == "1" || v == "true" {
		cfg.Storage.Offline = true
	}
}

// Validate checks the parts that would otherwise fail far from their
// cause.
func (c *Config) Validate() error {
	if c.Editor.HistoryLimit < 0 {
		return fmt.Errorf("config: history_limit must be >= 0, got %d", c.Editor.HistoryLimit)
	}
	if c.API.Timeout != "" {
		if _, err := time.ParseDuration(c.API.Timeout); err != nil {
			return fmt.Errorf("config: invalid api.timeout %q: %w", c.API.Timeout, err)
		}
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown logging level %q", c.Logging.Level)
	}
	return nil
}

// APITimeout returns the parsed API timeout, or the default on absence.
func (c *Config) APITimeout() time.Duration {
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}
