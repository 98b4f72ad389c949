// Package config owns the user-level configuration file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// GatewayConfig holds the connection settings for the external agent gateway.
// When URL is empty the built-in mock collaborator is used instead.
type GatewayConfig struct {
	URL            string `json:"url,omitempty"`
	Token          string `json:"token,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

// Config represents the flat exchange configuration.
type Config struct {
	Version             string        `json:"version"`
	DefaultActor        string        `json:"default_actor,omitempty"` // USR-XXX used when --as is omitted
	DatabasePath        string        `json:"database_path,omitempty"`
	Gateway             GatewayConfig `json:"gateway,omitempty"`
	PollIntervalSeconds int           `json:"poll_interval_seconds,omitempty"` // watch refresh cadence
}

// Dir returns the configuration directory under the user's home.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".exchange"), nil
}

// Load reads config.json from the given directory. An empty dir resolves to
// the default location. Returns error if no config found - caller should
// handle accordingly.
func Load(dir string) (*Config, error) {
	if dir == "" {
		var err error
		dir, err = Dir()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "config.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault reads the config, falling back to defaults when the file does
// not exist yet.
func LoadOrDefault(dir string) *Config {
	cfg, err := Load(dir)
	if err != nil {
		return &Config{Version: "1", PollIntervalSeconds: 3}
	}
	if cfg.PollIntervalSeconds <= 0 {
		cfg.PollIntervalSeconds = 3
	}
	return cfg
}

// Save writes config.json to the given directory, creating it if needed.
// An empty dir resolves to the default location.
func Save(dir string, cfg *Config) error {
	if dir == "" {
		var err error
		dir, err = Dir()
		if err != nil {
			return err
		}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
