// Package config loads dockhand configuration from YAML with
// environment-variable fallbacks for secrets.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load reads and parses a configuration from the given YAML file path.
// After parsing, defaults are applied to anything left unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault searches standard locations and loads the first config
// found. Search order: ./dockhand.yaml, ~/.dockhand/config.yaml. When
// none exists, a default config is returned rather than an error.
func LoadDefault() (*Config, error) {
	candidates := []string{"dockhand.yaml"}

	home, err := os.UserHomeDir()
	if err == nil {
		candidates = append(candidates, filepath.Join(home, ".dockhand", "config.yaml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	cfg := &Config{}
	applyDefaults(cfg)
	return cfg, nil
}

// APIKey resolves the model API key from the configured environment
// variable.
func (c *Config) APIKey() string {
	return os.Getenv(c.Model.APIKeyEnv)
}

// HistoryDSN resolves the journal DSN; DOCKHAND_DB_URL wins over YAML.
func (c *Config) HistoryDSN() string {
	if dsn := os.Getenv("DOCKHAND_DB_URL"); dsn != "" {
		return dsn
	}
	return c.History.DSN
}

func applyDefaults(cfg *Config) {
	if cfg.Model.Endpoint == "" {
		cfg.Model.Endpoint = "https://api.openai.com/v1/chat/completions"
	}
	if cfg.Model.Name == "" {
		cfg.Model.Name = "gpt-4o-mini"
	}
	if cfg.Model.Temperature == 0 {
		cfg.Model.Temperature = 0.2
	}
	if cfg.Model.Timeout == "" {
		cfg.Model.Timeout = "2m"
	}
	if cfg.Model.APIKeyEnv == "" {
		cfg.Model.APIKeyEnv = "DOCKHAND_API_KEY"
	}
	if cfg.Build.Timeout == "" {
		cfg.Build.Timeout = "15m"
	}
	if cfg.Build.MaxAttempts <= 0 {
		cfg.Build.MaxAttempts = 3
	}
	if cfg.Build.Platform == "" {
		cfg.Build.Platform = "linux/amd64"
	}
}
