// Package config provides configuration loading and structs for the wikisearch server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Watch   WatchConfig   `yaml:"watch"`
	Spell   SpellConfig   `yaml:"spell"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the document database and the term index.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	IndexPath    string `yaml:"index_path"`
	// IndexBackend selects the term index: bleve, sqlite, or memory.
	IndexBackend string `yaml:"index_backend"`
}

// FetchConfig holds settings for fetching pages by URL.
type FetchConfig struct {
	RatePerSecond  float64 `yaml:"rate_per_second"`
	Burst          int     `yaml:"burst"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	UserAgent      string  `yaml:"user_agent"`
	// MaxBodyBytes rejects larger responses instead of indexing a truncated page.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// SpellConfig controls suggestions for query terms that match nothing.
type SpellConfig struct {
	Disabled       bool `yaml:"disabled"`
	MaxDistance    int  `yaml:"max_distance"`
	MaxSuggestions int  `yaml:"max_suggestions"`
}

// WatchConfig holds directory watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.IndexPath = expandPath(cfg.Storage.IndexPath, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// Validate reports every invalid setting at once. It expects defaults to be applied.
func (c *Config) Validate() error {
	var err error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		err = multierror.Append(err, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	switch c.Storage.IndexBackend {
	case "bleve", "sqlite", "memory":
	default:
		err = multierror.Append(err, fmt.Errorf("storage.index_backend %q is not one of bleve, sqlite, memory", c.Storage.IndexBackend))
	}
	if c.Storage.IndexBackend == "sqlite" && c.Storage.IndexPath == c.Storage.DatabasePath {
		err = multierror.Append(err, errors.New("storage.index_path must differ from storage.database_path"))
	}
	if c.Fetch.RatePerSecond < 0 {
		err = multierror.Append(err, fmt.Errorf("fetch.rate_per_second %v is negative", c.Fetch.RatePerSecond))
	}
	if c.Fetch.Burst < 0 {
		err = multierror.Append(err, fmt.Errorf("fetch.burst %d is negative", c.Fetch.Burst))
	}
	if c.Fetch.TimeoutSeconds < 0 {
		err = multierror.Append(err, fmt.Errorf("fetch.timeout_seconds %d is negative", c.Fetch.TimeoutSeconds))
	}
	if c.Fetch.MaxBodyBytes < 0 {
		err = multierror.Append(err, fmt.Errorf("fetch.max_body_bytes %d is negative", c.Fetch.MaxBodyBytes))
	}
	if c.Spell.MaxDistance < 0 {
		err = multierror.Append(err, fmt.Errorf("spell.max_distance %d is negative", c.Spell.MaxDistance))
	}
	if c.Spell.MaxSuggestions < 0 {
		err = multierror.Append(err, fmt.Errorf("spell.max_suggestions %d is negative", c.Spell.MaxSuggestions))
	}
	return err
}

// Save writes the config to path. Used for persisting watch directory add/remove.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
