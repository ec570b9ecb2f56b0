// Package config loads relayfaq settings from a YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all relayfaq configuration.
type Config struct {
	// Document is the FAQ markdown file the tool operates on.
	Document string `yaml:"document"`

	// DatabasePath is the SQLite knowledge-base location.
	DatabasePath string `yaml:"database_path"`

	// Watch configures the live re-lint watcher.
	Watch WatchConfig `yaml:"watch"`

	// Logging configures the zap logger.
	Logging LoggingConfig `yaml:"logging"`
}

// WatchConfig configures the document watcher.
type WatchConfig struct {
	// Debounce is how long to wait after the last write before
	// re-linting, as a duration string.
	Debounce string `yaml:"debounce"`

	// IndexOnChange re-syncs the database after a successful lint.
	IndexOnChange bool `yaml:"index_on_change"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Document:     "docs/faq.md",
		DatabasePath: filepath.Join(".relayfaq", "kb.db"),
		Watch: WatchConfig{
			Debounce:      "300ms",
			IndexOnChange: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment variables override either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if doc := os.Getenv("RELAYFAQ_DOC"); doc != "" {
		c.Document = doc
	}
	if db := os.Getenv("RELAYFAQ_DB"); db != "" {
		c.DatabasePath = db
	}
	if level := os.Getenv("RELAYFAQ_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// GetDebounce returns the watch debounce as a duration.
func (c *Config) GetDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 300 * time.Millisecond
	}
	return d
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Document == "" {
		return fmt.Errorf("document path not configured (set document in relayfaq.yaml or RELAYFAQ_DOC)")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database path not configured (set database_path in relayfaq.yaml or RELAYFAQ_DB)")
	}
	return nil
}
