// Package config loads trailstore configuration from YAML with environment
// variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete trailstore configuration.
type Config struct {
	Version int           `yaml:"version" json:"version"`
	Index   IndexConfig   `yaml:"index" json:"index"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// IndexConfig configures the index resource manager.
type IndexConfig struct {
	// LockTimeout is the bounded wait for an index's exclusive write lock.
	LockTimeout Duration `yaml:"lock_timeout" json:"lock_timeout"`

	// KeyCacheSize bounds the canonical-key cache.
	KeyCacheSize int `yaml:"key_cache_size" json:"key_cache_size"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" json:"level"`

	// File is the log file path; empty uses the default location.
	File string `yaml:"file" json:"file"`

	// MaxSizeMB is the maximum log size in MB before rotation.
	MaxSizeMB int `yaml:"max_size_mb" json:"max_size_mb"`

	// MaxFiles is the number of rotated log files to keep.
	MaxFiles int `yaml:"max_files" json:"max_files"`
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Index: IndexConfig{
			LockTimeout:  Duration(300 * time.Second),
			KeyCacheSize: 1024,
		},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
	}
}

// Load loads configuration for dir: defaults, then .trailstore.yaml or
// .trailstore.yml from dir if present, then environment overrides, then
// validation.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile attempts to load configuration from .trailstore.yaml or .trailstore.yml.
func (c *Config) loadFromFile(dir string) error {
	// .yaml takes precedence
	yamlPath := filepath.Join(dir, ".trailstore.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ".trailstore.yml")
	if _, err := os.Stat(ymlPath); err == nil {
		return c.loadYAML(ymlPath)
	}

	// No config file is fine - use defaults
	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if other.Index.LockTimeout != 0 {
		c.Index.LockTimeout = other.Index.LockTimeout
	}
	if other.Index.KeyCacheSize != 0 {
		c.Index.KeyCacheSize = other.Index.KeyCacheSize
	}
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.File != "" {
		c.Logging.File = other.Logging.File
	}
	if other.Logging.MaxSizeMB != 0 {
		c.Logging.MaxSizeMB = other.Logging.MaxSizeMB
	}
	if other.Logging.MaxFiles != 0 {
		c.Logging.MaxFiles = other.Logging.MaxFiles
	}
}

// applyEnvOverrides applies environment variables, the highest-precedence
// configuration source.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("TRAILSTORE_LOCK_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Index.LockTimeout = Duration(d)
		}
	}
	if v := os.Getenv("TRAILSTORE_KEY_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Index.KeyCacheSize = n
		}
	}
	if v := os.Getenv("TRAILSTORE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("TRAILSTORE_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
}

// Validate checks the final configuration.
func (c *Config) Validate() error {
	if c.Index.LockTimeout <= 0 {
		return fmt.Errorf("index.lock_timeout must be positive, got %s", c.Index.LockTimeout)
	}
	if c.Index.KeyCacheSize <= 0 {
		return fmt.Errorf("index.key_cache_size must be positive, got %d", c.Index.KeyCacheSize)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}

	if c.Logging.MaxSizeMB < 0 {
		return fmt.Errorf("logging.max_size_mb must be non-negative, got %d", c.Logging.MaxSizeMB)
	}
	if c.Logging.MaxFiles < 0 {
		return fmt.Errorf("logging.max_files must be non-negative, got %d", c.Logging.MaxFiles)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
