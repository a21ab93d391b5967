// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading for loom.
//
// Configuration sources, in order of precedence:
//   - LOOM_* environment variables
//   - ~/.loom/config.toml
//   - Built-in defaults
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
)

// Storage backend names accepted in config.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete loom configuration.
type Config struct {
	// Server configuration
	Server ServerConfig `toml:"server"`

	// Storage configuration
	Storage StorageConfig `toml:"storage"`

	// Chat configuration
	Chat ChatConfig `toml:"chat"`

	// Log configuration
	Log LogConfig `toml:"log"`
}

// ServerConfig contains remote API configuration.
type ServerConfig struct {
	// BaseURL is the root of the chat/image API, without a trailing slash.
	BaseURL string `toml:"base_url" envconfig:"SERVER_BASE_URL"`
	// TimeoutSecs bounds non-streaming requests.
	TimeoutSecs int `toml:"timeout_secs" envconfig:"SERVER_TIMEOUT_SECS"`
}

// StorageConfig contains local persistence configuration.
type StorageConfig struct {
	// Backend selects the KV implementation: "file" or "sqlite".
	Backend string `toml:"backend" envconfig:"STORAGE_BACKEND"`
	// DataDir is where the backend keeps its state (empty = ~/.loom/data).
	DataDir string `toml:"data_dir" envconfig:"STORAGE_DATA_DIR"`
}

// ChatConfig contains conversation behavior configuration.
type ChatConfig struct {
	// DebounceMs is the persistence debounce interval in milliseconds.
	DebounceMs int `toml:"debounce_ms" envconfig:"CHAT_DEBOUNCE_MS"`
	// ImageDir is where generated images are saved (empty = ~/.loom/images).
	ImageDir string `toml:"image_dir" envconfig:"CHAT_IMAGE_DIR"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	// File is the log destination (empty = ~/.loom/loom.log). Logging
	// never goes to stderr while the TUI owns the terminal.
	File string `toml:"file" envconfig:"LOG_FILE"`
	// Level is a logrus level name: "debug", "info", "warn", "error".
	Level string `toml:"level" envconfig:"LOG_LEVEL"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL:     "http://127.0.0.1:8080",
			TimeoutSecs: 60,
		},
		Storage: StorageConfig{
			Backend: BackendFile,
		},
		Chat: ChatConfig{
			DebounceMs: 500,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the loom configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".loom"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from ~/.loom/config.toml, falling back to
// defaults when the file is absent. Environment overrides apply last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		// No file: defaults plus environment.
		cfg := Default()
		if err := applyEnv(cfg); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		return cfg, nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific TOML file with
// environment overrides and validation applied.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}
	cfg.fillDefaults()
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// applyEnv overlays LOOM_* environment variables onto the config.
func applyEnv(cfg *Config) error {
	for section, target := range map[string]interface{}{
		"server":  &cfg.Server,
		"storage": &cfg.Storage,
		"chat":    &cfg.Chat,
		"log":     &cfg.Log,
	} {
		if err := envconfig.Process("loom", target); err != nil {
			return fmt.Errorf("environment overrides (%s): %w", section, err)
		}
	}
	return nil
}

// fillDefaults fills in any missing values with defaults.
func (c *Config) fillDefaults() {
	defaults := Default()

	if c.Server.BaseURL == "" {
		c.Server.BaseURL = defaults.Server.BaseURL
	}
	if c.Server.TimeoutSecs == 0 {
		c.Server.TimeoutSecs = defaults.Server.TimeoutSecs
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaults.Storage.Backend
	}
	if c.Chat.DebounceMs == 0 {
		c.Chat.DebounceMs = defaults.Chat.DebounceMs
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server.base_url: not an absolute URL: %q", c.Server.BaseURL)
	}
	if c.Server.TimeoutSecs < 0 {
		return fmt.Errorf("server.timeout_secs: must be non-negative, got %d", c.Server.TimeoutSecs)
	}

	switch strings.ToLower(c.Storage.Backend) {
	case BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("storage.backend: %q, must be %q or %q",
			c.Storage.Backend, BackendFile, BackendSQLite)
	}

	if c.Chat.DebounceMs < 0 {
		return fmt.Errorf("chat.debounce_ms: must be non-negative, got %d", c.Chat.DebounceMs)
	}
	return nil
}

// =============================================================================
// RESOLVED PATHS
// =============================================================================

// DataDir returns the storage directory, defaulting under ConfigDir.
func (c *Config) DataDir() (string, error) {
	if c.Storage.DataDir != "" {
		return c.Storage.DataDir, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "data"), nil
}

// ImageDir returns where generated images land, defaulting under
// ConfigDir.
func (c *Config) ImageDir() (string, error) {
	if c.Chat.ImageDir != "" {
		return c.Chat.ImageDir, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "images"), nil
}

// LogFile returns the log destination, defaulting under ConfigDir.
func (c *Config) LogFile() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "loom.log"), nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes the configuration to the default TOML file with
// owner-only permissions.
func Save(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	path, err := ConfigPath()
	if err != nil {
		return err
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	fmt.Fprintln(file, "# loom configuration file")
	fmt.Fprintln(file, "")

	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
