// Package config loads the storefront client configuration from YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all storefront configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Session SessionConfig `yaml:"session"`
	UI      UIConfig      `yaml:"ui"`
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig configures the REST API connection.
type APIConfig struct {
	BaseURL  string  `yaml:"base_url"`
	Timeout  string  `yaml:"timeout"`
	MaxRPS   float64 `yaml:"max_rps"`
	ProxyURL string  `yaml:"proxy_url"`
	Insecure bool    `yaml:"insecure"`
}

// SessionConfig configures where the session survives restarts.
type SessionConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// UIConfig configures presentation.
type UIConfig struct {
	Notifications string `yaml:"notifications"` // toast, confetti, log
	Format        string `yaml:"format"`        // text, json
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`
}

// Notification styles.
const (
	NotifyToast    = "toast"
	NotifyConfetti = "confetti"
	NotifyLog      = "log"
)

// Dir returns the storefront state directory (~/.storefront).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".storefront"
	}
	return filepath.Join(home, ".storefront")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:5000",
			Timeout: "15s",
		},
		Session: SessionConfig{
			DatabasePath: filepath.Join(Dir(), "session.db"),
		},
		UI: UIConfig{
			Notifications: NotifyToast,
			Format:        "text",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to path, creating the directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("api.base_url must be an http(s) URL, got %q", c.API.BaseURL)
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}
	if c.API.MaxRPS < 0 {
		return fmt.Errorf("api.max_rps cannot be negative")
	}
	switch c.UI.Notifications {
	case NotifyToast, NotifyConfetti, NotifyLog:
	default:
		return fmt.Errorf("ui.notifications must be toast, confetti or log, got %q", c.UI.Notifications)
	}
	switch strings.ToLower(c.UI.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("ui.format must be text or json, got %q", c.UI.Format)
	}
	return nil
}

// Timeout parses API.Timeout. An empty value means no timeout.
func (c *Config) Timeout() (time.Duration, error) {
	if c.API.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid api.timeout %q: %w", c.API.Timeout, err)
	}
	return d, nil
}
