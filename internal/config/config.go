// Package config loads fitfeast settings from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const appDir = "fitfeast"

// Config holds all fitfeast configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	AI      AIConfig      `yaml:"ai"`
	Export  ExportConfig  `yaml:"export"`
	Logging LoggingConfig `yaml:"logging"`
}

type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// AIConfig configures the hosted estimator.
type AIConfig struct {
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	TipsDelay string `yaml:"tips_delay"`
	Timeout   string `yaml:"timeout"` // empty or "0" means no limit
}

type ExportConfig struct {
	Dir string `yaml:"dir"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	Path  string `yaml:"path"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		AI: AIConfig{
			Model:     "gemini-2.5-flash",
			TipsDelay: "1s",
		},
		Export: ExportConfig{
			Dir: ".",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns <user config dir>/fitfeast/config.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config dir: %w", err)
	}
	return filepath.Join(dir, appDir, "config.yaml"), nil
}

// Load reads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	// API_KEY is the generic name; GEMINI_API_KEY wins when both are set.
	if key := os.Getenv("API_KEY"); key != "" {
		c.AI.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.AI.APIKey = key
	}
	if model := os.Getenv("FITFEAST_MODEL"); model != "" {
		c.AI.Model = model
	}
	if path := os.Getenv("FITFEAST_DB"); path != "" {
		c.Storage.DatabasePath = path
	}
}

// Validate checks duration fields and the log level.
func (c *Config) Validate() error {
	if c.AI.TipsDelay != "" {
		if d, err := time.ParseDuration(c.AI.TipsDelay); err != nil || d < 0 {
			return fmt.Errorf("invalid ai.tips_delay %q", c.AI.TipsDelay)
		}
	}
	if c.AI.Timeout != "" && c.AI.Timeout != "0" {
		if d, err := time.ParseDuration(c.AI.Timeout); err != nil || d < 0 {
			return fmt.Errorf("invalid ai.timeout %q", c.AI.Timeout)
		}
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level %q", c.Logging.Level)
	}
	return nil
}

// GetTipsDelay returns the advice debounce delay, one second by default.
func (c *Config) GetTipsDelay() time.Duration {
	d, err := time.ParseDuration(c.AI.TipsDelay)
	if err != nil || d <= 0 {
		return time.Second
	}
	return d
}

// GetTimeout returns the per-call estimator timeout. Zero means none.
func (c *Config) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.AI.Timeout)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// HasAPIKey reports whether AI features can be enabled.
func (c *Config) HasAPIKey() bool {
	return c.AI.APIKey != ""
}

// LogPath returns the file the TUI logs to. It defaults to fitfeast.log
// next to the database.
func (c *Config) LogPath(dbPath string) string {
	if c.Logging.Path != "" {
		return c.Logging.Path
	}
	return filepath.Join(filepath.Dir(dbPath), "fitfeast.log")
}
