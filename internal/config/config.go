package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds user preferences
type Config struct {
	ServerURL      string        `yaml:"server_url" json:"server_url"`           // Sync server base URL
	StatePath      string        `yaml:"state_path" json:"state_path"`           // SQLite file holding the local dataset
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"` // Per-request timeout for sync calls

	// Logging configuration
	LogLevel   string `yaml:"log_level" json:"log_level"`     // Log level: DEBUG, INFO, WARN, ERROR
	LogFile    string `yaml:"log_file" json:"log_file"`       // Path to log file
	LogConsole bool   `yaml:"log_console" json:"log_console"` // Enable console logging
}

// Dir returns ~/.taskboard
func Dir() string {
	home, _ := os.UserHomeDir()
	if home == "" {
		return ".taskboard"
	}
	return filepath.Join(home, ".taskboard")
}

// DefaultPath returns ~/.taskboard/config.yaml
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// DefaultConfig returns default settings
func DefaultConfig() *Config {
	dir := Dir()

	timeout, err := time.ParseDuration(getEnv("TASKBOARD_REQUEST_TIMEOUT", "30s"))
	if err != nil {
		timeout = 30 * time.Second
	}

	return &Config{
		ServerURL:      getEnv("TASKBOARD_SERVER_URL", "http://localhost:8080"),
		StatePath:      getEnv("TASKBOARD_STATE_PATH", filepath.Join(dir, "state.db")),
		RequestTimeout: timeout,
		LogLevel:       getEnv("TASKBOARD_LOG_LEVEL", "INFO"),
		LogFile:        getEnv("TASKBOARD_LOG_FILE", filepath.Join(dir, "logs", "taskboard.log")),
		LogConsole:     getEnv("TASKBOARD_LOG_CONSOLE", "false") == "true",
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Load loads config from ~/.taskboard/config.yaml
func Load() (*Config, error) {
	return LoadFrom(DefaultPath())
}

// LoadFrom loads config from path, falling back to defaults when it does not exist
func LoadFrom(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Save saves config to ~/.taskboard/config.yaml
func (c *Config) Save() error {
	return c.SaveTo(DefaultPath())
}

// SaveTo writes the config as YAML to path
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
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
