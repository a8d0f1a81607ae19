// Package config loads client configuration from an optional YAML file
// and environment variables. Env wins over file, file over defaults.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration values.
type Config struct {
	// Server connection
	ServerURL string `yaml:"server_url"`
	AuthToken string `yaml:"auth_token"`

	// Active workspace (overridable per invocation; the persisted
	// selection in the state store wins over this default)
	WorkspaceID int `yaml:"workspace_id"`

	// Job tracking
	PollInterval time.Duration `yaml:"poll_interval"`

	// Client state directory (form cache, selected workspace)
	StateDir string `yaml:"state_dir"`

	// Logging
	LogFile  string     `yaml:"log_file"`
	LogLevel slog.Level `yaml:"-"`

	// Raw level string from file; parsed into LogLevel
	LogLevelName string `yaml:"log_level"`
}

// Path returns the default config file location.
func Path() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "ragline", "config.yaml")
	}
	return ""
}

// Load reads configuration: defaults, then the config file if present,
// then environment variables.
func Load() (Config, error) {
	cfg := defaults()

	if path := Path(); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	applyEnv(&cfg)
	cfg.LogLevel = parseLogLevel(cfg.LogLevelName)
	return cfg, nil
}

func defaults() Config {
	stateDir := "/tmp/ragline-state"
	if dir, err := os.UserCacheDir(); err == nil {
		stateDir = filepath.Join(dir, "ragline", "state")
	}
	return Config{
		ServerURL:    "http://localhost:8000",
		PollInterval: time.Second,
		StateDir:     stateDir,
		LogFile:      "/tmp/ragline.log",
		LogLevelName: "INFO",
	}
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.ServerURL = getEnv("RAGLINE_SERVER_URL", cfg.ServerURL)
	cfg.AuthToken = getEnv("RAGLINE_AUTH_TOKEN", cfg.AuthToken)
	cfg.StateDir = getEnv("RAGLINE_STATE_DIR", cfg.StateDir)
	cfg.LogFile = getEnv("RAGLINE_LOG_FILE", cfg.LogFile)
	cfg.LogLevelName = getEnv("RAGLINE_LOG_LEVEL", cfg.LogLevelName)

	if v := os.Getenv("RAGLINE_WORKSPACE_ID"); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			cfg.WorkspaceID = id
		}
	}
	if v := os.Getenv("RAGLINE_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.PollInterval = d
		}
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
