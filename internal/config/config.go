// Package config loads the Odonto configuration file.
//
// The file lives at ~/.odonto/config.yaml by default. Missing files are
// not an error; defaults apply. Environment variables override the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Mr-Dark-debug/odonto/internal/chart"
	"github.com/Mr-Dark-debug/odonto/internal/saver"
)

// Environment overrides.
const (
	EnvDB       = "ODONTO_DB"
	EnvLogLevel = "ODONTO_LOG_LEVEL"
	EnvSession  = "ODONTO_SESSION"
)

// Config is the full configuration.
type Config struct {
	// DBPath is the SQLite database file.
	DBPath string `yaml:"db_path"`
	// SessionPath is where the signed-in session is stored.
	SessionPath string `yaml:"session_path"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// LogFile receives TUI logs.
	LogFile string `yaml:"log_file"`
	// Dentition is the mode the editor opens in: adult or child.
	Dentition string `yaml:"dentition"`
	// HistoryLimit bounds `chart history` output.
	HistoryLimit int `yaml:"history_limit"`

	Saver saver.Config `yaml:"saver"`
}

// Dir returns the default configuration directory.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".odonto"
	}
	return filepath.Join(home, ".odonto")
}

// DefaultPath returns the default configuration file path.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	dir := Dir()
	return Config{
		DBPath:       filepath.Join(dir, "odonto.db"),
		SessionPath:  filepath.Join(dir, "session.yaml"),
		LogLevel:     "info",
		LogFile:      filepath.Join(dir, "odonto-tui.log"),
		Dentition:    chart.Adult.String(),
		HistoryLimit: 20,
		Saver:        saver.DefaultConfig(),
	}
}

// Load reads path over the defaults and applies environment overrides.
// An empty path uses DefaultPath.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("reading config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDB); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvSession); v != "" {
		c.SessionPath = v
	}
}

// Save writes the configuration as YAML.
func (c Config) Save(path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks field values.
func (c Config) Validate() error {
	var errs []error
	if c.DBPath == "" {
		errs = append(errs, errors.New("db_path is empty"))
	}
	if c.SessionPath == "" {
		errs = append(errs, errors.New("session_path is empty"))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log_level %q", c.LogLevel))
	}
	if c.Dentition != chart.Adult.String() && c.Dentition != chart.Child.String() {
		errs = append(errs, fmt.Errorf("unknown dentition %q", c.Dentition))
	}
	if c.HistoryLimit < 0 {
		errs = append(errs, errors.New("history_limit must not be negative"))
	}
	if c.Saver.QueueSize < 0 {
		errs = append(errs, errors.New("saver.queue_size must not be negative"))
	}
	return errors.Join(errs...)
}
