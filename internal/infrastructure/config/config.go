// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigDir is the directory name for famtree configuration.
	DefaultConfigDir = ".famtree"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultDatabaseFile is the default SQLite database file name.
	DefaultDatabaseFile = "famtree.db"
)

// Supported store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Environment variables that override the config file.
const (
	EnvDatabaseURL = "FAMTREE_DATABASE_URL"
	EnvLogLevel    = "FAMTREE_LOG_LEVEL"
)

// Config holds static infrastructure configuration (read-only after init).
type Config struct {
	Store  StoreConfig  `yaml:"store,omitempty"`
	Canvas CanvasConfig `yaml:"canvas,omitempty"`
	Log    LogConfig    `yaml:"log,omitempty"`
}

// StoreConfig selects and configures the row store.
type StoreConfig struct {
	Driver   string         `yaml:"driver,omitempty"`
	SQLite   SQLiteConfig   `yaml:"sqlite,omitempty"`
	Postgres PostgresConfig `yaml:"postgres,omitempty"`
}

// SQLiteConfig holds configuration for the SQLite row store.
type SQLiteConfig struct {
	// Path is the file path to the SQLite database.
	// Relative paths are resolved against the directory holding .famtree.
	Path string `yaml:"path,omitempty"`
}

// PostgresConfig holds configuration for the Postgres row store.
type PostgresConfig struct {
	DSN string `yaml:"dsn,omitempty"`
}

// CanvasConfig holds settings for node placement and the canvas bridge.
type CanvasConfig struct {
	// Spread is the side of the square new nodes are randomly placed in.
	Spread float64 `yaml:"spread,omitempty"`
	// Addr is the listen address of `famtree serve`.
	Addr string `yaml:"addr,omitempty"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `yaml:"level,omitempty"`
	Format     string `yaml:"format,omitempty"`
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty"`
	MaxBackups int    `yaml:"max_backups,omitempty"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			SQLite: SQLiteConfig{
				Path: filepath.Join(DefaultConfigDir, DefaultDatabaseFile),
			},
		},
		Canvas: CanvasConfig{
			Spread: 500,
			Addr:   "localhost:8080",
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// Load loads configuration from the .famtree directory in the given path.
func Load(basePath string) (*Config, error) {
	configFile := ConfigFilePath(basePath)

	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s (run 'famtree init' first)", configFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Start with defaults
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if dsn := os.Getenv(EnvDatabaseURL); dsn != "" {
		c.Store.Postgres.DSN = dsn
		if c.Store.Driver == "" {
			c.Store.Driver = DriverPostgres
		}
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.Log.Level = level
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.DriverName() {
	case DriverSQLite:
		if c.Store.SQLite.Path == "" {
			return errors.New("store.sqlite.path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Store.Postgres.DSN == "" {
			return fmt.Errorf("store.postgres.dsn is required for the postgres driver (or set %s)", EnvDatabaseURL)
		}
	default:
		return fmt.Errorf("unknown store driver: %s (valid: sqlite, postgres)", c.Store.Driver)
	}
	if c.Canvas.Spread <= 0 {
		return errors.New("canvas.spread must be positive")
	}
	return nil
}

// DriverName returns the configured driver, defaulting to sqlite.
func (c *Config) DriverName() string {
	if c.Store.Driver == "" {
		return DriverSQLite
	}
	return c.Store.Driver
}

// SQLitePath returns the absolute SQLite database path for basePath.
func (c *Config) SQLitePath(basePath string) string {
	if filepath.IsAbs(c.Store.SQLite.Path) || c.Store.SQLite.Path == ":memory:" {
		return c.Store.SQLite.Path
	}
	return filepath.Join(basePath, c.Store.SQLite.Path)
}

// ConfigDir returns the path to the .famtree config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}
