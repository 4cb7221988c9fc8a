package config

import (
	"time"
)

// Config represents the complete application configuration. Values are
// layered: built-in defaults, the user config file, environment variables
// and runtime overrides, later layers winning.
type Config struct {
	Prompts PromptsConfig `mapstructure:"prompts"`
	Store   StoreConfig   `mapstructure:"store"`
	State   StateConfig   `mapstructure:"state"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Health  HealthConfig  `mapstructure:"health"`
}

// PromptsConfig controls where prompt definitions come from and how they are
// rendered.
type PromptsConfig struct {
	// Directories are the configured prompt sources in slot order.
	Directories []string `mapstructure:"directories"`

	// DefaultsDir holds the built-in default prompts. Used only when no
	// directory is configured. Empty means the installed copy in the data dir.
	DefaultsDir string `mapstructure:"defaults_dir"`

	// BaseSource is always loaded last. Empty means the installed copy.
	BaseSource string `mapstructure:"base_source"`

	// RootDir is the base for relative file: placeholders.
	RootDir string `mapstructure:"root_dir"`

	RecursionDepth int           `mapstructure:"recursion_depth"`
	Cache          bool          `mapstructure:"cache"`
	TempTTL        time.Duration `mapstructure:"temp_ttl"`
	WatchDebounce  time.Duration `mapstructure:"watch_debounce"`
}

// StoreConfig selects the key/value backend for pins, history, preferences
// and the prompt tree cache.
type StoreConfig struct {
	// Driver is one of libsql, redis or memory.
	Driver    string      `mapstructure:"driver"`
	Path      string      `mapstructure:"path"`
	URL       string      `mapstructure:"url"`
	AuthToken string      `mapstructure:"auth_token"`
	Redis     RedisConfig `mapstructure:"redis"`
}

// RedisConfig configures the redis driver.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// StateConfig contains limits for persisted user state.
type StateConfig struct {
	HistoryLimit int `mapstructure:"history_limit"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: debug, info, warn, error
	Level string `mapstructure:"level"`

	// Profile selects console (simple) or JSON (structured) output.
	Profile string `mapstructure:"profile"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Port is the dedicated Prometheus exporter port
	Port int `mapstructure:"port"`
}

// HealthConfig contains health check configuration
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}
