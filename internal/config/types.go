package config

import "time"

// Config represents the shardexec configuration file structure
type Config struct {
	// Shards is a map of shard names to their data sources
	Shards map[string]ShardConfig `yaml:"shards,omitempty" json:"shards,omitempty"`

	// Defaults contains default settings for operations
	Defaults DefaultsConfig `yaml:"defaults,omitempty" json:"defaults,omitempty"`

	// Execution holds the initial ambient execution state
	Execution ExecutionConfig `yaml:"execution,omitempty" json:"execution,omitempty"`

	// Metrics controls execution timing
	Metrics MetricsConfig `yaml:"metrics,omitempty" json:"metrics,omitempty"`

	// Log configures the optional rotating log file
	Log LogConfig `yaml:"log,omitempty" json:"log,omitempty"`
}

// ShardConfig represents configuration for a single shard
type ShardConfig struct {
	// Driver is the database/sql driver name (mysql, postgres)
	Driver string `yaml:"driver" json:"driver"`

	// DSN is the driver-specific data source name
	DSN string `yaml:"dsn" json:"dsn"`

	// Labels for organizing shards
	Labels map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`

	// Enabled indicates if this shard should be included in operations
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// DefaultsConfig contains default configuration values
type DefaultsConfig struct {
	// Timeout for a whole logical call
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`

	// Parallel is the worker pool size
	Parallel int `yaml:"parallel,omitempty" json:"parallel,omitempty"`

	// OutputFormat is the default output format (table, json, yaml)
	OutputFormat string `yaml:"outputFormat,omitempty" json:"outputFormat,omitempty"`

	// NoColor disables colored output
	NoColor bool `yaml:"noColor,omitempty" json:"noColor,omitempty"`
}

// ExecutionConfig seeds the process-wide execution context
type ExecutionConfig struct {
	// ExceptionThrown surfaces per-unit failures when true. Nil means true.
	ExceptionThrown *bool `yaml:"exceptionThrown,omitempty" json:"exceptionThrown,omitempty"`

	// Context is copied into the execution data map
	Context map[string]any `yaml:"context,omitempty" json:"context,omitempty"`
}

// MetricsConfig controls execution metrics
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// LogConfig configures file logging
type LogConfig struct {
	// File is the log file path; empty logs to stderr only
	File string `yaml:"file,omitempty" json:"file,omitempty"`

	// MaxSizeMB is the size at which the file is rotated
	MaxSizeMB int `yaml:"maxSizeMB,omitempty" json:"maxSizeMB,omitempty"`

	// MaxBackups is the number of rotated files kept
	MaxBackups int `yaml:"maxBackups,omitempty" json:"maxBackups,omitempty"`
}
