package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/viper"

	"github.com/aryankumar/shardexec/internal/util"
)

const (
	defaultConfigName = ".shardexec"
	defaultConfigDir  = ".shardexec"
)

// Supported database/sql driver names
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

var supportedOutputFormats = map[string]bool{
	"table": true,
	"json":  true,
	"yaml":  true,
}

// Manager handles shardexec configuration
type Manager struct {
	configPath string
	config     *Config
	viper      *viper.Viper
}

// NewManager creates a new configuration manager
func NewManager(configPath string) *Manager {
	return &Manager{
		configPath: configPath,
		viper:      viper.New(),
		config:     &Config{},
	}
}

// Load loads the configuration from file
func (m *Manager) Load() (*Config, error) {
	if m.configPath != "" {
		m.viper.SetConfigFile(m.configPath)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		// Check ~/.shardexec/config.yaml, then ~/.shardexec.yaml
		m.viper.AddConfigPath(filepath.Join(home, defaultConfigDir))
		m.viper.AddConfigPath(home)
		m.viper.SetConfigName(defaultConfigName)
		m.viper.SetConfigType("yaml")
	}

	m.viper.SetEnvPrefix("SHARDEXEC")
	m.viper.AutomaticEnv()

	m.config = &Config{}

	if err := m.viper.ReadInConfig(); err != nil {
		// A missing file means defaults only
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		m.applyDefaults()
		return m.config, nil
	}

	if m.configPath == "" {
		m.configPath = m.viper.ConfigFileUsed()
	}

	if err := m.viper.Unmarshal(m.config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	m.applyDefaults()

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return m.config, nil
}

// Save saves the current configuration to file
func (m *Manager) Save() error {
	if m.configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		m.configPath = filepath.Join(home, defaultConfigDir, "config.yaml")
	}

	dir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := m.viper.WriteConfigAs(m.configPath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Path returns the file the configuration was read from or will be saved to.
// It is empty until Load or Save resolves it.
func (m *Manager) Path() string {
	return m.configPath
}

// GetConfig returns the current configuration
func (m *Manager) GetConfig() *Config {
	return m.config
}

// GetShardConfig returns configuration for a specific shard
func (m *Manager) GetShardConfig(name string) (*ShardConfig, bool) {
	if m.config.Shards == nil {
		return nil, false
	}

	shard, ok := m.config.Shards[name]
	return &shard, ok
}

// SetShardConfig sets or updates configuration for a shard
func (m *Manager) SetShardConfig(name string, shard ShardConfig) error {
	if err := validateShard(name, shard); err != nil {
		return err
	}

	if m.config.Shards == nil {
		m.config.Shards = make(map[string]ShardConfig)
	}

	m.config.Shards[name] = shard
	m.viper.Set("shards", m.config.Shards)
	return nil
}

// RemoveShardConfig removes configuration for a shard. It reports whether
// the shard existed.
func (m *Manager) RemoveShardConfig(name string) bool {
	if _, ok := m.config.Shards[name]; !ok {
		return false
	}

	delete(m.config.Shards, name)
	m.viper.Set("shards", m.config.Shards)
	return true
}

// GetEnabledShards returns the sorted names of enabled shards
func (m *Manager) GetEnabledShards() []string {
	return m.GetShardsByLabel(nil)
}

// GetShardsByLabel returns the sorted names of enabled shards matching labels
func (m *Manager) GetShardsByLabel(labels map[string]string) []string {
	matching := make([]string, 0, len(m.config.Shards))
	for name, shard := range m.config.Shards {
		if !shard.Enabled {
			continue
		}
		if matchesLabels(shard.Labels, labels) {
			matching = append(matching, name)
		}
	}

	sort.Strings(matching)
	return matching
}

// ExceptionThrown returns the configured failure policy, true when unset
func (m *Manager) ExceptionThrown() bool {
	if m.config.Execution.ExceptionThrown == nil {
		return true
	}
	return *m.config.Execution.ExceptionThrown
}

// Validate checks every shard and the defaults
func (m *Manager) Validate() error {
	for name, shard := range m.config.Shards {
		if err := validateShard(name, shard); err != nil {
			return err
		}
	}

	if m.config.Defaults.Parallel < 0 {
		return util.NewValidationError("defaults.parallel", m.config.Defaults.Parallel, "must not be negative")
	}
	if !supportedOutputFormats[m.config.Defaults.OutputFormat] {
		return util.NewValidationError("defaults.outputFormat", m.config.Defaults.OutputFormat, "must be one of table, json, yaml")
	}
	return nil
}

func validateShard(name string, shard ShardConfig) error {
	field := fmt.Sprintf("shards.%s", name)
	if name == "" {
		return util.NewValidationError("shards", nil, "shard name must not be empty")
	}
	switch shard.Driver {
	case DriverMySQL, DriverPostgres:
	default:
		return util.NewValidationError(field+".driver", shard.Driver, "must be mysql or postgres")
	}
	if shard.DSN == "" {
		return util.NewValidationError(field+".dsn", nil, "must not be empty")
	}
	return nil
}

// applyDefaults sets default values for configuration
func (m *Manager) applyDefaults() {
	if m.config == nil {
		return
	}

	if m.config.Defaults.Timeout == 0 {
		m.config.Defaults.Timeout = 30 * time.Second
	}

	if m.config.Defaults.Parallel == 0 {
		m.config.Defaults.Parallel = 5
	}

	if m.config.Defaults.OutputFormat == "" {
		m.config.Defaults.OutputFormat = "table"
	}

	if m.config.Log.File != "" {
		if m.config.Log.MaxSizeMB == 0 {
			m.config.Log.MaxSizeMB = 100
		}
		if m.config.Log.MaxBackups == 0 {
			m.config.Log.MaxBackups = 3
		}
	}
}

// matchesLabels checks if shard labels match the required labels
func matchesLabels(shardLabels, requiredLabels map[string]string) bool {
	for key, value := range requiredLabels {
		shardValue, exists := shardLabels[key]
		if !exists || shardValue != value {
			return false
		}
	}
	return true
}
