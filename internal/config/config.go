// Package config loads the asset library configuration
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/nainya/assetlib/pkg/query"
)

// EnvPrefix is the prefix of environment overrides, e.g. ASSETLIB_LOGGING_LEVEL
const EnvPrefix = "ASSETLIB"

// Config represents the complete asset library configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (ASSETLIB_*)
//  2. Configuration file (YAML, TOML or JSON)
//  3. Default values
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging"`

	// Metrics controls metric export
	Metrics MetricsConfig `mapstructure:"metrics"`

	// ItemTypes are registered with the item registry in RegisterOrder
	ItemTypes []ItemTypeConfig `mapstructure:"item_types" validate:"dive"`

	// IgnorePaths are path substrings the registry never resolves
	IgnorePaths []string `mapstructure:"ignore_paths"`

	// Libraries are the indexed roots
	Libraries []LibraryConfig `mapstructure:"libraries" validate:"dive"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`

	// Pretty enables human-readable console output instead of JSON
	Pretty bool `mapstructure:"pretty"`
}

// MetricsConfig controls metric export.
type MetricsConfig struct {
	// Textfile, when set, receives the metrics in the Prometheus text
	// format after each command
	Textfile string `mapstructure:"textfile"`
}

// ItemTypeConfig describes one item type.
type ItemTypeConfig struct {
	Name             string   `mapstructure:"name" validate:"required"`
	Type             string   `mapstructure:"type"`
	Extensions       []string `mapstructure:"extensions" validate:"required,min=1,dive,required"`
	RegisterOrder    int      `mapstructure:"register_order"`
	AllowNestedItems bool     `mapstructure:"allow_nested_items"`
}

// LibraryConfig describes one library root.
type LibraryConfig struct {
	Name           string        `mapstructure:"name" validate:"required"`
	Path           string        `mapstructure:"path" validate:"required"`
	DataFile       string        `mapstructure:"data_file" validate:"required,excludesall=/\\"`
	RecursiveDepth int           `mapstructure:"recursive_depth" validate:"gt=0"`
	SortBy         []string      `mapstructure:"sort_by" validate:"dive,required"`
	GroupBy        []string      `mapstructure:"group_by" validate:"dive,required"`
	TrashVisible   bool          `mapstructure:"trash_visible"`
	ItemCacheSize  int           `mapstructure:"item_cache_size" validate:"gt=0"`
	Queries        []query.Query `mapstructure:"queries"`
}

// Load loads configuration from file, environment, and defaults.
// An empty configPath searches the default location; a missing default
// file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHook())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// ASSETLIB_LOGGING_LEVEL=debug overrides logging.level
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Scalar keys must be known to viper for env overrides to reach Unmarshal
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.pretty", false)
	v.SetDefault("metrics.textfile", "")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// decodeHook keeps viper's default hooks and adds the compact filter form
func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		filterDecodeHook(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// getConfigDir returns $XDG_CONFIG_HOME/assetlib, ~/.config/assetlib or "."
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "assetlib")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "assetlib")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// Library returns the library configured under name
func (c *Config) Library(name string) (LibraryConfig, bool) {
	for _, lc := range c.Libraries {
		if lc.Name == name {
			return lc, true
		}
	}
	return LibraryConfig{}, false
}
