package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SHELF_DATABASE_PATH.
const EnvPrefix = "SHELF"

// Loader handles configuration loading with Viper.
type Loader struct {
	v          *viper.Viper
	configFile string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		v: viper.New(),
	}
}

// SetConfigFile sets an explicit config file path.
func (l *Loader) SetConfigFile(path string) {
	l.configFile = path
}

// Load loads configuration with proper precedence:
// defaults < config file < env vars < CLI flags
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	l.setupViper(cfg)

	if err := l.loadConfigFile(); err != nil {
		// Config file is optional, only error if explicitly specified
		if l.configFile != "" {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Unmarshal does not reliably merge env vars into nested structs when a
	// config file is present.
	l.applyEnvOverrides(cfg)

	expandPaths(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// expandTilde expands ~ to the user's home directory.
func expandTilde(path string) string {
	if path == "" {
		return path
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// expandPaths expands ~ in all path-related config fields.
func expandPaths(cfg *Config) {
	cfg.Global.DataDir = expandTilde(cfg.Global.DataDir)
	cfg.Global.ConfigDir = expandTilde(cfg.Global.ConfigDir)
	cfg.Database.Path = expandTilde(cfg.Database.Path)
	cfg.Logging.File = expandTilde(cfg.Logging.File)
	cfg.Library.CoverDir = expandTilde(cfg.Library.CoverDir)
	cfg.TUI.StateFile = expandTilde(cfg.TUI.StateFile)
}

// setupViper configures Viper with defaults and environment bindings.
func (l *Loader) setupViper(cfg *Config) {
	v := l.v

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		v.AddConfigPath(filepath.Join(xdgConfig, "shelf"))
	}
	if homeDir, _ := os.UserHomeDir(); homeDir != "" {
		v.AddConfigPath(filepath.Join(homeDir, ".config", "shelf"))
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	l.setDefaults(cfg)

	bindEnvVars(v)

	v.AutomaticEnv()
}

// setDefaults sets all default values in Viper.
func (l *Loader) setDefaults(cfg *Config) {
	v := l.v

	// Global
	v.SetDefault("global.data_dir", cfg.Global.DataDir)
	v.SetDefault("global.config_dir", cfg.Global.ConfigDir)

	// Database
	v.SetDefault("database.path", cfg.Database.Path)
	v.SetDefault("database.max_connections", cfg.Database.MaxConnections)
	v.SetDefault("database.busy_timeout_ms", cfg.Database.BusyTimeoutMs)

	// Logging
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.enable_caller", cfg.Logging.EnableCaller)

	// Library
	v.SetDefault("library.cover_dir", cfg.Library.CoverDir)
	v.SetDefault("library.watch_covers", cfg.Library.WatchCovers)
	v.SetDefault("library.sort_field", cfg.Library.SortField)
	v.SetDefault("library.sort_ascending", cfg.Library.SortAscending)
	v.SetDefault("library.event_log", cfg.Library.EventLog)

	// Covers
	v.SetDefault("covers.width", cfg.Covers.Width)
	v.SetDefault("covers.height", cfg.Covers.Height)
	v.SetDefault("covers.cache_limit", cfg.Covers.CacheLimit)
	v.SetDefault("covers.drain_timeout", cfg.Covers.DrainTimeout)

	// TUI
	v.SetDefault("tui.theme", cfg.TUI.Theme)
	v.SetDefault("tui.start_view", cfg.TUI.StartView)
	v.SetDefault("tui.state_file", cfg.TUI.StateFile)
}

// loadConfigFile attempts to load the configuration file.
func (l *Loader) loadConfigFile() error {
	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}

	return nil
}

// ConfigFileUsed returns the config file that was loaded.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// LoadFromFile loads configuration from a specific file.
func LoadFromFile(path string) (*Config, error) {
	loader := NewLoader()
	loader.SetConfigFile(path)
	return loader.Load()
}

// envKeys lists every key that supports a SHELF_* override.
var envKeys = []string{
	// Global
	"global.data_dir",
	"global.config_dir",
	// Database
	"database.path",
	"database.max_connections",
	"database.busy_timeout_ms",
	// Logging
	"logging.level",
	"logging.format",
	"logging.file",
	"logging.enable_caller",
	// Library
	"library.cover_dir",
	"library.watch_covers",
	"library.sort_field",
	"library.sort_ascending",
	"library.event_log",
	// Covers
	"covers.width",
	"covers.height",
	"covers.cache_limit",
	"covers.drain_timeout",
	// TUI
	"tui.theme",
	"tui.start_view",
	"tui.state_file",
}

// Keys returns every config key that can be overridden from the environment.
func Keys() []string {
	return append([]string(nil), envKeys...)
}

// EnvVar returns the environment variable for a config key:
// database.path -> SHELF_DATABASE_PATH.
func EnvVar(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// bindEnvVars binds environment variables for config keys.
// Viper's Unmarshal has issues with env vars on nested structs unless explicitly bound.
func bindEnvVars(v *viper.Viper) {
	for _, key := range envKeys {
		_ = v.BindEnv(key, EnvVar(key))
	}
}

// applyEnvOverrides copies explicitly set env vars onto cfg.
func (l *Loader) applyEnvOverrides(cfg *Config) {
	v := l.v
	set := func(key string) bool {
		_, ok := os.LookupEnv(EnvVar(key))
		return ok
	}

	// Global
	if set("global.data_dir") {
		cfg.Global.DataDir = v.GetString("global.data_dir")
	}
	if set("global.config_dir") {
		cfg.Global.ConfigDir = v.GetString("global.config_dir")
	}

	// Database
	if set("database.path") {
		cfg.Database.Path = v.GetString("database.path")
	}
	if set("database.max_connections") {
		cfg.Database.MaxConnections = v.GetInt("database.max_connections")
	}
	if set("database.busy_timeout_ms") {
		cfg.Database.BusyTimeoutMs = v.GetInt("database.busy_timeout_ms")
	}

	// Logging
	if set("logging.level") {
		cfg.Logging.Level = v.GetString("logging.level")
	}
	if set("logging.format") {
		cfg.Logging.Format = v.GetString("logging.format")
	}
	if set("logging.file") {
		cfg.Logging.File = v.GetString("logging.file")
	}

	// Library
	if set("library.cover_dir") {
		cfg.Library.CoverDir = v.GetString("library.cover_dir")
	}
	if set("library.watch_covers") {
		cfg.Library.WatchCovers = v.GetBool("library.watch_covers")
	}
	if set("library.sort_field") {
		cfg.Library.SortField = v.GetString("library.sort_field")
	}
	if set("library.sort_ascending") {
		cfg.Library.SortAscending = v.GetBool("library.sort_ascending")
	}

	// Covers
	if set("covers.cache_limit") {
		cfg.Covers.CacheLimit = v.GetInt("covers.cache_limit")
	}
	if set("covers.drain_timeout") {
		cfg.Covers.DrainTimeout = v.GetDuration("covers.drain_timeout")
	}

	// TUI
	if set("tui.start_view") {
		cfg.TUI.StartView = v.GetString("tui.start_view")
	}
}
