// Package config handles shelf configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tOgg1/shelf/internal/models"
)

// Config is the root configuration structure for shelf.
type Config struct {
	// Global settings
	Global GlobalConfig `yaml:"global" mapstructure:"global"`

	// Database settings
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// Library presentation settings
	Library LibraryConfig `yaml:"library" mapstructure:"library"`

	// Cover thumbnail settings
	Covers CoversConfig `yaml:"covers" mapstructure:"covers"`

	// TUI settings
	TUI TUIConfig `yaml:"tui" mapstructure:"tui"`
}

// GlobalConfig contains global shelf settings.
type GlobalConfig struct {
	// DataDir is where shelf stores its data (default: ~/.local/share/shelf).
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`

	// ConfigDir is where config files are stored (default: ~/.config/shelf).
	ConfigDir string `yaml:"config_dir" mapstructure:"config_dir"`
}

// DatabaseConfig contains database settings.
type DatabaseConfig struct {
	// Path is the SQLite database file path.
	Path string `yaml:"path" mapstructure:"path"`

	// MaxConnections is the maximum number of database connections.
	MaxConnections int `yaml:"max_connections" mapstructure:"max_connections"`

	// BusyTimeout is how long to wait for a locked database (milliseconds).
	BusyTimeoutMs int `yaml:"busy_timeout_ms" mapstructure:"busy_timeout_ms"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// File is an optional log file path. The TUI always logs to a file.
	File string `yaml:"file" mapstructure:"file"`

	// EnableCaller adds caller information to logs.
	EnableCaller bool `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// LibraryConfig controls how the library is ordered and fed.
type LibraryConfig struct {
	// CoverDir holds "<id>.<ext>" cover images.
	CoverDir string `yaml:"cover_dir" mapstructure:"cover_dir"`

	// WatchCovers imports cover files written to CoverDir while the TUI runs.
	WatchCovers bool `yaml:"watch_covers" mapstructure:"watch_covers"`

	// SortField is the initial ordering (title, author, added, id).
	SortField string `yaml:"sort_field" mapstructure:"sort_field"`

	// SortAscending is the initial direction.
	SortAscending bool `yaml:"sort_ascending" mapstructure:"sort_ascending"`

	// EventLog persists library changes for `shelf history`.
	EventLog bool `yaml:"event_log" mapstructure:"event_log"`
}

// CoversConfig sizes the thumbnail pipeline.
type CoversConfig struct {
	// Width and Height bound thumbnails in presentation pixels
	// (one cell is one pixel wide and two tall).
	Width  int `yaml:"width" mapstructure:"width"`
	Height int `yaml:"height" mapstructure:"height"`

	// CacheLimit is the number of thumbnails kept per grid.
	CacheLimit int `yaml:"cache_limit" mapstructure:"cache_limit"`

	// DrainTimeout bounds how long a library switch waits for pending renders.
	DrainTimeout time.Duration `yaml:"drain_timeout" mapstructure:"drain_timeout"`
}

// TUIConfig contains TUI settings.
type TUIConfig struct {
	// Theme is the color theme (default, high-contrast).
	Theme string `yaml:"theme" mapstructure:"theme"`

	// StartView is the view shown at launch (list, grid, last).
	StartView string `yaml:"start_view" mapstructure:"start_view"`

	// StateFile stores the session state between runs.
	StateFile string `yaml:"state_file" mapstructure:"state_file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".local", "share", "shelf")

	return &Config{
		Global: GlobalConfig{
			DataDir:   dataDir,
			ConfigDir: filepath.Join(homeDir, ".config", "shelf"),
		},
		Database: DatabaseConfig{
			Path:           "", // Will be set to DataDir/shelf.db
			MaxConnections: 4,
			BusyTimeoutMs:  5000,
		},
		Logging: LoggingConfig{
			Level:        "info",
			Format:       "console",
			EnableCaller: false,
		},
		Library: LibraryConfig{
			CoverDir:      "",
			WatchCovers:   false,
			SortField:     string(models.SortByTitle),
			SortAscending: true,
			EventLog:      true,
		},
		Covers: CoversConfig{
			Width:        18,
			Height:       24,
			CacheLimit:   200,
			DrainTimeout: 2 * time.Second,
		},
		TUI: TUIConfig{
			Theme:     "default",
			StartView: "last",
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database.max_connections must be at least 1")
	}

	if !models.SortField(c.Library.SortField).Valid() {
		return fmt.Errorf("library.sort_field must be one of title, author, added, id")
	}

	if c.Covers.Width < 2 || c.Covers.Height < 2 {
		return fmt.Errorf("covers.width and covers.height must be at least 2")
	}
	if c.Covers.CacheLimit < 1 {
		return fmt.Errorf("covers.cache_limit must be at least 1")
	}
	if c.Covers.DrainTimeout < 0 {
		return fmt.Errorf("covers.drain_timeout must not be negative")
	}

	switch c.TUI.StartView {
	case "list", "grid", "last":
	default:
		return fmt.Errorf("tui.start_view must be one of list, grid, last")
	}

	switch c.TUI.Theme {
	case "default", "high-contrast":
	default:
		return fmt.Errorf("tui.theme must be one of default, high-contrast")
	}

	if c.Library.WatchCovers && c.Library.CoverDir == "" {
		return fmt.Errorf("library.watch_covers requires library.cover_dir")
	}

	return nil
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Global.DataDir,
		c.Global.ConfigDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// DatabasePath returns the full database path.
func (c *Config) DatabasePath() string {
	if c.Database.Path != "" {
		return c.Database.Path
	}
	return filepath.Join(c.Global.DataDir, "shelf.db")
}

// StatePath returns the TUI session state file.
func (c *Config) StatePath() string {
	if c.TUI.StateFile != "" {
		return c.TUI.StateFile
	}
	return filepath.Join(c.Global.DataDir, "tui-state.json")
}

// LogPath returns the log file used while the TUI owns the terminal.
func (c *Config) LogPath() string {
	if c.Logging.File != "" {
		return c.Logging.File
	}
	return filepath.Join(c.Global.DataDir, "shelf.log")
}

// YAML renders the effective configuration.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}
