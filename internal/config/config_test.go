package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 200, cfg.Covers.CacheLimit)
	require.Equal(t, 2*time.Second, cfg.Covers.DrainTimeout)
	require.True(t, strings.HasSuffix(cfg.DatabasePath(), filepath.Join("shelf", "shelf.db")))
	require.True(t, strings.HasSuffix(cfg.StatePath(), "tui-state.json"))
	require.True(t, strings.HasSuffix(cfg.LogPath(), "shelf.log"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errSub string
	}{
		{name: "connections", mutate: func(c *Config) { c.Database.MaxConnections = 0 }, errSub: "max_connections"},
		{name: "sort field", mutate: func(c *Config) { c.Library.SortField = "rating" }, errSub: "sort_field"},
		{name: "box", mutate: func(c *Config) { c.Covers.Width = 1 }, errSub: "covers.width"},
		{name: "cache limit", mutate: func(c *Config) { c.Covers.CacheLimit = 0 }, errSub: "cache_limit"},
		{name: "drain", mutate: func(c *Config) { c.Covers.DrainTimeout = -time.Second }, errSub: "drain_timeout"},
		{name: "start view", mutate: func(c *Config) { c.TUI.StartView = "shelf" }, errSub: "start_view"},
		{name: "theme", mutate: func(c *Config) { c.TUI.Theme = "neon" }, errSub: "theme"},
		{name: "watch without dir", mutate: func(c *Config) { c.Library.WatchCovers = true }, errSub: "cover_dir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.errSub)
		})
	}
}

func TestLoadFromFileWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
database:
  path: /tmp/from-file.db
library:
  sort_field: author
  sort_ascending: false
covers:
  cache_limit: 50
  drain_timeout: 500ms
tui:
  start_view: grid
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv(EnvVar("database.path"), "/tmp/from-env.db")
	t.Setenv(EnvVar("covers.cache_limit"), "75")

	loader := NewLoader()
	loader.SetConfigFile(path)
	cfg, err := loader.Load()
	require.NoError(t, err)

	require.Equal(t, path, loader.ConfigFileUsed())
	require.Equal(t, "/tmp/from-env.db", cfg.Database.Path)
	require.Equal(t, 75, cfg.Covers.CacheLimit)
	require.Equal(t, 500*time.Millisecond, cfg.Covers.DrainTimeout)
	require.Equal(t, "author", cfg.Library.SortField)
	require.False(t, cfg.Library.SortAscending)
	require.Equal(t, "grid", cfg.TUI.StartView)
}

func TestLoadFromMissingExplicitFileFails(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tui:\n  start_view: nowhere\n"), 0o644))

	_, err := LoadFromFile(path)
	require.ErrorContains(t, err, "validation failed")
}

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	require.Equal(t, "", expandTilde(""))
	require.Equal(t, home, expandTilde("~"))
	require.Equal(t, filepath.Join(home, "covers"), expandTilde("~/covers"))
	require.Equal(t, "/abs/path", expandTilde("/abs/path"))
	require.Equal(t, "~user/x", expandTilde("~user/x"))
}

func TestEnvVar(t *testing.T) {
	require.Equal(t, "SHELF_DATABASE_PATH", EnvVar("database.path"))
	require.Equal(t, "SHELF_COVERS_DRAIN_TIMEOUT", EnvVar("covers.drain_timeout"))
}

func TestYAML(t *testing.T) {
	data, err := DefaultConfig().YAML()
	require.NoError(t, err)
	require.Contains(t, string(data), "cache_limit: 200")
	require.Contains(t, string(data), "start_view: last")
}
