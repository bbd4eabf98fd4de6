// Package cli implements the shelf command tree.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tOgg1/shelf/internal/config"
	"github.com/tOgg1/shelf/internal/db"
	"github.com/tOgg1/shelf/internal/library"
	"github.com/tOgg1/shelf/internal/logging"
	"github.com/tOgg1/shelf/internal/models"
)

var (
	cfgFile        string
	logLevel       string
	logFormat      string
	dbPath         string
	jsonOutput     bool
	jsonlOutput    bool
	nonInteractive bool

	appConfig *config.Config
	version   = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "shelf",
	Short: "Browse a book library as a list or a cover grid",
	Long: `shelf keeps a SQLite library of books and covers.

Run without arguments in a terminal to open the browser, or use the
subcommands to manage books from scripts.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			return err
		}
		logger := logging.Component("cli").With().Str("command", cmd.Name()).Logger()
		cmd.SetContext(logging.WithContext(cmd.Context(), logger))
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if nonInteractive || !hasTTY() {
			return cmd.Help()
		}
		return runTUI(cmd.Context())
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/shelf/config.yaml)")
	flags.StringVar(&logLevel, "log-level", "", "override logging level (debug, info, warn, error)")
	flags.StringVar(&logFormat, "log-format", "", "override logging format (json, console)")
	flags.StringVar(&dbPath, "db", "", "library database path")
	flags.BoolVar(&jsonOutput, "json", false, "output JSON")
	flags.BoolVar(&jsonlOutput, "jsonl", false, "output JSON lines")
	flags.BoolVar(&nonInteractive, "non-interactive", false, "never start the interactive browser")
}

// Execute runs the root command.
func Execute(ctx context.Context, v string) error {
	if v != "" {
		version = v
	}
	rootCmd.Version = version
	return rootCmd.ExecuteContext(ctx)
}

func initConfig() error {
	loader := config.NewLoader()
	if cfgFile != "" {
		loader.SetConfigFile(cfgFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return &PreflightError{
			Message:  err.Error(),
			Hint:     "Fix the config file or the SHELF_* environment variables",
			NextStep: "shelf config show --config <file>",
		}
	}

	// Flags win over every other source.
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}

	logging.Init(logging.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		Output:       os.Stderr,
		EnableCaller: cfg.Logging.EnableCaller,
	})

	if used := loader.ConfigFileUsed(); used != "" {
		log := logging.Component("cli")
		log.Debug().Str("config_file", used).Msg("loaded config file")
	}

	appConfig = cfg
	return nil
}

// GetConfig returns the loaded configuration.
func GetConfig() *config.Config {
	if appConfig == nil {
		return config.DefaultConfig()
	}
	return appConfig
}

// IsJSONOutput reports whether --json was given.
func IsJSONOutput() bool { return jsonOutput }

// IsJSONLOutput reports whether --jsonl was given.
func IsJSONLOutput() bool { return jsonlOutput }

// IsNonInteractive reports whether interactive features are disabled.
func IsNonInteractive() bool { return nonInteractive || !hasTTY() }

// WriteOutput encodes v as JSON, or as one JSON line per element with --jsonl.
func WriteOutput(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	if IsJSONLOutput() {
		if items, ok := v.([]*models.Book); ok {
			for _, item := range items {
				if err := enc.Encode(item); err != nil {
					return err
				}
			}
			return nil
		}
		if items, ok := v.([]*models.Event); ok {
			for _, item := range items {
				if err := enc.Encode(item); err != nil {
					return err
				}
			}
			return nil
		}
		return enc.Encode(v)
	}
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func openDatabase(ctx context.Context) (*db.DB, error) {
	cfg := GetConfig()
	database, err := db.Open(db.Config{
		Path:           cfg.DatabasePath(),
		MaxConnections: cfg.Database.MaxConnections,
		BusyTimeoutMs:  cfg.Database.BusyTimeoutMs,
	})
	if err != nil {
		return nil, &PreflightError{
			Message:  fmt.Sprintf("cannot open library database: %v", err),
			Hint:     "Check --db or database.path in the config",
			NextStep: "shelf config show",
		}
	}
	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return database, nil
}

func openLibrary(ctx context.Context) (*library.Library, *db.DB, error) {
	database, err := openDatabase(ctx)
	if err != nil {
		return nil, nil, err
	}

	cfg := GetConfig()
	opts := []library.Option{
		library.WithSort(models.SortField(cfg.Library.SortField), cfg.Library.SortAscending),
	}
	if cfg.Library.EventLog {
		opts = append(opts, library.WithEventLog())
	}

	lib, err := library.Open(ctx, database, opts...)
	if err != nil {
		database.Close()
		return nil, nil, err
	}
	return lib, database, nil
}
