package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tOgg1/shelf/internal/logging"
	"github.com/tOgg1/shelf/internal/shelftui"
)

func init() {
	rootCmd.AddCommand(uiCmd)
}

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Open the library browser",
	Long:  "Open the interactive browser with the book list and the cover grid.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd.Context())
	},
}

func runTUI(ctx context.Context) error {
	if IsNonInteractive() {
		return &PreflightError{
			Message:  "the browser requires an interactive terminal",
			Hint:     "Run without --non-interactive and with a TTY, or use the CLI subcommands",
			NextStep: "shelf list",
		}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := GetConfig()
	if err := cfg.EnsureDirectories(); err != nil {
		log := logging.Component("cli")
		log.Warn().Err(err).Msg("failed to create directories")
	}

	// The alternate screen owns stdout and stderr while the browser runs.
	logFile, err := logging.OpenFile(cfg.LogPath())
	if err != nil {
		return err
	}
	defer logFile.Close()
	logging.Init(logging.Config{
		Level:        cfg.Logging.Level,
		Format:       "json",
		Output:       logFile,
		EnableCaller: cfg.Logging.EnableCaller,
	})
	ctx = logging.WithContext(ctx, logging.Component("shelftui"))

	lib, database, err := openLibrary(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	return shelftui.Run(ctx, lib, shelftui.Config{
		Theme:        cfg.TUI.Theme,
		StartView:    cfg.TUI.StartView,
		StatePath:    cfg.StatePath(),
		CoverWidth:   cfg.Covers.Width,
		CoverHeight:  cfg.Covers.Height,
		CacheLimit:   cfg.Covers.CacheLimit,
		DrainTimeout: cfg.Covers.DrainTimeout,
		CoverDir:     cfg.Library.CoverDir,
		WatchCovers:  cfg.Library.WatchCovers,
	})
}

func hasTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
