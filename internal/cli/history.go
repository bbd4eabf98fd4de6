package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tOgg1/shelf/internal/db"
	"github.com/tOgg1/shelf/internal/logging"
	"github.com/tOgg1/shelf/internal/models"
)

var (
	historyType   string
	historyBook   string
	historySince  time.Duration
	historyLimit  int
	historyFollow bool
	historyPrune  time.Duration
)

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historyType, "type", "", "filter by event type (book.added, book.removed, cover.changed, library.reordered)")
	historyCmd.Flags().StringVar(&historyBook, "book", "", "filter by book id")
	historyCmd.Flags().DurationVar(&historySince, "since", 0, "only events newer than this (e.g. 24h)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 50, "maximum events to show")
	historyCmd.Flags().BoolVarP(&historyFollow, "follow", "f", false, "stream new events as JSON lines")
	historyCmd.Flags().DurationVar(&historyPrune, "prune", 0, "delete events older than this and exit")
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show library change events",
	Long:  "Show the persisted log of books added, removed, re-covered, and reordered.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		database, err := openDatabase(ctx)
		if err != nil {
			return err
		}
		defer database.Close()

		repo := db.NewEventRepository(database)
		out := cmd.OutOrStdout()

		if historyPrune > 0 {
			n, err := repo.DeleteBefore(ctx, time.Now().Add(-historyPrune))
			if err != nil {
				return err
			}
			if IsJSONOutput() || IsJSONLOutput() {
				return WriteOutput(out, map[string]int64{"deleted": n})
			}
			fmt.Fprintf(out, "Deleted %d events.\n", n)
			return nil
		}

		streamCfg := DefaultStreamConfig()
		if historyType != "" {
			eventType := models.EventType(historyType)
			streamCfg.EventType = &eventType
		}
		if historyBook != "" {
			id, err := models.ParseBookID(historyBook)
			if err != nil {
				return err
			}
			streamCfg.BookID = &id
		}
		if historySince > 0 {
			since := time.Now().Add(-historySince)
			streamCfg.Since = &since
		}

		if historyFollow {
			streamCfg.IncludeExisting = historySince > 0
			return NewEventStreamer(repo, out, streamCfg).Stream(ctx)
		}

		streamCfg.BatchSize = historyLimit
		events, err := NewEventStreamer(repo, out, streamCfg).poll(ctx, "", streamCfg.Since)
		if err != nil {
			return err
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(out, events)
		}
		if len(events) == 0 {
			fmt.Fprintln(out, "No events found.")
			return nil
		}

		rows := make([][]string, 0, len(events))
		for _, e := range events {
			book := "-"
			if e.BookID != 0 {
				book = e.BookID.String()
			}
			rows = append(rows, []string{
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				string(e.Type),
				book,
			})
		}
		return writeTable(out, []string{"TIME", "TYPE", "BOOK"}, rows)
	},
}

// StreamConfig configures event streaming behavior.
type StreamConfig struct {
	// PollInterval is how often to check for new events.
	PollInterval time.Duration

	// EventType filters to one event type (nil = all).
	EventType *models.EventType

	// BookID filters to a single book.
	BookID *models.BookID

	// Since streams events at or after this timestamp.
	Since *time.Time

	// IncludeExisting includes events before streaming starts.
	IncludeExisting bool

	// BatchSize is the max events per poll.
	BatchSize int
}

// DefaultStreamConfig returns sensible defaults for streaming.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		PollInterval: 500 * time.Millisecond,
		BatchSize:    100,
	}
}

// EventStreamer streams events to an output writer in JSONL format.
type EventStreamer struct {
	repo   *db.EventRepository
	out    io.Writer
	config StreamConfig
	logger zerolog.Logger
}

// NewEventStreamer creates a new event streamer.
func NewEventStreamer(repo *db.EventRepository, out io.Writer, config StreamConfig) *EventStreamer {
	if config.PollInterval <= 0 {
		config.PollInterval = 500 * time.Millisecond
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	return &EventStreamer{
		repo:   repo,
		out:    out,
		config: config,
		logger: logging.Component("history"),
	}
}

// Stream writes events until the context is cancelled or an interrupt
// arrives. It returns nil on either.
func (s *EventStreamer) Stream(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var cursor string
	since := s.config.Since
	if !s.config.IncludeExisting {
		now := time.Now().UTC()
		since = &now
	}

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	s.logger.Debug().Dur("poll_interval", s.config.PollInterval).Msg("streaming events")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		// Drain every full page before waiting again.
		for {
			events, err := s.poll(ctx, cursor, since)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("failed to poll events: %w", err)
			}
			for _, event := range events {
				if err := s.writeEvent(event); err != nil {
					return fmt.Errorf("failed to write event: %w", err)
				}
			}
			if len(events) == 0 {
				break
			}
			cursor = events[len(events)-1].ID
			since = nil
			if len(events) < s.config.BatchSize {
				break
			}
		}
	}
}

func (s *EventStreamer) poll(ctx context.Context, cursor string, since *time.Time) ([]*models.Event, error) {
	page, err := s.repo.Query(ctx, db.EventQuery{
		Type:   s.config.EventType,
		BookID: s.config.BookID,
		Since:  since,
		Cursor: cursor,
		Limit:  s.config.BatchSize,
	})
	if err != nil {
		return nil, err
	}
	return page.Events, nil
}

func (s *EventStreamer) writeEvent(event *models.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(s.out, string(data))
	return err
}
