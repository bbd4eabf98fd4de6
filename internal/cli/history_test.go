package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/shelf/internal/db"
	"github.com/tOgg1/shelf/internal/models"
)

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.OpenInMemory()
	require.NoError(t, err)
	require.NoError(t, database.Migrate(context.Background()))
	t.Cleanup(func() { database.Close() })
	return database
}

// syncBuffer is a bytes.Buffer safe to read while the streamer writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	text := strings.TrimSpace(b.buf.String())
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func TestEventStreamerWriteEvent(t *testing.T) {
	repo := db.NewEventRepository(setupTestDB(t))
	var buf bytes.Buffer
	streamer := NewEventStreamer(repo, &buf, DefaultStreamConfig())

	event := &models.Event{
		ID:        "evt-1",
		Type:      models.EventTypeBookAdded,
		BookID:    7,
		Timestamp: time.Now().UTC(),
	}
	require.NoError(t, streamer.writeEvent(event))

	var decoded models.Event
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, event.ID, decoded.ID)
	require.Equal(t, event.Type, decoded.Type)
	require.Equal(t, event.BookID, decoded.BookID)
	require.True(t, strings.HasSuffix(buf.String(), "\n"))
}

func TestEventStreamerPollFilters(t *testing.T) {
	ctx := context.Background()
	repo := db.NewEventRepository(setupTestDB(t))
	base := time.Now().UTC().Add(-time.Hour)

	fixtures := []struct {
		typ models.EventType
		id  models.BookID
	}{
		{models.EventTypeBookAdded, 1},
		{models.EventTypeBookAdded, 2},
		{models.EventTypeCoverChanged, 1},
		{models.EventTypeBookRemoved, 2},
		{models.EventTypeLibraryReordered, 0},
	}
	for i, f := range fixtures {
		require.NoError(t, repo.Append(ctx, &models.Event{
			Type:      f.typ,
			BookID:    f.id,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	added := models.EventTypeBookAdded
	book1 := models.BookID(1)
	cutoff := base.Add(150 * time.Second)

	tests := []struct {
		name   string
		mutate func(*StreamConfig)
		since  *time.Time
		want   int
	}{
		{name: "all", mutate: func(*StreamConfig) {}, want: 5},
		{name: "by type", mutate: func(c *StreamConfig) { c.EventType = &added }, want: 2},
		{name: "by book", mutate: func(c *StreamConfig) { c.BookID = &book1 }, want: 2},
		{name: "since", mutate: func(*StreamConfig) {}, since: &cutoff, want: 2},
		{name: "limited", mutate: func(c *StreamConfig) { c.BatchSize = 3 }, want: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultStreamConfig()
			tt.mutate(&cfg)
			events, err := NewEventStreamer(repo, &bytes.Buffer{}, cfg).poll(ctx, "", tt.since)
			require.NoError(t, err)
			require.Len(t, events, tt.want)
		})
	}
}

func TestEventStreamerStreamFollowsNewEvents(t *testing.T) {
	repo := db.NewEventRepository(setupTestDB(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, repo.Append(context.Background(), &models.Event{
		Type:      models.EventTypeBookAdded,
		BookID:    1,
		Timestamp: time.Now().UTC().Add(-time.Minute),
	}))

	cfg := DefaultStreamConfig()
	cfg.PollInterval = 10 * time.Millisecond
	cfg.BatchSize = 2
	out := &syncBuffer{}
	streamer := NewEventStreamer(repo, out, cfg)

	done := make(chan error, 1)
	go func() { done <- streamer.Stream(ctx) }()

	// More than one page arrives between polls.
	time.Sleep(20 * time.Millisecond)
	next := time.Now().UTC().Add(time.Second)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Append(context.Background(), &models.Event{
			Type:      models.EventTypeCoverChanged,
			BookID:    models.BookID(10 + i),
			Timestamp: next.Add(time.Duration(i) * time.Millisecond),
		}))
	}

	require.Eventually(t, func() bool { return len(out.lines()) == 5 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	for i, line := range out.lines() {
		var event models.Event
		require.NoError(t, json.Unmarshal([]byte(line), &event), line)
		require.Equal(t, models.EventTypeCoverChanged, event.Type)
		require.Equal(t, models.BookID(10+i), event.BookID, fmt.Sprintf("line %d", i))
	}
}

func TestEventStreamerIncludeExisting(t *testing.T) {
	repo := db.NewEventRepository(setupTestDB(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Append(context.Background(), &models.Event{
			Type:   models.EventTypeBookAdded,
			BookID: models.BookID(i + 1),
		}))
	}

	since := time.Now().UTC().Add(-time.Hour)
	cfg := DefaultStreamConfig()
	cfg.PollInterval = 10 * time.Millisecond
	cfg.Since = &since
	cfg.IncludeExisting = true
	out := &syncBuffer{}

	done := make(chan error, 1)
	go func() { done <- NewEventStreamer(repo, out, cfg).Stream(ctx) }()

	require.Eventually(t, func() bool { return len(out.lines()) == 3 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}
