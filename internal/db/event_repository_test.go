package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/shelf/internal/models"
)

func TestEventRepositoryAppendAndQuery(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	defer database.Close()

	repo := NewEventRepository(database)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	events := []*models.Event{
		{Type: models.EventTypeBookAdded, BookID: 1, Timestamp: base},
		{Type: models.EventTypeCoverChanged, BookID: 1, Timestamp: base.Add(100 * time.Millisecond)},
		{Type: models.EventTypeCoverChanged, BookID: 2, Timestamp: base.Add(120 * time.Millisecond)},
		{Type: models.EventTypeLibraryReordered, Timestamp: base.Add(time.Second)},
	}
	for _, event := range events {
		require.NoError(t, repo.Append(ctx, event))
		require.NotEmpty(t, event.ID)
	}

	got, err := repo.Get(ctx, events[1].ID)
	require.NoError(t, err)
	require.Equal(t, models.EventTypeCoverChanged, got.Type)
	require.Equal(t, models.BookID(1), got.BookID)
	require.True(t, got.Timestamp.Equal(events[1].Timestamp))

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrEventNotFound)

	coverChanged := models.EventTypeCoverChanged
	page, err := repo.Query(ctx, EventQuery{Type: &coverChanged})
	require.NoError(t, err)
	require.Len(t, page.Events, 2)
	require.Equal(t, events[1].ID, page.Events[0].ID)
	require.Equal(t, events[2].ID, page.Events[1].ID)

	book := models.BookID(1)
	page, err = repo.Query(ctx, EventQuery{BookID: &book})
	require.NoError(t, err)
	require.Len(t, page.Events, 2)

	reordered, err := repo.Get(ctx, events[3].ID)
	require.NoError(t, err)
	require.Zero(t, reordered.BookID)
}

func TestEventRepositoryPagination(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	defer database.Close()

	repo := NewEventRepository(database)
	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Append(ctx, &models.Event{
			Type:      models.EventTypeBookAdded,
			BookID:    models.BookID(i + 1),
			Timestamp: base.Add(time.Duration(i) * time.Millisecond),
		}))
	}

	var seen []models.BookID
	cursor := ""
	for {
		page, err := repo.Query(ctx, EventQuery{Cursor: cursor, Limit: 2})
		require.NoError(t, err)
		for _, e := range page.Events {
			seen = append(seen, e.BookID)
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	require.Equal(t, []models.BookID{1, 2, 3, 4, 5}, seen)

	removed, err := repo.DeleteBefore(ctx, base.Add(2*time.Millisecond))
	require.NoError(t, err)
	require.Equal(t, int64(2), removed)
}

func TestEventRepositoryRejectsUntyped(t *testing.T) {
	database := setupTestDB(t)
	defer database.Close()

	err := NewEventRepository(database).Append(context.Background(), &models.Event{})
	require.ErrorIs(t, err, ErrInvalidEvent)
}
