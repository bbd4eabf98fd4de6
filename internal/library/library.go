// Package library is the record store the views present: an ordered snapshot
// of the books table plus the registry of cover caches that must hear about
// cover changes and removals.
package library

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tOgg1/shelf/internal/covercache"
	"github.com/tOgg1/shelf/internal/db"
	"github.com/tOgg1/shelf/internal/events"
	"github.com/tOgg1/shelf/internal/logging"
	"github.com/tOgg1/shelf/internal/models"
)

// ErrNoSuchRow is returned for row indices outside the snapshot.
var ErrNoSuchRow = errors.New("no such row")

// Option configures a Library.
type Option func(*Library)

// WithSort sets the initial ordering.
func WithSort(field models.SortField, ascending bool) Option {
	return func(l *Library) {
		if field.Valid() {
			l.sortField = field
		}
		l.ascending = ascending
	}
}

// WithName labels the library in logs and the status line.
func WithName(name string) Option {
	return func(l *Library) {
		l.name = name
	}
}

// WithEventLog persists every published change to the events table.
func WithEventLog() Option {
	return func(l *Library) {
		l.logEvents = true
	}
}

// Library is safe for concurrent use. Row lookups read an immutable snapshot
// that Reload swaps atomically.
type Library struct {
	name      string
	books     *db.BookRepository
	publisher *events.InMemoryPublisher
	logger    zerolog.Logger
	logEvents bool

	mu        sync.RWMutex
	rows      []*models.Book
	index     map[models.BookID]int
	sortField models.SortField
	ascending bool
}

// Open loads the library stored in database.
func Open(ctx context.Context, database *db.DB, opts ...Option) (*Library, error) {
	l := &Library{
		name:      database.Path(),
		books:     db.NewBookRepository(database),
		sortField: models.SortByTitle,
		ascending: true,
		index:     make(map[models.BookID]int),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logEvents {
		l.publisher = events.NewInMemoryPublisher(events.WithRepository(db.NewEventRepository(database)))
	} else {
		l.publisher = events.NewInMemoryPublisher()
	}
	l.logger = logging.Component("library").With().Str("library", l.name).Logger()

	if err := l.Reload(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

// Name returns the library label.
func (l *Library) Name() string { return l.name }

// Reload re-reads the snapshot in the current sort order.
func (l *Library) Reload(ctx context.Context) error {
	l.mu.RLock()
	field, ascending := l.sortField, l.ascending
	l.mu.RUnlock()

	books, err := l.books.List(ctx, field, ascending)
	if err != nil {
		return fmt.Errorf("failed to load library: %w", err)
	}

	index := make(map[models.BookID]int, len(books))
	for i, book := range books {
		index[book.ID] = i
	}

	l.mu.Lock()
	l.rows = books
	l.index = index
	l.mu.Unlock()

	l.logger.Debug().Int("books", len(books)).Str("sort", string(field)).Msg("library loaded")
	return nil
}

// Len returns the number of rows.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.rows)
}

// ID returns the book id shown at row.
func (l *Library) ID(row int) (models.BookID, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if row < 0 || row >= len(l.rows) {
		return 0, false
	}
	return l.rows[row].ID, true
}

// Row returns the row currently showing id.
func (l *Library) Row(id models.BookID) (int, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	row, ok := l.index[id]
	return row, ok
}

// Book returns a copy of the book at row.
func (l *Library) Book(row int) (models.Book, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if row < 0 || row >= len(l.rows) {
		return models.Book{}, fmt.Errorf("%w: %d", ErrNoSuchRow, row)
	}
	return *l.rows[row], nil
}

// Title returns the title of id, or "" when id is not in the snapshot.
func (l *Library) Title(id models.BookID) string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if row, ok := l.index[id]; ok {
		return l.rows[row].Title
	}
	return ""
}

// IDs returns the ids of rows, skipping rows out of range.
func (l *Library) IDs(rows []int) []models.BookID {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]models.BookID, 0, len(rows))
	for _, row := range rows {
		if row >= 0 && row < len(l.rows) {
			ids = append(ids, l.rows[row].ID)
		}
	}
	return ids
}

// Sorting returns the current ordering.
func (l *Library) Sorting() (models.SortField, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sortField, l.ascending
}

// Sort changes the ordering and reloads.
func (l *Library) Sort(ctx context.Context, field models.SortField, ascending bool) error {
	if !field.Valid() {
		return fmt.Errorf("%w: %q", db.ErrInvalidSort, field)
	}

	l.mu.Lock()
	l.sortField, l.ascending = field, ascending
	l.mu.Unlock()

	if err := l.Reload(ctx); err != nil {
		return err
	}
	l.publish(ctx, models.EventTypeLibraryReordered, 0)
	return nil
}

// CoverData returns the raw cover bytes for id. It is called from render
// workers.
func (l *Library) CoverData(ctx context.Context, id models.BookID) ([]byte, bool, error) {
	return l.books.Cover(ctx, id)
}

// Add inserts book and reloads.
func (l *Library) Add(ctx context.Context, book *models.Book) error {
	if err := l.books.Create(ctx, book); err != nil {
		return err
	}
	if err := l.Reload(ctx); err != nil {
		return err
	}
	l.publish(ctx, models.EventTypeBookAdded, book.ID)
	return nil
}

// Remove deletes the given books. Every registered cache drops them.
func (l *Library) Remove(ctx context.Context, ids ...models.BookID) error {
	var removed []models.BookID
	var errs []error
	for _, id := range ids {
		if err := l.books.Delete(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", id, err))
			continue
		}
		removed = append(removed, id)
	}

	if len(removed) > 0 {
		if err := l.Reload(ctx); err != nil {
			errs = append(errs, err)
		}
		for _, id := range removed {
			l.publish(ctx, models.EventTypeBookRemoved, id)
		}
	}
	return errors.Join(errs...)
}

// SetCover replaces the cover of id. Every registered cache drops its entry.
func (l *Library) SetCover(ctx context.Context, id models.BookID, data []byte, source string) error {
	if err := l.books.SetCover(ctx, id, data, source); err != nil {
		return err
	}
	l.markCover(id, true)
	l.publish(ctx, models.EventTypeCoverChanged, id)
	return nil
}

// ClearCover removes the cover of id.
func (l *Library) ClearCover(ctx context.Context, id models.BookID) error {
	existed, err := l.books.ClearCover(ctx, id)
	if err != nil {
		return err
	}
	if existed {
		l.markCover(id, false)
		l.publish(ctx, models.EventTypeCoverChanged, id)
	}
	return nil
}

func (l *Library) markCover(id models.BookID, has bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if row, ok := l.index[id]; ok {
		updated := *l.rows[row]
		updated.HasCover = has
		l.rows[row] = &updated
	}
}

// AddCoverCache registers c to be invalidated on cover changes and removals.
// Adding a cache twice is a no-op.
func (l *Library) AddCoverCache(c covercache.Invalidator) error {
	err := l.publisher.Subscribe(c.Handle(), events.InvalidationFilter(), func(event *models.Event) {
		c.Invalidate(event.BookID)
	})
	if errors.Is(err, events.ErrSubscriptionExists) {
		return nil
	}
	return err
}

// RemoveCoverCache unregisters c. Removing an unknown cache is a no-op.
func (l *Library) RemoveCoverCache(c covercache.Invalidator) {
	_ = l.publisher.Unsubscribe(c.Handle())
}

// HasCoverCache reports whether c is registered.
func (l *Library) HasCoverCache(c covercache.Invalidator) bool {
	return l.publisher.Subscribed(c.Handle())
}

// Subscribe registers an arbitrary change listener under id.
func (l *Library) Subscribe(id string, filter events.Filter, handler events.EventHandler) error {
	return l.publisher.Subscribe(id, filter, handler)
}

// Unsubscribe removes a listener registered with Subscribe.
func (l *Library) Unsubscribe(id string) error {
	return l.publisher.Unsubscribe(id)
}

func (l *Library) publish(ctx context.Context, typ models.EventType, id models.BookID) {
	l.publisher.Publish(ctx, &models.Event{Type: typ, BookID: id})
}
