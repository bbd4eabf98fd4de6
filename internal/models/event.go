package models

import "time"

// EventType categorizes library change events.
type EventType string

const (
	// EventTypeCoverChanged fires when a book's cover bytes were replaced or cleared.
	EventTypeCoverChanged EventType = "cover.changed"
	// EventTypeBookRemoved fires when a book was deleted from the library.
	EventTypeBookRemoved EventType = "book.removed"
	// EventTypeBookAdded fires when a book was inserted.
	EventTypeBookAdded EventType = "book.added"
	// EventTypeLibraryReordered fires after the row order changed.
	EventTypeLibraryReordered EventType = "library.reordered"
)

// Event is a library change notification delivered to registered subscribers.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	BookID    BookID    `json:"book_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Invalidates reports whether subscribers caching per-book derived data must
// drop their entry for BookID.
func (e *Event) Invalidates() bool {
	if e == nil {
		return false
	}
	return e.Type == EventTypeCoverChanged || e.Type == EventTypeBookRemoved
}
