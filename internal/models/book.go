// Package models defines the records shelf browses and the events it publishes about them.
package models

import (
	"strconv"
	"strings"
	"time"
)

// BookID addresses one record in the library. IDs are never reused while a
// record exists.
type BookID int64

// String renders the id the way the CLI prints it.
func (id BookID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseBookID parses a decimal book id.
func ParseBookID(raw string) (BookID, error) {
	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, ValidationError{Field: "id", Message: "must be an integer", Cause: err}
	}
	if value <= 0 {
		return 0, ValidationError{Field: "id", Message: "must be positive"}
	}
	return BookID(value), nil
}

// Book is one library record.
type Book struct {
	ID        BookID    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author,omitempty"`
	Path      string    `json:"path,omitempty"`
	HasCover  bool      `json:"has_cover"`
	AddedAt   time.Time `json:"added_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SortField names a column the library can be ordered by.
type SortField string

const (
	SortByTitle  SortField = "title"
	SortByAuthor SortField = "author"
	SortByAdded  SortField = "added"
	SortByID     SortField = "id"
)

const maxFieldLen = 1024

// Valid reports whether the repository knows how to order by f.
func (f SortField) Valid() bool {
	switch f {
	case SortByTitle, SortByAuthor, SortByAdded, SortByID:
		return true
	default:
		return false
	}
}

// Validate checks the fields required before persisting.
func (b *Book) Validate() error {
	var errs ValidationErrors
	title := strings.TrimSpace(b.Title)
	switch {
	case title == "":
		errs.AddMessage("title", "is required")
	case len(title) > maxFieldLen:
		errs.AddMessage("title", "is too long")
	}
	if len(b.Author) > maxFieldLen {
		errs.AddMessage("author", "is too long")
	}
	return errs.Err()
}
