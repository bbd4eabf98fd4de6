package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tOgg1/shelf/internal/models"
)

// Book repository errors.
var (
	ErrBookNotFound    = errors.New("book not found")
	ErrInvalidSort     = errors.New("invalid sort field")
	ErrEmptyCoverImage = errors.New("cover data is empty")
)

// BookRepository handles book and cover persistence.
type BookRepository struct {
	db *DB
}

// NewBookRepository creates a new BookRepository.
func NewBookRepository(db *DB) *BookRepository {
	return &BookRepository{db: db}
}

// Create adds a new book and assigns its ID.
func (r *BookRepository) Create(ctx context.Context, book *models.Book) error {
	if err := book.Validate(); err != nil {
		return fmt.Errorf("invalid book: %w", err)
	}

	now := time.Now().UTC()
	if book.AddedAt.IsZero() {
		book.AddedAt = now
	}
	book.UpdatedAt = now
	book.Title = strings.TrimSpace(book.Title)

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO books (title, author, path, added_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		book.Title,
		book.Author,
		book.Path,
		book.AddedAt.Format(timeLayout),
		book.UpdatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert book: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read book id: %w", err)
	}
	book.ID = models.BookID(id)
	book.HasCover = false
	return nil
}

// Get retrieves a book by ID.
func (r *BookRepository) Get(ctx context.Context, id models.BookID) (*models.Book, error) {
	row := r.db.QueryRowContext(ctx, bookSelect+` WHERE b.id = ?`, int64(id))
	return scanBook(row)
}

// List returns every book ordered by field. Ties fall back to id so the order
// is total and stable.
func (r *BookRepository) List(ctx context.Context, field models.SortField, ascending bool) ([]*models.Book, error) {
	order, err := orderClause(field, ascending)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, bookSelect+` ORDER BY `+order)
	if err != nil {
		return nil, fmt.Errorf("failed to query books: %w", err)
	}
	defer rows.Close()

	var books []*models.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating books: %w", err)
	}
	return books, nil
}

// Count returns the number of books.
func (r *BookRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count books: %w", err)
	}
	return n, nil
}

// Delete removes a book and its cover.
func (r *BookRepository) Delete(ctx context.Context, id models.BookID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, int64(id))
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	return requireAffected(result, ErrBookNotFound)
}

// SetCover stores data as the cover of id, replacing any previous cover.
func (r *BookRepository) SetCover(ctx context.Context, id models.BookID, data []byte, source string) error {
	if len(data) == 0 {
		return ErrEmptyCoverImage
	}

	now := time.Now().UTC().Format(timeLayout)
	return r.db.TransactionWithRetry(ctx, 0, 0, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `UPDATE books SET updated_at = ? WHERE id = ?`, now, int64(id))
		if err != nil {
			return fmt.Errorf("failed to touch book: %w", err)
		}
		if err := requireAffected(result, ErrBookNotFound); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO covers (book_id, data, source, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(book_id) DO UPDATE SET
				data = excluded.data,
				source = excluded.source,
				updated_at = excluded.updated_at
		`, int64(id), data, source, now); err != nil {
			return fmt.Errorf("failed to store cover: %w", err)
		}
		return nil
	})
}

// ClearCover removes the cover of id. It reports whether a cover existed.
func (r *BookRepository) ClearCover(ctx context.Context, id models.BookID) (bool, error) {
	if _, err := r.Get(ctx, id); err != nil {
		return false, err
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM covers WHERE book_id = ?`, int64(id))
	if err != nil {
		return false, fmt.Errorf("failed to clear cover: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// Cover returns the raw cover bytes for id. ok is false when the book has no
// cover or no longer exists.
func (r *BookRepository) Cover(ctx context.Context, id models.BookID) ([]byte, bool, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx, `SELECT data FROM covers WHERE book_id = ?`, int64(id)).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cover: %w", err)
	}
	return data, true, nil
}

const bookSelect = `
	SELECT
		b.id, b.title, b.author, b.path, b.added_at, b.updated_at,
		EXISTS(SELECT 1 FROM covers c WHERE c.book_id = b.id)
	FROM books b`

func orderClause(field models.SortField, ascending bool) (string, error) {
	dir := "ASC"
	if !ascending {
		dir = "DESC"
	}

	switch field {
	case models.SortByTitle, "":
		return "b.title COLLATE NOCASE " + dir + ", b.id " + dir, nil
	case models.SortByAuthor:
		return "b.author COLLATE NOCASE " + dir + ", b.title COLLATE NOCASE " + dir + ", b.id " + dir, nil
	case models.SortByAdded:
		return "b.added_at " + dir + ", b.id " + dir, nil
	case models.SortByID:
		return "b.id " + dir, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSort, field)
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (*models.Book, error) {
	var book models.Book
	var id int64
	var addedAt, updatedAt string
	var hasCover int

	if err := row.Scan(&id, &book.Title, &book.Author, &book.Path, &addedAt, &updatedAt, &hasCover); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to scan book: %w", err)
	}

	var err error
	book.ID = models.BookID(id)
	book.HasCover = hasCover != 0
	if book.AddedAt, err = time.Parse(timeLayout, addedAt); err != nil {
		return nil, fmt.Errorf("failed to parse added_at: %w", err)
	}
	if book.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return &book, nil
}

func requireAffected(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
