package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/shelf/internal/models"
)

func createBooks(t *testing.T, repo *BookRepository, books ...*models.Book) {
	t.Helper()
	for _, book := range books {
		require.NoError(t, repo.Create(context.Background(), book))
	}
}

func TestBookRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	repo := NewBookRepository(db)
	ctx := context.Background()

	book := &models.Book{Title: "  Dune ", Author: "Frank Herbert", Path: "/books/dune.epub"}
	require.NoError(t, repo.Create(ctx, book))
	require.NotZero(t, book.ID)
	require.Equal(t, "Dune", book.Title)

	got, err := repo.Get(ctx, book.ID)
	require.NoError(t, err)
	require.Equal(t, book.ID, got.ID)
	require.Equal(t, "Dune", got.Title)
	require.Equal(t, "Frank Herbert", got.Author)
	require.Equal(t, "/books/dune.epub", got.Path)
	require.False(t, got.HasCover)
	require.WithinDuration(t, book.AddedAt, got.AddedAt, time.Microsecond)

	_, err = repo.Get(ctx, book.ID+100)
	require.ErrorIs(t, err, ErrBookNotFound)
}

func TestBookRepository_CreateRejectsInvalid(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	err := NewBookRepository(db).Create(context.Background(), &models.Book{Title: "   "})
	require.Error(t, err)
	require.True(t, models.IsValidation(err))
}

func TestBookRepository_ListOrdering(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	repo := NewBookRepository(db)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	createBooks(t, repo,
		&models.Book{Title: "beta", Author: "Zed", AddedAt: base.Add(2 * time.Hour)},
		&models.Book{Title: "Alpha", Author: "Young", AddedAt: base.Add(3 * time.Hour)},
		&models.Book{Title: "gamma", Author: "Abe", AddedAt: base.Add(time.Hour)},
	)

	titles := func(books []*models.Book) []string {
		out := make([]string, 0, len(books))
		for _, b := range books {
			out = append(out, b.Title)
		}
		return out
	}

	tests := []struct {
		field     models.SortField
		ascending bool
		want      []string
	}{
		{field: models.SortByTitle, ascending: true, want: []string{"Alpha", "beta", "gamma"}},
		{field: models.SortByTitle, ascending: false, want: []string{"gamma", "beta", "Alpha"}},
		{field: models.SortByAuthor, ascending: true, want: []string{"gamma", "Alpha", "beta"}},
		{field: models.SortByAdded, ascending: true, want: []string{"gamma", "beta", "Alpha"}},
		{field: models.SortByID, ascending: true, want: []string{"beta", "Alpha", "gamma"}},
		{field: "", ascending: true, want: []string{"Alpha", "beta", "gamma"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.field), func(t *testing.T) {
			books, err := repo.List(ctx, tt.field, tt.ascending)
			require.NoError(t, err)
			require.Equal(t, tt.want, titles(books))
		})
	}

	_, err := repo.List(ctx, "rating", true)
	require.ErrorIs(t, err, ErrInvalidSort)
}

func TestBookRepository_Covers(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	repo := NewBookRepository(db)
	ctx := context.Background()

	book := &models.Book{Title: "Neuromancer"}
	createBooks(t, repo, book)

	_, ok, err := repo.Cover(ctx, book.ID)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, repo.SetCover(ctx, book.ID, []byte("v1"), "import"))
	require.NoError(t, repo.SetCover(ctx, book.ID, []byte("v2"), "watcher"))

	data, ok, err := repo.Cover(ctx, book.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v2"), data)

	got, err := repo.Get(ctx, book.ID)
	require.NoError(t, err)
	require.True(t, got.HasCover)

	require.ErrorIs(t, repo.SetCover(ctx, book.ID, nil, ""), ErrEmptyCoverImage)
	require.ErrorIs(t, repo.SetCover(ctx, book.ID+1, []byte("x"), ""), ErrBookNotFound)

	existed, err := repo.ClearCover(ctx, book.ID)
	require.NoError(t, err)
	require.True(t, existed)
	existed, err = repo.ClearCover(ctx, book.ID)
	require.NoError(t, err)
	require.False(t, existed)

	_, err = repo.ClearCover(ctx, book.ID+1)
	require.ErrorIs(t, err, ErrBookNotFound)
}

func TestBookRepository_DeleteCascadesCover(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	repo := NewBookRepository(db)
	ctx := context.Background()

	book := &models.Book{Title: "Solaris"}
	createBooks(t, repo, book)
	require.NoError(t, repo.SetCover(ctx, book.ID, []byte("png"), ""))

	require.NoError(t, repo.Delete(ctx, book.ID))
	require.ErrorIs(t, repo.Delete(ctx, book.ID), ErrBookNotFound)

	_, ok, err := repo.Cover(ctx, book.ID)
	require.NoError(t, err)
	require.False(t, ok)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
}
