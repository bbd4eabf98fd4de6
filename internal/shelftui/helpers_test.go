package shelftui

import (
	"bytes"
	"context"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/shelf/internal/db"
	"github.com/tOgg1/shelf/internal/library"
	"github.com/tOgg1/shelf/internal/models"
)

// openTestLibrary creates an in-memory library holding one book per title.
func openTestLibrary(t *testing.T, name string, titles ...string) *library.Library {
	t.Helper()
	ctx := context.Background()
	database, err := db.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, database.Migrate(ctx))

	repo := db.NewBookRepository(database)
	for _, title := range titles {
		require.NoError(t, repo.Create(ctx, &models.Book{Title: title, Author: "Author of " + title}))
	}
	lib, err := library.Open(ctx, database, library.WithName(name))
	require.NoError(t, err)
	return lib
}

func coverPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solidImage(36, 48, color.RGBA{G: 180, A: 255})))
	return buf.Bytes()
}

func bookID(t *testing.T, lib *library.Library, row int) models.BookID {
	t.Helper()
	id, ok := lib.ID(row)
	require.True(t, ok)
	return id
}
