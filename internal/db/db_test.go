package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := OpenInMemory()
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	if err := database.Migrate(context.Background()); err != nil {
		database.Close()
		t.Fatalf("failed to migrate: %v", err)
	}

	return database
}

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	database, err := OpenInMemory()
	require.NoError(t, err)
	defer database.Close()

	applied, err := database.MigrateUp(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, applied)

	version, err := database.SchemaVersion(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, version)

	applied, err = database.MigrateUp(ctx)
	require.NoError(t, err)
	require.Zero(t, applied)
}

func TestOpenCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "shelf.db")
	database, err := Open(DefaultConfig(path))
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, database.Migrate(context.Background()))
	require.Equal(t, path, database.Path())
	require.FileExists(t, path)
}

func TestLoadMigrationsOrdered(t *testing.T) {
	migrations, err := loadMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)
	for i := 1; i < len(migrations); i++ {
		require.Less(t, migrations[i-1].version, migrations[i].version)
	}
	require.Equal(t, "books", migrations[0].name)
}
