package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestManager_LoadMissingFileOK(t *testing.T) {
	m := New(filepath.Join(t.TempDir(), "shelf", "tui-state.json"))
	require.NoError(t, m.Load())
	s := m.Snapshot()
	require.Equal(t, CurrentVersion, s.Version)
	require.Empty(t, s.LastView)
}

func TestManager_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tui-state.json")
	m := New(path)
	require.NoError(t, m.Load())

	m.SetLastView("grid")
	m.SetLastBook(42)
	m.SetSort("author", false)
	m.SetShowHelp(true)
	require.NoError(t, m.Close())

	reloaded := New(path)
	require.NoError(t, reloaded.Load())
	require.Equal(t, "grid", reloaded.LastView())
	require.Equal(t, int64(42), reloaded.LastBook())
	field, asc, ok := reloaded.Sort()
	require.True(t, ok)
	require.Equal(t, "author", field)
	require.False(t, asc)
	require.True(t, reloaded.ShowHelp())
}

func TestManager_SortUnsetUntilSaved(t *testing.T) {
	m := New("")
	_, _, ok := m.Sort()
	require.False(t, ok)

	m.SetSort("  ", true)
	_, _, ok = m.Sort()
	require.False(t, ok)

	m.SetSort("title", true)
	field, asc, ok := m.Sort()
	require.True(t, ok)
	require.Equal(t, "title", field)
	require.True(t, asc)
}

func TestManager_DebouncedSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tui-state.json")
	m := New(path)
	m.debounce = 10 * time.Millisecond

	m.SetLastView("grid")
	require.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, m.Close())
}

func TestManager_InMemoryNeverWrites(t *testing.T) {
	m := New("")
	m.SetLastView("grid")
	require.NoError(t, m.SaveNow())
	require.NoError(t, m.Close())
	require.Equal(t, "grid", m.LastView())
}

func TestManager_RejectsNewerVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tui-state.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":99}`), 0o644))

	m := New(path)
	require.Error(t, m.Load())
}

func TestManager_SnapshotIsACopy(t *testing.T) {
	m := New("")
	m.SetSort("id", true)

	snap := m.Snapshot()
	*snap.Preferences.SortAscending = false

	_, asc, _ := m.Sort()
	require.True(t, asc)
}
