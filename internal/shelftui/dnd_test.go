package shelftui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/shelf/internal/library"
	"github.com/tOgg1/shelf/internal/models"
)

type fakeImporter struct {
	paths  []string
	result library.ImportResult
	err    error
}

func (f *fakeImporter) Import(_ context.Context, paths []string) (library.ImportResult, error) {
	f.paths = paths
	return f.result, f.err
}

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("book"), 0o644))
	return path
}

func TestSplitPaste(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "spaces and newlines", in: "a.epub b.pdf\nc.txt", want: []string{"a.epub", "b.pdf", "c.txt"}},
		{name: "single quotes", in: `'/tmp/my book.epub'`, want: []string{"/tmp/my book.epub"}},
		{name: "double quotes with escape", in: `"say \"hi\".txt"`, want: []string{`say "hi".txt`}},
		{name: "backslash space", in: `/tmp/my\ book.epub other.pdf`, want: []string{"/tmp/my book.epub", "other.pdf"}},
		{name: "empty quotes kept", in: `'' x`, want: []string{"", "x"}},
		{name: "blank", in: " \t\r\n", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, splitPaste(tt.in))
		})
	}
}

func TestPathsFromPaste(t *testing.T) {
	dir := t.TempDir()
	epub := writeFile(t, dir, "dune.epub")
	spaced := writeFile(t, dir, "left hand.pdf")
	writeFile(t, dir, "README")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder.d"), 0o755))

	pasted := "'" + spaced + "' file://" + epub + " " + epub + " " +
		filepath.Join(dir, "README") + " " + filepath.Join(dir, "folder.d") + " " +
		filepath.Join(dir, "missing.epub") + " plain words"

	require.Equal(t, []string{spaced, epub}, PathsFromPaste(pasted))
	require.Empty(t, PathsFromPaste("just some text"))
}

func TestDragData(t *testing.T) {
	require.Equal(t, "", DragData(nil))
	require.Equal(t, "7", DragData([]models.BookID{7}))
	require.Equal(t, "3 1 2", DragData([]models.BookID{3, 1, 2}))
}

func TestDragDropDrop(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "dune.epub")
	importer := &fakeImporter{result: library.ImportResult{Added: []models.BookID{4}}}
	d := NewDragDrop(importer)

	require.Nil(t, d.Drop(context.Background(), "nothing here"))

	cmd := d.Drop(context.Background(), path)
	require.NotNil(t, cmd)
	msg, ok := cmd().(filesDroppedMsg)
	require.True(t, ok)
	require.Equal(t, []string{path}, msg.paths)
	require.Equal(t, []string{path}, importer.paths)
	require.Equal(t, []models.BookID{4}, msg.result.Added)
	require.NoError(t, msg.err)

	require.Nil(t, NewDragDrop(nil).Drop(context.Background(), path))
}

func TestDragDropCopy(t *testing.T) {
	var copied string
	d := &DragDrop{copy: func(text string) error {
		copied = text
		return nil
	}}

	require.Nil(t, d.Copy(nil))

	msg, ok := d.Copy([]models.BookID{2, 5})().(selectionCopiedMsg)
	require.True(t, ok)
	require.Equal(t, 2, msg.count)
	require.NoError(t, msg.err)
	require.Equal(t, "2 5", copied)

	boom := errors.New("no clipboard")
	d.copy = func(string) error { return boom }
	msg = d.Copy([]models.BookID{1})().(selectionCopiedMsg)
	require.ErrorIs(t, msg.err, boom)
}
