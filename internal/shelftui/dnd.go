package shelftui

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tOgg1/shelf/internal/library"
	"github.com/tOgg1/shelf/internal/models"
	"github.com/tOgg1/shelf/internal/viewsync"
)

// Importer receives dropped files.
type Importer interface {
	Import(ctx context.Context, paths []string) (library.ImportResult, error)
}

// DragDrop lets a view accept dropped files and export its selection. Each
// view is handed the same instance at construction.
type DragDrop struct {
	importer Importer
	copy     func(text string) error
}

// NewDragDrop creates a DragDrop that imports into importer and exports
// through the system clipboard.
func NewDragDrop(importer Importer) *DragDrop {
	return &DragDrop{importer: importer, copy: clipboard.WriteAll}
}

// filesDroppedMsg reports the outcome of an import started by a drop.
type filesDroppedMsg struct {
	paths  []string
	result library.ImportResult
	err    error
}

// selectionCopiedMsg reports a drag-data export.
type selectionCopiedMsg struct {
	count int
	err   error
}

// Drop parses pasted text into file paths and imports them in the
// background. It returns nil when nothing droppable was pasted.
func (d *DragDrop) Drop(ctx context.Context, pasted string) tea.Cmd {
	paths := PathsFromPaste(pasted)
	if len(paths) == 0 || d.importer == nil {
		return nil
	}
	importer := d.importer
	return func() tea.Msg {
		result, err := importer.Import(ctx, paths)
		return filesDroppedMsg{paths: paths, result: result, err: err}
	}
}

// DragData is the exported form of a selection: ids separated by spaces.
func DragData(ids []models.BookID) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, id.String())
	}
	return strings.Join(parts, " ")
}

// Copy exports ids as drag data.
func (d *DragDrop) Copy(ids []models.BookID) tea.Cmd {
	if len(ids) == 0 {
		return nil
	}
	data := DragData(ids)
	copyFn := d.copy
	return func() tea.Msg {
		return selectionCopiedMsg{count: len(ids), err: copyFn(data)}
	}
}

// PathsFromPaste extracts dropped files from pasted text. Terminals paste
// dropped files as shell-quoted paths or file:// URLs separated by spaces or
// newlines. Only existing regular files with an extension are kept.
func PathsFromPaste(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, token := range splitPaste(text) {
		path := token
		if strings.HasPrefix(path, "file://") {
			u, err := url.Parse(path)
			if err != nil {
				continue
			}
			path = u.Path
		}
		if path == "" || filepath.Ext(path) == "" || seen[path] {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		seen[path] = true
		out = append(out, path)
	}
	return out
}

// splitPaste splits on unquoted whitespace, honoring single quotes, double
// quotes and backslash escapes.
func splitPaste(text string) []string {
	var tokens []string
	var cur strings.Builder
	var quote rune
	escaped, inToken := false, false

	flush := func() {
		if inToken {
			tokens = append(tokens, cur.String())
		}
		cur.Reset()
		inToken = false
	}

	for _, r := range text {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped, inToken = true, true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote, inToken = r, true
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			flush()
		default:
			cur.WriteRune(r)
			inToken = true
		}
	}
	flush()
	return tokens
}

// dragIDs returns the ids a view exports: its selection, or the current row
// when nothing is selected.
func dragIDs(lib *library.Library, v viewsync.View) []models.BookID {
	rows := v.SelectedRows()
	if len(rows) == 0 {
		if row, ok := v.CurrentRow(); ok {
			rows = []int{row}
		}
	}
	return lib.IDs(rows)
}
