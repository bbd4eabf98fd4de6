package shelftui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/tOgg1/shelf/internal/library"
	"github.com/tOgg1/shelf/internal/shelftui/styles"
)

const (
	authorColumnWidth = 24
	coverColumnWidth  = 2
)

// listView is the primary view: one book per row.
type listView struct {
	rowState
	lib *library.Library
	dnd *DragDrop

	offset int
	height int
}

func newListView(lib *library.Library, dnd *DragDrop) *listView {
	v := &listView{lib: lib, dnd: dnd, height: 1}
	v.rowState = newRowState(lib.Len)
	return v
}

func (v *listView) dragDrop() *DragDrop { return v.dnd }

func (v *listView) handleKey(msg tea.KeyMsg, keys keyMap) bool {
	page := max(v.height-1, 1)
	switch {
	case key.Matches(msg, keys.Up):
		v.move(-1, false)
	case key.Matches(msg, keys.Down):
		v.move(1, false)
	case key.Matches(msg, keys.ExtendUp):
		v.move(-1, true)
	case key.Matches(msg, keys.ExtendDown):
		v.move(1, true)
	case key.Matches(msg, keys.PageUp):
		v.move(-page, false)
	case key.Matches(msg, keys.PageDown):
		v.move(page, false)
	case key.Matches(msg, keys.Home):
		v.jump(0)
	case key.Matches(msg, keys.End):
		v.jump(v.lib.Len() - 1)
	case key.Matches(msg, keys.Toggle):
		v.toggle()
	case key.Matches(msg, keys.SelectAll):
		v.selectAll()
	default:
		return false
	}
	return true
}

func (v *listView) render(width, height int, theme styles.Theme) string {
	v.height = max(height, 1)
	n := v.lib.Len()
	if n == 0 {
		return theme.MutedStyle().Render("The library is empty. Paste or drop book files here to import them.")
	}

	if v.cursor >= 0 {
		if v.cursor < v.offset {
			v.offset = v.cursor
		}
		if v.cursor >= v.offset+v.height {
			v.offset = v.cursor - v.height + 1
		}
	}
	v.offset = clampRow(v.offset, n)

	authorWidth := min(authorColumnWidth, max(width/3, 0))
	titleWidth := max(width-authorWidth-coverColumnWidth-2, 1)

	lines := make([]string, 0, v.height)
	for row := v.offset; row < n && row < v.offset+v.height; row++ {
		book, err := v.lib.Book(row)
		if err != nil {
			break
		}
		mark := " "
		if book.HasCover {
			mark = "▪"
		}
		line := fmt.Sprintf("%s %s %s",
			padCell(mark, coverColumnWidth-1),
			padCell(book.Title, titleWidth),
			padCell(book.Author, authorWidth))
		line = runewidth.Truncate(line, max(width, 1), "")
		lines = append(lines, theme.RowStyle(row == v.cursor, v.selection.Contains(row)).Render(line))
	}
	return strings.Join(lines, "\n")
}

func padCell(value string, width int) string {
	if width <= 0 {
		return ""
	}
	value = runewidth.Truncate(value, width, "…")
	return runewidth.FillRight(value, width)
}
