package shelftui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/require"

	"github.com/tOgg1/shelf/internal/shelftui/styles"
)

func TestListRenderRows(t *testing.T) {
	ctx := context.Background()
	lib := openTestLibrary(t, "list", "Dune", "Emma", "Ulysses")
	require.NoError(t, lib.SetCover(ctx, bookID(t, lib, 1), coverPNG(t), "test"))
	v := newListView(lib, nil)

	out := v.render(60, 10, styles.DefaultTheme)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[0], "Dune")
	require.Contains(t, lines[0], "Author of Dune")
	require.NotContains(t, lines[0], "▪")
	require.Contains(t, lines[1], "▪")
	for _, line := range lines {
		require.LessOrEqual(t, lipgloss.Width(line), 60)
	}
}

func TestListRenderEmpty(t *testing.T) {
	v := newListView(openTestLibrary(t, "empty"), nil)
	require.Contains(t, v.render(60, 10, styles.DefaultTheme), "library is empty")
}

func TestListScrollsToCursor(t *testing.T) {
	titles := make([]string, 20)
	for i := range titles {
		titles[i] = "Book " + string(rune('A'+i))
	}
	lib := openTestLibrary(t, "scroll", titles...)
	v := newListView(lib, nil)

	v.render(40, 5, styles.DefaultTheme)
	v.jump(12)
	out := v.render(40, 5, styles.DefaultTheme)
	require.Equal(t, 8, v.offset)
	require.Contains(t, out, "Book M")
	require.NotContains(t, out, "Book A")

	v.jump(2)
	v.render(40, 5, styles.DefaultTheme)
	require.Equal(t, 2, v.offset)
}

func TestListKeys(t *testing.T) {
	titles := make([]string, 10)
	for i := range titles {
		titles[i] = "Book " + string(rune('A'+i))
	}
	lib := openTestLibrary(t, "keys", titles...)
	v := newListView(lib, nil)
	v.render(40, 4, styles.DefaultTheme)
	keys := defaultKeyMap()

	steps := []struct {
		msg      tea.KeyMsg
		wantRow  int
		wantSels []int
	}{
		{tea.KeyMsg{Type: tea.KeyDown}, 0, []int{0}},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}}, 1, []int{1}},
		{tea.KeyMsg{Type: tea.KeyShiftDown}, 2, []int{1, 2}},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'J'}}, 3, []int{1, 2, 3}},
		{tea.KeyMsg{Type: tea.KeyPgDown}, 6, []int{6}},
		{tea.KeyMsg{Type: tea.KeyEnd}, 9, []int{9}},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}}, 8, []int{8}},
		{tea.KeyMsg{Type: tea.KeyCtrlA}, 8, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}},
		{tea.KeyMsg{Type: tea.KeyHome}, 0, []int{0}},
		{tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}, 0, []int{}},
	}
	for _, step := range steps {
		require.True(t, v.handleKey(step.msg, keys), step.msg.String())
		row, ok := v.CurrentRow()
		require.True(t, ok)
		require.Equal(t, step.wantRow, row, step.msg.String())
		require.Equal(t, step.wantSels, v.SelectedRows(), step.msg.String())
	}

	require.False(t, v.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}}, keys))
}
