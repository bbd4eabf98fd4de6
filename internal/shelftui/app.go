// Package shelftui is the interactive library browser: a book list and a
// cover grid kept on the same row and selection.
package shelftui

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/tOgg1/shelf/internal/library"
	"github.com/tOgg1/shelf/internal/logging"
	"github.com/tOgg1/shelf/internal/models"
	"github.com/tOgg1/shelf/internal/render"
	"github.com/tOgg1/shelf/internal/shelftui/state"
	"github.com/tOgg1/shelf/internal/shelftui/styles"
	"github.com/tOgg1/shelf/internal/viewsync"
)

const (
	StartList = "list"
	StartGrid = "grid"
	StartLast = "last"
)

var sortCycle = []models.SortField{
	models.SortByTitle,
	models.SortByAuthor,
	models.SortByAdded,
	models.SortByID,
}

type Config struct {
	Theme        string
	StartView    string
	StatePath    string
	CoverWidth   int
	CoverHeight  int
	CacheLimit   int
	DrainTimeout time.Duration

	// CoverDir is watched for "<id>.<ext>" files when WatchCovers is set.
	CoverDir    string
	WatchCovers bool
}

func (c Config) normalize() (Config, error) {
	c.Theme = strings.TrimSpace(c.Theme)
	if c.Theme == "" {
		c.Theme = "default"
	}
	if _, ok := styles.Themes[c.Theme]; !ok {
		return Config{}, fmt.Errorf("invalid theme %q", c.Theme)
	}
	switch c.StartView {
	case "":
		c.StartView = StartLast
	case StartList, StartGrid, StartLast:
	default:
		return Config{}, fmt.Errorf("invalid start view %q", c.StartView)
	}
	if c.CoverWidth <= 0 {
		c.CoverWidth = render.DefaultBoxWidth
	}
	if c.CoverHeight <= 0 {
		c.CoverHeight = render.DefaultBoxHeight
	}
	if c.DrainTimeout <= 0 {
		c.DrainTimeout = render.DefaultDrainTimeout
	}
	if c.WatchCovers && strings.TrimSpace(c.CoverDir) == "" {
		return Config{}, fmt.Errorf("watching covers needs a cover directory")
	}
	return c, nil
}

// dispatcher delivers messages from background goroutines to the program.
// Messages sent before a program is attached are dropped; the next paint
// picks up whatever they announced.
type dispatcher struct {
	send atomic.Pointer[func(tea.Msg)]
}

func (d *dispatcher) attach(send func(tea.Msg)) {
	d.send.Store(&send)
}

func (d *dispatcher) dispatch(msg tea.Msg) {
	if send := d.send.Load(); send != nil {
		(*send)(msg)
	}
}

// NotifyRendered implements render.Notifier.
func (d *dispatcher) NotifyRendered(id models.BookID) {
	d.dispatch(coverRenderedMsg{id: id})
}

// coverFileMsg reports a cover file picked up by the watcher.
type coverFileMsg struct {
	id  models.BookID
	err error
}

type pane interface {
	viewsync.View
	handleKey(msg tea.KeyMsg, keys keyMap) bool
	render(width, height int, theme styles.Theme) string
	dragDrop() *DragDrop
}

type Model struct {
	ctx      context.Context
	lib      *library.Library
	ctl      *viewsync.Controller[*library.Library]
	list     *listView
	grid     *gridView
	dispatch *dispatcher
	watcher  *library.CoverWatcher
	tuiState *state.Manager
	theme    styles.Theme
	keys     keyMap
	help     help.Model
	logger   zerolog.Logger

	width    int
	height   int
	showHelp bool
	status   string
}

func NewModel(ctx context.Context, lib *library.Library, cfg Config) (*Model, error) {
	normalized, err := cfg.normalize()
	if err != nil {
		return nil, err
	}

	dnd := NewDragDrop(lib)
	m := &Model{
		ctx:      ctx,
		lib:      lib,
		dispatch: &dispatcher{},
		tuiState: state.New(normalized.StatePath),
		theme:    styles.Lookup(normalized.Theme),
		keys:     defaultKeyMap(),
		help:     help.New(),
		logger:   logging.FromContext(ctx),
	}
	if err := m.tuiState.Load(); err != nil {
		// Non-fatal: fall back to in-memory defaults.
		m.logger.Warn().Err(err).Str("path", normalized.StatePath).Msg("session state not loaded")
	}

	m.list = newListView(lib, dnd)
	m.grid = newGridView(dnd, m.dispatch, gridOptions{
		coverWidth:   normalized.CoverWidth,
		coverHeight:  normalized.CoverHeight,
		cacheLimit:   normalized.CacheLimit,
		drainTimeout: normalized.DrainTimeout,
	})

	m.ctl = viewsync.New[*library.Library](m.list)
	if err := m.ctl.Register(GridKey, m.grid); err != nil {
		return nil, err
	}
	m.ctl.PropagateSourceChange(lib, viewsync.PhaseSwap)
	m.ctl.PropagateSourceChange(lib, viewsync.PhaseRefresh)

	if normalized.WatchCovers {
		watcher, err := library.NewCoverWatcher(lib, normalized.CoverDir)
		if err != nil {
			m.grid.Close()
			return nil, err
		}
		watcher.OnChange(func(id models.BookID, err error) {
			m.dispatch.dispatch(coverFileMsg{id: id, err: err})
		})
		m.watcher = watcher
	}

	m.restore(normalized.StartView)
	return m, nil
}

// restore applies the saved sort, cursor, help toggle and start view.
func (m *Model) restore(startView string) {
	if field, asc, ok := m.tuiState.Sort(); ok {
		if err := m.lib.Sort(m.ctx, models.SortField(field), asc); err != nil {
			m.logger.Debug().Err(err).Str("field", field).Msg("saved sort ignored")
		} else {
			m.ctl.PropagateSourceChange(m.lib, viewsync.PhaseRefresh)
			m.list.reset()
		}
	}

	row := 0
	if saved := m.tuiState.LastBook(); saved > 0 {
		if r, ok := m.lib.Row(models.BookID(saved)); ok {
			row = r
		}
	}
	m.list.jump(row)
	m.showHelp = m.tuiState.ShowHelp()
	m.help.ShowAll = m.showHelp

	viewKey := viewsync.PrimaryKey
	switch startView {
	case StartGrid:
		viewKey = GridKey
	case StartLast:
		viewKey = m.tuiState.LastView()
	}
	if err := m.ctl.Activate(viewKey); err != nil {
		m.logger.Debug().Err(err).Str("view", viewKey).Msg("saved view ignored")
	}
}

// Run starts the browser on lib and blocks until it exits.
func Run(ctx context.Context, lib *library.Library, cfg Config) error {
	model, err := NewModel(ctx, lib, cfg)
	if err != nil {
		return err
	}
	defer model.Close()

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	model.Attach(program.Send)
	_, err = program.Run()
	return err
}

// Attach connects background notifications to a running program and starts
// the cover watcher.
func (m *Model) Attach(send func(tea.Msg)) {
	m.dispatch.attach(send)
	if m.watcher != nil {
		m.watcher.Start(m.ctx)
	}
}

// Close stops background work and saves the session.
func (m *Model) Close() error {
	if m == nil {
		return nil
	}
	if m.watcher != nil {
		_ = m.watcher.Close()
	}
	m.grid.Close()

	m.tuiState.SetLastView(m.ctl.CurrentKey())
	if row, ok := m.list.CurrentRow(); ok {
		if id, ok := m.lib.ID(row); ok {
			m.tuiState.SetLastBook(int64(id))
		}
	}
	field, asc := m.lib.Sorting()
	m.tuiState.SetSort(string(field), asc)
	m.tuiState.SetShowHelp(m.showHelp)
	return m.tuiState.Close()
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		m.help.Width = typed.Width
		return m, nil
	case coverRenderedMsg:
		m.grid.coverRendered(typed.id)
		return m, nil
	case coverFileMsg:
		if typed.err != nil {
			m.status = fmt.Sprintf("cover file: %v", typed.err)
		} else {
			m.status = fmt.Sprintf("cover of %q updated", m.lib.Title(typed.id))
		}
		return m, nil
	case filesDroppedMsg:
		m.filesDropped(typed)
		return m, nil
	case selectionCopiedMsg:
		if typed.err != nil {
			m.status = fmt.Sprintf("copy failed: %v", typed.err)
		} else {
			m.status = fmt.Sprintf("copied %d id(s)", typed.count)
		}
		return m, nil
	case tea.KeyMsg:
		if typed.Paste {
			if cmd := m.activePane().dragDrop().Drop(m.ctx, string(typed.Runes)); cmd != nil {
				m.status = "importing…"
				return m, cmd
			}
			return m, nil
		}
		return m, m.handleKey(typed)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		return nil
	case key.Matches(msg, m.keys.SwitchView):
		m.toggleView()
		return nil
	case key.Matches(msg, m.keys.Sort):
		field, asc := m.lib.Sorting()
		m.sort(nextSortField(field), asc)
		return nil
	case key.Matches(msg, m.keys.Reverse):
		field, asc := m.lib.Sorting()
		m.sort(field, !asc)
		return nil
	case key.Matches(msg, m.keys.Refresh):
		m.reload()
		return nil
	case key.Matches(msg, m.keys.Copy):
		active := m.activePane()
		return active.dragDrop().Copy(dragIDs(m.lib, active))
	}
	m.activePane().handleKey(msg, m.keys)
	return nil
}

func (m *Model) activePane() pane {
	if m.ctl.CurrentKey() == GridKey {
		return m.grid
	}
	return m.list
}

func (m *Model) toggleView() {
	next := GridKey
	if m.ctl.CurrentKey() == GridKey {
		next = viewsync.PrimaryKey
	}
	if err := m.ctl.Activate(next); err != nil {
		m.status = err.Error()
		return
	}
	m.tuiState.SetLastView(next)
}

// sort reorders the library for whichever view asked and moves every view to
// the new row order, keeping the cursor on the same book. Covers are keyed by
// book, so the grid keeps its cache.
func (m *Model) sort(field models.SortField, ascending bool) {
	if err := m.lib.Sort(m.ctx, field, ascending); err != nil {
		m.status = err.Error()
		return
	}
	m.libraryChanged(false)
	dir := "ascending"
	if !ascending {
		dir = "descending"
	}
	m.status = fmt.Sprintf("sorted by %s, %s", field, dir)
}

func (m *Model) reload() {
	if err := m.lib.Reload(m.ctx); err != nil {
		m.status = err.Error()
		return
	}
	m.libraryChanged(true)
	m.status = "reloaded"
}

func (m *Model) filesDropped(msg filesDroppedMsg) {
	added := len(msg.result.Added)
	switch {
	case msg.err != nil && added == 0:
		m.status = fmt.Sprintf("import failed: %v", msg.err)
	case msg.err != nil:
		m.status = fmt.Sprintf("imported %d of %d file(s): %v", added, len(msg.paths), msg.err)
	default:
		m.status = fmt.Sprintf("imported %d file(s)", added)
	}
	if added > 0 {
		m.libraryChanged(false)
	}
}

// libraryChanged brings every view back in line with the library rows. With
// refresh the secondary views also drop derived state.
func (m *Model) libraryChanged(refresh bool) {
	var keep models.BookID
	if row, ok := m.list.CurrentRow(); ok {
		keep, _ = m.lib.ID(row)
	}

	if refresh {
		m.ctl.PropagateSourceChange(m.lib, viewsync.PhaseRefresh)
	} else {
		m.grid.reset()
	}
	m.list.reset()
	m.list.clear()

	row := 0
	if keep != 0 {
		if r, ok := m.lib.Row(keep); ok {
			row = r
		}
	}
	m.list.jump(row)
}

func nextSortField(field models.SortField) models.SortField {
	for i, f := range sortCycle {
		if f == field {
			return sortCycle[(i+1)%len(sortCycle)]
		}
	}
	return sortCycle[0]
}

func (m *Model) View() string {
	header := m.renderHeader()
	footer := m.renderFooter()
	contentHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 1)
	body := m.activePane().render(m.width, contentHeight, m.theme)
	body = lipgloss.NewStyle().Height(contentHeight).MaxHeight(contentHeight).Render(body)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m *Model) renderHeader() string {
	view := "list"
	if m.ctl.CurrentKey() == GridKey {
		view = "grid"
	}
	field, asc := m.lib.Sorting()
	dir := "↑"
	if !asc {
		dir = "↓"
	}
	title := fmt.Sprintf("shelf · %s · %d books · %s · %s %s", m.lib.Name(), m.lib.Len(), view, field, dir)
	if sel := len(m.activePane().SelectedRows()); sel > 1 {
		title += fmt.Sprintf(" · %d selected", sel)
	}
	return m.theme.HeaderStyle().Render(title)
}

func (m *Model) renderFooter() string {
	lines := make([]string, 0, 2)
	if m.status != "" {
		lines = append(lines, m.theme.FooterStyle().Render(m.status))
	}
	lines = append(lines, m.help.View(m.keys))
	return strings.Join(lines, "\n")
}
