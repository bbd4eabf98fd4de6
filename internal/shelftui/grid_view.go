package shelftui

import (
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/rs/zerolog"

	"github.com/tOgg1/shelf/internal/covercache"
	"github.com/tOgg1/shelf/internal/library"
	"github.com/tOgg1/shelf/internal/logging"
	"github.com/tOgg1/shelf/internal/models"
	"github.com/tOgg1/shelf/internal/render"
	"github.com/tOgg1/shelf/internal/shelftui/styles"
	"github.com/tOgg1/shelf/internal/viewsync"
)

// GridKey is the view key of the cover grid.
const GridKey = "grid"

// coverRenderedMsg asks the grid to repaint the tile of one book.
type coverRenderedMsg struct {
	id models.BookID
}

type gridOptions struct {
	coverWidth   int
	coverHeight  int
	cacheLimit   int
	drainTimeout time.Duration
}

// gridView is a secondary view drawing one cover tile per book. It owns a
// cover cache and the render worker that fills it.
type gridView struct {
	rowState
	lib    *library.Library
	dnd    *DragDrop
	cache  *covercache.Cache
	worker *render.Worker
	geom   styles.GridGeometry

	drainTimeout time.Duration
	pending      map[models.BookID]struct{} // requested, not yet reported
	offset       int // first visible tile row
	cols         int
	visibleRows  int
	repaints     int
	logger       zerolog.Logger
}

func newGridView(dnd *DragDrop, notifier render.Notifier, opts gridOptions) *gridView {
	cache := covercache.New(opts.cacheLimit, covercache.WithConverter(CoverPixmap))
	g := &gridView{
		dnd:          dnd,
		cache:        cache,
		geom:         styles.ComputeGrid(opts.coverWidth, opts.coverHeight),
		drainTimeout: opts.drainTimeout,
		pending:      make(map[models.BookID]struct{}),
		cols:         1,
		visibleRows:  1,
		logger:       logging.WithView("grid", GridKey),
	}
	g.worker = render.NewWorker(render.NewQueue(), cache, notifier,
		render.WithBox(opts.coverWidth, opts.coverHeight),
		render.WithLogger(g.logger.With().Str("cache", cache.Handle()).Logger()))
	g.rowState = newRowState(g.rowCount)
	return g
}

func (g *gridView) rowCount() int {
	if g.lib == nil {
		return 0
	}
	return g.lib.Len()
}

// Shown starts the render worker the first time the grid is displayed.
func (g *gridView) Shown() {
	if g.worker.Running() {
		return
	}
	if err := g.worker.Start(); err != nil && !errors.Is(err, render.ErrWorkerAlreadyRunning) {
		g.logger.Warn().Err(err).Msg("render worker not started")
	}
}

// SetSource moves the grid to lib. The swap phase quiesces the worker and
// moves the cache registration; the refresh phase drops cached covers.
func (g *gridView) SetSource(lib *library.Library, phase viewsync.Phase) {
	switch phase {
	case viewsync.PhaseSwap:
		g.worker.SetCancelled(true)
		clear(g.pending)
		if g.lib != nil {
			g.lib.RemoveCoverCache(g.cache)
		}
		if lib != nil {
			if err := lib.AddCoverCache(g.cache); err != nil {
				g.logger.Warn().Err(err).Msg("cover cache not registered with library")
			}
		}
		if err := g.worker.Drain(g.drainTimeout); err != nil {
			g.logger.Warn().
				Err(err).
				Int("pending", g.worker.Queue().Unfinished()).
				Dur("timeout", g.drainTimeout).
				Msg("render queue did not drain before library switch")
		}
		g.lib = lib
		if lib != nil {
			g.worker.SetSource(lib)
		} else {
			g.worker.SetSource(nil)
		}
		g.worker.SetCancelled(false)
	case viewsync.PhaseRefresh:
		g.cache.Clear()
		clear(g.pending)
		g.offset = 0
		g.reset()
	}
}

// Close stops the worker without waiting and leaves the invalidation registry.
func (g *gridView) Close() {
	g.worker.Shutdown()
	if g.lib != nil {
		g.lib.RemoveCoverCache(g.cache)
	}
}

// coverRendered resolves a finished render to its row. It reports false when
// the book is no longer in the library.
func (g *gridView) coverRendered(id models.BookID) bool {
	delete(g.pending, id)
	if g.lib == nil {
		return false
	}
	if _, ok := g.lib.Row(id); !ok {
		return false
	}
	g.repaints++
	return true
}

func (g *gridView) dragDrop() *DragDrop { return g.dnd }

func (g *gridView) handleKey(msg tea.KeyMsg, keys keyMap) bool {
	cols := max(g.cols, 1)
	page := cols * max(g.visibleRows, 1)
	switch {
	case key.Matches(msg, keys.Left):
		g.move(-1, false)
	case key.Matches(msg, keys.Right):
		g.move(1, false)
	case key.Matches(msg, keys.Up):
		g.move(-cols, false)
	case key.Matches(msg, keys.Down):
		g.move(cols, false)
	case key.Matches(msg, keys.ExtendUp):
		g.move(-cols, true)
	case key.Matches(msg, keys.ExtendDown):
		g.move(cols, true)
	case key.Matches(msg, keys.PageUp):
		g.move(-page, false)
	case key.Matches(msg, keys.PageDown):
		g.move(page, false)
	case key.Matches(msg, keys.Home):
		g.jump(0)
	case key.Matches(msg, keys.End):
		g.jump(g.rowCount() - 1)
	case key.Matches(msg, keys.Toggle):
		g.toggle()
	case key.Matches(msg, keys.SelectAll):
		g.selectAll()
	default:
		return false
	}
	return true
}

func (g *gridView) render(width, height int, theme styles.Theme) string {
	n := g.rowCount()
	if n == 0 {
		return theme.MutedStyle().Render("No covers to show.")
	}

	g.cols = g.geom.Columns(width)
	g.visibleRows = g.geom.Rows(height)
	// The cache holds at least every visible tile.
	if visible := g.cols * g.visibleRows; g.cache.Grow(visible) {
		g.logger.Debug().Int("limit", visible).Msg("cover cache grown to visible tiles")
	}
	if g.cursor >= 0 {
		tileRow := g.cursor / g.cols
		if tileRow < g.offset {
			g.offset = tileRow
		}
		if tileRow >= g.offset+g.visibleRows {
			g.offset = tileRow - g.visibleRows + 1
		}
	}
	lastTileRow := (n - 1) / g.cols
	g.offset = max(min(g.offset, lastTileRow), 0)

	gap := strings.Repeat(" ", g.geom.Spacing)
	rows := make([]string, 0, g.visibleRows)
	for tr := g.offset; tr <= lastTileRow && tr < g.offset+g.visibleRows; tr++ {
		tiles := make([]string, 0, 2*g.cols)
		for c := 0; c < g.cols; c++ {
			row := tr*g.cols + c
			if row >= n {
				break
			}
			if c > 0 {
				tiles = append(tiles, gap)
			}
			tiles = append(tiles, g.paint(row, theme))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, tiles...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// paint draws one tile. A cover not yet known is requested from the worker
// once and drawn as its title until the repaint arrives.
func (g *gridView) paint(row int, theme styles.Theme) string {
	id, ok := g.lib.ID(row)
	if !ok {
		return ""
	}
	title := g.lib.Title(id)

	var cover string
	value := g.cache.Get(id)
	switch value.Kind() {
	case covercache.KindUnset:
		cover = fallbackCover(title, g.geom, theme)
		if _, ok := g.pending[id]; !ok {
			g.pending[id] = struct{}{}
			g.worker.Enqueue(id)
		}
	case covercache.KindAbsent:
		cover = fallbackCover(title, g.geom, theme)
	default:
		if pixmap, ok := value.Pixmap(); ok {
			cover = placeCover(pixmap, g.geom)
		} else {
			cover = fallbackCover(title, g.geom, theme)
		}
	}

	caption := runewidth.FillRight(runewidth.Truncate(title, g.geom.CoverCols, "…"), g.geom.CoverCols)
	body := lipgloss.JoinVertical(lipgloss.Left, cover, caption)
	return theme.TileStyle(row == g.cursor, g.selection.Contains(row)).Render(body)
}
