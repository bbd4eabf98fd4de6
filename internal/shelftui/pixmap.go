package shelftui

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"

	"github.com/tOgg1/shelf/internal/covercache"
	"github.com/tOgg1/shelf/internal/shelftui/styles"
)

const halfBlock = "▀"

// CoverPixmap draws img with upper half blocks: each cell shows pixel (x, 2y)
// in the foreground and (x, 2y+1) in the background.
func CoverPixmap(img image.Image) covercache.Pixmap {
	if img == nil {
		return covercache.Pixmap{}
	}
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	rows := (height + 1) / 2

	lines := make([]string, 0, rows)
	for y := 0; y < rows; y++ {
		var line strings.Builder
		for x := 0; x < width; x++ {
			style := lipgloss.NewStyle().Foreground(hexColor(img.At(b.Min.X+x, b.Min.Y+2*y)))
			if 2*y+1 < height {
				style = style.Background(hexColor(img.At(b.Min.X+x, b.Min.Y+2*y+1)))
			}
			line.WriteString(style.Render(halfBlock))
		}
		lines = append(lines, line.String())
	}
	return covercache.Pixmap{Width: width, Height: rows, Lines: lines}
}

func hexColor(c color.Color) lipgloss.Color {
	r, g, b, _ := c.RGBA()
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8))
}

// placeCover centers a pixmap horizontally and aligns it to the bottom of the
// cover box.
func placeCover(p covercache.Pixmap, geom styles.GridGeometry) string {
	return lipgloss.Place(geom.CoverCols, geom.CoverRows, lipgloss.Center, lipgloss.Bottom,
		strings.Join(p.Lines, "\n"))
}

// fallbackCover is drawn while a cover is pending or when there is none: the
// title wrapped into the cover box.
func fallbackCover(title string, geom styles.GridGeometry, theme styles.Theme) string {
	lines := wrapTitle(title, geom.CoverCols, geom.CoverRows)
	return theme.FallbackStyle().
		Width(geom.CoverCols).
		Height(geom.CoverRows).
		Align(lipgloss.Center, lipgloss.Center).
		Render(strings.Join(lines, "\n"))
}

func wrapTitle(title string, width, maxLines int) []string {
	if width <= 0 || maxLines <= 0 {
		return nil
	}
	wrapped := strings.Split(wordwrap.String(strings.TrimSpace(title), width), "\n")
	if len(wrapped) > maxLines {
		wrapped = wrapped[:maxLines]
		wrapped[maxLines-1] = runewidth.Truncate(wrapped[maxLines-1]+"…", width, "…")
	}
	for i, line := range wrapped {
		wrapped[i] = runewidth.Truncate(strings.TrimSpace(line), width, "…")
	}
	return wrapped
}
