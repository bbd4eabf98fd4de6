// Package styles holds the browser's color themes and grid geometry.
package styles

import "github.com/charmbracelet/lipgloss"

// BaseColors defines global UI colors.
type BaseColors struct {
	Background string
	Foreground string
	Muted      string
	Accent     string
	Border     string
}

// ChromeColors defines non-content UI colors.
type ChromeColors struct {
	Header       string
	Footer       string
	SelectedItem string
	CurrentItem  string
	Status       string
}

// TileColors defines the cover grid palette.
type TileColors struct {
	Border         string
	CurrentBorder  string
	SelectedBorder string
	Fallback       string
	FallbackText   string
}

// Theme defines the browser style tokens.
type Theme struct {
	Name        string
	BorderStyle string // "rounded", "sharp", "double", "hidden"

	Base   BaseColors
	Chrome ChromeColors
	Tiles  TileColors
}

// Themes lists available palettes by name.
var Themes = map[string]Theme{
	"default":       DefaultTheme,
	"high-contrast": HighContrastTheme,
}

// Lookup returns the theme called name, falling back to DefaultTheme.
func Lookup(name string) Theme {
	if theme, ok := Themes[name]; ok {
		return theme
	}
	return DefaultTheme
}

// HeaderStyle styles the top bar.
func (t Theme) HeaderStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(t.Chrome.Header))
}

// FooterStyle styles the status line.
func (t Theme) FooterStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Chrome.Footer))
}

// MutedStyle styles secondary text.
func (t Theme) MutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Base.Muted))
}

// RowStyle styles one list row.
func (t Theme) RowStyle(current, selected bool) lipgloss.Style {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(t.Base.Foreground))
	if selected {
		style = style.Foreground(lipgloss.Color(t.Chrome.SelectedItem))
	}
	if current {
		style = style.Bold(true).Reverse(true)
	}
	return style
}

// TileStyle styles the frame around one cover tile.
func (t Theme) TileStyle(current, selected bool) lipgloss.Style {
	color := t.Tiles.Border
	switch {
	case current:
		color = t.Tiles.CurrentBorder
	case selected:
		color = t.Tiles.SelectedBorder
	}
	return lipgloss.NewStyle().
		Border(t.tileBorder()).
		BorderForeground(lipgloss.Color(color))
}

// FallbackStyle styles the title drawn in place of a missing cover.
func (t Theme) FallbackStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(t.Tiles.FallbackText)).
		Background(lipgloss.Color(t.Tiles.Fallback))
}

func (t Theme) tileBorder() lipgloss.Border {
	switch t.BorderStyle {
	case "double":
		return lipgloss.DoubleBorder()
	case "sharp":
		return lipgloss.NormalBorder()
	case "hidden":
		return lipgloss.HiddenBorder()
	default:
		return lipgloss.RoundedBorder()
	}
}
