package styles

const (
	// TileBorder is the frame width on each side of a tile.
	TileBorder = 1

	// TileCaptionLines is the title line under each cover.
	TileCaptionLines = 1

	minSpacing = 1
	maxSpacing = 4
)

// GridGeometry is the cell layout of the cover grid for a cover box of
// CoverWidth x CoverHeight presentation pixels. One cell is one pixel wide
// and two pixels tall.
type GridGeometry struct {
	CoverCols  int
	CoverRows  int
	TileWidth  int
	TileHeight int
	Spacing    int
}

// ComputeGrid returns the tile geometry for a cover box.
func ComputeGrid(coverWidth, coverHeight int) GridGeometry {
	cols := max(coverWidth, 1)
	rows := max((coverHeight+1)/2, 1)
	return GridGeometry{
		CoverCols:  cols,
		CoverRows:  rows,
		TileWidth:  cols + 2*TileBorder,
		TileHeight: rows + TileCaptionLines + 2*TileBorder,
		Spacing:    clampInt(cols/10, minSpacing, maxSpacing),
	}
}

// Columns returns how many tiles fit side by side in width cells.
func (g GridGeometry) Columns(width int) int {
	if g.TileWidth <= 0 || width < g.TileWidth {
		return 1
	}
	return 1 + (width-g.TileWidth)/(g.TileWidth+g.Spacing)
}

// Rows returns how many tile rows fit in height cells.
func (g GridGeometry) Rows(height int) int {
	if g.TileHeight <= 0 || height < g.TileHeight {
		return 1
	}
	return 1 + (height-g.TileHeight)/(g.TileHeight+g.Spacing/2)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
