package cli

import (
	"bufio"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

const (
	tablePadding = 2

	// maxCellWidth caps free-text columns such as titles and paths.
	maxCellWidth = 48
)

// writeTable writes rows aligned on display width. Cells wider than
// maxCellWidth are truncated with an ellipsis.
func writeTable(out io.Writer, headers []string, rows [][]string) error {
	colCount := len(headers)
	for _, row := range rows {
		colCount = max(colCount, len(row))
	}
	if colCount == 0 {
		return nil
	}

	cells := make([][]string, 0, len(rows)+1)
	if len(headers) > 0 {
		cells = append(cells, headers)
	}
	for _, row := range rows {
		fitted := make([]string, len(row))
		for idx, cell := range row {
			fitted[idx] = truncateCell(cell, maxCellWidth)
		}
		cells = append(cells, fitted)
	}

	widths := make([]int, colCount)
	for _, row := range cells {
		for idx, cell := range row {
			widths[idx] = max(widths[idx], displayWidth(cell))
		}
	}

	w := bufio.NewWriter(out)
	for _, row := range cells {
		var line strings.Builder
		for idx := 0; idx < colCount; idx++ {
			cell := ""
			if idx < len(row) {
				cell = row[idx]
			}
			line.WriteString(cell)
			if idx < colCount-1 {
				line.WriteString(strings.Repeat(" ", max(widths[idx]-displayWidth(cell), 0)+tablePadding))
			}
		}
		line.WriteString("\n")
		if _, err := w.WriteString(strings.TrimRight(line.String(), " \n") + "\n"); err != nil {
			return err
		}
	}
	return w.Flush()
}

func displayWidth(value string) int {
	return runewidth.StringWidth(stripANSI(value))
}

func truncateCell(value string, limit int) string {
	if limit <= 0 || displayWidth(value) <= limit {
		return value
	}
	return runewidth.Truncate(stripANSI(value), limit, "…")
}

func formatYesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func stripANSI(value string) string {
	if !strings.Contains(value, "\x1b[") {
		return value
	}
	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		if value[i] != 0x1b || i+1 >= len(value) || value[i+1] != '[' {
			b.WriteByte(value[i])
			continue
		}
		i += 2
		for i < len(value) {
			ch := value[i]
			if ch >= 0x40 && ch <= 0x7e {
				break
			}
			i++
		}
	}
	return b.String()
}
