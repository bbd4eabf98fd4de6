package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteTable(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		rows    [][]string
		want    string
	}{
		{
			name:    "aligns columns",
			headers: []string{"ID", "TITLE", "COVER"},
			rows: [][]string{
				{"1", "Dune", "yes"},
				{"12", "Emma", "no"},
			},
			want: "ID  TITLE  COVER\n1   Dune   yes\n12  Emma   no\n",
		},
		{
			name:    "short rows padded",
			headers: []string{"A", "B"},
			rows:    [][]string{{"x"}},
			want:    "A  B\nx\n",
		},
		{
			name:    "wide runes",
			headers: []string{"TITLE", "ID"},
			rows:    [][]string{{"三体", "3"}},
			want:    "TITLE  ID\n三体   3\n",
		},
		{name: "nothing", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, writeTable(&buf, tt.headers, tt.rows))
			require.Equal(t, tt.want, buf.String())
		})
	}
}

func TestWriteTableTruncatesLongCells(t *testing.T) {
	var buf bytes.Buffer
	long := strings.Repeat("x", maxCellWidth+10)
	require.NoError(t, writeTable(&buf, []string{"TITLE"}, [][]string{{long}}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, maxCellWidth, displayWidth(lines[1]))
	require.True(t, strings.HasSuffix(lines[1], "…"))
}

func TestStripANSI(t *testing.T) {
	require.Equal(t, "plain", stripANSI("plain"))
	require.Equal(t, "red", stripANSI("\x1b[31mred\x1b[0m"))
	require.Equal(t, 3, displayWidth("\x1b[1mabc\x1b[0m"))
}

func TestFormatYesNo(t *testing.T) {
	require.Equal(t, "yes", formatYesNo(true))
	require.Equal(t, "no", formatYesNo(false))
}
