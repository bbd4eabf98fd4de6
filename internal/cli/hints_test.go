package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/shelf/internal/models"
)

func TestGenerateHints(t *testing.T) {
	tests := []struct {
		name     string
		ctx      HintContext
		contains []string
		empty    bool
	}{
		{name: "add without cover", ctx: HintContext{Action: "add", BookID: 4}, contains: []string{"shelf cover set 4", "shelf list"}},
		{name: "add with cover", ctx: HintContext{Action: "add", BookID: 4, HasCover: true}, contains: []string{"shelf list"}},
		{name: "add without id", ctx: HintContext{Action: "add"}, empty: true},
		{name: "import nothing", ctx: HintContext{Action: "import"}, contains: []string{"import --help"}},
		{name: "import without covers", ctx: HintContext{Action: "import", BookIDs: []models.BookID{1}}, contains: []string{"import-covers"}},
		{name: "empty list", ctx: HintContext{Action: "list", Empty: true}, contains: []string{"shelf add", "shelf import"}},
		{name: "full list", ctx: HintContext{Action: "list"}, empty: true},
		{name: "cover set", ctx: HintContext{Action: "cover_set"}, contains: []string{"shelf ui"}},
		{name: "unknown", ctx: HintContext{Action: "rm"}, empty: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hints := generateHints(tt.ctx)
			if tt.empty {
				require.Empty(t, hints)
				return
			}
			joined := ""
			for _, h := range hints {
				joined += h + "\n"
			}
			for _, want := range tt.contains {
				require.Contains(t, joined, want)
			}
		})
	}

	withCover := generateHints(HintContext{Action: "add", BookID: 4, HasCover: true})
	for _, h := range withCover {
		require.NotContains(t, h, "cover set")
	}
}

func TestPrintNextStepsSkippedForJSON(t *testing.T) {
	t.Cleanup(func() { jsonOutput, jsonlOutput = false, false })

	var buf bytes.Buffer
	printNextSteps(&buf, HintContext{Action: "list", Empty: true})
	require.Contains(t, buf.String(), "Next steps:")

	buf.Reset()
	jsonOutput = true
	printNextSteps(&buf, HintContext{Action: "list", Empty: true})
	require.Empty(t, buf.String())

	jsonOutput, jsonlOutput = false, true
	printNextSteps(&buf, HintContext{Action: "list", Empty: true})
	require.Empty(t, buf.String())
}
