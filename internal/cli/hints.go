package cli

import (
	"fmt"
	"io"

	"github.com/tOgg1/shelf/internal/models"
)

// HintContext provides context for generating relevant next steps.
type HintContext struct {
	// Action is the command that was executed (e.g., "add", "cover_set").
	Action string

	// BookID is the book involved (if any).
	BookID models.BookID

	// BookIDs lists books touched by bulk operations.
	BookIDs []models.BookID

	// HasCover reports whether the book now has a cover.
	HasCover bool

	// Empty is set when a listing returned nothing.
	Empty bool
}

// printNextSteps prints contextual next steps after a successful command.
// Does nothing if JSON output is enabled.
func printNextSteps(out io.Writer, ctx HintContext) {
	if IsJSONOutput() || IsJSONLOutput() {
		return
	}

	hints := generateHints(ctx)
	if len(hints) == 0 {
		return
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Next steps:")
	for _, hint := range hints {
		fmt.Fprintf(out, "  %s\n", hint)
	}
}

func generateHints(ctx HintContext) []string {
	switch ctx.Action {
	case "add":
		return hintsForAdd(ctx)
	case "import":
		return hintsForImport(ctx)
	case "list":
		if ctx.Empty {
			return []string{
				"shelf add <title>                 # add a book",
				"shelf import <files...>           # add books from files",
			}
		}
		return nil
	case "cover_set":
		return []string{"shelf ui                          # browse the cover grid"}
	default:
		return nil
	}
}

func hintsForAdd(ctx HintContext) []string {
	if ctx.BookID == 0 {
		return nil
	}
	hints := make([]string, 0, 2)
	if !ctx.HasCover {
		hints = append(hints, fmt.Sprintf("shelf cover set %s <image>       # attach a cover", ctx.BookID))
	}
	hints = append(hints, "shelf list                        # show the library")
	return hints
}

func hintsForImport(ctx HintContext) []string {
	if len(ctx.BookIDs) == 0 {
		return []string{"shelf import --help               # supported inputs"}
	}
	hints := []string{"shelf list                        # show the library"}
	if !ctx.HasCover {
		hints = append(hints, "shelf import-covers <dir>         # attach <id>.png covers")
	}
	return hints
}
