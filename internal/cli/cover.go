package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tOgg1/shelf/internal/models"
)

func init() {
	rootCmd.AddCommand(coverCmd)
	coverCmd.AddCommand(coverSetCmd)
	coverCmd.AddCommand(coverClearCmd)
}

var coverCmd = &cobra.Command{
	Use:   "cover",
	Short: "Manage book covers",
}

var coverSetCmd = &cobra.Command{
	Use:   "set <id> <image>",
	Short: "Replace a book's cover",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := models.ParseBookID(args[0])
		if err != nil {
			return err
		}
		data, err := readCoverFile(args[1])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		lib, database, err := openLibrary(ctx)
		if err != nil {
			return err
		}
		defer database.Close()

		if err := lib.SetCover(ctx, id, data, args[1]); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(out, map[string]any{"id": id, "has_cover": true, "bytes": len(data)})
		}
		fmt.Fprintf(out, "Cover of %s set (%d bytes).\n", id, len(data))
		printNextSteps(out, HintContext{Action: "cover_set", BookID: id, HasCover: true})
		return nil
	},
}

var coverClearCmd = &cobra.Command{
	Use:   "clear <id>",
	Short: "Remove a book's cover",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := models.ParseBookID(args[0])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		lib, database, err := openLibrary(ctx)
		if err != nil {
			return err
		}
		defer database.Close()

		if err := lib.ClearCover(ctx, id); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(out, map[string]any{"id": id, "has_cover": false})
		}
		fmt.Fprintf(out, "Cover of %s cleared.\n", id)
		return nil
	},
}
