package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tOgg1/shelf/internal/library"
	"github.com/tOgg1/shelf/internal/models"
)

var (
	addAuthor string
	addPath   string
	addCover  string

	listSort string
	listDesc bool

	rmYes bool
)

func init() {
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(importCoversCmd)

	addCmd.Flags().StringVar(&addAuthor, "author", "", "book author")
	addCmd.Flags().StringVar(&addPath, "path", "", "path to the book file")
	addCmd.Flags().StringVar(&addCover, "cover", "", "cover image to attach")

	listCmd.Flags().StringVar(&listSort, "sort", "", "sort by title, author, added, or id (default from config)")
	listCmd.Flags().BoolVar(&listDesc, "desc", false, "sort descending")

	rmCmd.Flags().BoolVarP(&rmYes, "yes", "y", false, "do not ask for confirmation")
}

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a book",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		lib, database, err := openLibrary(ctx)
		if err != nil {
			return err
		}
		defer database.Close()

		var coverData []byte
		if addCover != "" {
			coverData, err = readCoverFile(addCover)
			if err != nil {
				return err
			}
		}

		book := &models.Book{
			Title:  strings.Join(args, " "),
			Author: strings.TrimSpace(addAuthor),
			Path:   addPath,
		}
		if err := lib.Add(ctx, book); err != nil {
			return err
		}
		if coverData != nil {
			if err := lib.SetCover(ctx, book.ID, coverData, addCover); err != nil {
				return err
			}
			book.HasCover = true
		}

		out := cmd.OutOrStdout()
		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(out, book)
		}
		fmt.Fprintf(out, "Added %s: %s\n", book.ID, book.Title)
		printNextSteps(out, HintContext{Action: "add", BookID: book.ID, HasCover: book.HasCover})
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List books",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		lib, database, err := openLibrary(ctx)
		if err != nil {
			return err
		}
		defer database.Close()

		field, asc := lib.Sorting()
		if listSort != "" {
			field = models.SortField(listSort)
			asc = true
		}
		if listDesc {
			asc = false
		}
		if err := lib.Sort(ctx, field, asc); err != nil {
			return err
		}

		books := make([]*models.Book, 0, lib.Len())
		for row := 0; row < lib.Len(); row++ {
			book, err := lib.Book(row)
			if err != nil {
				return err
			}
			books = append(books, &book)
		}

		out := cmd.OutOrStdout()
		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(out, books)
		}
		if len(books) == 0 {
			fmt.Fprintln(out, "No books found.")
			printNextSteps(out, HintContext{Action: "list", Empty: true})
			return nil
		}

		rows := make([][]string, 0, len(books))
		for _, b := range books {
			rows = append(rows, []string{
				b.ID.String(),
				b.Title,
				b.Author,
				formatYesNo(b.HasCover),
				b.AddedAt.Local().Format("2006-01-02"),
			})
		}
		return writeTable(out, []string{"ID", "TITLE", "AUTHOR", "COVER", "ADDED"}, rows)
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <id>...",
	Short: "Remove books",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseBookIDs(args)
		if err != nil {
			return err
		}
		if !rmYes && IsNonInteractive() {
			return &PreflightError{
				Message:  "refusing to remove books without confirmation",
				Hint:     "Pass --yes when running without a terminal",
				NextStep: "shelf rm --yes " + strings.Join(args, " "),
			}
		}

		ctx := cmd.Context()
		lib, database, err := openLibrary(ctx)
		if err != nil {
			return err
		}
		defer database.Close()

		out := cmd.OutOrStdout()
		if !rmYes && !confirm(cmd, fmt.Sprintf("Remove %d book(s)?", len(ids))) {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}

		err = lib.Remove(ctx, ids...)
		if IsJSONOutput() || IsJSONLOutput() {
			if writeErr := WriteOutput(out, map[string]any{"removed": len(ids), "error": errString(err)}); writeErr != nil {
				return writeErr
			}
			return err
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Removed %d book(s).\n", len(ids))
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Add one book per file",
	Long: `Add one book per file, titled after the file name.

An image next to a file with the same base name (Dune.epub, Dune.png)
becomes the book's cover.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		lib, database, err := openLibrary(ctx)
		if err != nil {
			return err
		}
		defer database.Close()

		result, importErr := lib.Import(ctx, absPaths(args))
		return reportImport(cmd, result, importErr)
	},
}

var importCoversCmd = &cobra.Command{
	Use:   "import-covers [dir]",
	Short: "Attach <id>.<ext> images in a directory as covers",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := GetConfig().Library.CoverDir
		if len(args) == 1 {
			dir = args[0]
		}
		if dir == "" {
			return &PreflightError{
				Message:  "no cover directory given",
				Hint:     "Pass a directory or set library.cover_dir",
				NextStep: "shelf import-covers ./covers",
			}
		}

		ctx := cmd.Context()
		lib, database, err := openLibrary(ctx)
		if err != nil {
			return err
		}
		defer database.Close()

		result, importErr := lib.ImportCovers(ctx, dir)
		return reportImport(cmd, result, importErr)
	},
}

func reportImport(cmd *cobra.Command, result library.ImportResult, importErr error) error {
	out := cmd.OutOrStdout()
	if IsJSONOutput() || IsJSONLOutput() {
		if err := WriteOutput(out, result); err != nil {
			return err
		}
		return importErr
	}

	fmt.Fprintf(out, "Added %d book(s), attached %d cover(s), skipped %d.\n",
		len(result.Added), len(result.Covers), len(result.Skipped))
	for _, path := range result.Skipped {
		fmt.Fprintf(out, "  skipped %s\n", path)
	}
	printNextSteps(out, HintContext{
		Action:   "import",
		BookIDs:  result.Added,
		HasCover: len(result.Covers) > 0,
	})
	return importErr
}

func parseBookIDs(args []string) ([]models.BookID, error) {
	ids := make([]models.BookID, 0, len(args))
	for _, arg := range args {
		id, err := models.ParseBookID(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid book id %q: %w", arg, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func readCoverFile(path string) ([]byte, error) {
	if !library.IsImageFile(path) {
		return nil, &PreflightError{
			Message: fmt.Sprintf("%s is not a supported image", path),
			Hint:    "Covers must be png, jpeg, gif, bmp, or webp files",
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cover: %w", err)
	}
	return data, nil
}

func absPaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		out = append(out, p)
	}
	return out
}

func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", prompt)
	var answer string
	if _, err := fmt.Fscanln(cmd.InOrStdin(), &answer); err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		parts := make([]string, 0, len(joined.Unwrap()))
		for _, e := range joined.Unwrap() {
			parts = append(parts, e.Error())
		}
		return strings.Join(parts, "; ")
	}
	return err.Error()
}
