package library

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tOgg1/shelf/internal/models"
)

// ErrNotCoverFile is returned for files that are not named <book id>.<image ext>.
var ErrNotCoverFile = errors.New("not a cover file")

// imageExts lists the cover formats the renderer can decode.
var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
}

// IsImageFile reports whether path has a decodable image extension.
func IsImageFile(path string) bool {
	return imageExts[strings.ToLower(filepath.Ext(path))]
}

// CoverFileID extracts the book id from a cover file named "<id>.<ext>".
func CoverFileID(path string) (models.BookID, error) {
	base := filepath.Base(path)
	if !IsImageFile(base) {
		return 0, fmt.Errorf("%w: %s", ErrNotCoverFile, base)
	}
	id, err := models.ParseBookID(strings.TrimSuffix(base, filepath.Ext(base)))
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrNotCoverFile, base)
	}
	return id, nil
}

// ImportResult summarizes an import.
type ImportResult struct {
	Added   []models.BookID `json:"added,omitempty"`
	Covers  []models.BookID `json:"covers,omitempty"`
	Skipped []string        `json:"skipped,omitempty"`
}

// Import adds one book per file. The title is the file name without its
// extension; an image next to the file with the same base name becomes its
// cover. Image files themselves are skipped.
func (l *Library) Import(ctx context.Context, paths []string) (ImportResult, error) {
	var result ImportResult
	var errs []error

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() || IsImageFile(path) {
			result.Skipped = append(result.Skipped, path)
			continue
		}

		base := filepath.Base(path)
		book := &models.Book{
			Title: strings.TrimSuffix(base, filepath.Ext(base)),
			Path:  path,
		}
		if err := l.books.Create(ctx, book); err != nil {
			errs = append(errs, fmt.Errorf("import %s: %w", path, err))
			continue
		}
		result.Added = append(result.Added, book.ID)

		if cover, ok := siblingCover(path); ok {
			data, err := os.ReadFile(cover)
			if err == nil {
				err = l.books.SetCover(ctx, book.ID, data, cover)
			}
			if err != nil {
				l.logger.Warn().Err(err).Str("cover", cover).Msg("failed to attach cover")
			} else {
				result.Covers = append(result.Covers, book.ID)
			}
		}
	}

	if len(result.Added) > 0 {
		if err := l.Reload(ctx); err != nil {
			errs = append(errs, err)
		}
		for _, id := range result.Added {
			l.publish(ctx, models.EventTypeBookAdded, id)
		}
	}

	l.logger.Info().
		Int("added", len(result.Added)).
		Int("covers", len(result.Covers)).
		Int("skipped", len(result.Skipped)).
		Msg("import finished")
	return result, errors.Join(errs...)
}

// ImportCoverFile stores the image at path as the cover of the book its name
// refers to.
func (l *Library) ImportCoverFile(ctx context.Context, path string) (models.BookID, error) {
	id, err := CoverFileID(path)
	if err != nil {
		return 0, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read cover: %w", err)
	}
	if err := l.SetCover(ctx, id, data, path); err != nil {
		return 0, err
	}
	return id, nil
}

// ImportCovers applies every "<id>.<ext>" image in dir.
func (l *Library) ImportCovers(ctx context.Context, dir string) (ImportResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to read cover directory: %w", err)
	}

	var result ImportResult
	var errs []error
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			continue
		}
		id, err := l.ImportCoverFile(ctx, path)
		switch {
		case errors.Is(err, ErrNotCoverFile):
			result.Skipped = append(result.Skipped, path)
		case err != nil:
			errs = append(errs, fmt.Errorf("%s: %w", entry.Name(), err))
		default:
			result.Covers = append(result.Covers, id)
		}
	}
	return result, errors.Join(errs...)
}

func siblingCover(path string) (string, bool) {
	stem := strings.TrimSuffix(path, filepath.Ext(path))
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".webp", ".gif", ".bmp"} {
		candidate := stem + ext
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}
