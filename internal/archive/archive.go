// Package archive writes conversion results as a Kotatsu backup zip.
package archive

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"nekotatsu/internal/kotatsu"
	"nekotatsu/internal/logging"
)

// Section names inside the archive, in write order.
const (
	SectionHistory    = "history"
	SectionCategories = "categories"
	SectionFavourites = "favourites"
	SectionBookmarks  = "bookmarks"
	SectionIndex      = "index"
)

// ErrArchiveWrite reports a failure of the archive container itself. Section
// payload problems never produce it.
var ErrArchiveWrite = errors.New("archive write failed")

// Section is one named JSON document inside the archive.
type Section struct {
	Name    string
	Payload any
}

// Sections lays out a conversion result in the fixed archive order, ending
// with a freshly generated index entry.
func Sections(result *kotatsu.Result, appVersion string) []Section {
	return []Section{
		{Name: SectionHistory, Payload: result.History},
		{Name: SectionCategories, Payload: result.Categories},
		{Name: SectionFavourites, Payload: result.Favourites},
		{Name: SectionBookmarks, Payload: result.Bookmarks},
		{Name: SectionIndex, Payload: []kotatsu.IndexEntry{kotatsu.GenerateIndex(appVersion, time.Now())}},
	}
}

// Write creates the archive at dest from the given sections. Sections that
// serialize to an empty document are skipped with an info line; sections that
// fail to serialize are skipped with a warning. Only container failures abort
// the write, and a failed write removes the partial archive.
func Write(dest string, sections []Section, logger *slog.Logger) error {
	if logger == nil {
		logger = logging.NewNop()
	}

	file, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrArchiveWrite, dest, err)
	}
	writer := zip.NewWriter(file)

	fail := func(stage string, cause error) error {
		writer.Close()
		file.Close()
		os.Remove(dest)
		return fmt.Errorf("%w: %s: %v", ErrArchiveWrite, stage, cause)
	}

	for _, section := range sections {
		payload, err := json.Marshal(section.Payload)
		if err != nil {
			logger.Warn("section not serializable, skipped",
				logging.String(logging.FieldSection, section.Name),
				logging.Error(err))
			continue
		}
		if body := string(payload); body == "[]" || body == "null" {
			logger.Info("section empty, skipped",
				logging.String(logging.FieldSection, section.Name))
			continue
		}

		entry, err := writer.Create(section.Name)
		if err != nil {
			return fail("create entry "+section.Name, err)
		}
		if _, err := entry.Write(payload); err != nil {
			return fail("write entry "+section.Name, err)
		}

		logger.Debug("section written",
			logging.String(logging.FieldSection, section.Name),
			logging.Int("bytes", len(payload)))
	}

	if err := writer.Close(); err != nil {
		file.Close()
		os.Remove(dest)
		return fmt.Errorf("%w: finalize archive: %v", ErrArchiveWrite, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(dest)
		return fmt.Errorf("%w: close archive: %v", ErrArchiveWrite, err)
	}
	return nil
}

// Package writes a conversion result to dest in one call.
func Package(result *kotatsu.Result, appVersion, dest string, logger *slog.Logger) error {
	return Write(dest, Sections(result, appVersion), logger)
}
