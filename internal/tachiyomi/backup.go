// Package tachiyomi reads Tachiyomi-side inputs: the exported library backup
// and the extension source catalog.
package tachiyomi

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Backup is an exported Tachiyomi library.
type Backup struct {
	Manga      []Manga          `json:"backupManga"`
	Categories []BackupCategory `json:"backupCategories"`
}

// BackupCategory is a library category definition inside a backup.
type BackupCategory struct {
	Name  string `json:"name"`
	Order int64  `json:"order"`
}

// Manga is one library entry with its chapters and reading history.
type Manga struct {
	Source       int64     `json:"source"`
	URL          string    `json:"url"`
	Title        string    `json:"title"`
	Artist       string    `json:"artist"`
	Author       string    `json:"author"`
	Description  string    `json:"description"`
	Genre        []string  `json:"genre"`
	Status       int       `json:"status"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	Favorite     bool      `json:"favorite"`
	Categories   []int64   `json:"categories"`
	Chapters     []Chapter `json:"chapters"`
	History      []History `json:"history"`
}

// Chapter is one chapter row of a manga.
type Chapter struct {
	URL           string  `json:"url"`
	Name          string  `json:"name"`
	Scanlator     string  `json:"scanlator"`
	ChapterNumber float64 `json:"chapterNumber"`
	Read          bool    `json:"read"`
	Bookmark      bool    `json:"bookmark"`
	LastPageRead  int64   `json:"lastPageRead"`
}

// History is a last-read marker for a chapter URL. LastRead is unix
// milliseconds.
type History struct {
	URL      string `json:"url"`
	LastRead int64  `json:"lastRead"`
}

// Decode reads a backup from r. Backups are JSON, optionally gzip compressed;
// the compression is detected from the stream itself.
func Decode(r io.Reader) (*Backup, error) {
	buffered := bufio.NewReader(r)

	magic, err := buffered.Peek(2)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read backup header: %w", err)
	}

	var payload io.Reader = buffered
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(buffered)
		if err != nil {
			return nil, fmt.Errorf("open gzip backup: %w", err)
		}
		defer gz.Close()
		payload = gz
	}

	var backup Backup
	if err := json.NewDecoder(payload).Decode(&backup); err != nil {
		return nil, fmt.Errorf("decode backup: %w", err)
	}
	return &backup, nil
}

// DecodeFile reads a backup from a file on disk.
func DecodeFile(path string) (*Backup, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open backup: %w", err)
	}
	defer file.Close()
	return Decode(file)
}
