package kotatsu

import (
	"strings"
	"testing"
	"time"

	"nekotatsu/internal/logging"
	"nekotatsu/internal/tachiyomi"
)

const testParsers = `[
  {"name": "MANGADEX", "title": "MangaDex", "lang": "en", "domain": "mangadex.org"}
]`

const testSources = `[
  {
    "name": "Tachiyomi: MangaDex",
    "pkg": "eu.kanade.tachiyomi.extension.all.mangadex",
    "lang": "all",
    "sources": [
      {"id": "100", "name": "MangaDex", "lang": "en", "baseUrl": "https://www.mangadex.org"},
      {"id": "200", "name": "Orphan Source", "lang": "en", "baseUrl": "https://orphan.example"}
    ]
  }
]`

func newTestConverter(t *testing.T) *Converter {
	t.Helper()
	converter, err := NewConverter(strings.NewReader(testParsers), strings.NewReader(testSources))
	if err != nil {
		t.Fatalf("NewConverter: %v", err)
	}
	converter.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return converter
}

func testBackup() *tachiyomi.Backup {
	return &tachiyomi.Backup{
		Manga: []tachiyomi.Manga{
			{
				Source:       100,
				URL:          "/title/abc",
				Title:        "Solo Farming",
				Author:       "Someone",
				Genre:        []string{"Fantasy"},
				ThumbnailURL: "https://mangadex.org/cover.jpg",
				Favorite:     true,
				Categories:   []int64{0},
				Chapters: []tachiyomi.Chapter{
					{URL: "/chapter/1", Name: "Ch. 1", ChapterNumber: 1, Read: true, LastPageRead: 12},
					{URL: "/chapter/2", Name: "Ch. 2", ChapterNumber: 2, Bookmark: true},
				},
				History: []tachiyomi.History{{URL: "/chapter/1", LastRead: 1690000000000}},
			},
			{
				Source:   999,
				URL:      "/title/unknown",
				Title:    "Unmatched",
				Favorite: true,
			},
		},
		Categories: []tachiyomi.BackupCategory{{Name: "reading now", Order: 0}},
	}
}

func TestConvertBackup(t *testing.T) {
	converter := newTestConverter(t)
	result, stats := converter.ConvertBackup(testBackup(), "library", logging.NewNop())

	if stats.MangaConverted != 1 || stats.MangaSkipped != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	if len(result.Categories) != 2 {
		t.Fatalf("expected library + 1 backup category, got %d", len(result.Categories))
	}
	if result.Categories[0].ID != 1 || result.Categories[0].Title != "Library" {
		t.Fatalf("unexpected library category %+v", result.Categories[0])
	}
	if result.Categories[1].ID != 2 || result.Categories[1].Title != "Reading Now" {
		t.Fatalf("unexpected backup category %+v", result.Categories[1])
	}

	// Favourite lands in the library category and its own backup category.
	if len(result.Favourites) != 2 {
		t.Fatalf("expected 2 favourites, got %d", len(result.Favourites))
	}
	if result.Favourites[0].CategoryID != 1 || result.Favourites[1].CategoryID != 2 {
		t.Fatalf("unexpected favourite categories %+v", result.Favourites)
	}
	record := result.Favourites[0].Manga
	if record.Source != "MANGADEX" {
		t.Fatalf("expected parser name as source, got %q", record.Source)
	}
	if record.ID != ID("MANGADEX/title/abc") {
		t.Fatalf("unexpected manga id %d", record.ID)
	}
	if record.PublicURL != "https://www.mangadex.org/title/abc" {
		t.Fatalf("unexpected public url %q", record.PublicURL)
	}

	if len(result.History) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(result.History))
	}
	entry := result.History[0]
	if entry.ChapterID != ID("MANGADEX/chapter/1") || entry.Page != 12 {
		t.Fatalf("unexpected history entry %+v", entry)
	}
	if entry.Percent != 0.5 {
		t.Fatalf("expected percent 0.5, got %v", entry.Percent)
	}
	if entry.UpdatedAt != 1690000000000 {
		t.Fatalf("expected last-read timestamp, got %d", entry.UpdatedAt)
	}

	if len(result.Bookmarks) != 1 {
		t.Fatalf("expected 1 bookmark, got %d", len(result.Bookmarks))
	}
	if result.Bookmarks[0].ChapterID != ID("MANGADEX/chapter/2") {
		t.Fatalf("unexpected bookmark %+v", result.Bookmarks[0])
	}
}

func TestConvertBackupSkipsUnmatchedSources(t *testing.T) {
	converter := newTestConverter(t)
	backup := &tachiyomi.Backup{
		Manga: []tachiyomi.Manga{{Source: 200, URL: "/x", Title: "Orphan", Favorite: true}},
	}
	result, stats := converter.ConvertBackup(backup, "Library", logging.NewNop())
	if stats.MangaConverted != 0 || stats.MangaSkipped != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if len(result.Favourites) != 0 {
		t.Fatalf("skipped manga must not produce favourites, got %+v", result.Favourites)
	}
}

func TestCorrectionScriptRedirectsSource(t *testing.T) {
	converter := newTestConverter(t)
	script := "# map the orphan source onto the mangadex parser\nOrphan Source => MANGADEX\n"
	if err := converter.AttachCorrectionScript(strings.NewReader(script)); err != nil {
		t.Fatalf("AttachCorrectionScript: %v", err)
	}

	backup := &tachiyomi.Backup{
		Manga: []tachiyomi.Manga{{Source: 200, URL: "/x", Title: "Orphan", Favorite: true}},
	}
	result, stats := converter.ConvertBackup(backup, "Library", logging.NewNop())
	if stats.MangaConverted != 1 {
		t.Fatalf("expected correction to rescue the manga, stats %+v", stats)
	}
	if result.Favourites[0].Manga.Source != "MANGADEX" {
		t.Fatalf("unexpected source %q", result.Favourites[0].Manga.Source)
	}
}

func TestCorrectionScriptRejectsMalformedLine(t *testing.T) {
	converter := newTestConverter(t)
	if err := converter.AttachCorrectionScript(strings.NewReader("no arrow here\n")); err == nil {
		t.Fatal("expected malformed line to fail")
	}
}

func TestIDStable(t *testing.T) {
	if ID("MANGADEX/title/abc") != ID("MANGADEX/title/abc") {
		t.Fatal("id must be deterministic")
	}
	if ID("a") == ID("b") {
		t.Fatal("distinct keys should hash differently")
	}
}

func TestGenerateIndex(t *testing.T) {
	entry := GenerateIndex("1.2.3", time.UnixMilli(1700000000000))
	if entry.AppID != AppID || entry.AppVersion != "1.2.3" || entry.CreatedAt != 1700000000000 {
		t.Fatalf("unexpected index entry %+v", entry)
	}
}
