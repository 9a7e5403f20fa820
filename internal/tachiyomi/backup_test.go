package tachiyomi

import (
	"bytes"
	"compress/gzip"
	"strings"
	"testing"
)

const sampleBackup = `{
  "backupManga": [
    {
      "source": 2499283573021220255,
      "url": "/manga/solo-farming",
      "title": "Solo Farming",
      "favorite": true,
      "categories": [0],
      "chapters": [
        {"url": "/chapter/1", "name": "Ch. 1", "chapterNumber": 1, "read": true},
        {"url": "/chapter/2", "name": "Ch. 2", "chapterNumber": 2, "bookmark": true}
      ],
      "history": [
        {"url": "/chapter/1", "lastRead": 1700000000000}
      ]
    }
  ],
  "backupCategories": [
    {"name": "Reading", "order": 0}
  ]
}`

func TestDecodePlainJSON(t *testing.T) {
	backup, err := Decode(strings.NewReader(sampleBackup))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(backup.Manga) != 1 {
		t.Fatalf("expected 1 manga, got %d", len(backup.Manga))
	}
	manga := backup.Manga[0]
	if manga.Source != 2499283573021220255 {
		t.Fatalf("unexpected source id %d", manga.Source)
	}
	if !manga.Favorite || len(manga.Chapters) != 2 || len(manga.History) != 1 {
		t.Fatalf("unexpected manga shape %+v", manga)
	}
	if backup.Categories[0].Name != "Reading" {
		t.Fatalf("unexpected category %+v", backup.Categories[0])
	}
}

func TestDecodeGzipBackup(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write([]byte(sampleBackup)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}

	backup, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(backup.Manga) != 1 || backup.Manga[0].Title != "Solo Farming" {
		t.Fatalf("unexpected backup %+v", backup)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode(strings.NewReader("not a backup")); err == nil {
		t.Fatal("expected decode failure")
	}
}

func TestLoadSourceCatalog(t *testing.T) {
	const index = `[
  {
    "name": "Tachiyomi: MangaDex",
    "pkg": "eu.kanade.tachiyomi.extension.all.mangadex",
    "lang": "all",
    "sources": [
      {"id": "2499283573021220255", "name": "MangaDex", "lang": "en", "baseUrl": "https://mangadex.org"},
      {"id": "not-a-number", "name": "Broken", "lang": "en", "baseUrl": "https://broken.example"}
    ]
  }
]`
	catalog, err := LoadSourceCatalog(strings.NewReader(index))
	if err != nil {
		t.Fatalf("LoadSourceCatalog: %v", err)
	}
	if len(catalog) != 1 {
		t.Fatalf("expected malformed id skipped, got %d entries", len(catalog))
	}
	src, ok := catalog[2499283573021220255]
	if !ok || src.Name != "MangaDex" || src.BaseURL != "https://mangadex.org" {
		t.Fatalf("unexpected source %+v", src)
	}
}
