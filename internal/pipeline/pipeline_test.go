package pipeline_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"nekotatsu/internal/config"
	"nekotatsu/internal/logging"
	"nekotatsu/internal/pipeline"
	"nekotatsu/internal/resources"
	"nekotatsu/internal/selection"
	"nekotatsu/internal/testsupport"
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
      {"id": "100", "name": "MangaDex", "lang": "en", "baseUrl": "https://mangadex.org"}
    ]
  }
]`

const testBackup = `{
  "backupManga": [
    {
      "source": 100,
      "url": "/title/abc",
      "title": "Solo Farming",
      "favorite": true,
      "chapters": [{"url": "/chapter/1", "name": "Ch. 1", "chapterNumber": 1, "read": true}],
      "history": [{"url": "/chapter/1", "lastRead": 1690000000000}]
    }
  ],
  "backupCategories": []
}`

func seedResources(t *testing.T, cfg *config.Config) {
	t.Helper()
	testsupport.WriteCacheFile(t, cfg, "tachiyomi_sources.json", []byte(testSources))
	testsupport.WriteCacheFile(t, cfg, "kotatsu_parsers.json", []byte(testParsers))
}

func seedSelection(t *testing.T, cfg *config.Config) selection.Snapshot {
	t.Helper()
	backupPath := filepath.Join(cfg.Paths.CacheDir, "..", "backup.tachibk")
	testsupport.WriteFile(t, backupPath, []byte(testBackup))
	return selection.Snapshot{
		BackupPath: backupPath,
		SavePath:   filepath.Join(cfg.Paths.CacheDir, "..", "out.zip"),
	}
}

func TestConvertRequiresSelectionBeforeResources(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	orch := pipeline.New(cfg, logging.NewNop())

	// Nothing is cached either, but the selection error must come first.
	_, _, err := orch.Convert(context.Background(), selection.Snapshot{})
	if !errors.Is(err, pipeline.ErrMissingBackupSelection) {
		t.Fatalf("expected ErrMissingBackupSelection, got %v", err)
	}

	_, _, err = orch.Convert(context.Background(), selection.Snapshot{BackupPath: "/tmp/b.tachibk"})
	if !errors.Is(err, pipeline.ErrMissingSaveSelection) {
		t.Fatalf("expected ErrMissingSaveSelection, got %v", err)
	}
}

func TestConvertReportsMissingResourcesInOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	orch := pipeline.New(cfg, logging.NewNop())
	snap := seedSelection(t, cfg)

	_, _, err := orch.Convert(context.Background(), snap)
	var missing *pipeline.MissingResourceError
	if !errors.As(err, &missing) || missing.Key != resources.KeySources {
		t.Fatalf("expected missing sources, got %v", err)
	}

	testsupport.WriteCacheFile(t, cfg, "tachiyomi_sources.json", []byte(testSources))
	_, _, err = orch.Convert(context.Background(), snap)
	if !errors.As(err, &missing) || missing.Key != resources.KeyParsers {
		t.Fatalf("expected missing parsers, got %v", err)
	}
}

func TestConvertEndToEnd(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	seedResources(t, cfg)
	orch := pipeline.New(cfg, logging.NewNop())
	snap := seedSelection(t, cfg)

	result, stats, err := orch.Convert(context.Background(), snap)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if stats.MangaConverted != 1 || stats.MangaSkipped != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if len(result.Favourites) != 1 || result.Favourites[0].Manga.Source != "MANGADEX" {
		t.Fatalf("unexpected favourites %+v", result.Favourites)
	}
	if len(result.History) != 1 {
		t.Fatalf("expected history entry, got %+v", result.History)
	}
}

func TestConvertDecodeError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	seedResources(t, cfg)
	orch := pipeline.New(cfg, logging.NewNop())

	backupPath := filepath.Join(cfg.Paths.CacheDir, "..", "broken.tachibk")
	testsupport.WriteFile(t, backupPath, []byte("not json"))
	snap := selection.Snapshot{BackupPath: backupPath, SavePath: "/tmp/out.zip"}

	_, _, err := orch.Convert(context.Background(), snap)
	if !errors.Is(err, pipeline.ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestConvertContextBuildError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteCacheFile(t, cfg, "tachiyomi_sources.json", []byte(testSources))
	testsupport.WriteCacheFile(t, cfg, "kotatsu_parsers.json", []byte("broken"))
	orch := pipeline.New(cfg, logging.NewNop())
	snap := seedSelection(t, cfg)

	_, _, err := orch.Convert(context.Background(), snap)
	if !errors.Is(err, pipeline.ErrContextBuild) {
		t.Fatalf("expected ErrContextBuild, got %v", err)
	}
}

func TestConvertIgnoresBrokenScript(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	seedResources(t, cfg)
	testsupport.WriteCacheFile(t, cfg, "correction_script.txt", []byte("no arrow here"))
	orch := pipeline.New(cfg, logging.NewNop())
	snap := seedSelection(t, cfg)

	_, stats, err := orch.Convert(context.Background(), snap)
	if err != nil {
		t.Fatalf("broken script must not block conversion: %v", err)
	}
	if stats.MangaConverted != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestPreflight(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	orch := pipeline.New(cfg, logging.NewNop())

	p := orch.Preflight()
	if p.SourcesCached || p.ParsersCached || p.ParsersDerived || p.ScriptPresent {
		t.Fatalf("expected empty preflight, got %+v", p)
	}

	seedResources(t, cfg)
	testsupport.WriteCacheFile(t, cfg, "correction_script.txt", []byte("# empty"))
	p = orch.Preflight()
	if !p.SourcesCached || !p.ParsersDerived || !p.ScriptPresent {
		t.Fatalf("expected seeded preflight, got %+v", p)
	}
	if p.ParsersCached {
		t.Fatal("parser archive was not seeded")
	}
}
