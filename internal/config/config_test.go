package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nekotatsu/internal/resources"
)

func TestDefaultValidatesAfterNormalize(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !filepath.IsAbs(cfg.Paths.CacheDir) {
		t.Fatalf("expected absolute cache dir, got %s", cfg.Paths.CacheDir)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[paths]
cache_dir = "` + filepath.Join(dir, "cache") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[resources.url_overrides]
sources = "https://example.com/index.min.json"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected existing config at %s, got %s exists=%v", path, resolved, exists)
	}

	url, err := cfg.ResolveURL(resources.KeySources)
	if err != nil {
		t.Fatalf("ResolveURL: %v", err)
	}
	if url != "https://example.com/index.min.json" {
		t.Fatalf("override not applied, got %s", url)
	}

	parsersURL, err := cfg.ResolveURL(resources.KeyParsers)
	if err != nil {
		t.Fatalf("ResolveURL parsers: %v", err)
	}
	if !strings.Contains(parsersURL, "kotatsu-parsers") {
		t.Fatalf("expected descriptor default for parsers, got %s", parsersURL)
	}
}

func TestLoadRejectsUnknownOverrideKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[resources.url_overrides]
mystery = "https://example.com/x"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected validation failure for unknown override key")
	}
}

func TestLoadRejectsNonHTTPOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[resources.url_overrides]
sources = "ftp://example.com/index.json"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected validation failure for non-http override")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, _, exists, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for absent file")
	}
	if cfg.Conversion.LibraryName != "Library" {
		t.Fatalf("expected default library name, got %q", cfg.Conversion.LibraryName)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(target); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, _, err := Load(target); err != nil {
		t.Fatalf("sample config should load cleanly: %v", err)
	}
}
