package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"nekotatsu/internal/config"
)

// WriteFile writes contents to path, creating parent directories.
func WriteFile(t testing.TB, path string, contents []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteCacheFile seeds one file into the config's cache directory and
// returns its path.
func WriteCacheFile(t testing.TB, cfg *config.Config, name string, contents []byte) string {
	t.Helper()
	path := cfg.CachePath(name)
	WriteFile(t, path, contents)
	return path
}
