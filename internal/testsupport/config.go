package testsupport

import (
	"path/filepath"
	"testing"

	"nekotatsu/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.CacheDir = filepath.Join(base, "cache")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithLibraryName overrides the default favourites category name.
func WithLibraryName(name string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Conversion.LibraryName = name
	}
}

// WithURLOverride points one resource at a custom URL.
func WithURLOverride(key, url string) ConfigOption {
	return func(cfg *config.Config) {
		if cfg.Resources.URLOverrides == nil {
			cfg.Resources.URLOverrides = map[string]string{}
		}
		cfg.Resources.URLOverrides[key] = url
	}
}
