package config

const (
	defaultCacheDir    = "~/.local/share/nekotatsu/cache"
	defaultLogDir      = "~/.local/share/nekotatsu/logs"
	defaultLibraryName = "Library"
	defaultLogFormat   = "console"
	defaultLogLevel    = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheDir: defaultCacheDir,
			LogDir:   defaultLogDir,
		},
		Resources: Resources{
			URLOverrides: map[string]string{},
		},
		Conversion: Conversion{
			LibraryName: defaultLibraryName,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
