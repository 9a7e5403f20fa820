// Package pipeline runs a conversion end to end: preconditions, backup
// decode, converter assembly, and the conversion itself.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"nekotatsu/internal/config"
	"nekotatsu/internal/kotatsu"
	"nekotatsu/internal/logging"
	"nekotatsu/internal/resources"
	"nekotatsu/internal/selection"
	"nekotatsu/internal/tachiyomi"
)

var (
	// ErrMissingBackupSelection means no backup file has been picked.
	ErrMissingBackupSelection = errors.New("no backup file selected")
	// ErrMissingSaveSelection means no destination archive has been picked.
	ErrMissingSaveSelection = errors.New("no save location selected")
	// ErrDecode reports an unreadable backup file.
	ErrDecode = errors.New("backup decode failed")
	// ErrContextBuild reports catalogs that could not be assembled into a
	// converter.
	ErrContextBuild = errors.New("conversion context build failed")
)

// MissingResourceError names a required resource that is not in the cache.
type MissingResourceError struct {
	Key string
}

func (e *MissingResourceError) Error() string {
	return fmt.Sprintf("required resource %q has not been downloaded", e.Key)
}

// Preflight reports which conversion inputs are present in the cache.
type Preflight struct {
	SourcesCached  bool
	ParsersCached  bool
	ParsersDerived bool
	ScriptPresent  bool
}

// Orchestrator drives conversion runs against one configuration.
type Orchestrator struct {
	cfg    *config.Config
	logger *slog.Logger
}

// New returns an orchestrator for the given configuration.
func New(cfg *config.Config, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{cfg: cfg, logger: logger}
}

func (o *Orchestrator) cachedFile(key string, derived bool) (string, bool) {
	desc, err := resources.Lookup(key)
	if err != nil {
		return "", false
	}
	name := desc.CacheFileName
	if derived {
		name = desc.DerivedFileName
	}
	path := o.cfg.CachePath(name)
	info, err := os.Stat(path)
	return path, err == nil && !info.IsDir()
}

// Preflight checks the cache for every conversion input.
func (o *Orchestrator) Preflight() Preflight {
	var p Preflight
	_, p.SourcesCached = o.cachedFile(resources.KeySources, false)
	_, p.ParsersCached = o.cachedFile(resources.KeyParsers, false)
	_, p.ParsersDerived = o.cachedFile(resources.KeyParsers, true)
	_, p.ScriptPresent = o.cachedFile(resources.KeyScript, false)
	return p
}

// CheckResources verifies the required inputs, reporting the first missing
// one: sources first, then the derived parser list. The correction script is
// advisory and never blocks a run.
func (o *Orchestrator) CheckResources() error {
	p := o.Preflight()
	if !p.SourcesCached {
		return &MissingResourceError{Key: resources.KeySources}
	}
	if !p.ParsersDerived {
		return &MissingResourceError{Key: resources.KeyParsers}
	}
	return nil
}

// Convert runs a full conversion for the given selection. Selection and
// resource preconditions are checked before any file is touched.
func (o *Orchestrator) Convert(ctx context.Context, snap selection.Snapshot) (*kotatsu.Result, kotatsu.Stats, error) {
	if snap.BackupPath == "" {
		return nil, kotatsu.Stats{}, ErrMissingBackupSelection
	}
	if snap.SavePath == "" {
		return nil, kotatsu.Stats{}, ErrMissingSaveSelection
	}
	if err := o.CheckResources(); err != nil {
		return nil, kotatsu.Stats{}, err
	}
	if err := ctx.Err(); err != nil {
		return nil, kotatsu.Stats{}, err
	}

	backup, err := tachiyomi.DecodeFile(snap.BackupPath)
	if err != nil {
		return nil, kotatsu.Stats{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	converter, err := o.buildConverter()
	if err != nil {
		return nil, kotatsu.Stats{}, err
	}
	if err := ctx.Err(); err != nil {
		return nil, kotatsu.Stats{}, err
	}

	o.logger.Info("converting backup",
		logging.String("backup", snap.BackupPath),
		logging.Int("manga", len(backup.Manga)))

	result, stats := converter.ConvertBackup(backup, o.cfg.Conversion.LibraryName, o.logger)

	o.logger.Info("conversion finished",
		logging.Int("converted", stats.MangaConverted),
		logging.Int("skipped", stats.MangaSkipped))

	return result, stats, nil
}

func (o *Orchestrator) buildConverter() (*kotatsu.Converter, error) {
	parsersPath, _ := o.cachedFile(resources.KeyParsers, true)
	parsersFile, err := os.Open(parsersPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open parser list: %v", ErrContextBuild, err)
	}
	defer parsersFile.Close()

	sourcesPath, _ := o.cachedFile(resources.KeySources, false)
	sourcesFile, err := os.Open(sourcesPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open source catalog: %v", ErrContextBuild, err)
	}
	defer sourcesFile.Close()

	converter, err := kotatsu.NewConverter(parsersFile, sourcesFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContextBuild, err)
	}

	o.attachScript(converter)
	return converter, nil
}

// attachScript loads the optional correction script. A broken script is
// logged and ignored so it can never block a conversion.
func (o *Orchestrator) attachScript(converter *kotatsu.Converter) {
	path, ok := o.cachedFile(resources.KeyScript, false)
	if !ok {
		return
	}
	file, err := os.Open(path)
	if err != nil {
		o.logger.Warn("correction script unreadable, continuing without it",
			logging.Error(err))
		return
	}
	defer file.Close()
	if err := converter.AttachCorrectionScript(file); err != nil {
		o.logger.Warn("correction script invalid, continuing without it",
			logging.Error(err))
		return
	}
	o.logger.Info("correction script attached",
		logging.String(logging.FieldResource, resources.KeyScript))
}
