// Package daemon owns one running session: the busy gate, the selection
// state, the download manager, the orchestrator, and the history store.
// Every remote operation goes through the Daemon, so no caller can reach the
// pipeline without passing the gate.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"nekotatsu/internal/archive"
	"nekotatsu/internal/config"
	"nekotatsu/internal/download"
	"nekotatsu/internal/history"
	"nekotatsu/internal/kotatsu"
	"nekotatsu/internal/logging"
	"nekotatsu/internal/pipeline"
	"nekotatsu/internal/resources"
	"nekotatsu/internal/selection"
)

var (
	// ErrBusy is returned when a second heavy operation is requested while
	// one is outstanding.
	ErrBusy = errors.New("another operation is in progress")
	// ErrScriptMissing asks the caller to confirm converting without the
	// optional correction script.
	ErrScriptMissing = errors.New("correction script is not downloaded; confirm to convert without it")
)

// parsersNormalizer adapts the parser list derivation to the download
// manager's hook.
type parsersNormalizer struct{}

func (parsersNormalizer) Normalize(archivePath, destPath string) error {
	return kotatsu.NormalizeParsers(archivePath, destPath)
}

// Daemon coordinates one session and enforces single-instance execution.
type Daemon struct {
	cfg          *config.Config
	logger       *slog.Logger
	hub          *logging.StreamHub
	store        *history.Store
	selection    *selection.State
	downloads    *download.Manager
	orchestrator *pipeline.Orchestrator
	version      string

	lockPath string
	lock     *flock.Flock

	running   atomic.Bool
	busy      atomic.Bool
	startedAt time.Time
}

// Status represents daemon runtime information.
type Status struct {
	Running   bool
	Busy      bool
	PID       int
	StartedAt time.Time
	Version   string
	CacheDir  string
	LockPath  string
	Selection selection.Snapshot
}

// ResourceStatus describes one resource and its cache state.
type ResourceStatus struct {
	Key           string
	Title         string
	URL           string
	CacheFileName string
	Cached        bool
	DerivedName   string
	DerivedCached bool
	Optional      bool
}

// RunSummary reports the outcome of one conversion.
type RunSummary struct {
	RequestID      string
	SavePath       string
	MangaConverted int
	MangaSkipped   int
	Counts         history.Counts
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger, hub *logging.StreamHub, store *history.Store, version string) (*Daemon, error) {
	if cfg == nil || logger == nil || store == nil {
		return nil, errors.New("daemon requires config, logger, and history store")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "nekotatsud.lock")
	return &Daemon{
		cfg:          cfg,
		logger:       logger,
		hub:          hub,
		store:        store,
		selection:    selection.NewState(),
		downloads:    download.NewManager(cfg.Paths.CacheDir, logger, parsersNormalizer{}),
		orchestrator: pipeline.New(cfg, logger),
		version:      version,
		lockPath:     lockPath,
		lock:         flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock and marks the session live.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := d.cfg.EnsureDirectories(); err != nil {
		return err
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another instance is already running (lock %s)", d.lockPath)
	}

	d.startedAt = time.Now()
	d.running.Store(true)
	d.logger.Info("daemon started",
		logging.String("cache_dir", d.cfg.Paths.CacheDir),
		logging.String("lock", d.lockPath))
	return nil
}

// Stop releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Swap(false) {
		return
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("release lock", logging.Error(err))
	}
	d.logger.Info("daemon stopped")
}

// Status reports runtime information.
func (d *Daemon) Status() Status {
	return Status{
		Running:   d.running.Load(),
		Busy:      d.busy.Load(),
		PID:       os.Getpid(),
		StartedAt: d.startedAt,
		Version:   d.version,
		CacheDir:  d.cfg.Paths.CacheDir,
		LockPath:  d.lockPath,
		Selection: d.selection.Snapshot(),
	}
}

// Resources lists every resource descriptor with its resolved URL and cache
// state, in schema order.
func (d *Daemon) Resources() ([]ResourceStatus, error) {
	var statuses []ResourceStatus
	for _, desc := range resources.All() {
		url, err := d.cfg.ResolveURL(desc.Key)
		if err != nil {
			return nil, err
		}
		status := ResourceStatus{
			Key:           desc.Key,
			Title:         desc.DisplayTitle,
			URL:           url,
			CacheFileName: desc.CacheFileName,
			Cached:        d.downloads.FileExists(desc.CacheFileName),
			DerivedName:   desc.DerivedFileName,
			Optional:      desc.Optional,
		}
		if desc.DerivedFileName != "" {
			status.DerivedCached = d.downloads.FileExists(desc.DerivedFileName)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// FileExists reports whether a completed download exists in the cache.
func (d *Daemon) FileExists(fileName string) bool {
	return d.downloads.FileExists(fileName)
}

// Download fetches one resource. Either key or fileName+link identifies the
// target; with a key alone the URL comes from configuration. The busy gate
// rejects a download while another heavy operation runs.
func (d *Daemon) Download(ctx context.Context, key, fileName, link string) error {
	if key != "" {
		desc, err := resources.Lookup(key)
		if err != nil {
			return err
		}
		fileName = desc.CacheFileName
		if link == "" {
			if link, err = d.cfg.ResolveURL(key); err != nil {
				return err
			}
		}
	}
	if fileName == "" || link == "" {
		return errors.New("download requires a resource key or a file name and link")
	}

	if !d.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer d.busy.Store(false)

	return d.downloads.Fetch(ctx, fileName, link)
}

// SetBackup records the source backup path.
func (d *Daemon) SetBackup(path string) {
	d.selection.SetBackupPath(path)
	d.logger.Info("backup selected", logging.String("path", path))
}

// SetSave records the destination archive path.
func (d *Daemon) SetSave(path string) error {
	if err := d.selection.SetSavePath(path); err != nil {
		return err
	}
	d.logger.Info("save location selected", logging.String("path", path))
	return nil
}

// Selection returns the current selection.
func (d *Daemon) Selection() selection.Snapshot {
	return d.selection.Snapshot()
}

// Convert runs a full conversion and packages the result. When the optional
// correction script is absent the caller must have confirmed continuing
// without it, otherwise ErrScriptMissing is returned before anything runs.
func (d *Daemon) Convert(ctx context.Context, allowMissingScript bool) (RunSummary, error) {
	if !d.busy.CompareAndSwap(false, true) {
		return RunSummary{}, ErrBusy
	}
	defer d.busy.Store(false)

	if !allowMissingScript && !d.orchestrator.Preflight().ScriptPresent {
		return RunSummary{}, ErrScriptMissing
	}

	requestID := uuid.NewString()
	logger := d.logger.With(logging.String(logging.FieldRequestID, requestID))
	snap := d.selection.Snapshot()

	runID, err := d.store.Begin(ctx, requestID, snap.BackupPath, snap.SavePath)
	if err != nil {
		return RunSummary{}, err
	}

	runner := pipeline.New(d.cfg, logger)
	result, stats, err := runner.Convert(ctx, snap)
	if err != nil {
		d.failRun(ctx, runID, logger, err)
		return RunSummary{}, err
	}

	if err := archive.Package(result, d.version, snap.SavePath, logger); err != nil {
		d.failRun(ctx, runID, logger, err)
		return RunSummary{}, err
	}

	counts := history.Counts{
		History:    len(result.History),
		Categories: len(result.Categories),
		Favourites: len(result.Favourites),
		Bookmarks:  len(result.Bookmarks),
	}
	if err := d.store.RecordSuccess(ctx, runID, counts); err != nil {
		logger.Warn("record run success", logging.Error(err))
	}

	logger.Info("archive written",
		logging.String("path", snap.SavePath),
		logging.Int("favourites", counts.Favourites),
		logging.Int("history", counts.History))

	return RunSummary{
		RequestID:      requestID,
		SavePath:       snap.SavePath,
		MangaConverted: stats.MangaConverted,
		MangaSkipped:   stats.MangaSkipped,
		Counts:         counts,
	}, nil
}

func (d *Daemon) failRun(ctx context.Context, runID int64, logger *slog.Logger, cause error) {
	logger.Error("conversion failed", logging.Error(cause))
	if err := d.store.RecordFailure(ctx, runID, cause); err != nil {
		logger.Warn("record run failure", logging.Error(err))
	}
}

// History lists recent conversion runs.
func (d *Daemon) History(ctx context.Context, limit int) ([]history.Run, error) {
	return d.store.List(ctx, limit)
}

// LogTail fetches buffered log events from the stream hub. The returned
// cursor is the highest sequence seen, for the next call's since value.
func (d *Daemon) LogTail(ctx context.Context, since uint64, limit int, wait bool) ([]logging.LogEvent, uint64, error) {
	if d.hub == nil {
		return nil, 0, errors.New("log streaming is not enabled")
	}
	return d.hub.Fetch(ctx, since, limit, wait)
}
