// Package download fetches resource files into the cache directory.
//
// Completed downloads are the only thing visible in the cache: every fetch
// streams to a temporary file and renames it into place, so a partial
// download never satisfies a cache check. Concurrent fetches of the same
// cache file share one transfer.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"nekotatsu/internal/logging"
	"nekotatsu/internal/resources"
)

var (
	// ErrNetwork reports a failed transfer: transport error or non-success
	// HTTP status.
	ErrNetwork = errors.New("download failed")
	// ErrDerivedTransform reports a successful download whose derived file
	// could not be produced. The downloaded archive stays in the cache.
	ErrDerivedTransform = errors.New("derived transform failed")
)

// Normalizer produces a derived file from a downloaded archive.
type Normalizer interface {
	Normalize(archivePath, destPath string) error
}

// ProgressFunc receives transfer progress. total is -1 when the server does
// not announce a content length.
type ProgressFunc func(fileName string, read, total int64)

type fetchCall struct {
	done chan struct{}
	err  error
}

// Manager downloads resource files into a cache directory.
type Manager struct {
	cacheDir   string
	client     *http.Client
	logger     *slog.Logger
	normalizer Normalizer
	progress   ProgressFunc

	mu       sync.Mutex
	inflight map[string]*fetchCall
}

// NewManager returns a manager writing into cacheDir.
func NewManager(cacheDir string, logger *slog.Logger, normalizer Normalizer) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		cacheDir:   cacheDir,
		client:     &http.Client{Timeout: 10 * time.Minute},
		logger:     logger,
		normalizer: normalizer,
		inflight:   map[string]*fetchCall{},
	}
}

// SetProgress installs a transfer progress callback.
func (m *Manager) SetProgress(fn ProgressFunc) {
	m.progress = fn
}

// CachePath returns the absolute cache location of a file.
func (m *Manager) CachePath(fileName string) string {
	return filepath.Join(m.cacheDir, fileName)
}

// FileExists reports whether a completed download exists in the cache.
func (m *Manager) FileExists(fileName string) bool {
	info, err := os.Stat(m.CachePath(fileName))
	return err == nil && !info.IsDir()
}

// Fetch downloads link into the cache as fileName. A concurrent fetch of the
// same file name joins the in-flight transfer and shares its outcome.
func (m *Manager) Fetch(ctx context.Context, fileName, link string) error {
	m.mu.Lock()
	if call, ok := m.inflight[fileName]; ok {
		m.mu.Unlock()
		m.logger.Info("joining in-flight download",
			logging.String(logging.FieldResource, fileName))
		select {
		case <-call.done:
			return call.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	call := &fetchCall{done: make(chan struct{})}
	m.inflight[fileName] = call
	m.mu.Unlock()

	call.err = m.fetch(ctx, fileName, link)

	m.mu.Lock()
	delete(m.inflight, fileName)
	m.mu.Unlock()
	close(call.done)

	return call.err
}

func (m *Manager) fetch(ctx context.Context, fileName, link string) error {
	if err := os.MkdirAll(m.cacheDir, 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	m.logger.Info("downloading resource",
		logging.String(logging.FieldResource, fileName),
		logging.String("url", link))

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", link, err)
	}
	response, err := m.client.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("%w: %s returned %s", ErrNetwork, link, response.Status)
	}

	tmpPath := m.CachePath(fileName) + ".tmp"
	tmpFile, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}

	var body io.Reader = response.Body
	if m.progress != nil {
		body = &progressReader{
			reader:   response.Body,
			fileName: fileName,
			total:    response.ContentLength,
			report:   m.progress,
		}
	}

	if _, err := io.Copy(tmpFile, body); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("finalize temporary file: %w", err)
	}
	if err := os.Rename(tmpPath, m.CachePath(fileName)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("move download into cache: %w", err)
	}

	m.logger.Info("download complete",
		logging.String(logging.FieldResource, fileName))

	return m.derive(fileName)
}

// derive runs the post-download transform for resources that declare a
// derived file. A transform failure keeps the downloaded archive so it can
// be retried without refetching.
func (m *Manager) derive(fileName string) error {
	desc, ok := resources.ByFileName(fileName)
	if !ok || desc.DerivedFileName == "" {
		return nil
	}
	if m.normalizer == nil {
		return nil
	}

	m.logger.Info("producing derived file",
		logging.String(logging.FieldResource, desc.DerivedFileName))

	archivePath := m.CachePath(fileName)
	derivedPath := m.CachePath(desc.DerivedFileName)
	if err := m.normalizer.Normalize(archivePath, derivedPath); err != nil {
		return fmt.Errorf("%w: %v", ErrDerivedTransform, err)
	}
	return nil
}

type progressReader struct {
	reader   io.Reader
	fileName string
	total    int64
	read     int64
	report   ProgressFunc
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.reader.Read(buf)
	if n > 0 {
		p.read += int64(n)
		p.report(p.fileName, p.read, p.total)
	}
	return n, err
}
