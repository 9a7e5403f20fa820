package ipc

import (
	"time"

	"nekotatsu/internal/logging"
)

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents daemon runtime information.
type StatusResponse struct {
	Running    bool      `json:"running"`
	Busy       bool      `json:"busy"`
	PID        int       `json:"pid"`
	StartedAt  time.Time `json:"started_at"`
	Version    string    `json:"version"`
	CacheDir   string    `json:"cache_dir"`
	LockPath   string    `json:"lock_path"`
	BackupPath string    `json:"backup_path"`
	SavePath   string    `json:"save_path"`
}

// ResourcesRequest lists resource descriptors.
type ResourcesRequest struct{}

// ResourceInfo describes one resource and its cache state.
type ResourceInfo struct {
	Key           string `json:"key"`
	Title         string `json:"title"`
	URL           string `json:"url"`
	CacheFileName string `json:"cache_file_name"`
	Cached        bool   `json:"cached"`
	DerivedName   string `json:"derived_name,omitempty"`
	DerivedCached bool   `json:"derived_cached,omitempty"`
	Optional      bool   `json:"optional"`
}

// ResourcesResponse contains descriptors in schema order.
type ResourcesResponse struct {
	Resources []ResourceInfo `json:"resources"`
}

// FileExistsRequest checks one cache file.
type FileExistsRequest struct {
	FileName string `json:"file_name"`
}

// FileExistsResponse reports cache state.
type FileExistsResponse struct {
	Exists bool `json:"exists"`
}

// DownloadRequest fetches one resource. Key alone resolves the file name and
// URL from the schema and configuration; FileName+Link bypass the schema.
type DownloadRequest struct {
	Key      string `json:"key,omitempty"`
	FileName string `json:"file_name,omitempty"`
	Link     string `json:"link,omitempty"`
}

// DownloadResponse acknowledges a completed download.
type DownloadResponse struct{}

// SetBackupRequest records the source backup path.
type SetBackupRequest struct {
	Path string `json:"path"`
}

// SetBackupResponse acknowledges the update.
type SetBackupResponse struct{}

// SetSaveRequest records the destination archive path.
type SetSaveRequest struct {
	Path string `json:"path"`
}

// SetSaveResponse acknowledges the update.
type SetSaveResponse struct{}

// SelectionRequest fetches the current selection.
type SelectionRequest struct{}

// SelectionResponse carries both selected paths; empty means unset.
type SelectionResponse struct {
	BackupPath string `json:"backup_path"`
	SavePath   string `json:"save_path"`
}

// ConvertRequest runs a conversion. AllowMissingScript confirms running
// without the optional correction script.
type ConvertRequest struct {
	AllowMissingScript bool `json:"allow_missing_script"`
}

// ConvertResponse summarizes a successful run.
type ConvertResponse struct {
	RequestID      string `json:"request_id"`
	SavePath       string `json:"save_path"`
	MangaConverted int    `json:"manga_converted"`
	MangaSkipped   int    `json:"manga_skipped"`
	HistoryCount   int    `json:"history_count"`
	CategoryCount  int    `json:"category_count"`
	FavouriteCount int    `json:"favourite_count"`
	BookmarkCount  int    `json:"bookmark_count"`
}

// LogTailRequest fetches buffered log events after a sequence cursor.
type LogTailRequest struct {
	Since uint64 `json:"since"`
	Limit int    `json:"limit"`
	Wait  bool   `json:"wait"`
}

// LogEvent mirrors the hub event for IPC callers.
type LogEvent = logging.LogEvent

// LogTailResponse carries events plus the cursor for the next call.
type LogTailResponse struct {
	Events []LogEvent `json:"events"`
	Cursor uint64     `json:"cursor"`
}

// HistoryListRequest lists recent conversion runs.
type HistoryListRequest struct {
	Limit int `json:"limit"`
}

// RunInfo is one recorded conversion run.
type RunInfo struct {
	ID             int64      `json:"id"`
	RequestID      string     `json:"request_id"`
	BackupPath     string     `json:"backup_path"`
	SavePath       string     `json:"save_path"`
	Status         string     `json:"status"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	HistoryCount   int        `json:"history_count"`
	CategoryCount  int        `json:"category_count"`
	FavouriteCount int        `json:"favourite_count"`
	BookmarkCount  int        `json:"bookmark_count"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
}

// HistoryListResponse contains runs, newest first.
type HistoryListResponse struct {
	Runs []RunInfo `json:"runs"`
}
