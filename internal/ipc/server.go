package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"nekotatsu/internal/daemon"
	"nekotatsu/internal/logging"
)

// ServiceName is the RPC service every method lives under.
const ServiceName = "Nekotatsu"

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName(ServiceName, srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed", logging.Error(err))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status()
	resp.Running = status.Running
	resp.Busy = status.Busy
	resp.PID = status.PID
	resp.StartedAt = status.StartedAt
	resp.Version = status.Version
	resp.CacheDir = status.CacheDir
	resp.LockPath = status.LockPath
	resp.BackupPath = status.Selection.BackupPath
	resp.SavePath = status.Selection.SavePath
	return nil
}

func (s *service) Resources(_ ResourcesRequest, resp *ResourcesResponse) error {
	statuses, err := s.daemon.Resources()
	if err != nil {
		return err
	}
	resp.Resources = make([]ResourceInfo, 0, len(statuses))
	for _, status := range statuses {
		resp.Resources = append(resp.Resources, ResourceInfo{
			Key:           status.Key,
			Title:         status.Title,
			URL:           status.URL,
			CacheFileName: status.CacheFileName,
			Cached:        status.Cached,
			DerivedName:   status.DerivedName,
			DerivedCached: status.DerivedCached,
			Optional:      status.Optional,
		})
	}
	return nil
}

func (s *service) FileExists(req FileExistsRequest, resp *FileExistsResponse) error {
	resp.Exists = s.daemon.FileExists(req.FileName)
	return nil
}

func (s *service) Download(req DownloadRequest, _ *DownloadResponse) error {
	return s.daemon.Download(s.ctx, req.Key, req.FileName, req.Link)
}

func (s *service) SetBackup(req SetBackupRequest, _ *SetBackupResponse) error {
	s.daemon.SetBackup(req.Path)
	return nil
}

func (s *service) SetSave(req SetSaveRequest, _ *SetSaveResponse) error {
	return s.daemon.SetSave(req.Path)
}

func (s *service) Selection(_ SelectionRequest, resp *SelectionResponse) error {
	snap := s.daemon.Selection()
	resp.BackupPath = snap.BackupPath
	resp.SavePath = snap.SavePath
	return nil
}

func (s *service) Convert(req ConvertRequest, resp *ConvertResponse) error {
	summary, err := s.daemon.Convert(s.ctx, req.AllowMissingScript)
	if err != nil {
		return err
	}
	resp.RequestID = summary.RequestID
	resp.SavePath = summary.SavePath
	resp.MangaConverted = summary.MangaConverted
	resp.MangaSkipped = summary.MangaSkipped
	resp.HistoryCount = summary.Counts.History
	resp.CategoryCount = summary.Counts.Categories
	resp.FavouriteCount = summary.Counts.Favourites
	resp.BookmarkCount = summary.Counts.Bookmarks
	return nil
}

func (s *service) LogTail(req LogTailRequest, resp *LogTailResponse) error {
	events, cursor, err := s.daemon.LogTail(s.ctx, req.Since, req.Limit, req.Wait)
	if err != nil {
		return err
	}
	resp.Events = events
	resp.Cursor = cursor
	return nil
}

func (s *service) HistoryList(req HistoryListRequest, resp *HistoryListResponse) error {
	runs, err := s.daemon.History(s.ctx, req.Limit)
	if err != nil {
		return err
	}
	resp.Runs = make([]RunInfo, 0, len(runs))
	for _, run := range runs {
		resp.Runs = append(resp.Runs, RunInfo{
			ID:             run.ID,
			RequestID:      run.RequestID,
			BackupPath:     run.BackupPath,
			SavePath:       run.SavePath,
			Status:         run.Status,
			ErrorMessage:   run.ErrorMessage,
			HistoryCount:   run.HistoryCount,
			CategoryCount:  run.CategoryCount,
			FavouriteCount: run.FavouriteCount,
			BookmarkCount:  run.BookmarkCount,
			StartedAt:      run.StartedAt,
			FinishedAt:     run.FinishedAt,
		})
	}
	return nil
}
