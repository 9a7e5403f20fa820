package ipc_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"nekotatsu/internal/daemon"
	"nekotatsu/internal/ipc"
	"nekotatsu/internal/logging"
	"nekotatsu/internal/testsupport"
)

func newTestClient(t *testing.T) *ipc.Client {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	d, err := daemon.New(cfg, logging.NewNop(), logging.NewStreamHub(64), store, "test")
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	socketPath := filepath.Join(t.TempDir(), "nekotatsu.sock")
	server, err := ipc.NewServer(ctx, socketPath, d, logging.NewNop())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	server.Serve()
	t.Cleanup(server.Close)

	client, err := ipc.Dial(socketPath)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestStatusRoundTrip(t *testing.T) {
	client := newTestClient(t)

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Running {
		t.Fatal("daemon was not started")
	}
	if status.PID == 0 {
		t.Fatal("expected daemon pid")
	}
}

func TestSelectionRoundTrip(t *testing.T) {
	client := newTestClient(t)

	if err := client.SetBackup("/tmp/backup.tachibk"); err != nil {
		t.Fatalf("SetBackup: %v", err)
	}
	if err := client.SetSave("/tmp/out.zip"); err != nil {
		t.Fatalf("SetSave: %v", err)
	}

	snap, err := client.Selection()
	if err != nil {
		t.Fatalf("Selection: %v", err)
	}
	if snap.BackupPath != "/tmp/backup.tachibk" || snap.SavePath != "/tmp/out.zip" {
		t.Fatalf("unexpected selection %+v", snap)
	}

	if err := client.SetSave("/tmp/out.cbz"); err == nil {
		t.Fatal("expected extension validation over IPC")
	}
}

func TestResourcesRoundTrip(t *testing.T) {
	client := newTestClient(t)

	resp, err := client.Resources()
	if err != nil {
		t.Fatalf("Resources: %v", err)
	}
	if len(resp.Resources) != 3 {
		t.Fatalf("expected 3 descriptors, got %d", len(resp.Resources))
	}
	if resp.Resources[0].Key != "sources" || resp.Resources[0].Cached {
		t.Fatalf("unexpected first descriptor %+v", resp.Resources[0])
	}

	exists, err := client.FileExists(resp.Resources[0].CacheFileName)
	if err != nil {
		t.Fatalf("FileExists: %v", err)
	}
	if exists {
		t.Fatal("cache should start empty")
	}
}

func TestConvertErrorSurfacesToClient(t *testing.T) {
	client := newTestClient(t)

	_, err := client.Convert(true)
	if err == nil || !strings.Contains(err.Error(), "backup") {
		t.Fatalf("expected missing-selection error over the wire, got %v", err)
	}
}

func TestHistoryListEmpty(t *testing.T) {
	client := newTestClient(t)

	resp, err := client.HistoryList(5)
	if err != nil {
		t.Fatalf("HistoryList: %v", err)
	}
	if len(resp.Runs) != 0 {
		t.Fatalf("expected no runs, got %+v", resp.Runs)
	}
}
