package history_test

import (
	"context"
	"errors"
	"testing"

	"nekotatsu/internal/history"
	"nekotatsu/internal/testsupport"
)

func TestRunLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	id, err := store.Begin(ctx, "req-1", "/tmp/backup.tachibk", "/tmp/out.zip")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	runs, err := store.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != history.StatusRunning {
		t.Fatalf("expected one running run, got %+v", runs)
	}
	if runs[0].FinishedAt != nil {
		t.Fatal("running run must have no finish time")
	}

	counts := history.Counts{History: 3, Categories: 2, Favourites: 5, Bookmarks: 1}
	if err := store.RecordSuccess(ctx, id, counts); err != nil {
		t.Fatalf("RecordSuccess: %v", err)
	}

	runs, err = store.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	run := runs[0]
	if run.Status != history.StatusSucceeded || run.FavouriteCount != 5 || run.BookmarkCount != 1 {
		t.Fatalf("unexpected run %+v", run)
	}
	if run.FinishedAt == nil || run.FinishedAt.Before(run.StartedAt) {
		t.Fatalf("unexpected finish time %+v", run.FinishedAt)
	}
}

func TestRecordFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	id, err := store.Begin(ctx, "req-2", "/tmp/backup.tachibk", "/tmp/out.zip")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := store.RecordFailure(ctx, id, errors.New("backup decode failed")); err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}

	runs, err := store.List(ctx, 1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if runs[0].Status != history.StatusFailed || runs[0].ErrorMessage != "backup decode failed" {
		t.Fatalf("unexpected run %+v", runs[0])
	}
}

func TestListNewestFirstWithLimit(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := store.Begin(ctx, "req", "/b", "/s.zip"); err != nil {
			t.Fatalf("Begin %d: %v", i, err)
		}
	}

	runs, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected limit to apply, got %d runs", len(runs))
	}
	if runs[0].ID <= runs[1].ID {
		t.Fatalf("expected newest first, got %d then %d", runs[0].ID, runs[1].ID)
	}
}

func TestReopenExistingDatabase(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.Begin(context.Background(), "req", "/b", "/s.zip"); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := testsupport.MustOpenStore(t, cfg)
	runs, err := reopened.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected persisted run, got %d", len(runs))
	}
}
