package watch_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"docshelf/internal/queue"
	"docshelf/internal/services"
	"docshelf/internal/testsupport"
	"docshelf/internal/watch"
)

type event struct {
	doc *queue.Document
	err error
}

func startWatcher(t *testing.T, store *queue.Store) <-chan event {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan event, 16)
	done := make(chan error, 1)
	go func() {
		done <- watch.New(store, watch.WithSettle(20*time.Millisecond)).Run(ctx, func(doc *queue.Document, err error) {
			events <- event{doc: doc, err: err}
		})
	}()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run: %v", err)
		}
	})
	return events
}

func next(t *testing.T, events <-chan event) event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for queue reload")
		return event{}
	}
}

func TestWatcherReportsAppends(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.NewStore(t, cfg)
	events := startWatcher(t, store)

	initial := next(t, events)
	if initial.err != nil || len(initial.doc.Files) != 0 {
		t.Fatalf("unexpected initial event %+v", initial)
	}

	base := testsupport.BaseDir(cfg)
	testsupport.SeedQueue(t, store, testsupport.NewEntry(t, base, "a", "a.pdf", filepath.Join(base, "docs"), 90, "a"))

	for {
		ev := next(t, events)
		if ev.err == nil && len(ev.doc.Files) == 1 {
			if ev.doc.Files[0].ID != "a" {
				t.Fatalf("unexpected entry %+v", ev.doc.Files[0])
			}
			return
		}
	}
}

func TestWatcherPassesCorruptionThrough(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.NewStore(t, cfg)
	events := startWatcher(t, store)
	next(t, events)

	testsupport.WriteText(t, store.Path(), "{not json")

	for {
		ev := next(t, events)
		if ev.err != nil {
			if !errors.Is(ev.err, services.ErrQueueCorrupt) {
				t.Fatalf("expected corruption error, got %v", ev.err)
			}
			return
		}
	}
}
