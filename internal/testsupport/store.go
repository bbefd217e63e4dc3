package testsupport

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"docshelf/internal/config"
	"docshelf/internal/queue"
)

// NewStore returns a queue.Store on the config's queue path.
func NewStore(t testing.TB, cfg *config.Config, opts ...queue.Option) *queue.Store {
	t.Helper()
	return queue.NewStore(cfg.QueuePath(), opts...)
}

// SeedQueue appends entries to the store or fails the test.
func SeedQueue(t testing.TB, store *queue.Store, entries ...queue.Entry) {
	t.Helper()

	if err := store.Append(context.Background(), entries...); err != nil {
		t.Fatalf("seed queue: %v", err)
	}
}

// LoadQueue loads the current document or fails the test.
func LoadQueue(t testing.TB, store *queue.Store) *queue.Document {
	t.Helper()

	doc, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load queue: %v", err)
	}
	return doc
}

// NewEntry builds a pending move entry whose source is created on disk under
// base with content.
func NewEntry(t testing.TB, base, id, name, destDir string, confidence int, content string) queue.Entry {
	t.Helper()

	source := filepath.Join(base, "inbox", name)
	WriteText(t, source, content)
	return queue.Entry{
		ID:         id,
		SourcePath: source,
		DestPath:   filepath.Join(destDir, name),
		Confidence: confidence,
		Status:     queue.StatusPending,
		Action:     queue.ActionMove,
		Reasoning:  fmt.Sprintf("test entry %s", id),
	}
}
