// Package watch follows the queue file and reports each new version of it.
// It never writes.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"docshelf/internal/logging"
	"docshelf/internal/queue"
)

const defaultSettle = 150 * time.Millisecond

// Handler receives the freshly loaded document, or the load error when the
// file is mid-edit or corrupt.
type Handler func(doc *queue.Document, err error)

// Watcher reloads the queue whenever its file changes.
type Watcher struct {
	store  *queue.Store
	logger *slog.Logger
	settle time.Duration
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the watcher logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		w.logger = logging.NewComponentLogger(logger, "watch")
	}
}

// WithSettle sets how long to wait after the last event before reloading.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// New returns a Watcher for store.
func New(store *queue.Store, opts ...Option) *Watcher {
	w := &Watcher{store: store, logger: logging.NewNop(), settle: defaultSettle}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run calls fn once with the current document and again after every change
// until ctx is cancelled. The directory is watched rather than the file so
// atomic replaces (create or rename over the old inode) are seen.
func (w *Watcher) Run(ctx context.Context, fn Handler) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(w.store.Path())
	name := filepath.Base(w.store.Path())
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	fn(w.store.Load(ctx))

	timer := time.NewTimer(w.settle)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.logger.Debug("queue file event",
					logging.String("op", event.Op.String()),
					logging.String("file", event.Name),
				)
				timer.Reset(w.settle)
			}
		case <-timer.C:
			fn(w.store.Load(ctx))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.WarnWithContext(w.logger, "fsnotify error", "watch_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "a queue change may be reported late"),
			)
		}
	}
}
