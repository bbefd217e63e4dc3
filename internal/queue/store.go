package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docshelf/internal/fileutil"
	"docshelf/internal/logging"
)

// Archiver receives every entry that reaches a terminal status, just before it
// leaves the active queue.
type Archiver interface {
	Archive(ctx context.Context, entry Entry) error
}

// Store reads and writes the queue document. Every mutation is a full
// load-transform-save round trip ending in an atomic replace.
type Store struct {
	path     string
	archiver Archiver
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithArchiver registers the terminal-entry hook.
func WithArchiver(a Archiver) Option {
	return func(s *Store) {
		s.archiver = a
	}
}

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logging.NewComponentLogger(logger, "queue")
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore returns a Store for the queue file at path.
func NewStore(path string, opts ...Option) *Store {
	s := &Store{
		path:   path,
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the queue file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the queue document. A missing file yields an empty document.
// Malformed content returns a *CorruptionError and the file is not touched.
func (s *Store) Load(ctx context.Context) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read queue file: %w", err)
	}
	return Decode(s.path, data)
}

// Save stamps last_updated and atomically replaces the queue file.
func (s *Store) Save(ctx context.Context, doc *Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc == nil {
		doc = NewDocument()
	}
	if doc.SchemaVersion == "" {
		doc.SchemaVersion = SchemaVersion
	}
	if doc.Files == nil {
		doc.Files = []Entry{}
	}
	doc.LastUpdated = formatTimestamp(s.now())

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode queue: %w", err)
	}
	data = append(data, '\n')
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("ensure queue directory: %w", err)
	}
	if err := fileutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write queue file: %w", err)
	}
	return nil
}

// Transact loads the document, applies fn, and saves the result. An error
// from fn aborts the transaction without writing.
func (s *Store) Transact(ctx context.Context, fn func(*Document) error) error {
	doc, err := s.Load(ctx)
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return s.Save(ctx, doc)
}

// Append adds new entries. Missing status defaults to pending and missing
// timestamps to now; ids must not collide with live entries.
func (s *Store) Append(ctx context.Context, entries ...Entry) error {
	return s.Transact(ctx, func(doc *Document) error {
		for _, entry := range entries {
			if entry.Status == "" {
				entry.Status = StatusPending
			}
			if strings.TrimSpace(entry.Timestamp) == "" {
				entry.Timestamp = formatTimestamp(s.now())
			}
			if err := normalizeEntry(&entry); err != nil {
				return err
			}
			if doc.Find(entry.ID) != nil {
				return fmt.Errorf("%w: %s", ErrDuplicateID, entry.ID)
			}
			doc.Files = append(doc.Files, entry)
		}
		return nil
	})
}

// UpdateStatus moves one entry along the transition table.
func (s *Store) UpdateStatus(ctx context.Context, id string, to Status) (Entry, error) {
	return s.Finalize(ctx, id, to, nil)
}

// Finalize applies the transition id → to, lets mutate adjust the entry
// (error text, rewritten destination), and when the new status is terminal
// hands the entry to the archiver and removes it from the document, all in
// one round trip.
func (s *Store) Finalize(ctx context.Context, id string, to Status, mutate func(*Entry)) (Entry, error) {
	var result Entry
	err := s.Transact(ctx, func(doc *Document) error {
		entry := doc.Find(id)
		if entry == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if !CanTransition(entry.Status, to) {
			return transitionError(id, entry.Status, to)
		}
		entry.Status = to
		if mutate != nil {
			mutate(entry)
		}
		result = *entry
		if !to.IsTerminal() {
			return nil
		}
		if s.archiver != nil {
			if err := s.archiver.Archive(ctx, result); err != nil {
				logging.WarnWithContext(s.logger, "archive terminal entry failed", "queue_archive_failed",
					logging.String(logging.FieldEntryID, id),
					logging.String("status", string(to)),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check the archive database permissions"),
					logging.String(logging.FieldImpact, "entry removed from queue without an archive row"),
				)
			}
		}
		doc.remove(id)
		return nil
	})
	return result, err
}

// Remove drops an entry regardless of status.
func (s *Store) Remove(ctx context.Context, id string) error {
	return s.Transact(ctx, func(doc *Document) error {
		if !doc.remove(id) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil
	})
}
