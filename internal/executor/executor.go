// Package executor performs the filesystem side of a queue entry: a verified
// move or a delete, recorded in the undo journal once it has happened.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"docshelf/internal/fileutil"
	"docshelf/internal/journal"
	"docshelf/internal/logging"
	"docshelf/internal/queue"
	"docshelf/internal/services"
	"docshelf/internal/services/checksum"
	"docshelf/internal/services/validator"
)

// Recorder persists executed operations.
type Recorder interface {
	Append(ctx context.Context, rec journal.Record) error
}

// Plan is the resolved operation for one entry.
type Plan struct {
	Dest      string
	Delete    bool
	Overwrite bool
}

// Result is the outcome of executing one entry. Record is set exactly when
// the filesystem operation completed.
type Result struct {
	Status     queue.Status
	Record     *journal.Record
	Method     fileutil.MoveMethod
	Err        error
	JournalErr error
}

// Executor runs moves and deletes one at a time.
type Executor struct {
	hasher    checksum.Hasher
	validator validator.Validator
	recorder  Recorder
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures an Executor.
type Option func(*Executor)

// WithValidator sets the destination validator.
func WithValidator(v validator.Validator) Option {
	return func(e *Executor) {
		if v != nil {
			e.validator = v
		}
	}
}

// WithLogger sets the executor logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logging.NewComponentLogger(logger, "executor")
	}
}

// WithClock overrides the time source for executed_at.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		if now != nil {
			e.now = now
		}
	}
}

// New builds an Executor that hashes with hasher and records into recorder.
func New(hasher checksum.Hasher, recorder Recorder, opts ...Option) *Executor {
	if hasher == nil {
		hasher = checksum.SHA256{}
	}
	e := &Executor{
		hasher:    hasher,
		validator: validator.AllowAll{},
		recorder:  recorder,
		logger:    logging.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute performs plan for entry. Failures are returned in Result with
// Status failed and never produce a record.
func (e *Executor) Execute(ctx context.Context, entry queue.Entry, plan Plan) Result {
	logger := e.logger.With(logging.String(logging.FieldEntryID, entry.ID))
	if err := ctx.Err(); err != nil {
		return failed(err)
	}
	if _, err := os.Lstat(entry.SourcePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return failed(services.Wrap(services.ErrSourceMissing, "execute", "stat source", entry.SourcePath, err))
		}
		return failed(services.Wrap(services.ErrMoveFailed, "execute", "stat source", entry.SourcePath, err))
	}
	if plan.Delete {
		return e.delete(ctx, logger, entry)
	}
	return e.move(ctx, logger, entry, plan)
}

func (e *Executor) move(ctx context.Context, logger *slog.Logger, entry queue.Entry, plan Plan) Result {
	dest := plan.Dest
	if err := e.validator.Validate(ctx, dest); err != nil {
		if errors.Is(err, services.ErrDestinationRejected) {
			return failed(services.Wrap(services.ErrDestinationRejected, "execute", "validate destination", dest, err))
		}
		return failed(err)
	}

	parent := filepath.Dir(dest)
	parentExists, err := fileutil.Exists(parent)
	if err != nil {
		return failed(services.Wrap(services.ErrDestinationUnwritable, "execute", "stat destination directory", parent, err))
	}
	if !parentExists {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return failed(services.Wrap(services.ErrDestinationUnwritable, "execute", "create destination directory", parent, err))
		}
		logger.Info("created destination directory",
			logging.String(logging.FieldEventType, "destination_dir_created"),
			logging.String("dir", parent),
			logging.Bool("new_folder", entry.NewFolder),
		)
	}

	if !plan.Overwrite {
		occupied, err := fileutil.Exists(dest)
		if err != nil {
			return failed(services.Wrap(services.ErrDestinationUnwritable, "execute", "stat destination", dest, err))
		}
		if occupied {
			return failed(services.Wrap(services.ErrMoveFailed, "execute", "move", fmt.Sprintf("destination %s appeared before the move", dest), nil))
		}
	}

	before, err := e.hasher.Sum(ctx, entry.SourcePath)
	if err != nil {
		return failed(services.Wrap(services.ErrMoveFailed, "execute", "hash source", entry.SourcePath, err))
	}

	method, err := fileutil.Move(entry.SourcePath, dest)
	if err != nil {
		if errors.Is(err, fileutil.ErrCopyFailed) {
			return failed(services.Wrap(services.ErrCopyVerification, "execute", "copy", dest, err))
		}
		return failed(services.Wrap(services.ErrMoveFailed, "execute", "move", dest, err))
	}

	after, err := e.hasher.Sum(ctx, dest)
	if err != nil {
		logging.WarnWithContext(logger, "hash after move failed", "hash_after_failed",
			logging.String("dest_path", dest),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the destination is readable"),
			logging.String(logging.FieldImpact, "move cannot be undone automatically"),
		)
	}
	rec := journal.Record{
		ID:         entry.ID,
		SourcePath: entry.SourcePath,
		DestPath:   dest,
		Action:     queue.ActionMove,
		ExecutedAt: e.now().UTC(),
		HashBefore: before,
		HashAfter:  after,
		CanUndo:    after != "" && before == after,
		Method:     string(method),
	}
	result := Result{Status: queue.StatusCompleted, Record: &rec, Method: method}
	result.JournalErr = e.record(ctx, logger, rec)
	logger.Info("entry moved",
		logging.String(logging.FieldEventType, "entry_moved"),
		logging.String("source_path", entry.SourcePath),
		logging.String("dest_path", dest),
		logging.String("method", string(method)),
		logging.Bool("can_undo", rec.CanUndo),
	)
	return result
}

func (e *Executor) delete(ctx context.Context, logger *slog.Logger, entry queue.Entry) Result {
	before, err := e.hasher.Sum(ctx, entry.SourcePath)
	if err != nil {
		return failed(services.Wrap(services.ErrMoveFailed, "execute", "hash source", entry.SourcePath, err))
	}
	if err := os.RemoveAll(entry.SourcePath); err != nil {
		return failed(services.Wrap(services.ErrMoveFailed, "execute", "delete", entry.SourcePath, err))
	}
	rec := journal.Record{
		ID:         entry.ID,
		SourcePath: entry.SourcePath,
		DestPath:   journal.DeletedMarker,
		Action:     queue.ActionDelete,
		ExecutedAt: e.now().UTC(),
		HashBefore: before,
		CanUndo:    false,
	}
	result := Result{Status: queue.StatusDeleted, Record: &rec}
	result.JournalErr = e.record(ctx, logger, rec)
	logger.Info("entry deleted",
		logging.String(logging.FieldEventType, "entry_deleted"),
		logging.String("source_path", entry.SourcePath),
		logging.Int("duplicates", len(entry.DuplicateOf)),
	)
	return result
}

func (e *Executor) record(ctx context.Context, logger *slog.Logger, rec journal.Record) error {
	if e.recorder == nil {
		return nil
	}
	if err := e.recorder.Append(ctx, rec); err != nil {
		logging.ErrorWithContext(logger, "journal append failed after completed operation", "journal_append_failed",
			logging.String("source_path", rec.SourcePath),
			logging.String("dest_path", rec.DestPath),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "the operation happened but cannot be undone by docshelf"),
		)
		return err
	}
	return nil
}

func failed(err error) Result {
	return Result{Status: queue.StatusFailed, Err: err}
}
