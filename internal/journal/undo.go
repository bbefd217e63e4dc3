package journal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"docshelf/internal/fileutil"
	"docshelf/internal/logging"
	"docshelf/internal/services"
	"docshelf/internal/services/checksum"
)

// Outcome is the result of reversing one record.
type Outcome string

const (
	OutcomeUndone      Outcome = "undone"
	OutcomeWouldUndo   Outcome = "would_undo"
	OutcomeUnavailable Outcome = "unavailable"
	OutcomeFailed      Outcome = "failed"
)

// ItemReport describes what happened to one record.
type ItemReport struct {
	Record  Record
	Outcome Outcome
	Reason  string
	Err     error
}

// Report summarises an undo batch. Failed counts both unavailable and failed
// records; every record appears in Items.
type Report struct {
	Undone  int
	Failed  int
	DryRun  bool
	Cleared bool
	Items   []ItemReport
}

// Options controls an undo batch.
type Options struct {
	DryRun bool
}

// Undoer reverses journal records.
type Undoer struct {
	journal *Journal
	hasher  checksum.Hasher
	retain  bool
	logger  *slog.Logger
}

// UndoerOption configures an Undoer.
type UndoerOption func(*Undoer)

// WithRetainUnreversed keeps records that could not be reversed after a
// partially successful batch.
func WithRetainUnreversed(retain bool) UndoerOption {
	return func(u *Undoer) {
		u.retain = retain
	}
}

// WithLogger sets the undo logger.
func WithLogger(logger *slog.Logger) UndoerOption {
	return func(u *Undoer) {
		u.logger = logging.NewComponentLogger(logger, "undo")
	}
}

// NewUndoer builds an Undoer over j using hasher for destination checks.
func NewUndoer(j *Journal, hasher checksum.Hasher, opts ...UndoerOption) *Undoer {
	if hasher == nil {
		hasher = checksum.SHA256{}
	}
	u := &Undoer{journal: j, hasher: hasher, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// UndoBatch walks the journal newest first and moves each reversible file back
// to its source path. Once at least one record is undone the journal is
// cleared; with retain set only the undone records are dropped.
func (u *Undoer) UndoBatch(ctx context.Context, opts Options) (Report, error) {
	records, err := u.journal.Records(ctx)
	if err != nil {
		return Report{}, err
	}
	report := Report{DryRun: opts.DryRun, Items: make([]ItemReport, 0, len(records))}
	undone := make(map[int]struct{})

	for i := len(records) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		rec := records[i]
		item := u.undoOne(ctx, rec, opts.DryRun)
		switch item.Outcome {
		case OutcomeUndone, OutcomeWouldUndo:
			report.Undone++
			undone[i] = struct{}{}
		default:
			report.Failed++
			logging.WarnWithContext(u.logger, "undo skipped record", "undo_unavailable",
				logging.String(logging.FieldEntryID, rec.ID),
				logging.String("source_path", rec.SourcePath),
				logging.String("dest_path", rec.DestPath),
				logging.String("reason", item.Reason),
				logging.String(logging.FieldErrorHint, "restore the file manually if it is still needed"),
				logging.String(logging.FieldImpact, "file stays at its recorded destination"),
			)
		}
		report.Items = append(report.Items, item)
	}

	if opts.DryRun || report.Undone == 0 {
		return report, nil
	}

	if u.retain {
		kept := make([]Record, 0, len(records)-len(undone))
		for i, rec := range records {
			if _, ok := undone[i]; !ok {
				kept = append(kept, rec)
			}
		}
		if err := u.journal.Replace(ctx, kept); err != nil {
			return report, fmt.Errorf("prune journal: %w", err)
		}
		report.Cleared = len(kept) == 0
		return report, nil
	}

	if err := u.journal.Clear(ctx); err != nil {
		return report, fmt.Errorf("clear journal: %w", err)
	}
	report.Cleared = true
	u.logger.Info("undo batch complete",
		logging.String(logging.FieldEventType, "undo_batch_complete"),
		logging.Int("undone", report.Undone),
		logging.Int("failed", report.Failed),
	)
	return report, nil
}

func (u *Undoer) undoOne(ctx context.Context, rec Record, dryRun bool) ItemReport {
	item := ItemReport{Record: rec}
	unavailable := func(reason string) ItemReport {
		item.Outcome = OutcomeUnavailable
		item.Reason = reason
		item.Err = services.Wrap(services.ErrUndoUnavailable, "undo", rec.ID, reason, nil)
		return item
	}

	if !rec.CanUndo {
		if rec.DestPath == DeletedMarker {
			return unavailable("deleted files cannot be restored")
		}
		return unavailable("content changed during the original move")
	}
	exists, err := fileutil.Exists(rec.DestPath)
	if err != nil {
		return unavailable(fmt.Sprintf("cannot stat destination: %v", err))
	}
	if !exists {
		return unavailable("destination no longer exists")
	}
	current, err := u.hasher.Sum(ctx, rec.DestPath)
	if err != nil {
		return unavailable(fmt.Sprintf("cannot hash destination: %v", err))
	}
	if current != rec.HashAfter {
		return unavailable("destination content changed since the move")
	}
	occupied, err := fileutil.Exists(rec.SourcePath)
	if err != nil {
		return unavailable(fmt.Sprintf("cannot stat original path: %v", err))
	}
	if occupied {
		return unavailable("original path is occupied")
	}

	if dryRun {
		item.Outcome = OutcomeWouldUndo
		return item
	}

	if err := os.MkdirAll(filepath.Dir(rec.SourcePath), 0o755); err != nil {
		item.Outcome = OutcomeFailed
		item.Reason = "cannot recreate original directory"
		item.Err = services.Wrap(services.ErrDestinationUnwritable, "undo", "mkdir", filepath.Dir(rec.SourcePath), err)
		return item
	}
	if _, err := fileutil.Move(rec.DestPath, rec.SourcePath); err != nil {
		item.Outcome = OutcomeFailed
		item.Reason = "move back failed"
		item.Err = services.Wrap(services.ErrMoveFailed, "undo", "move", rec.DestPath, err)
		return item
	}
	item.Outcome = OutcomeUndone
	u.logger.Info("record undone",
		logging.String(logging.FieldEventType, "undo_record"),
		logging.String(logging.FieldEntryID, rec.ID),
		logging.String("source_path", rec.SourcePath),
		logging.String("dest_path", rec.DestPath),
	)
	return item
}
