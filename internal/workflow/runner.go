package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"docshelf/internal/conflict"
	"docshelf/internal/executor"
	"docshelf/internal/logging"
	"docshelf/internal/queue"
	"docshelf/internal/router"
	"docshelf/internal/services"
)

// Verdict is the operator's answer at the confirmation decision point.
type Verdict string

const (
	VerdictAccept Verdict = "accept"
	VerdictReject Verdict = "reject"
	VerdictSkip   Verdict = "skip"
)

// Confirmer answers the confirmation decision point for entries in the
// confirm band.
type Confirmer interface {
	Confirm(ctx context.Context, entry queue.Entry, decision router.Decision) (Verdict, error)
}

// Options selects how a run behaves.
type Options struct {
	Mode   router.Mode
	DryRun bool
}

// Runner processes the queue one entry at a time.
type Runner struct {
	store     *queue.Store
	router    *router.Router
	executor  *executor.Executor
	lock      *queue.Lock
	confirmer Confirmer
	prompter  conflict.Prompter
	logger    *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLock makes live runs hold lock for their whole duration.
func WithLock(lock *queue.Lock) RunnerOption {
	return func(r *Runner) {
		r.lock = lock
	}
}

// WithConfirmer sets the interactive confirmation surface.
func WithConfirmer(c Confirmer) RunnerOption {
	return func(r *Runner) {
		r.confirmer = c
	}
}

// WithPrompter sets the interactive conflict prompt.
func WithPrompter(p conflict.Prompter) RunnerOption {
	return func(r *Runner) {
		r.prompter = p
	}
}

// WithLogger sets the runner logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logging.NewComponentLogger(logger, "workflow")
	}
}

// NewRunner wires a Runner from its collaborators.
func NewRunner(store *queue.Store, rt *router.Router, ex *executor.Executor, opts ...RunnerOption) *Runner {
	r := &Runner{
		store:    store,
		router:   rt,
		executor: ex,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run makes one pass over the actionable entries. Per-entry failures are
// recorded on the entry and in the summary; only fatal conditions (lock held,
// corrupt queue, queue write failure, prompt I/O failure) return an error.
func (r *Runner) Run(ctx context.Context, opts Options) (Summary, error) {
	if opts.Mode == "" {
		opts.Mode = router.ModeInteractive
	}
	summary := Summary{RunID: uuid.NewString(), DryRun: opts.DryRun}
	ctx = logging.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, r.logger)

	if r.lock != nil && !opts.DryRun {
		if err := r.lock.TryAcquire(); err != nil {
			return summary, err
		}
		defer func() {
			if err := r.lock.Release(); err != nil {
				logging.WarnWithContext(logger, "release lock failed", "lock_release_failed",
					logging.String("lock_path", r.lock.Path()),
					logging.Error(err),
					logging.String(logging.FieldImpact, "lock file stays until the process exits"),
				)
			}
		}()
	}

	doc, err := r.store.Load(ctx)
	if err != nil {
		logging.ErrorWithContext(logger, "queue load failed", "queue_load_failed",
			logging.String("queue_path", r.store.Path()),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fix or restore the queue file; it was not modified"),
		)
		return summary, err
	}
	entries := doc.Actionable()
	logger.Info("batch started",
		logging.String(logging.FieldEventType, "batch_started"),
		logging.String("mode", string(opts.Mode)),
		logging.Bool("dry_run", opts.DryRun),
		logging.Int("actionable", len(entries)),
	)

	prompter := r.prompter
	if opts.DryRun {
		prompter = nil
	}
	resolver := conflict.NewResolver(opts.Mode, prompter, conflict.NewReservations())
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if err := r.process(ctx, logger, resolver, entry, opts, &summary); err != nil {
			return summary, err
		}
	}

	logger.Info("batch finished",
		logging.String(logging.FieldEventType, "batch_finished"),
		logging.Int("completed", summary.Completed),
		logging.Int("deleted", summary.Deleted),
		logging.Int("failed", summary.Failed),
		logging.Int("left_pending", summary.LeftPending),
		logging.Int("rejected", summary.Rejected),
		logging.Int("skipped", summary.Skipped),
	)
	return summary, nil
}

func (r *Runner) process(ctx context.Context, logger *slog.Logger, resolver *conflict.Resolver, entry queue.Entry, opts Options, summary *Summary) error {
	logger = logger.With(logging.String(logging.FieldEntryID, entry.ID))
	decision := r.router.Route(entry, opts.Mode)
	line := Line{
		EntryID: entry.ID,
		Source:  entry.SourcePath,
		Dest:    decision.DestPath,
		Band:    decision.Band,
		Status:  entry.Status,
		DryRun:  opts.DryRun,
	}

	userApproved := false
	if decision.Band == router.BandConfirm && entry.Status == queue.StatusApproved {
		decision.Action = router.ActionExecute
		userApproved = true
	}

	switch decision.Action {
	case router.ActionLeave:
		r.leave(logger, &line, summary, "automated mode leaves confirmation-band entries pending")
		return nil
	case router.ActionAsk:
		if opts.DryRun || r.confirmer == nil {
			line.Outcome = OutcomeAsk
			r.leave(logger, &line, summary, "")
			return nil
		}
		verdict, err := r.confirmer.Confirm(ctx, entry, decision)
		if err != nil {
			return fmt.Errorf("confirm entry %s: %w", entry.ID, err)
		}
		logDecision(logger, "confirmation", string(verdict), entry)
		switch verdict {
		case VerdictAccept:
			userApproved = true
		case VerdictReject:
			if _, err := r.store.UpdateStatus(ctx, entry.ID, queue.StatusRejected); err != nil {
				return err
			}
			line.Outcome = OutcomeRejected
			line.Status = queue.StatusRejected
			summary.Rejected++
			summary.Lines = append(summary.Lines, line)
			return nil
		default:
			line.Outcome = OutcomeSkipped
			summary.Skipped++
			summary.Lines = append(summary.Lines, line)
			return nil
		}
	}

	switch {
	case userApproved:
		summary.UserApproved++
	case decision.Band == router.BandFallback:
		summary.Fallback++
	default:
		summary.AutoApproved++
	}

	plan := executor.Plan{Dest: decision.DestPath, Delete: decision.Delete}
	if !plan.Delete {
		resolution, err := resolver.Resolve(ctx, entry, decision.DestPath)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			return r.fail(ctx, logger, entry, &line, summary, err, opts.DryRun)
		}
		line.Strategy = resolution.Strategy
		if resolution.Strategy == conflict.StrategySkip {
			line.Outcome = OutcomeSkipped
			summary.Skipped++
			if !opts.DryRun {
				if _, err := r.store.Finalize(ctx, entry.ID, queue.StatusSkipped, func(e *queue.Entry) {
					e.Error = "destination conflict skipped by operator"
				}); err != nil {
					return err
				}
				line.Status = queue.StatusSkipped
			}
			summary.Lines = append(summary.Lines, line)
			return nil
		}
		plan.Dest = resolution.Path
		plan.Overwrite = resolution.Strategy == conflict.StrategyOverwrite
		line.Dest = resolution.Path
	} else {
		line.Dest = queue.DeleteSentinel
	}

	if opts.DryRun {
		if plan.Delete {
			line.Outcome = OutcomeDeleted
		} else {
			line.Outcome = OutcomeMoved
			resolver.Reserved.Reserve(plan.Dest)
		}
		summary.Lines = append(summary.Lines, line)
		return nil
	}

	if entry.Status != queue.StatusApproved {
		if _, err := r.store.UpdateStatus(ctx, entry.ID, queue.StatusApproved); err != nil {
			return err
		}
		entry.Status = queue.StatusApproved
	}

	result := r.executor.Execute(ctx, entry, plan)
	if result.Err != nil {
		return r.fail(ctx, logger, entry, &line, summary, result.Err, false)
	}
	if result.Record != nil {
		summary.Records = append(summary.Records, *result.Record)
	}
	if result.JournalErr != nil {
		summary.JournalFailures++
		line.Cause = "not recorded for undo: " + result.JournalErr.Error()
	}
	finalDest := plan.Dest
	if _, err := r.store.Finalize(ctx, entry.ID, result.Status, func(e *queue.Entry) {
		e.Error = ""
		if !plan.Delete {
			e.DestPath = finalDest
		}
	}); err != nil {
		return err
	}
	line.Status = result.Status
	if plan.Delete {
		line.Outcome = OutcomeDeleted
		summary.Deleted++
	} else {
		line.Outcome = OutcomeMoved
		summary.Completed++
		resolver.Reserved.Reserve(plan.Dest)
	}
	summary.Lines = append(summary.Lines, line)
	return nil
}

func (r *Runner) leave(logger *slog.Logger, line *Line, summary *Summary, reason string) {
	if line.Outcome == "" {
		line.Outcome = OutcomeLeft
	}
	summary.LeftPending++
	summary.Lines = append(summary.Lines, *line)
	if reason != "" {
		logger.Debug("entry left pending",
			logging.String(logging.FieldEventType, "entry_left_pending"),
			logging.String("reason", reason),
		)
	}
}

func (r *Runner) fail(ctx context.Context, logger *slog.Logger, entry queue.Entry, line *Line, summary *Summary, cause error, dryRun bool) error {
	line.Outcome = OutcomeFailed
	line.Cause = cause.Error()
	summary.Failed++
	summary.Lines = append(summary.Lines, *line)
	logging.WarnWithContext(logger, "entry failed", "entry_failed",
		logging.String("source_path", entry.SourcePath),
		logging.String("dest_path", line.Dest),
		logging.String("error_kind", services.Kind(cause)),
		logging.Error(cause),
		logging.String(logging.FieldErrorHint, "fix the cause and re-queue the entry"),
		logging.String(logging.FieldImpact, "entry marked failed; the batch continues"),
	)
	if dryRun {
		return nil
	}
	if entry.Status != queue.StatusApproved && !queue.CanTransition(entry.Status, queue.StatusFailed) {
		if _, err := r.store.UpdateStatus(ctx, entry.ID, queue.StatusApproved); err != nil {
			return err
		}
	}
	if _, err := r.store.Finalize(ctx, entry.ID, queue.StatusFailed, func(e *queue.Entry) {
		e.Error = cause.Error()
	}); err != nil {
		return err
	}
	summary.Lines[len(summary.Lines)-1].Status = queue.StatusFailed
	return nil
}

func logDecision(logger *slog.Logger, decisionType, result string, entry queue.Entry) {
	attrs := logging.DecisionAttrs(decisionType, result, fmt.Sprintf("confidence %d", entry.Confidence))
	attrs = append(attrs, logging.String(logging.FieldEventType, "decision"))
	logger.Info("operator decision", logging.Args(attrs...)...)
}
