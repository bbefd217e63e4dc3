package workflow_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"docshelf/internal/config"
	"docshelf/internal/conflict"
	"docshelf/internal/executor"
	"docshelf/internal/journal"
	"docshelf/internal/queue"
	"docshelf/internal/router"
	"docshelf/internal/services"
	"docshelf/internal/services/checksum"
	"docshelf/internal/testsupport"
	"docshelf/internal/workflow"
)

type recordingArchiver struct {
	entries []queue.Entry
}

func (a *recordingArchiver) Archive(_ context.Context, entry queue.Entry) error {
	a.entries = append(a.entries, entry)
	return nil
}

func (a *recordingArchiver) status(id string) queue.Status {
	for _, entry := range a.entries {
		if entry.ID == id {
			return entry.Status
		}
	}
	return ""
}

type scriptedConfirmer struct {
	t        *testing.T
	verdicts []workflow.Verdict
	calls    int
}

func (c *scriptedConfirmer) Confirm(_ context.Context, entry queue.Entry, _ router.Decision) (workflow.Verdict, error) {
	if c.calls >= len(c.verdicts) {
		c.t.Fatalf("unexpected confirmation prompt for %s", entry.ID)
	}
	v := c.verdicts[c.calls]
	c.calls++
	return v, nil
}

type fixedPrompter struct {
	strategy conflict.Strategy
	calls    int
}

func (p *fixedPrompter) ChooseConflict(context.Context, queue.Entry, string) (conflict.Strategy, error) {
	p.calls++
	return p.strategy, nil
}

type harness struct {
	cfg      *config.Config
	base     string
	docs     string
	store    *queue.Store
	journal  *journal.Journal
	archiver *recordingArchiver
	runner   *workflow.Runner
}

func newHarness(t *testing.T, opts ...workflow.RunnerOption) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	archiver := &recordingArchiver{}
	store := testsupport.NewStore(t, cfg, queue.WithArchiver(archiver))
	j := journal.New(cfg.JournalPath())
	rt, err := router.New(cfg.Routing.AutoApproveThreshold, cfg.Routing.AskThreshold, cfg.Paths.FallbackDir)
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	ex := executor.New(checksum.SHA256{}, j)
	opts = append([]workflow.RunnerOption{workflow.WithLock(queue.NewLock(cfg.LockPath()))}, opts...)
	base := testsupport.BaseDir(cfg)
	return &harness{
		cfg:      cfg,
		base:     base,
		docs:     filepath.Join(base, "docs"),
		store:    store,
		journal:  j,
		archiver: archiver,
		runner:   workflow.NewRunner(store, rt, ex, opts...),
	}
}

func (h *harness) entry(t *testing.T, id, name string, confidence int, content string) queue.Entry {
	t.Helper()
	return testsupport.NewEntry(t, h.base, id, name, h.docs, confidence, content)
}

func (h *harness) run(t *testing.T, mode router.Mode, dryRun bool) workflow.Summary {
	t.Helper()
	summary, err := h.runner.Run(context.Background(), workflow.Options{Mode: mode, DryRun: dryRun})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return summary
}

func (h *harness) records(t *testing.T) []journal.Record {
	t.Helper()
	records, err := h.journal.Records(context.Background())
	if err != nil {
		t.Fatalf("journal records: %v", err)
	}
	return records
}

func TestHighConfidenceMoveCompletes(t *testing.T) {
	h := newHarness(t)
	entry := h.entry(t, "a", "statement.pdf", 95, "balance")
	original := testsupport.Digest(t, entry.SourcePath)
	testsupport.SeedQueue(t, h.store, entry)

	summary := h.run(t, router.ModeInteractive, false)

	if summary.AutoApproved != 1 || summary.Completed != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	testsupport.AssertMissing(t, entry.SourcePath)
	if got := testsupport.Digest(t, entry.DestPath); got != original {
		t.Fatalf("destination hash %s, want %s", got, original)
	}
	if h.archiver.status("a") != queue.StatusCompleted {
		t.Fatalf("entry not archived as completed: %+v", h.archiver.entries)
	}
	if doc := testsupport.LoadQueue(t, h.store); len(doc.Files) != 0 {
		t.Fatalf("terminal entry left in queue: %+v", doc.Files)
	}
	records := h.records(t)
	if len(records) != 1 {
		t.Fatalf("expected one history record, got %d", len(records))
	}
	if rec := records[0]; rec.HashBefore != rec.HashAfter || !rec.CanUndo {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestAutomatedModeExecutesAutoBandWithoutPrompting(t *testing.T) {
	h := newHarness(t, workflow.WithConfirmer(&scriptedConfirmer{t: t}))
	move := h.entry(t, "move", "a.pdf", 90, "a")
	dup := h.entry(t, "dup", "copy.pdf", 100, "copy")
	dup.Action = queue.ActionDelete
	dup.DestPath = queue.DeleteSentinel
	dup.DuplicateOf = []string{filepath.Join(h.docs, "copy.pdf")}
	testsupport.SeedQueue(t, h.store, move, dup)

	summary := h.run(t, router.ModeAutomated, false)

	if summary.Completed != 1 || summary.Deleted != 1 || summary.AutoApproved != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	testsupport.AssertMissing(t, dup.SourcePath)
	if h.archiver.status("dup") != queue.StatusDeleted {
		t.Fatalf("delete not archived: %+v", h.archiver.entries)
	}
	for _, rec := range h.records(t) {
		if rec.Action == queue.ActionDelete && rec.CanUndo {
			t.Fatalf("delete record marked undoable: %+v", rec)
		}
	}
}

func TestAutomatedModeLeavesConfirmBandPending(t *testing.T) {
	h := newHarness(t)
	for i, score := range []int{50, 65, 89} {
		entry := h.entry(t, string(rune('a'+i)), string(rune('a'+i))+".pdf", score, "content")
		testsupport.SeedQueue(t, h.store, entry)
	}
	before := testsupport.ReadText(t, h.store.Path())

	summary := h.run(t, router.ModeAutomated, false)

	if summary.LeftPending != 3 || summary.Completed != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if after := testsupport.ReadText(t, h.store.Path()); after != before {
		t.Fatal("queue rewritten for entries left pending")
	}
	if _, err := os.Stat(h.docs); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("destination tree touched: %v", err)
	}
}

func TestOperatorDeclineLeavesFilesystemAlone(t *testing.T) {
	confirmer := &scriptedConfirmer{verdicts: []workflow.Verdict{workflow.VerdictReject, workflow.VerdictSkip}}
	h := newHarness(t, workflow.WithConfirmer(confirmer))
	confirmer.t = t
	rejected := h.entry(t, "r", "rejected.pdf", 65, "one")
	skipped := h.entry(t, "s", "skipped.pdf", 65, "two")
	testsupport.SeedQueue(t, h.store, rejected, skipped)
	before := testsupport.Snapshot(t, filepath.Join(h.base, "inbox"))

	summary := h.run(t, router.ModeInteractive, false)

	if summary.Rejected != 1 || summary.Skipped != 1 || confirmer.calls != 2 {
		t.Fatalf("unexpected summary %+v (calls %d)", summary, confirmer.calls)
	}
	if after := testsupport.Snapshot(t, filepath.Join(h.base, "inbox")); !reflect.DeepEqual(before, after) {
		t.Fatalf("inbox changed: %v -> %v", before, after)
	}
	if len(h.records(t)) != 0 {
		t.Fatal("declined entries produced history records")
	}
	if h.archiver.status("r") != queue.StatusRejected {
		t.Fatalf("rejected entry not archived: %+v", h.archiver.entries)
	}
	doc := testsupport.LoadQueue(t, h.store)
	left := doc.Find("s")
	if left == nil || left.Status != queue.StatusPending || left.DestPath != skipped.DestPath {
		t.Fatalf("skipped entry changed: %+v", left)
	}
}

func TestOperatorAcceptExecutes(t *testing.T) {
	confirmer := &scriptedConfirmer{verdicts: []workflow.Verdict{workflow.VerdictAccept}}
	h := newHarness(t, workflow.WithConfirmer(confirmer))
	confirmer.t = t
	entry := h.entry(t, "a", "letter.txt", 70, "dear")
	testsupport.SeedQueue(t, h.store, entry)

	summary := h.run(t, router.ModeInteractive, false)

	if summary.UserApproved != 1 || summary.Completed != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if testsupport.ReadText(t, entry.DestPath) != "dear" {
		t.Fatal("accepted entry not moved")
	}
}

func TestReviewApprovedEntrySkipsConfirmation(t *testing.T) {
	h := newHarness(t)
	entry := h.entry(t, "a", "letter.txt", 60, "dear")
	entry.Status = queue.StatusApproved
	testsupport.SeedQueue(t, h.store, entry)

	summary := h.run(t, router.ModeAutomated, false)

	if summary.UserApproved != 1 || summary.Completed != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestFallbackBandMovesToFallbackDirectory(t *testing.T) {
	h := newHarness(t)
	entry := h.entry(t, "low", "mystery.bin", 10, "???")
	testsupport.SeedQueue(t, h.store, entry)

	summary := h.run(t, router.ModeAutomated, false)

	if summary.Fallback != 1 || summary.Completed != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	want := filepath.Join(h.cfg.Paths.FallbackDir, "mystery.bin")
	if testsupport.ReadText(t, want) != "???" {
		t.Fatal("entry not moved to fallback directory")
	}
	testsupport.AssertMissing(t, entry.DestPath)
	if got := h.archiver.entries[0].DestPath; got != want {
		t.Fatalf("archived dest %s, want %s", got, want)
	}
}

func TestSameDestinationRenamesSecondEntry(t *testing.T) {
	h := newHarness(t)
	dest := filepath.Join(h.docs, "report.pdf")
	first := testsupport.NewEntry(t, filepath.Join(h.base, "a"), "first", "report.pdf", h.docs, 95, "first")
	second := testsupport.NewEntry(t, filepath.Join(h.base, "b"), "second", "report.pdf", h.docs, 95, "second")
	testsupport.SeedQueue(t, h.store, first, second)

	summary := h.run(t, router.ModeAutomated, false)

	if summary.Completed != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if testsupport.ReadText(t, dest) != "first" {
		t.Fatal("first entry not at the proposed destination")
	}
	if testsupport.ReadText(t, filepath.Join(h.docs, "report (1).pdf")) != "second" {
		t.Fatal("second entry not at the renamed candidate")
	}
	if summary.Lines[1].Strategy != conflict.StrategyRename {
		t.Fatalf("second line strategy %s", summary.Lines[1].Strategy)
	}
}

func TestMissingSourceFailsAndBatchContinues(t *testing.T) {
	h := newHarness(t)
	gone := h.entry(t, "gone", "gone.pdf", 95, "x")
	next := h.entry(t, "next", "next.pdf", 95, "y")
	testsupport.SeedQueue(t, h.store, gone, next)
	if err := os.Remove(gone.SourcePath); err != nil {
		t.Fatal(err)
	}

	summary := h.run(t, router.ModeAutomated, false)

	if summary.Failed != 1 || summary.Completed != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if h.archiver.status("gone") != queue.StatusFailed {
		t.Fatalf("missing source not archived as failed: %+v", h.archiver.entries)
	}
	failures := summary.Failures()
	if len(failures) != 1 || failures[0].Source != gone.SourcePath || failures[0].Cause == "" {
		t.Fatalf("failure line must name the path and cause: %+v", failures)
	}
	if h.archiver.entries[0].Error == "" {
		t.Fatal("failed entry carries no error text")
	}
	if testsupport.ReadText(t, next.DestPath) != "y" {
		t.Fatal("batch did not continue past the failure")
	}
	if len(h.records(t)) != 1 {
		t.Fatal("failed entry produced a history record")
	}
}

func TestInteractiveConflictSkip(t *testing.T) {
	prompter := &fixedPrompter{strategy: conflict.StrategySkip}
	h := newHarness(t, workflow.WithPrompter(prompter))
	entry := h.entry(t, "a", "dup.pdf", 95, "new")
	testsupport.WriteText(t, entry.DestPath, "existing")
	testsupport.SeedQueue(t, h.store, entry)

	summary := h.run(t, router.ModeInteractive, false)

	if summary.Skipped != 1 || prompter.calls != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if testsupport.ReadText(t, entry.DestPath) != "existing" || testsupport.ReadText(t, entry.SourcePath) != "new" {
		t.Fatal("skip touched the filesystem")
	}
	if h.archiver.status("a") != queue.StatusSkipped {
		t.Fatalf("skip not archived: %+v", h.archiver.entries)
	}
}

func TestDryRunIsIdempotent(t *testing.T) {
	h := newHarness(t)
	first := testsupport.NewEntry(t, filepath.Join(h.base, "a"), "first", "report.pdf", h.docs, 95, "first")
	second := testsupport.NewEntry(t, filepath.Join(h.base, "b"), "second", "report.pdf", h.docs, 95, "second")
	low := h.entry(t, "low", "note.txt", 5, "n")
	mid := h.entry(t, "mid", "maybe.txt", 70, "m")
	testsupport.SeedQueue(t, h.store, first, second, low, mid)
	before := testsupport.Snapshot(t, h.base)

	one := h.run(t, router.ModeInteractive, true)
	two := h.run(t, router.ModeInteractive, true)

	if !reflect.DeepEqual(one.Lines, two.Lines) {
		t.Fatalf("dry runs disagree:\n%v\n%v", one.Lines, two.Lines)
	}
	if after := testsupport.Snapshot(t, h.base); !reflect.DeepEqual(before, after) {
		t.Fatal("dry run changed the filesystem or queue")
	}
	if len(one.Lines) != 4 {
		t.Fatalf("expected four decision lines, got %d", len(one.Lines))
	}
	if got := one.Lines[1].Dest; got != filepath.Join(h.docs, "report (1).pdf") {
		t.Fatalf("dry run did not reserve the first destination: %s", got)
	}
	if one.Lines[2].Outcome != workflow.OutcomeMoved || one.Lines[2].Band != router.BandFallback {
		t.Fatalf("unexpected fallback line %+v", one.Lines[2])
	}
	if one.Lines[3].Outcome != workflow.OutcomeAsk {
		t.Fatalf("confirm band line %+v", one.Lines[3])
	}
}

func TestDryRunNeverPromptsForConflicts(t *testing.T) {
	prompter := &fixedPrompter{strategy: conflict.StrategyOverwrite}
	h := newHarness(t, workflow.WithPrompter(prompter))
	entry := h.entry(t, "a", "dup.pdf", 95, "new")
	testsupport.WriteText(t, entry.DestPath, "existing")
	testsupport.SeedQueue(t, h.store, entry)

	one := h.run(t, router.ModeInteractive, true)
	two := h.run(t, router.ModeInteractive, true)

	if prompter.calls != 0 {
		t.Fatalf("dry run asked about the conflict %d time(s)", prompter.calls)
	}
	if !reflect.DeepEqual(one.Lines, two.Lines) {
		t.Fatalf("dry runs disagree:\n%v\n%v", one.Lines, two.Lines)
	}
	line := one.Lines[0]
	if line.Strategy != conflict.StrategyRename || line.Dest != filepath.Join(h.docs, "dup (1).pdf") {
		t.Fatalf("expected the rename default, got %+v", line)
	}
	if testsupport.ReadText(t, entry.DestPath) != "existing" {
		t.Fatal("dry run touched the destination")
	}
}

func TestRunThenUndoRestoresFile(t *testing.T) {
	h := newHarness(t)
	entry := h.entry(t, "a", "deed.pdf", 99, "deed")
	original := testsupport.Digest(t, entry.SourcePath)
	testsupport.SeedQueue(t, h.store, entry)
	h.run(t, router.ModeAutomated, false)

	report, err := journal.NewUndoer(h.journal, checksum.SHA256{}).UndoBatch(context.Background(), journal.Options{})
	if err != nil {
		t.Fatalf("UndoBatch: %v", err)
	}
	if report.Undone != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if got := testsupport.Digest(t, entry.SourcePath); got != original {
		t.Fatalf("restored hash %s, want %s", got, original)
	}
	if len(h.records(t)) != 0 {
		t.Fatal("history record not removed after undo")
	}
}

func TestCorruptQueueIsFatalAndUntouched(t *testing.T) {
	h := newHarness(t)
	testsupport.WriteText(t, h.store.Path(), `{"files": [{"id": "x"`)
	before := testsupport.ReadText(t, h.store.Path())

	_, err := h.runner.Run(context.Background(), workflow.Options{Mode: router.ModeAutomated})
	if !errors.Is(err, services.ErrQueueCorrupt) || !services.IsFatal(err) {
		t.Fatalf("expected fatal corruption error, got %v", err)
	}
	if testsupport.ReadText(t, h.store.Path()) != before {
		t.Fatal("corrupt queue file modified")
	}
}

func TestHeldLockIsFatal(t *testing.T) {
	h := newHarness(t)
	other := queue.NewLock(h.cfg.LockPath())
	if err := other.TryAcquire(); err != nil {
		t.Fatal(err)
	}
	defer other.Release()

	_, err := h.runner.Run(context.Background(), workflow.Options{Mode: router.ModeAutomated})
	if !errors.Is(err, services.ErrExecutorBusy) {
		t.Fatalf("expected busy error, got %v", err)
	}
}
