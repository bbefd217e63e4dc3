package main

import (
	"path/filepath"
	"testing"

	"docshelf/internal/queue"
	"docshelf/internal/testsupport"
)

func TestAutoRunMovesHighConfidenceEntries(t *testing.T) {
	env := setupCLITestEnv(t)
	high := testsupport.NewEntry(t, env.baseDir, "high", "invoice.pdf", filepath.Join(env.docsDir, "invoices"), 95, "invoice")
	mid := testsupport.NewEntry(t, env.baseDir, "mid", "letter.pdf", filepath.Join(env.docsDir, "letters"), 70, "letter")
	testsupport.SeedQueue(t, env.store, high, mid)

	out, _, err := runCLI(t, []string{"--auto"}, env.configPath, "")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "Batch summary")
	requireContains(t, out, "Completed")
	requireContains(t, out, "Left Pending")

	if testsupport.ReadText(t, high.DestPath) != "invoice" {
		t.Fatal("high-confidence entry not moved")
	}
	testsupport.AssertMissing(t, high.SourcePath)
	if testsupport.ReadText(t, mid.SourcePath) != "letter" {
		t.Fatal("confirmation-band entry touched in automated mode")
	}
	doc := testsupport.LoadQueue(t, env.store)
	if got := doc.Find("mid"); got == nil || got.Status != queue.StatusPending {
		t.Fatalf("mid entry = %+v", got)
	}
}

func TestDryRunPrintsPlanWithoutMoving(t *testing.T) {
	env := setupCLITestEnv(t)
	entry := testsupport.NewEntry(t, env.baseDir, "e1", "invoice.pdf", filepath.Join(env.docsDir, "invoices"), 95, "invoice")
	testsupport.SeedQueue(t, env.store, entry)
	before := testsupport.ReadText(t, env.cfg.QueuePath())

	out, _, err := runCLI(t, []string{"--dry-run"}, env.configPath, "")
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	requireContains(t, out, "would move "+entry.SourcePath+" -> "+entry.DestPath)
	requireContains(t, out, "Dry run")
	testsupport.AssertMissing(t, entry.DestPath)
	if testsupport.ReadText(t, env.cfg.QueuePath()) != before {
		t.Fatal("dry run rewrote the queue")
	}
}

func TestDryRunCreatesNoState(t *testing.T) {
	env := setupCLITestEnv(t)
	entry := testsupport.NewEntry(t, env.baseDir, "e1", "invoice.pdf", filepath.Join(env.docsDir, "invoices"), 95, "invoice")
	testsupport.SeedQueue(t, env.store, entry)

	if _, _, err := runCLI(t, []string{"--dry-run"}, env.configPath, ""); err != nil {
		t.Fatalf("dry run: %v", err)
	}
	testsupport.AssertMissing(t, env.cfg.ArchivePath())
	testsupport.AssertMissing(t, env.cfg.LockPath())

	fresh := *env.cfg
	fresh.Paths.StateDir = filepath.Join(env.baseDir, "fresh", "state")
	fresh.Paths.LogDir = filepath.Join(env.baseDir, "fresh", "logs")
	freshConfig := filepath.Join(env.baseDir, "fresh.toml")
	writeTestConfig(t, freshConfig, &fresh)

	out, _, err := runCLI(t, []string{"--dry-run"}, freshConfig, "")
	if err != nil {
		t.Fatalf("dry run on fresh state dir: %v", err)
	}
	requireContains(t, out, "Nothing to process.")
	testsupport.AssertMissing(t, filepath.Join(env.baseDir, "fresh"))
}

func TestInteractiveRunAcceptsFromStdin(t *testing.T) {
	env := setupCLITestEnv(t)
	entry := testsupport.NewEntry(t, env.baseDir, "e1", "letter.pdf", filepath.Join(env.docsDir, "letters"), 70, "letter")
	testsupport.SeedQueue(t, env.store, entry)

	out, _, err := runCLI(t, nil, env.configPath, "a\n")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "[a]ccept/[r]eject/[s]kip?")
	requireContains(t, out, "User Approved")
	if testsupport.ReadText(t, entry.DestPath) != "letter" {
		t.Fatal("accepted entry not moved")
	}
}

func TestUndoRestoresLastBatch(t *testing.T) {
	env := setupCLITestEnv(t)
	entry := testsupport.NewEntry(t, env.baseDir, "e1", "invoice.pdf", filepath.Join(env.docsDir, "invoices"), 95, "invoice")
	testsupport.SeedQueue(t, env.store, entry)
	if _, _, err := runCLI(t, []string{"--auto"}, env.configPath, ""); err != nil {
		t.Fatalf("run: %v", err)
	}

	out, _, err := runCLI(t, []string{"--undo", "--dry-run"}, env.configPath, "")
	if err != nil {
		t.Fatalf("undo dry run: %v", err)
	}
	requireContains(t, out, "Would undo 1")
	testsupport.AssertMissing(t, entry.SourcePath)

	out, _, err = runCLI(t, []string{"--undo"}, env.configPath, "")
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	requireContains(t, out, "Undone 1, not reversible 0. Journal cleared.")
	if testsupport.ReadText(t, entry.SourcePath) != "invoice" {
		t.Fatal("source not restored")
	}

	out, _, err = runCLI(t, []string{"--undo"}, env.configPath, "")
	if err != nil {
		t.Fatalf("second undo: %v", err)
	}
	requireContains(t, out, "Undo journal is empty.")
}

func TestCorruptQueueFailsRun(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteText(t, env.cfg.QueuePath(), "{not json")

	_, _, err := runCLI(t, []string{"--auto"}, env.configPath, "")
	if err == nil {
		t.Fatal("expected corrupt queue to fail the run")
	}
	if got := exitCode(err); got != exitPrecondition {
		t.Fatalf("exit code %d, want %d", got, exitPrecondition)
	}
	if testsupport.ReadText(t, env.cfg.QueuePath()) != "{not json" {
		t.Fatal("corrupt queue modified")
	}
}

func TestStatusReportsQueueAndHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	entry := testsupport.NewEntry(t, env.baseDir, "e1", "invoice.pdf", filepath.Join(env.docsDir, "invoices"), 95, "invoice")
	testsupport.SeedQueue(t, env.store, entry)

	out, _, err := runCLI(t, []string{"--status"}, env.configPath, "")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== Checks ==")
	requireContains(t, out, "State directory:")
	requireContains(t, out, "Pending")
	requireContains(t, out, entry.SourcePath)
	requireContains(t, out, entry.DestPath)
	requireContains(t, out, "0 record(s)")
}
