package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"docshelf/internal/queue"
	"docshelf/internal/testsupport"
)

func TestAddQueuesEntry(t *testing.T) {
	env := setupCLITestEnv(t)
	src := filepath.Join(env.baseDir, "inbox", "scan.pdf")
	testsupport.WriteText(t, src, "scan")
	dest := filepath.Join(env.docsDir, "scans", "scan.pdf")

	out, _, err := runCLI(t, []string{"add", src, dest, "--confidence", "82", "--reasoning", "scanner output", "--id", "scan-1"}, env.configPath, "")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	requireContains(t, out, "Queued scan-1 (confidence 82)")

	entry := testsupport.LoadQueue(t, env.store).Find("scan-1")
	if entry == nil {
		t.Fatal("entry not queued")
	}
	if entry.Status != queue.StatusPending || entry.DestPath != dest || entry.Reasoning != "scanner output" {
		t.Fatalf("unexpected entry %+v", entry)
	}

	if _, _, err := runCLI(t, []string{"add", src, dest, "--id", "scan-1"}, env.configPath, ""); err == nil {
		t.Fatal("expected duplicate id to be refused")
	}
}

func TestAddDeleteSentinel(t *testing.T) {
	env := setupCLITestEnv(t)
	src := filepath.Join(env.baseDir, "inbox", "copy.pdf")
	testsupport.WriteText(t, src, "copy")

	if _, _, err := runCLI(t, []string{"add", src, queue.DeleteSentinel, "--confidence", "100", "--id", "d1"}, env.configPath, ""); err != nil {
		t.Fatalf("add: %v", err)
	}
	entry := testsupport.LoadQueue(t, env.store).Find("d1")
	if entry == nil || !entry.IsDelete() {
		t.Fatalf("expected delete entry, got %+v", entry)
	}
}

func TestArchiveExportAfterRun(t *testing.T) {
	env := setupCLITestEnv(t)
	entry := testsupport.NewEntry(t, env.baseDir, "e1", "invoice.pdf", filepath.Join(env.docsDir, "invoices"), 95, "invoice")
	testsupport.SeedQueue(t, env.store, entry)
	if _, _, err := runCLI(t, []string{"--auto"}, env.configPath, ""); err != nil {
		t.Fatalf("run: %v", err)
	}

	target := filepath.Join(env.baseDir, "exports", "moved.json")
	out, _, err := runCLI(t, []string{"archive", "export", "--outcome", "moved", "--output", target}, env.configPath, "")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	requireContains(t, out, "Wrote moved export")

	var payload struct {
		Files []map[string]any `json:"files"`
	}
	if err := json.Unmarshal([]byte(testsupport.ReadText(t, target)), &payload); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if len(payload.Files) != 1 || payload.Files[0]["id"] != "e1" || payload.Files[0]["moved_at"] == nil {
		t.Fatalf("unexpected export %+v", payload.Files)
	}
	if doc := testsupport.LoadQueue(t, env.store); doc.Find("e1") != nil {
		t.Fatal("completed entry should leave the queue once archived")
	}

	out, _, err = runCLI(t, []string{"archive", "export", "--outcome", "failed"}, env.configPath, "")
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	requireContains(t, out, `"files": []`)

	if _, _, err := runCLI(t, []string{"archive", "export", "--outcome", "lost"}, env.configPath, ""); err == nil {
		t.Fatal("expected unknown outcome to be refused")
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath, "")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "Effective configuration")

	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "", "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", ""); err == nil {
		t.Fatal("expected existing config to be refused without --overwrite")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, "", ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidateRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	testsupport.WriteText(t, path, "[paths]\nstate_dri = \"/tmp\"\n")

	if _, _, err := runCLI(t, []string{"config", "validate"}, path, ""); err == nil {
		t.Fatal("expected unknown key to fail validation")
	}
}
