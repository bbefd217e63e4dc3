package conflict

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"docshelf/internal/queue"
	"docshelf/internal/router"
)

type fixedPrompter struct {
	strategy Strategy
	calls    int
}

func (p *fixedPrompter) ChooseConflict(context.Context, queue.Entry, string) (Strategy, error) {
	p.calls++
	return p.strategy, nil
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		name, base, ext string
	}{
		{"report.pdf", "report", ".pdf"},
		{"archive.tar.gz", "archive.tar", ".gz"},
		{"README", "README", ""},
		{".env", ".env", ""},
		{"trailing.", "trailing.", ""},
	}
	for _, tt := range tests {
		base, ext := splitName(tt.name)
		if base != tt.base || ext != tt.ext {
			t.Errorf("splitName(%q) = (%q, %q), want (%q, %q)", tt.name, base, ext, tt.base, tt.ext)
		}
	}
}

func TestResolveFreeDestination(t *testing.T) {
	dir := t.TempDir()
	r := NewResolver(router.ModeAutomated, nil, nil)
	res, err := r.Resolve(context.Background(), queue.Entry{}, filepath.Join(dir, "a.pdf"))
	if err != nil {
		t.Fatal(err)
	}
	if res.Strategy != StrategyNone || res.Path != filepath.Join(dir, "a.pdf") {
		t.Fatalf("unexpected resolution %+v", res)
	}
}

func TestRenameSkipsOccupiedCandidates(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "dest.txt")
	touch(t, dest)
	touch(t, filepath.Join(dir, "dest (1).txt"))

	r := NewResolver(router.ModeAutomated, nil, nil)
	res, err := r.Resolve(context.Background(), queue.Entry{}, dest)
	if err != nil {
		t.Fatal(err)
	}
	if res.Strategy != StrategyRename || res.Path != filepath.Join(dir, "dest (2).txt") {
		t.Fatalf("expected dest (2).txt, got %+v", res)
	}
}

func TestRenameHonoursReservations(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "P")
	reserved := NewReservations()
	reserved.Reserve(dest)

	r := NewResolver(router.ModeAutomated, nil, reserved)
	first, err := r.Resolve(context.Background(), queue.Entry{}, dest)
	if err != nil {
		t.Fatal(err)
	}
	if first.Path != filepath.Join(dir, "P (1)") {
		t.Fatalf("expected P (1) for extensionless name, got %s", first.Path)
	}
	reserved.Reserve(first.Path)

	second, err := r.Resolve(context.Background(), queue.Entry{}, dest)
	if err != nil {
		t.Fatal(err)
	}
	if second.Path != filepath.Join(dir, "P (2)") {
		t.Fatalf("expected P (2), got %s", second.Path)
	}
}

func TestInteractiveStrategies(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "taken.pdf")
	touch(t, dest)

	tests := []struct {
		strategy Strategy
		wantPath string
	}{
		{StrategyOverwrite, dest},
		{StrategyRename, filepath.Join(dir, "taken (1).pdf")},
		{StrategySkip, ""},
	}
	for _, tt := range tests {
		t.Run(string(tt.strategy), func(t *testing.T) {
			prompter := &fixedPrompter{strategy: tt.strategy}
			r := NewResolver(router.ModeInteractive, prompter, nil)
			res, err := r.Resolve(context.Background(), queue.Entry{}, dest)
			if err != nil {
				t.Fatal(err)
			}
			if prompter.calls != 1 {
				t.Fatalf("expected one prompt, got %d", prompter.calls)
			}
			if res.Strategy != tt.strategy || res.Path != tt.wantPath {
				t.Fatalf("unexpected resolution %+v", res)
			}
		})
	}
}

func TestAutomatedNeverPrompts(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "taken.pdf")
	touch(t, dest)

	prompter := &fixedPrompter{strategy: StrategyOverwrite}
	r := NewResolver(router.ModeAutomated, prompter, nil)
	res, err := r.Resolve(context.Background(), queue.Entry{}, dest)
	if err != nil {
		t.Fatal(err)
	}
	if prompter.calls != 0 || res.Strategy != StrategyRename {
		t.Fatalf("automated mode must rename without prompting, got %+v after %d prompts", res, prompter.calls)
	}
}

func TestNextFreePathExhaustion(t *testing.T) {
	_, err := NextFreePath("/docs/a.pdf", func(string) (bool, error) { return true, nil })
	if !errors.Is(err, ErrNoFreeName) {
		t.Fatalf("expected ErrNoFreeName, got %v", err)
	}
}

func TestNextFreePathPropagatesErrors(t *testing.T) {
	boom := errors.New("permission denied")
	if _, err := NextFreePath("/docs/a.pdf", func(string) (bool, error) { return false, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected stat error, got %v", err)
	}
}
