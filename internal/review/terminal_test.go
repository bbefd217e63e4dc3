package review

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"docshelf/internal/conflict"
	"docshelf/internal/queue"
	"docshelf/internal/router"
	"docshelf/internal/workflow"
)

func entry() queue.Entry {
	return queue.Entry{
		ID:         "e1",
		SourcePath: "/inbox/invoice.pdf",
		DestPath:   "/docs/invoices/invoice.pdf",
		Confidence: 72,
		Reasoning:  "vendor name matched",
		Alternatives: []queue.Alternative{
			{DestPath: "/docs/receipts/invoice.pdf", Confidence: 40},
		},
	}
}

func TestConfirmAnswers(t *testing.T) {
	tests := []struct {
		input string
		want  workflow.Verdict
	}{
		{"a\n", workflow.VerdictAccept},
		{"Accept\n", workflow.VerdictAccept},
		{"r\n", workflow.VerdictReject},
		{"s\n", workflow.VerdictSkip},
		{"maybe\nr\n", workflow.VerdictReject},
		{"", workflow.VerdictSkip},
		{"a", workflow.VerdictAccept},
	}
	for _, tc := range tests {
		var out bytes.Buffer
		term := NewTerminal(strings.NewReader(tc.input), &out)
		got, err := term.Confirm(context.Background(), entry(), router.Decision{DestPath: entry().DestPath})
		if err != nil {
			t.Fatalf("input %q: %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("input %q: got %s want %s", tc.input, got, tc.want)
		}
	}
}

func TestConfirmShowsContext(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(strings.NewReader("maybe\ns\n"), &out)
	if _, err := term.Confirm(context.Background(), entry(), router.Decision{DestPath: "/docs/invoices/invoice.pdf"}); err != nil {
		t.Fatal(err)
	}
	text := out.String()
	for _, want := range []string{"/inbox/invoice.pdf", "-> /docs/invoices/invoice.pdf", "confidence 72: vendor name matched", "alternative /docs/receipts/invoice.pdf (40)", `unrecognised answer "maybe"`} {
		if !strings.Contains(text, want) {
			t.Fatalf("prompt output missing %q:\n%s", want, text)
		}
	}
	if strings.Count(text, "[a]ccept/[r]eject/[s]kip?") != 2 {
		t.Fatalf("expected the prompt to repeat once:\n%s", text)
	}
}

func TestEOFSkipsEveryRemainingPrompt(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(strings.NewReader(""), &out)
	for i := 0; i < 3; i++ {
		got, err := term.Confirm(context.Background(), entry(), router.Decision{})
		if err != nil || got != workflow.VerdictSkip {
			t.Fatalf("prompt %d: got %s %v", i, got, err)
		}
	}
	strategy, err := term.ChooseConflict(context.Background(), entry(), "/docs/invoice.pdf")
	if err != nil || strategy != conflict.StrategySkip {
		t.Fatalf("conflict after EOF: %s %v", strategy, err)
	}
}

func TestChooseConflict(t *testing.T) {
	tests := map[string]conflict.Strategy{
		"o\n":           conflict.StrategyOverwrite,
		"rename\n":      conflict.StrategyRename,
		"s\n":           conflict.StrategySkip,
		"x\nOVERWRITE\n": conflict.StrategyOverwrite,
	}
	for input, want := range tests {
		var out bytes.Buffer
		term := NewTerminal(strings.NewReader(input), &out)
		got, err := term.ChooseConflict(context.Background(), entry(), "/docs/invoices/invoice.pdf")
		if err != nil {
			t.Fatalf("input %q: %v", input, err)
		}
		if got != want {
			t.Fatalf("input %q: got %s want %s", input, got, want)
		}
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	term := NewTerminal(strings.NewReader("a\n"), &bytes.Buffer{})
	if _, err := term.Confirm(ctx, entry(), router.Decision{}); err == nil {
		t.Fatal("expected context error")
	}
}
