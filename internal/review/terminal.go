// Package review provides the line-oriented terminal decision points: the
// confirmation prompt for confirm-band entries and the destination conflict
// prompt.
package review

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"docshelf/internal/conflict"
	"docshelf/internal/queue"
	"docshelf/internal/router"
	"docshelf/internal/workflow"
)

// Terminal prompts on Out and reads answers from In. Reaching EOF on In
// answers skip for every remaining prompt.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
	eof bool
}

// NewTerminal wraps in and out.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out}
}

var (
	confirmAnswers = map[string]workflow.Verdict{
		"a": workflow.VerdictAccept, "accept": workflow.VerdictAccept, "y": workflow.VerdictAccept, "yes": workflow.VerdictAccept,
		"r": workflow.VerdictReject, "reject": workflow.VerdictReject, "n": workflow.VerdictReject, "no": workflow.VerdictReject,
		"s": workflow.VerdictSkip, "skip": workflow.VerdictSkip,
	}
	conflictAnswers = map[string]conflict.Strategy{
		"o": conflict.StrategyOverwrite, "overwrite": conflict.StrategyOverwrite,
		"r": conflict.StrategyRename, "rename": conflict.StrategyRename,
		"s": conflict.StrategySkip, "skip": conflict.StrategySkip,
	}
)

// Confirm asks whether a confirm-band entry should be executed.
func (t *Terminal) Confirm(ctx context.Context, entry queue.Entry, decision router.Decision) (workflow.Verdict, error) {
	fmt.Fprintf(t.out, "\n%s\n", entry.SourcePath)
	if decision.Delete {
		fmt.Fprintf(t.out, "  delete (duplicate of %s)\n", strings.Join(entry.DuplicateOf, ", "))
	} else {
		fmt.Fprintf(t.out, "  -> %s\n", decision.DestPath)
	}
	fmt.Fprintf(t.out, "  confidence %d", entry.Confidence)
	if reason := strings.TrimSpace(entry.Reasoning); reason != "" {
		fmt.Fprintf(t.out, ": %s", reason)
	}
	fmt.Fprintln(t.out)
	for _, alt := range entry.Alternatives {
		fmt.Fprintf(t.out, "  alternative %s (%d)\n", alt.DestPath, alt.Confidence)
	}
	answer, err := ask(ctx, t, "[a]ccept/[r]eject/[s]kip? ", confirmAnswers)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return workflow.VerdictSkip, nil
	}
	return answer, nil
}

// ChooseConflict asks how to handle an occupied destination.
func (t *Terminal) ChooseConflict(ctx context.Context, entry queue.Entry, dest string) (conflict.Strategy, error) {
	fmt.Fprintf(t.out, "destination exists: %s\n", dest)
	answer, err := ask(ctx, t, "[o]verwrite/[r]ename/[s]kip? ", conflictAnswers)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return conflict.StrategySkip, nil
	}
	return answer, nil
}

// ask prompts until a recognised answer arrives. It returns the zero value
// once the input is exhausted.
func ask[T any](ctx context.Context, t *Terminal, prompt string, answers map[string]T) (T, error) {
	var zero T
	for {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		if t.eof {
			return zero, nil
		}
		fmt.Fprint(t.out, prompt)
		line, err := t.in.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return zero, fmt.Errorf("read answer: %w", err)
			}
			t.eof = true
			if strings.TrimSpace(line) == "" {
				fmt.Fprintln(t.out)
				return zero, nil
			}
		}
		if value, ok := answers[strings.ToLower(strings.TrimSpace(line))]; ok {
			return value, nil
		}
		if t.eof {
			return zero, nil
		}
		fmt.Fprintf(t.out, "unrecognised answer %q\n", strings.TrimSpace(line))
	}
}

var (
	_ workflow.Confirmer = (*Terminal)(nil)
	_ conflict.Prompter  = (*Terminal)(nil)
)
