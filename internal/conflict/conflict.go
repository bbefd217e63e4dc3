// Package conflict decides what to do when a destination path is already
// occupied: overwrite it, pick a fresh numbered name, or skip the entry.
package conflict

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"docshelf/internal/fileutil"
	"docshelf/internal/queue"
	"docshelf/internal/router"
)

// maxRenameAttempts bounds the numbered-name search.
const maxRenameAttempts = 10000

// ErrNoFreeName is returned when every numbered candidate is taken.
var ErrNoFreeName = errors.New("no free destination name")

// Strategy is how a conflict was settled.
type Strategy string

const (
	StrategyNone      Strategy = "none"
	StrategyOverwrite Strategy = "overwrite"
	StrategyRename    Strategy = "rename"
	StrategySkip      Strategy = "skip"
)

// Resolution is the path to proceed with and how it was chosen. Path is empty
// when Strategy is StrategySkip.
type Resolution struct {
	Path     string
	Strategy Strategy
}

// Prompter asks the operator how to settle a conflict.
type Prompter interface {
	ChooseConflict(ctx context.Context, entry queue.Entry, dest string) (Strategy, error)
}

// Reservations tracks destinations already claimed earlier in a batch.
type Reservations struct {
	paths map[string]struct{}
}

// NewReservations returns an empty set.
func NewReservations() *Reservations {
	return &Reservations{paths: make(map[string]struct{})}
}

// Reserve claims path for the rest of the batch.
func (r *Reservations) Reserve(path string) {
	if r == nil {
		return
	}
	r.paths[filepath.Clean(path)] = struct{}{}
}

// Has reports whether path was claimed.
func (r *Reservations) Has(path string) bool {
	if r == nil {
		return false
	}
	_, ok := r.paths[filepath.Clean(path)]
	return ok
}

// Resolver settles destination conflicts for one batch.
type Resolver struct {
	Mode     router.Mode
	Prompter Prompter
	Reserved *Reservations

	exists func(string) (bool, error)
}

// NewResolver builds a Resolver. A nil prompter in interactive mode behaves
// like automated mode.
func NewResolver(mode router.Mode, prompter Prompter, reserved *Reservations) *Resolver {
	if reserved == nil {
		reserved = NewReservations()
	}
	return &Resolver{
		Mode:     mode,
		Prompter: prompter,
		Reserved: reserved,
		exists:   fileutil.Exists,
	}
}

// occupied reports whether path exists on disk or was reserved by the batch.
func (r *Resolver) occupied(path string) (bool, error) {
	if r.Reserved.Has(path) {
		return true, nil
	}
	return r.exists(path)
}

// Resolve returns the path the executor should use for dest.
func (r *Resolver) Resolve(ctx context.Context, entry queue.Entry, dest string) (Resolution, error) {
	taken, err := r.occupied(dest)
	if err != nil {
		return Resolution{}, fmt.Errorf("check destination %s: %w", dest, err)
	}
	if !taken {
		return Resolution{Path: dest, Strategy: StrategyNone}, nil
	}

	strategy := StrategyRename
	if r.Mode == router.ModeInteractive && r.Prompter != nil {
		strategy, err = r.Prompter.ChooseConflict(ctx, entry, dest)
		if err != nil {
			return Resolution{}, err
		}
	}

	switch strategy {
	case StrategyOverwrite:
		return Resolution{Path: dest, Strategy: StrategyOverwrite}, nil
	case StrategyRename:
		path, err := NextFreePath(dest, r.occupied)
		if err != nil {
			return Resolution{}, err
		}
		return Resolution{Path: path, Strategy: StrategyRename}, nil
	default:
		return Resolution{Strategy: StrategySkip}, nil
	}
}

// NextFreePath returns the first "base (n).ext" sibling of dest, n counting
// from 1, for which taken reports false.
func NextFreePath(dest string, taken func(string) (bool, error)) (string, error) {
	dir := filepath.Dir(dest)
	base, ext := splitName(filepath.Base(dest))
	for n := 1; n <= maxRenameAttempts; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", base, n, ext))
		used, err := taken(candidate)
		if err != nil {
			return "", err
		}
		if !used {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s after %d attempts", ErrNoFreeName, dest, maxRenameAttempts)
}

// splitName separates a file name into base and extension. Names without a
// usable extension (none, a trailing dot, or a dotfile such as ".env") keep
// the whole name as the base.
func splitName(name string) (string, string) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	if ext == "" || ext == "." || base == "" {
		return name, ""
	}
	return base, ext
}
