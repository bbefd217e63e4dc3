package dupes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"docshelf/internal/services"
)

var commandContext = exec.CommandContext

// Location says where a duplicate was found.
type Location string

const (
	// LocationDestination is a match already filed at the destination.
	LocationDestination Location = "destination"
	// LocationQueue is a match still waiting in the pending queue.
	LocationQueue Location = "queue"
)

// Match is one existing copy of the source content.
type Match struct {
	Path     string   `json:"path"`
	Location Location `json:"location"`
}

// Result is the detector's answer for one source file.
type Result struct {
	SourceChecksum string  `json:"source_checksum"`
	Duplicates     []Match `json:"duplicates"`
}

// HasDuplicates reports whether any match was found.
func (r Result) HasDuplicates() bool {
	return len(r.Duplicates) > 0
}

// Paths returns the matching paths in detector order.
func (r Result) Paths() []string {
	paths := make([]string, 0, len(r.Duplicates))
	for _, match := range r.Duplicates {
		paths = append(paths, match.Path)
	}
	return paths
}

// Finder looks for existing copies of sourcePath under candidateDir.
type Finder interface {
	FindDuplicates(ctx context.Context, sourcePath, candidateDir string) (Result, error)
}

// CommandFinder runs an external duplicate detector that takes the source and
// candidate directory as positional arguments and answers in JSON.
type CommandFinder struct {
	binary string
}

// NewCommandFinder wraps the configured detector binary.
func NewCommandFinder(binary string) *CommandFinder {
	return &CommandFinder{binary: strings.TrimSpace(binary)}
}

// FindDuplicates runs the detector. A non-zero exit is decoded from the
// tool's stderr JSON error payload when present.
func (f *CommandFinder) FindDuplicates(ctx context.Context, sourcePath, candidateDir string) (Result, error) {
	if f.binary == "" {
		return Result{}, services.Wrap(services.ErrExternalTool, "dupes", "find", "duplicate command not configured", nil)
	}
	if strings.TrimSpace(sourcePath) == "" {
		return Result{}, errors.New("dupes: empty source path")
	}

	var stdout, stderr bytes.Buffer
	cmd := commandContext(ctx, f.binary, sourcePath, candidateDir) //nolint:gosec
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, "dupes", f.binary, toolError(stderr.Bytes()), err)
	}

	var result Result
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, "dupes", f.binary, "parse output", err)
	}
	for i, match := range result.Duplicates {
		switch match.Location {
		case LocationDestination, LocationQueue:
		case "":
			result.Duplicates[i].Location = LocationDestination
		default:
			return Result{}, services.Wrap(services.ErrExternalTool, "dupes", f.binary, fmt.Sprintf("unknown location %q", match.Location), nil)
		}
	}
	return result, nil
}

func toolError(stderr []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(stderr), &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(stderr))
}
