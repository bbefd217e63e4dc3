package checksum

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"docshelf/internal/fileutil"
	"docshelf/internal/services"
)

var commandContext = exec.CommandContext

// Hasher computes a stable content digest for a path.
type Hasher interface {
	Sum(ctx context.Context, path string) (string, error)
}

// SHA256 hashes regular files directly and directories as a tree digest.
type SHA256 struct{}

// Sum returns the hex SHA256 digest for path.
func (SHA256) Sum(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	info, err := os.Lstat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return fileutil.HashTree(path)
	}
	return fileutil.HashFile(path)
}

// Command runs an external checksum tool and takes the first whitespace
// separated field of its output, which matches sha256sum and b3sum.
type Command struct {
	binary string
	args   []string
}

// NewCommand builds a Command from a configured tool line such as
// "sha256sum" or "b3sum --no-names".
func NewCommand(tool string) (*Command, error) {
	fields := strings.Fields(tool)
	if len(fields) == 0 {
		return nil, errors.New("checksum command not configured")
	}
	return &Command{binary: fields[0], args: fields[1:]}, nil
}

// Binary returns the executable name for preflight checks.
func (c *Command) Binary() string {
	return c.binary
}

// Sum runs the tool against path.
func (c *Command) Sum(ctx context.Context, path string) (string, error) {
	args := append(append([]string(nil), c.args...), path)
	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	output, err := cmd.Output()
	if err != nil {
		detail := ""
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			detail = strings.TrimSpace(string(exitErr.Stderr))
		}
		return "", services.Wrap(services.ErrExternalTool, "checksum", c.binary, detail, err)
	}
	fields := strings.Fields(string(output))
	if len(fields) == 0 {
		return "", services.Wrap(services.ErrExternalTool, "checksum", c.binary, "empty output", nil)
	}
	return strings.ToLower(fields[0]), nil
}

// New returns the configured hasher: the external tool when one is set,
// otherwise the built-in SHA256.
func New(tool string) (Hasher, error) {
	if strings.TrimSpace(tool) == "" {
		return SHA256{}, nil
	}
	cmd, err := NewCommand(tool)
	if err != nil {
		return nil, fmt.Errorf("checksum: %w", err)
	}
	return cmd, nil
}
