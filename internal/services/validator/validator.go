package validator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"docshelf/internal/services"
)

var commandContext = exec.CommandContext

// Validator decides whether a destination path is allowed.
type Validator interface {
	Validate(ctx context.Context, dest string) error
}

// Violation is returned when the validator rejects a destination.
type Violation struct {
	Dest string
	Rule string
}

func (v *Violation) Error() string {
	if v.Rule == "" {
		return fmt.Sprintf("destination %s rejected", v.Dest)
	}
	return fmt.Sprintf("destination %s rejected: %s", v.Dest, v.Rule)
}

// Unwrap ties violations to the shared sentinel.
func (v *Violation) Unwrap() error {
	return services.ErrDestinationRejected
}

// AllowAll accepts every destination. Used when no validator is configured.
type AllowAll struct{}

// Validate always returns nil.
func (AllowAll) Validate(context.Context, string) error {
	return nil
}

// CommandValidator runs an external whitelist tool with the destination as
// its only argument. Exit 0 allows, exit 1 rejects with the rule on output.
type CommandValidator struct {
	binary string
}

// New returns a CommandValidator for binary, or AllowAll when binary is blank.
func New(binary string) Validator {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return AllowAll{}
	}
	return &CommandValidator{binary: binary}
}

// Validate runs the tool.
func (v *CommandValidator) Validate(ctx context.Context, dest string) error {
	var out bytes.Buffer
	cmd := commandContext(ctx, v.binary, dest) //nolint:gosec
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return &Violation{Dest: dest, Rule: firstLine(out.String())}
	}
	return services.Wrap(services.ErrExternalTool, "validate", v.binary, firstLine(out.String()), err)
}

func firstLine(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}
