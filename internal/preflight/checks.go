package preflight

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"docshelf/internal/config"
	"docshelf/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckCreatable passes when path is an accessible directory, or when it is
// missing and its nearest existing ancestor is writable.
func CheckCreatable(name, path string) Result {
	if _, err := os.Stat(path); err == nil {
		return CheckDirectoryAccess(name, path)
	}
	ancestor := filepath.Dir(path)
	for {
		if _, err := os.Stat(ancestor); err == nil {
			break
		}
		parent := filepath.Dir(ancestor)
		if parent == ancestor {
			break
		}
		ancestor = parent
	}
	check := CheckDirectoryAccess(name, ancestor)
	if !check.Passed {
		return Result{Name: name, Detail: fmt.Sprintf("%s cannot be created: %s", path, check.Detail)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (created on first use)", path)}
}

// CheckTools evaluates the configured collaborator tools. Blank entries use
// built-in behaviour and are left out.
func CheckTools(_ context.Context, cfg *config.Config) []deps.Status {
	candidates := []deps.Requirement{
		{
			Name:        "Checksum tool",
			Command:     cfg.Tools.ChecksumCommand,
			Description: "Computes hash_before/hash_after",
		},
		{
			Name:        "Duplicate finder",
			Command:     cfg.Tools.DuplicateCommand,
			Description: "Used by docshelf add --check-duplicates",
		},
		{
			Name:        "Destination validator",
			Command:     cfg.Tools.ValidatorCommand,
			Description: "Whitelists destinations before each move",
		},
	}
	var requirements []deps.Requirement
	for _, req := range candidates {
		if deps.Binary(req.Command) != "" {
			requirements = append(requirements, req)
		}
	}
	return deps.CheckBinaries(requirements)
}
