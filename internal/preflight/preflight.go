package preflight

import (
	"context"
	"fmt"
	"strings"

	"docshelf/internal/config"
	"docshelf/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Option adjusts RunAll.
type Option func(*settings)

type settings struct {
	stateMayBeMissing bool
}

// StateMayBeMissing accepts a state directory that does not exist yet as long
// as it could be created. Dry runs use it since they never create it.
func StateMayBeMissing() Option {
	return func(s *settings) {
		s.stateMayBeMissing = true
	}
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config, opts ...Option) []Result {
	if cfg == nil {
		return nil
	}
	var set settings
	for _, opt := range opts {
		opt(&set)
	}

	var results []Result

	if set.stateMayBeMissing {
		results = append(results, CheckCreatable("State directory", cfg.Paths.StateDir))
	} else {
		results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	}

	// The fallback bucket is created on first use, so check where it will be made.
	results = append(results, CheckCreatable("Fallback directory", cfg.Paths.FallbackDir))

	for _, status := range CheckTools(ctx, cfg) {
		result := Result{Name: status.Name, Passed: status.Available}
		if status.Available {
			result.Detail = status.Command
		} else {
			result.Detail = status.Detail
		}
		results = append(results, result)
	}
	return results
}

// Failed returns an error naming every failed check, or nil. The error
// matches services.ErrConfiguration.
func Failed(results []Result) error {
	var problems []string
	for _, result := range results {
		if !result.Passed {
			problems = append(problems, fmt.Sprintf("%s: %s", result.Name, result.Detail))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return services.Wrap(services.ErrConfiguration, "preflight", "", strings.Join(problems, "; "), nil)
}
