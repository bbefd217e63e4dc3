// Package logging assembles structured slog loggers and formatting helpers used
// across docshelf.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so the executor and undo pass can tag log
// lines with run and entry identifiers. Console output goes to stderr; stdout
// is left to reports and prompts.
package logging
