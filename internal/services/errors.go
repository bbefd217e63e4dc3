package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfiguration         = errors.New("configuration error")
	ErrQueueCorrupt          = errors.New("queue corrupt")
	ErrSourceMissing         = errors.New("source missing")
	ErrDestinationUnwritable = errors.New("destination unwritable")
	ErrDestinationRejected   = errors.New("destination rejected")
	ErrMoveFailed            = errors.New("move failed")
	ErrCopyVerification      = errors.New("copy verification failed")
	ErrUndoUnavailable       = errors.New("undo unavailable")
	ErrExternalTool          = errors.New("external tool error")
	ErrExecutorBusy          = errors.New("executor busy")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrMoveFailed
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether err must abort a run before any entry is touched.
// Everything else is a per-entry failure that the batch records and moves past.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConfiguration) ||
		errors.Is(err, ErrQueueCorrupt) ||
		errors.Is(err, ErrExecutorBusy)
}

// Kind returns a short label for the sentinel carried by err, used in
// summaries and the archive.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "config"
	case errors.Is(err, ErrQueueCorrupt):
		return "queue_corrupt"
	case errors.Is(err, ErrSourceMissing):
		return "source_missing"
	case errors.Is(err, ErrDestinationUnwritable):
		return "destination_unwritable"
	case errors.Is(err, ErrDestinationRejected):
		return "destination_rejected"
	case errors.Is(err, ErrCopyVerification):
		return "copy_verification"
	case errors.Is(err, ErrUndoUnavailable):
		return "undo_unavailable"
	case errors.Is(err, ErrExternalTool):
		return "external_tool"
	case errors.Is(err, ErrExecutorBusy):
		return "executor_busy"
	default:
		return "move_failed"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
