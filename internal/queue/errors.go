package queue

import (
	"errors"
	"fmt"

	"docshelf/internal/services"
)

var (
	// ErrInvalidTransition is returned for a status change outside the table.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrNotFound is returned when no entry has the requested id.
	ErrNotFound = errors.New("queue entry not found")
	// ErrDuplicateID is returned when an appended entry reuses a live id.
	ErrDuplicateID = errors.New("duplicate queue entry id")
)

// CorruptionError reports a queue file that could not be decoded or failed
// validation. The file on disk is left as it was.
type CorruptionError struct {
	Path   string
	Reason string
	Err    error
}

func (e *CorruptionError) Error() string {
	msg := fmt.Sprintf("queue file %s is corrupt", e.Path)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CorruptionError) Unwrap() error {
	return e.Err
}

// Is matches services.ErrQueueCorrupt so callers can classify the failure as
// fatal without knowing the concrete type.
func (e *CorruptionError) Is(target error) bool {
	return target == services.ErrQueueCorrupt
}

func transitionError(id string, from, to Status) error {
	return fmt.Errorf("%w: entry %s %s -> %s", ErrInvalidTransition, id, from, to)
}
