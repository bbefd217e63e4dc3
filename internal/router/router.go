// Package router classifies queue entries into confidence bands and decides
// what the workflow should do with each one.
package router

import (
	"fmt"
	"path/filepath"

	"docshelf/internal/queue"
)

// Mode selects interactive or automated processing.
type Mode string

const (
	ModeInteractive Mode = "interactive"
	ModeAutomated   Mode = "automated"
)

// Band is a confidence classification.
type Band string

const (
	BandAuto     Band = "auto"
	BandConfirm  Band = "confirm"
	BandFallback Band = "fallback"
)

// Action is what the workflow does next with a routed entry.
type Action string

const (
	// ActionExecute sends the entry to the conflict resolver and executor.
	ActionExecute Action = "execute"
	// ActionAsk exposes a decision point to the operator.
	ActionAsk Action = "ask"
	// ActionLeave leaves the entry untouched in the queue.
	ActionLeave Action = "leave"
)

// Decision is the routing outcome for one entry.
type Decision struct {
	Band     Band
	Action   Action
	DestPath string
	// Delete is true when the executor should remove the source.
	Delete bool
}

// Router holds the thresholds and the fallback bucket.
type Router struct {
	AutoApprove int
	Ask         int
	FallbackDir string
}

// New validates thresholds and returns a Router.
func New(autoApprove, ask int, fallbackDir string) (*Router, error) {
	if ask < 0 || autoApprove > 100 || ask > autoApprove {
		return nil, fmt.Errorf("invalid thresholds: need 0 <= ask (%d) <= auto_approve (%d) <= 100", ask, autoApprove)
	}
	if fallbackDir == "" {
		return nil, fmt.Errorf("fallback directory required")
	}
	return &Router{AutoApprove: autoApprove, Ask: ask, FallbackDir: fallbackDir}, nil
}

// Classify maps a score to its band. Both bounds are inclusive on the upper
// side, so a score equal to a threshold falls into the higher band.
func (r *Router) Classify(confidence int) Band {
	switch {
	case confidence >= r.AutoApprove:
		return BandAuto
	case confidence >= r.Ask:
		return BandConfirm
	default:
		return BandFallback
	}
}

// Route decides the next step for entry in mode.
//
// Fallback-band entries are always executed, with the destination replaced by
// FallbackDir/basename(source). A low-confidence delete is parked in the
// fallback bucket instead of being removed.
func (r *Router) Route(entry queue.Entry, mode Mode) Decision {
	band := r.Classify(entry.Confidence)
	decision := Decision{
		Band:     band,
		DestPath: entry.DestPath,
		Delete:   entry.IsDelete(),
	}
	switch band {
	case BandAuto:
		decision.Action = ActionExecute
	case BandConfirm:
		if mode == ModeInteractive {
			decision.Action = ActionAsk
		} else {
			decision.Action = ActionLeave
		}
	case BandFallback:
		decision.Action = ActionExecute
		decision.Delete = false
		decision.DestPath = r.FallbackPath(entry.SourcePath)
	}
	return decision
}

// FallbackPath returns the flat fallback destination for source.
func (r *Router) FallbackPath(source string) string {
	return filepath.Join(r.FallbackDir, filepath.Base(source))
}
