package workflow

import (
	"fmt"

	"docshelf/internal/conflict"
	"docshelf/internal/journal"
	"docshelf/internal/queue"
	"docshelf/internal/router"
)

// Outcome is what happened (or would happen) to one entry.
type Outcome string

const (
	OutcomeMoved    Outcome = "move"
	OutcomeDeleted  Outcome = "delete"
	OutcomeAsk      Outcome = "ask"
	OutcomeLeft     Outcome = "leave"
	OutcomeRejected Outcome = "reject"
	OutcomeSkipped  Outcome = "skip"
	OutcomeFailed   Outcome = "fail"
)

// Line describes one entry's handling in a run.
type Line struct {
	EntryID  string
	Source   string
	Dest     string
	Band     router.Band
	Outcome  Outcome
	Strategy conflict.Strategy
	Status   queue.Status
	DryRun   bool
	Cause    string
}

func (l Line) String() string {
	verb := string(l.Outcome)
	if l.DryRun {
		verb = "would " + verb
	}
	var text string
	switch l.Outcome {
	case OutcomeMoved:
		text = fmt.Sprintf("%s %s -> %s", verb, l.Source, l.Dest)
	case OutcomeDeleted:
		text = fmt.Sprintf("%s %s", verb, l.Source)
	default:
		text = fmt.Sprintf("%s %s", verb, l.Source)
		if l.Dest != "" && l.Dest != queue.DeleteSentinel {
			text += " (proposed " + l.Dest + ")"
		}
	}
	text += fmt.Sprintf(" [%s]", l.Band)
	if l.Strategy != "" && l.Strategy != conflict.StrategyNone {
		text += fmt.Sprintf(" conflict=%s", l.Strategy)
	}
	if l.Cause != "" {
		text += ": " + l.Cause
	}
	return text
}

// Summary aggregates a run.
type Summary struct {
	RunID  string
	DryRun bool

	AutoApproved int
	UserApproved int
	Fallback     int
	LeftPending  int
	Rejected     int
	Skipped      int
	Failed       int
	Completed    int
	Deleted      int

	// JournalFailures counts operations that happened but could not be
	// recorded for undo.
	JournalFailures int

	Lines []Line
	// Records holds every journal record produced, including those whose
	// append failed.
	Records []journal.Record
}

// Processed is the number of entries the run looked at.
func (s Summary) Processed() int {
	return len(s.Lines)
}

// Failures returns the failed lines.
func (s Summary) Failures() []Line {
	var out []Line
	for _, line := range s.Lines {
		if line.Outcome == OutcomeFailed {
			out = append(out, line)
		}
	}
	return out
}

// Counts returns the summary counters keyed by their report labels, in a
// fixed order.
func (s Summary) Counts() []Count {
	return []Count{
		{"auto_approved", s.AutoApproved},
		{"user_approved", s.UserApproved},
		{"fallback", s.Fallback},
		{"left_pending", s.LeftPending},
		{"rejected", s.Rejected},
		{"skipped", s.Skipped},
		{"failed", s.Failed},
		{"completed", s.Completed},
		{"deleted", s.Deleted},
	}
}

// Count is one labelled summary counter.
type Count struct {
	Label string
	Value int
}
