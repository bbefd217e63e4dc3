package queue

import (
	"strings"
	"time"
)

// SchemaVersion is written into every queue document.
const SchemaVersion = "1.0"

// DeleteSentinel is the dest_path value that marks a duplicate for removal.
const DeleteSentinel = "DELETE"

// Status represents the lifecycle of a queue entry.
type Status string

const (
	StatusPending         Status = "pending"
	StatusPendingApproval Status = "pending_approval"
	StatusApproved        Status = "approved"
	StatusRejected        Status = "rejected"
	StatusCompleted       Status = "completed"
	StatusFailed          Status = "failed"
	StatusDeleted         Status = "deleted"
	StatusMoved           Status = "moved"
	StatusSkipped         Status = "skipped"
)

var allStatuses = []Status{
	StatusPending,
	StatusPendingApproval,
	StatusApproved,
	StatusRejected,
	StatusCompleted,
	StatusFailed,
	StatusDeleted,
	StatusMoved,
	StatusSkipped,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// transitions lists every legal status change. Nothing leads back to pending
// and terminal statuses have no outgoing edges.
var transitions = map[Status][]Status{
	StatusPending: {
		StatusPendingApproval,
		StatusApproved,
		StatusRejected,
		StatusSkipped,
		StatusDeleted,
		StatusFailed,
	},
	StatusPendingApproval: {
		StatusApproved,
		StatusRejected,
		StatusSkipped,
	},
	StatusApproved: {
		StatusCompleted,
		StatusDeleted,
		StatusFailed,
		StatusSkipped,
	},
}

var terminalStatuses = map[Status]struct{}{
	StatusRejected:  {},
	StatusCompleted: {},
	StatusFailed:    {},
	StatusDeleted:   {},
	StatusMoved:     {},
	StatusSkipped:   {},
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether entries in this status have left routing.
func (s Status) IsTerminal() bool {
	_, ok := terminalStatuses[s]
	return ok
}

// IsActionable reports whether the workflow should consider the entry.
func (s Status) IsActionable() bool {
	switch s {
	case StatusPending, StatusPendingApproval, StatusApproved:
		return true
	default:
		return false
	}
}

// CanTransition reports whether from → to is in the transition table.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Action is the filesystem operation an entry asks for.
type Action string

const (
	ActionMove   Action = "move"
	ActionDelete Action = "delete"
)

// Alternative is a secondary destination proposal. Informational only.
type Alternative struct {
	DestPath   string `json:"dest_path"`
	Confidence int    `json:"confidence,omitempty"`
	Reasoning  string `json:"reasoning,omitempty"`
}

// Entry is one proposed or processed file operation.
type Entry struct {
	ID                string         `json:"id"`
	SourcePath        string         `json:"source_path"`
	DestPath          string         `json:"dest_path"`
	Confidence        int            `json:"confidence"`
	ConfidenceFactors map[string]int `json:"confidence_factors,omitempty"`
	Status            Status         `json:"status"`
	Action            Action         `json:"action,omitempty"`
	Reasoning         string         `json:"reasoning,omitempty"`
	DuplicateOf       []string       `json:"duplicate_of,omitempty"`
	Checksum          string         `json:"checksum,omitempty"`
	Alternatives      []Alternative  `json:"alternatives,omitempty"`
	NewFolder         bool           `json:"new_folder,omitempty"`
	Error             string         `json:"error,omitempty"`
	Timestamp         string         `json:"timestamp,omitempty"`
}

// IsDelete reports whether the entry removes its source rather than moving it.
func (e Entry) IsDelete() bool {
	return e.Action == ActionDelete || e.DestPath == DeleteSentinel
}

// CreatedAt parses Timestamp. Producers write RFC 3339 with or without a
// zone; the zero time is returned when the field is empty or unparseable.
func (e Entry) CreatedAt() time.Time {
	return parseTimestamp(e.Timestamp)
}

// Document is the on-disk queue file.
type Document struct {
	SchemaVersion string  `json:"schema_version"`
	LastUpdated   string  `json:"last_updated"`
	Files         []Entry `json:"files"`
}

// NewDocument returns an empty document at the current schema version.
func NewDocument() *Document {
	return &Document{SchemaVersion: SchemaVersion, Files: []Entry{}}
}

// Find returns a pointer to the entry with id, or nil.
func (d *Document) Find(id string) *Entry {
	for i := range d.Files {
		if d.Files[i].ID == id {
			return &d.Files[i]
		}
	}
	return nil
}

// Actionable returns copies of the entries the workflow should process, in
// queue order.
func (d *Document) Actionable() []Entry {
	out := make([]Entry, 0, len(d.Files))
	for _, entry := range d.Files {
		if entry.Status.IsActionable() {
			out = append(out, entry)
		}
	}
	return out
}

// Counts returns the number of entries per status.
func (d *Document) Counts() map[Status]int {
	counts := make(map[Status]int, len(allStatuses))
	for _, entry := range d.Files {
		counts[entry.Status]++
	}
	return counts
}

// remove drops the entry with id and reports whether it was present.
func (d *Document) remove(id string) bool {
	for i := range d.Files {
		if d.Files[i].ID == id {
			d.Files = append(d.Files[:i], d.Files[i+1:]...)
			return true
		}
	}
	return false
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func parseTimestamp(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
