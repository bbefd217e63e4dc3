package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"docshelf/internal/queue"
)

// Outcome is one archived terminal entry.
type Outcome struct {
	ID         string
	SourcePath string
	DestPath   string
	Status     queue.Status
	Action     queue.Action
	Confidence int
	Reason     string
	SkippedTo  string
	RecordedAt time.Time
}

// ExportKind names a per-outcome history document.
type ExportKind string

const (
	ExportMoved   ExportKind = "moved"
	ExportSkipped ExportKind = "skipped"
	ExportDeleted ExportKind = "deleted"
	ExportFailed  ExportKind = "failed"
)

var exportStatuses = map[ExportKind][]queue.Status{
	ExportMoved:   {queue.StatusCompleted, queue.StatusMoved},
	ExportSkipped: {queue.StatusSkipped, queue.StatusRejected},
	ExportDeleted: {queue.StatusDeleted},
	ExportFailed:  {queue.StatusFailed},
}

// ParseExportKind validates an outcome name.
func ParseExportKind(value string) (ExportKind, error) {
	kind := ExportKind(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := exportStatuses[kind]; !ok {
		return "", fmt.Errorf("unknown outcome %q (want moved, skipped, deleted, or failed)", value)
	}
	return kind, nil
}

const outcomeColumns = "id, source_path, dest_path, status, action, confidence, reason, skipped_to, recorded_at"

func scanOutcome(scanner interface{ Scan(dest ...any) error }) (Outcome, error) {
	var (
		out         Outcome
		dest        sql.NullString
		status      string
		action      string
		reason      sql.NullString
		skippedTo   sql.NullString
		recordedRaw string
	)
	if err := scanner.Scan(&out.ID, &out.SourcePath, &dest, &status, &action, &out.Confidence, &reason, &skippedTo, &recordedRaw); err != nil {
		return Outcome{}, err
	}
	out.DestPath = dest.String
	out.Status = queue.Status(status)
	out.Action = queue.Action(action)
	out.Reason = reason.String
	out.SkippedTo = skippedTo.String
	if ts, err := time.Parse(time.RFC3339Nano, recordedRaw); err == nil {
		out.RecordedAt = ts
	}
	return out, nil
}

// List returns archived outcomes in recording order, optionally filtered by
// status.
func (s *Store) List(ctx context.Context, statuses ...queue.Status) ([]Outcome, error) {
	query := "SELECT " + outcomeColumns + " FROM outcomes"
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(statuses)), ",")
		query += " WHERE status IN (" + placeholders + ")"
		for _, status := range statuses {
			args = append(args, string(status))
		}
	}
	query += " ORDER BY row_id"

	var outcomes []Outcome
	err := retryOnBusy(ctx, func() error {
		outcomes = outcomes[:0]
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			out, err := scanOutcome(rows)
			if err != nil {
				return err
			}
			outcomes = append(outcomes, out)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	return outcomes, nil
}

// Counts returns the number of archived outcomes per status.
func (s *Store) Counts(ctx context.Context) (map[queue.Status]int, error) {
	counts := make(map[queue.Status]int)
	err := retryOnBusy(ctx, func() error {
		rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM outcomes GROUP BY status")
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				status string
				count  int
			)
			if err := rows.Scan(&status, &count); err != nil {
				return err
			}
			counts[queue.Status(status)] = count
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("count outcomes: %w", err)
	}
	return counts, nil
}

type exportRecord struct {
	ID         string `json:"id"`
	SourcePath string `json:"source_path"`
	DestPath   string `json:"dest_path,omitempty"`
	Status     string `json:"status"`
	MovedAt    string `json:"moved_at,omitempty"`
	SkippedAt  string `json:"skipped_at,omitempty"`
	DeletedAt  string `json:"deleted_at,omitempty"`
	FailedAt   string `json:"failed_at,omitempty"`
	SkippedTo  string `json:"skipped_to,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

type exportDocument struct {
	Files []exportRecord `json:"files"`
}

// Export renders the per-outcome history document for kind.
func (s *Store) Export(ctx context.Context, kind ExportKind) ([]byte, error) {
	statuses, ok := exportStatuses[kind]
	if !ok {
		return nil, fmt.Errorf("unknown outcome %q", kind)
	}
	outcomes, err := s.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	doc := exportDocument{Files: make([]exportRecord, 0, len(outcomes))}
	for _, out := range outcomes {
		rec := exportRecord{
			ID:         out.ID,
			SourcePath: out.SourcePath,
			DestPath:   out.DestPath,
			Status:     string(out.Status),
			Reason:     out.Reason,
		}
		at := out.RecordedAt.UTC().Format(time.RFC3339)
		switch kind {
		case ExportMoved:
			rec.MovedAt = at
		case ExportSkipped:
			rec.SkippedAt = at
			rec.SkippedTo = out.SkippedTo
			if rec.Reason == "" && out.Status == queue.StatusRejected {
				rec.Reason = "rejected by operator"
			}
		case ExportDeleted:
			rec.DeletedAt = at
		case ExportFailed:
			rec.FailedAt = at
		}
		doc.Files = append(doc.Files, rec)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return append(data, '\n'), nil
}
