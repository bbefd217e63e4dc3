package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docshelf/internal/fileutil"
	"docshelf/internal/queue"
)

// SchemaVersion is written into the journal document.
const SchemaVersion = "1.0"

// DeletedMarker is the dest_path recorded for delete operations.
const DeletedMarker = "deleted"

// Record is one executed filesystem operation.
type Record struct {
	ID         string       `json:"id"`
	SourcePath string       `json:"source_path"`
	DestPath   string       `json:"dest_path"`
	Action     queue.Action `json:"action"`
	ExecutedAt time.Time    `json:"executed_at"`
	HashBefore string       `json:"hash_before"`
	HashAfter  string       `json:"hash_after,omitempty"`
	CanUndo    bool         `json:"can_undo"`
	Method     string       `json:"method,omitempty"`
}

type document struct {
	SchemaVersion string   `json:"schema_version"`
	Operations    []Record `json:"operations"`
}

// Journal is the append-only operation log on disk.
type Journal struct {
	path string
}

// New returns a Journal backed by path.
func New(path string) *Journal {
	return &Journal{path: path}
}

// Path returns the journal file location.
func (j *Journal) Path() string {
	return j.path
}

// Records returns every record in append order (oldest first).
func (j *Journal) Records(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(j.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return []Record{}, nil
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode journal %s: %w", j.path, err)
	}
	if doc.Operations == nil {
		doc.Operations = []Record{}
	}
	return doc.Operations, nil
}

// Append adds rec to the end of the log.
func (j *Journal) Append(ctx context.Context, rec Record) error {
	records, err := j.Records(ctx)
	if err != nil {
		return err
	}
	return j.Replace(ctx, append(records, rec))
}

// Clear removes every record.
func (j *Journal) Clear(ctx context.Context) error {
	return j.Replace(ctx, nil)
}

// Replace atomically rewrites the journal with records.
func (j *Journal) Replace(ctx context.Context, records []Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if records == nil {
		records = []Record{}
	}
	data, err := json.MarshalIndent(document{SchemaVersion: SchemaVersion, Operations: records}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode journal: %w", err)
	}
	data = append(data, '\n')
	if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		return fmt.Errorf("ensure journal directory: %w", err)
	}
	if err := fileutil.WriteFileAtomic(j.path, data, 0o644); err != nil {
		return fmt.Errorf("write journal: %w", err)
	}
	return nil
}
