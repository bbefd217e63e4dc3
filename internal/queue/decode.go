package queue

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// Decode parses and validates a queue document. Any failure is returned as a
// *CorruptionError naming path.
func Decode(path string, data []byte) (*Document, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return NewDocument(), nil
	}
	if !json.Valid(data) {
		return nil, &CorruptionError{Path: path, Reason: "malformed JSON"}
	}
	if err := validateSchema(data); err != nil {
		return nil, &CorruptionError{Path: path, Reason: "schema validation failed", Err: err}
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &CorruptionError{Path: path, Reason: "decode", Err: err}
	}
	if doc.SchemaVersion == "" {
		doc.SchemaVersion = SchemaVersion
	}
	if doc.Files == nil {
		doc.Files = []Entry{}
	}
	seen := make(map[string]struct{}, len(doc.Files))
	for i := range doc.Files {
		if err := normalizeEntry(&doc.Files[i]); err != nil {
			return nil, &CorruptionError{Path: path, Reason: fmt.Sprintf("entry %d", i), Err: err}
		}
		id := doc.Files[i].ID
		if _, dup := seen[id]; dup {
			return nil, &CorruptionError{Path: path, Reason: fmt.Sprintf("entry %d", i), Err: fmt.Errorf("%w: %s", ErrDuplicateID, id)}
		}
		seen[id] = struct{}{}
	}
	return &doc, nil
}

// normalizeEntry fills defaults and checks the fields the schema cannot.
func normalizeEntry(entry *Entry) error {
	entry.ID = strings.TrimSpace(entry.ID)
	if entry.ID == "" {
		return fmt.Errorf("empty id")
	}
	if _, ok := ParseStatus(string(entry.Status)); !ok {
		return fmt.Errorf("entry %s: unknown status %q", entry.ID, entry.Status)
	}
	switch entry.Action {
	case "":
		entry.Action = ActionMove
		if entry.DestPath == DeleteSentinel {
			entry.Action = ActionDelete
		}
	case ActionMove, ActionDelete:
	default:
		return fmt.Errorf("entry %s: unknown action %q", entry.ID, entry.Action)
	}
	if entry.Action == ActionDelete && strings.TrimSpace(entry.DestPath) == "" {
		entry.DestPath = DeleteSentinel
	}
	if entry.Confidence < 0 || entry.Confidence > 100 {
		return fmt.Errorf("entry %s: confidence %d outside 0..100", entry.ID, entry.Confidence)
	}
	if !filepath.IsAbs(entry.SourcePath) {
		return fmt.Errorf("entry %s: source path %q is not absolute", entry.ID, entry.SourcePath)
	}
	if entry.Action == ActionMove {
		if entry.DestPath == DeleteSentinel {
			return fmt.Errorf("entry %s: move action with delete destination", entry.ID)
		}
		if !filepath.IsAbs(entry.DestPath) {
			return fmt.Errorf("entry %s: destination %q is not absolute", entry.ID, entry.DestPath)
		}
	}
	entry.SourcePath = filepath.Clean(entry.SourcePath)
	if entry.DestPath != DeleteSentinel {
		entry.DestPath = filepath.Clean(entry.DestPath)
	}
	return nil
}
