package queue

import "docshelf/internal/services/dupes"

// ApplyDuplicates turns entry into a delete when the detector found at least
// one existing copy, and reports whether it did so.
func ApplyDuplicates(entry *Entry, result dupes.Result) bool {
	if entry == nil || !result.HasDuplicates() {
		return false
	}
	entry.Action = ActionDelete
	entry.DestPath = DeleteSentinel
	entry.DuplicateOf = result.Paths()
	entry.Checksum = result.SourceChecksum
	entry.Confidence = 100
	return true
}
