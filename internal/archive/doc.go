// Package archive keeps terminal queue entries in SQLite after they leave the
// active queue, and renders them as per-outcome history documents.
//
// The database lives next to the queue file. Schema changes bump the version
// in store.go; an archive with another version is refused rather than
// migrated.
package archive
