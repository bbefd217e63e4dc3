// Package queue persists proposed file relocations in a single JSON document
// and drives their lifecycle.
//
// The Store is the only writer of the queue file. Every mutation loads the
// document, applies a change, and atomically replaces the file, so readers
// always see a complete previous or next state. Decoding validates the
// document against an embedded JSON Schema and then checks the typed fields;
// any failure is reported as a CorruptionError and the file is left alone.
//
// Statuses form one closed enumeration with an explicit transition table.
// Entries that reach a terminal status are handed to the Archiver and leave
// the active queue in the same transaction.
package queue
