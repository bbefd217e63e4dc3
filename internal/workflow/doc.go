// Package workflow runs one pass over the queue.
//
// The Runner takes every actionable entry in queue order, asks the router
// where it goes, exposes the confirmation decision point when the score calls
// for it, settles destination conflicts, executes the move or delete, and
// writes the resulting status back through the queue store. Entries are
// handled strictly one at a time; the advisory lock keeps a second run or the
// review API from writing the queue while a pass is in flight.
//
// Dry runs walk the same path without touching the filesystem or the queue
// and report one Line per entry describing what would happen.
package workflow
