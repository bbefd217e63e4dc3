// Package preflight provides readiness checks for the filesystem paths and
// external tools docshelf depends on.
//
// These checks run in two contexts:
//   - Every run calls RunAll before touching the queue. Any failed check is
//     fatal: the run aborts before a single entry is processed.
//   - The CLI status view uses the individual check functions to display
//     tool and directory health.
//
// Tools left blank in the configuration select built-in behaviour and are
// not checked.
package preflight
