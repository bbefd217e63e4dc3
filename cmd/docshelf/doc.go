// Command docshelf processes the file queue written by the content analyzer.
//
// Without flags it runs one interactive pass: high-confidence entries move
// straight away, the confirmation band is asked about, and low-confidence
// entries go to the fallback directory. --auto never prompts and leaves the
// confirmation band pending. --dry-run reports the plan without touching
// anything. --undo reverses the last batch from the undo journal and --status
// prints queue, archive, and tool health.
//
// Subcommands cover producers and operators: add queues an entry, serve runs
// the review API, watch follows the queue file, archive export renders the
// per-outcome history, and config init writes a sample configuration.
package main
