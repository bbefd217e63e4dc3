package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"docshelf/internal/journal"
)

func runUndo(cmd *cobra.Command, ctx *commandContext, dryRun bool) error {
	tk, err := ctx.openServices(cmd, dryRun)
	if err != nil {
		return err
	}
	defer tk.Close()

	if !dryRun {
		if err := tk.lock.TryAcquire(); err != nil {
			return err
		}
		defer func() { _ = tk.lock.Release() }()
	}

	undoer := journal.NewUndoer(tk.journal, tk.hasher,
		journal.WithRetainUnreversed(tk.cfg.Undo.RetainUnreversed),
		journal.WithLogger(tk.logger),
	)
	report, err := undoer.UndoBatch(cmd.Context(), journal.Options{DryRun: dryRun})
	if err != nil {
		return err
	}
	printUndoReport(cmd.OutOrStdout(), report)
	return nil
}

func printUndoReport(out io.Writer, report journal.Report) {
	if len(report.Items) == 0 {
		fmt.Fprintln(out, "Undo journal is empty.")
		return
	}
	colorize := shouldColorize(out)
	for _, item := range report.Items {
		rec := item.Record
		switch item.Outcome {
		case journal.OutcomeUndone:
			fmt.Fprintln(out, renderStatusLine(rec.ID, statusOK, fmt.Sprintf("restored %s", rec.SourcePath), colorize))
		case journal.OutcomeWouldUndo:
			fmt.Fprintln(out, renderStatusLine(rec.ID, statusInfo, fmt.Sprintf("would restore %s -> %s", rec.DestPath, rec.SourcePath), colorize))
		default:
			fmt.Fprintln(out, renderStatusLine(rec.ID, statusWarn, fmt.Sprintf("%s: %s", rec.SourcePath, item.Reason), colorize))
		}
	}

	verb := "Undone"
	if report.DryRun {
		verb = "Would undo"
	}
	fmt.Fprintf(out, "%s %d, not reversible %d.", verb, report.Undone, report.Failed)
	switch {
	case report.Cleared:
		fmt.Fprint(out, " Journal cleared.")
	case !report.DryRun && report.Undone > 0:
		fmt.Fprint(out, " Unreversed records kept.")
	}
	fmt.Fprintln(out)
}
