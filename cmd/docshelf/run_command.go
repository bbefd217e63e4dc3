package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"docshelf/internal/router"
	"docshelf/internal/workflow"
)

func runBatch(cmd *cobra.Command, ctx *commandContext, auto, dryRun bool) error {
	tk, err := ctx.openServices(cmd, dryRun)
	if err != nil {
		return err
	}
	defer tk.Close()

	mode := router.ModeInteractive
	if auto {
		mode = router.ModeAutomated
	}
	runner, err := tk.runner(mode, cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	summary, err := runner.Run(cmd.Context(), workflow.Options{Mode: mode, DryRun: dryRun})
	if err != nil {
		return err
	}
	printSummary(cmd.OutOrStdout(), summary)
	return nil
}

func printSummary(out io.Writer, summary workflow.Summary) {
	colorize := shouldColorize(out)
	if summary.Processed() == 0 {
		fmt.Fprintln(out, "Nothing to process.")
		return
	}
	title := "Batch summary"
	if summary.DryRun {
		title = "Dry run"
		for _, line := range summary.Lines {
			fmt.Fprintln(out, line.String())
		}
		fmt.Fprintln(out)
	} else {
		for _, line := range summary.Failures() {
			fmt.Fprintln(out, renderStatusLine(line.EntryID, statusError, line.String(), colorize))
		}
	}

	rows := make([][]string, 0, len(summary.Counts()))
	for _, count := range summary.Counts() {
		rows = append(rows, []string{humanLabel(count.Label), strconv.Itoa(count.Value)})
	}
	fmt.Fprintln(out, tableView{
		title:   title,
		headers: []string{"Outcome", "Entries"},
		numeric: map[int]bool{1: true},
		rows:    rows,
	}.render())
	if summary.JournalFailures > 0 {
		fmt.Fprintln(out, renderStatusLine("Undo journal", statusWarn,
			fmt.Sprintf("%d operation(s) happened but were not recorded for undo", summary.JournalFailures), colorize))
	}
}
