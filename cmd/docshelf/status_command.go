package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"docshelf/internal/archive"
	"docshelf/internal/fileutil"
	"docshelf/internal/journal"
	"docshelf/internal/preflight"
	"docshelf/internal/queue"
)

// runStatus reports what it can even when preflight fails, so it opens the
// stores itself instead of going through openServices.
func runStatus(cmd *cobra.Command, ctx *commandContext) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	fmt.Fprintln(out, renderSectionHeader("Checks", colorize))
	for _, result := range preflight.RunAll(cmd.Context(), cfg) {
		kind := statusOK
		if !result.Passed {
			kind = statusError
		}
		fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, renderSectionHeader("Queue", colorize))
	doc, err := queue.NewStore(cfg.QueuePath()).Load(cmd.Context())
	if err != nil {
		fmt.Fprintln(out, renderStatusLine("Queue file", statusError, err.Error(), colorize))
	} else {
		printQueueCounts(out, doc, cfg.QueuePath())
		printQueueEntries(out, doc)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, renderSectionHeader("History", colorize))
	records, err := journal.New(cfg.JournalPath()).Records(cmd.Context())
	if err != nil {
		fmt.Fprintln(out, renderStatusLine("Undo journal", statusError, err.Error(), colorize))
	} else {
		fmt.Fprintln(out, renderStatusLine("Undo journal", statusInfo, fmt.Sprintf("%d record(s)", len(records)), colorize))
	}

	if exists, err := fileutil.Exists(cfg.ArchivePath()); err != nil || !exists {
		fmt.Fprintln(out, renderStatusLine("Archive", statusInfo, "empty", colorize))
		return nil
	}
	arch, err := archive.Open(cfg.ArchivePath())
	if err != nil {
		fmt.Fprintln(out, renderStatusLine("Archive", statusError, err.Error(), colorize))
		return nil
	}
	defer arch.Close()
	counts, err := arch.Counts(cmd.Context())
	if err != nil {
		fmt.Fprintln(out, renderStatusLine("Archive", statusError, err.Error(), colorize))
		return nil
	}
	rows := make([][]string, 0, len(counts))
	for _, status := range queue.AllStatuses() {
		if n := counts[status]; n > 0 {
			rows = append(rows, []string{humanLabel(string(status)), strconv.Itoa(n)})
		}
	}
	if len(rows) == 0 {
		fmt.Fprintln(out, renderStatusLine("Archive", statusInfo, "empty", colorize))
		return nil
	}
	fmt.Fprintln(out, tableView{
		title:   "Archive",
		headers: []string{"Outcome", "Entries"},
		numeric: map[int]bool{1: true},
		rows:    rows,
	}.render())
	return nil
}

// printQueueEntries renders one table per status holding live entries.
func printQueueEntries(out io.Writer, doc *queue.Document) {
	grouped := make(map[queue.Status][]queue.Entry)
	for _, entry := range doc.Files {
		grouped[entry.Status] = append(grouped[entry.Status], entry)
	}
	for _, status := range queue.AllStatuses() {
		entries := grouped[status]
		if len(entries) == 0 {
			continue
		}
		rows := make([][]string, 0, len(entries))
		for _, entry := range entries {
			rows = append(rows, []string{entry.ID, entry.SourcePath, entry.DestPath, strconv.Itoa(entry.Confidence)})
		}
		fmt.Fprintln(out, tableView{
			title:   humanLabel(string(status)),
			headers: []string{"ID", "Source", "Destination", "Confidence"},
			numeric: map[int]bool{3: true},
			rows:    rows,
		}.render())
	}
}
