package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"docshelf/internal/queue"
	"docshelf/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var settle time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print queue counts whenever the queue file changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tk, err := ctx.openServices(cmd, false)
			if err != nil {
				return err
			}
			defer tk.Close()

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			w := watch.New(tk.store, watch.WithLogger(tk.logger), watch.WithSettle(settle))
			return w.Run(cmd.Context(), func(doc *queue.Document, err error) {
				if err != nil {
					fmt.Fprintln(out, renderStatusLine("Queue", statusError, err.Error(), colorize))
					return
				}
				printQueueCounts(out, doc, time.Now().Format("15:04:05"))
			})
		},
	}

	cmd.Flags().DurationVar(&settle, "settle", 150*time.Millisecond, "Wait this long after the last change before reloading")
	return cmd
}

func printQueueCounts(out io.Writer, doc *queue.Document, title string) {
	counts := doc.Counts()
	rows := make([][]string, 0, len(counts))
	for _, status := range queue.AllStatuses() {
		if n := counts[status]; n > 0 {
			rows = append(rows, []string{humanLabel(string(status)), strconv.Itoa(n)})
		}
	}
	if len(rows) == 0 {
		rows = append(rows, []string{"Empty", "0"})
	}
	fmt.Fprintln(out, tableView{
		title:   title,
		headers: []string{"Status", "Entries"},
		numeric: map[int]bool{1: true},
		rows:    rows,
	}.render())
}
