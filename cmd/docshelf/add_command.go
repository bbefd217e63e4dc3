package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"docshelf/internal/deps"
	"docshelf/internal/queue"
	"docshelf/internal/services/dupes"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var (
		confidence      int
		reasoning       string
		newFolder       bool
		id              string
		checkDuplicates bool
	)

	cmd := &cobra.Command{
		Use:   "add SOURCE DEST",
		Short: "Queue a proposed move (DEST may be DELETE)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tk, err := ctx.openServices(cmd, false)
			if err != nil {
				return err
			}
			defer tk.Close()

			source, err := filepath.Abs(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("resolve source path: %w", err)
			}
			dest := strings.TrimSpace(args[1])
			if dest != queue.DeleteSentinel {
				if dest, err = filepath.Abs(dest); err != nil {
					return fmt.Errorf("resolve destination path: %w", err)
				}
			}
			if strings.TrimSpace(id) == "" {
				id = uuid.NewString()
			}

			entry := queue.Entry{
				ID:         id,
				SourcePath: source,
				DestPath:   dest,
				Confidence: confidence,
				Reasoning:  strings.TrimSpace(reasoning),
				NewFolder:  newFolder,
			}
			out := cmd.OutOrStdout()
			if checkDuplicates && dest != queue.DeleteSentinel {
				finder := dupes.NewCommandFinder(deps.Binary(tk.cfg.Tools.DuplicateCommand))
				result, err := finder.FindDuplicates(cmd.Context(), source, filepath.Dir(dest))
				if err != nil {
					return err
				}
				if queue.ApplyDuplicates(&entry, result) {
					fmt.Fprintf(out, "Duplicate of %s; queued as delete\n", strings.Join(result.Paths(), ", "))
				}
			}

			if err := tk.lock.TryAcquire(); err != nil {
				return err
			}
			defer func() { _ = tk.lock.Release() }()
			if err := tk.store.Append(cmd.Context(), entry); err != nil {
				return err
			}
			fmt.Fprintf(out, "Queued %s (confidence %d)\n", entry.ID, entry.Confidence)
			return nil
		},
	}

	cmd.Flags().IntVar(&confidence, "confidence", 0, "Confidence score 0-100")
	cmd.Flags().StringVar(&reasoning, "reasoning", "", "Why this destination was chosen")
	cmd.Flags().BoolVar(&newFolder, "new-folder", false, "Destination folder does not exist yet")
	cmd.Flags().StringVar(&id, "id", "", "Entry id (default: random UUID)")
	cmd.Flags().BoolVar(&checkDuplicates, "check-duplicates", false, "Run the duplicate detector against the destination folder")
	return cmd
}
