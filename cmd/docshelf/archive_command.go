package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"docshelf/internal/archive"
	"docshelf/internal/config"
	"docshelf/internal/fileutil"
)

func newArchiveCommand(ctx *commandContext) *cobra.Command {
	archiveCmd := &cobra.Command{
		Use:   "archive",
		Short: "Inspect processed entries",
	}
	archiveCmd.AddCommand(newArchiveExportCommand(ctx))
	return archiveCmd
}

func newArchiveExportCommand(ctx *commandContext) *cobra.Command {
	var (
		outcome string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export archived entries of one outcome as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := archive.ParseExportKind(outcome)
			if err != nil {
				return err
			}
			tk, err := ctx.openServices(cmd, false)
			if err != nil {
				return err
			}
			defer tk.Close()

			data, err := tk.archive.Export(cmd.Context(), kind)
			if err != nil {
				return err
			}
			target := strings.TrimSpace(output)
			if target == "" || target == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if target, err = config.ExpandPath(target); err != nil {
				return fmt.Errorf("resolve output path: %w", err)
			}
			if err := fileutil.WriteFileAtomic(target, data, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s export to %s\n", kind, target)
			return nil
		},
	}

	cmd.Flags().StringVar(&outcome, "outcome", "", "moved, skipped, deleted, or failed")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	_ = cmd.MarkFlagRequired("outcome")
	return cmd
}
