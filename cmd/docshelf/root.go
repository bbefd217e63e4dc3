package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	config string
	auto   bool
	dryRun bool
	undo   bool
	status bool
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}
	ctx := newCommandContext(&flags.config)

	rootCmd := &cobra.Command{
		Use:           "docshelf",
		Short:         "Route queued document moves by confidence, with undo",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case flags.status:
				return runStatus(cmd, ctx)
			case flags.undo:
				return runUndo(cmd, ctx, flags.dryRun)
			default:
				return runBatch(cmd, ctx, flags.auto, flags.dryRun)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.config, "config", "c", "", "Configuration file path")
	rootCmd.Flags().BoolVarP(&flags.auto, "auto", "a", false, "Automated mode: never prompt, leave confirmation-band entries pending")
	rootCmd.Flags().BoolVarP(&flags.dryRun, "dry-run", "n", false, "Report decisions without moving files or writing state")
	rootCmd.Flags().BoolVarP(&flags.undo, "undo", "u", false, "Reverse the last batch recorded in the undo journal")
	rootCmd.Flags().BoolVarP(&flags.status, "status", "s", false, "Show queue, archive, and tool status")
	rootCmd.MarkFlagsMutuallyExclusive("undo", "status")
	rootCmd.MarkFlagsMutuallyExclusive("auto", "status")
	rootCmd.MarkFlagsMutuallyExclusive("auto", "undo")

	rootCmd.AddCommand(newAddCommand(ctx))
	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newWatchCommand(ctx))
	rootCmd.AddCommand(newArchiveCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
