package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"docshelf/internal/reviewapi"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the review API for the browser UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tk, err := ctx.openServices(cmd, false)
			if err != nil {
				return err
			}
			defer tk.Close()

			addr := strings.TrimSpace(bind)
			if addr == "" {
				addr = tk.cfg.Review.Bind
			}
			server := reviewapi.New(tk.store, tk.lock, reviewapi.WithLogger(tk.logger))
			if err := server.Start(cmd.Context(), addr); err != nil {
				return err
			}
			defer server.Stop()

			fmt.Fprintf(cmd.OutOrStdout(), "Review API listening on http://%s\n", server.Addr())
			<-cmd.Context().Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (default: review.bind from config)")
	return cmd
}
