package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// tickCmd is meant for an external cron: one batch, summary on stdout.
var tickCmd = &cobra.Command{
	Use:   "tick",
	Short: "Process one batch of due deliveries and print the summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.Worker.TickTimeout)
		defer cancel()
		sum, err := a.delivery.RunOnce(ctx)
		if err != nil {
			return fmt.Errorf("tick: %w", err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	},
}
