package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

var (
	cfgPath string
	devMode bool
	rootCmd = &cobra.Command{
		Use:           "salesbot",
		Short:         "Telegram sales bot: webhooks, follow-up sequences and delayed delivery",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "path to YAML config file")
	rootCmd.PersistentFlags().BoolVar(&devMode, "dev", false, "developer mode (console logs, unredacted ids)")
	rootCmd.AddCommand(serveCmd, workerCmd, tickCmd, migrateCmd, seedCmd, tokenCmd)
}
