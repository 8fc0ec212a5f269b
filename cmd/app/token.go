package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"telegram-sales-bot/internal/infra/api"
)

var (
	tokenSubject string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for the internal queue endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		auth := api.NewTriggerAuth(cfg.Security.TriggerSecret)
		if !auth.Enabled() {
			return errors.New("security.trigger_secret is not set")
		}
		tok, err := auth.Mint(tokenSubject, tokenTTL)
		if err != nil {
			return fmt.Errorf("mint token: %w", err)
		}
		fmt.Println(tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "cron", "token subject")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (0 = no expiry)")
}
