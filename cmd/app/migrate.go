package main

import (
	"github.com/spf13/cobra"

	pg "telegram-sales-bot/internal/infra/db/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the embedded database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		if err := pg.Migrate(cfg.Database.URL, logger); err != nil {
			return err
		}
		logger.Info().Msg("migrations applied")
		return nil
	},
}
