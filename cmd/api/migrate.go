package main

import (
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/suar-net/form-relay/internal/config"
	"github.com/suar-net/form-relay/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations for the attempt ledger.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configFile)
		if err != nil {
			return err
		}
		if !cfg.DB.Enabled() {
			return errors.New("DATABASE_URL is not set")
		}

		db, err := database.ConnectDB(cfg.DB)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := database.Migrate(db); err != nil {
			return err
		}
		log.Info().Msg("Database migrations applied")
		return nil
	},
}
