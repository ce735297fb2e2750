package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		st, err := openStore(cmd.Context(), cfg, logger, true)
		if err != nil {
			logger.Error("migration failed", zap.Error(err))
			return err
		}
		st.close()
		logger.Info("database up to date", zap.String("db_driver", cfg.Database.Driver))
		return nil
	},
}
