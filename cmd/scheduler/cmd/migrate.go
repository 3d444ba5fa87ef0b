package cmd

import (
	"fmt"

	"asset_lifecycle_scheduler/internal/infra/database"
	"asset_lifecycle_scheduler/internal/infra/logger"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := database.NewPostgresConnection(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		from, to, err := database.Migrate(cmd.Context(), db, logger.Component("migrate"))
		if err != nil {
			return err
		}
		if from == to {
			fmt.Fprintf(cmd.OutOrStdout(), "schema is up to date at version %d\n", to)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "migrated schema from version %d to %d\n", from, to)
		return nil
	},
}
