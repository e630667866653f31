package cmd

import (
	"github.com/spf13/cobra"

	config "clinic-queue.com/clinic-queue/internal/configs"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the token schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, logger, db, err := bootstrap()
		if err != nil {
			return err
		}

		if err := config.Migrate(db); err != nil {
			return err
		}

		logger.Info("migrations applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
