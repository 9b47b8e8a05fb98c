package commands

import (
	"fmt"

	"kitchen-store/internal/database"

	"github.com/spf13/cobra"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long: `Apply all pending migrations for the configured driver.

Examples:
  shopctl migrate              # Apply pending migrations
  shopctl migrate status       # Show applied and pending migrations`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Migrations applied (%s)\n", db.DriverName())
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.Open(a.cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			return database.GetMigrationStatus(db.DB, db.DriverName(), a.logger)
		},
	})

	return cmd
}
