package commands

import (
	"fmt"

	"kitchen-store/internal/repository"
	"kitchen-store/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSessionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage stored login sessions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "cleanup",
		Short: "Delete expired sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			auth := service.NewAuthService(
				repository.NewUserRepository(db),
				repository.NewSessionRepository(db),
				service.NewLogMailer(a.cfg.Server.SiteURL, a.logger),
				a.cfg.Session.Secret,
				a.logger,
			)

			deleted, err := auth.CleanupExpiredSessions(cmd.Context())
			if err != nil {
				return err
			}
			a.logger.Debug("Expired sessions removed", zap.Int64("deleted", deleted))

			if a.jsonOutput {
				return printJSON(cmd.OutOrStdout(), map[string]int64{"deleted": deleted})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d expired sessions\n", deleted)
			return nil
		},
	})

	return cmd
}
