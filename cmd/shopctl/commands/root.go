// Package commands implements the shopctl operator CLI.
package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"kitchen-store/internal/config"
	"kitchen-store/internal/database"
	"kitchen-store/internal/logger"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries the global flags and the resources shared by subcommands.
type app struct {
	verbose    bool
	jsonOutput bool
	stateDir   string

	cfg    *config.Config
	logger *zap.Logger
}

// NewRootCmd builds the shopctl command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "shopctl",
		Short: "Kitchen Store operator tooling",
		Long: `shopctl manages a Kitchen Store deployment from the command line.

Database commands read the same DB_* environment variables as the API server.
Cart and wishlist commands keep their state in local JSON files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.cfg = config.Load()
			a.logger = logger.NewCLI(a.verbose)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Verbose output")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "Output in JSON format")
	root.PersistentFlags().StringVar(&a.stateDir, "state-dir", defaultStateDir(), "Directory holding local cart and wishlist state")

	root.AddCommand(
		newMigrateCmd(a),
		newSeedCmd(a),
		newSessionsCmd(a),
		newCategoriesCmd(a),
		newCartCmd(a),
		newWishlistCmd(a),
	)
	return root
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultStateDir() string {
	if dir := os.Getenv("SHOPCTL_STATE_DIR"); dir != "" {
		return dir
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "kitchen-store")
	}
	return ".kitchen-store"
}

// openDB connects to the configured database and brings its schema up to date.
func (a *app) openDB() (*sqlx.DB, error) {
	db, err := database.Open(a.cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := database.RunMigrations(db.DB, db.DriverName(), a.logger); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
