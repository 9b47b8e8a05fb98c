package commands

import (
	"fmt"

	"kitchen-store/internal/repository"
	"kitchen-store/internal/seed"

	"github.com/spf13/cobra"
)

func newSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the starter catalog into an empty store",
		Long: `Insert the bundled categories and products.

Nothing is written when the store already has categories and products.
Rows that already exist are skipped and category product counts are
recomputed afterwards.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			catalog, err := seed.DefaultCatalog()
			if err != nil {
				return err
			}

			seeder := seed.NewSeeder(
				repository.NewCategoryRepository(db),
				repository.NewProductRepository(db),
				catalog,
				a.logger,
			)
			result, err := seeder.Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to seed catalog: %w", err)
			}

			out := cmd.OutOrStdout()
			if a.jsonOutput {
				return printJSON(out, result)
			}
			if result.Skipped {
				fmt.Fprintf(out, "Store already seeded: %d categories, %d products\n",
					result.TotalCategories, result.TotalProducts)
				return nil
			}
			fmt.Fprintf(out, "Inserted %d categories and %d products (totals: %d categories, %d products)\n",
				result.CategoriesInserted, result.ProductsInserted,
				result.TotalCategories, result.TotalProducts)
			return nil
		},
	}
}
