package commands

import (
	"kitchen-store/internal/repository"
	"kitchen-store/internal/service"

	"github.com/spf13/cobra"
)

func newCategoriesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Inspect and maintain categories",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "recount",
		Short: "Recompute product counts for every category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			catalog := service.NewCatalogService(
				repository.NewProductRepository(db),
				repository.NewCategoryRepository(db),
			)
			if err := catalog.RecountCategories(cmd.Context()); err != nil {
				return err
			}

			categories, err := catalog.ListCategories(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.jsonOutput {
				return printJSON(out, categories)
			}

			tw := newTable(out)
			printRow(tw, "ID", "NAME", "PRODUCTS")
			for _, c := range categories {
				printRow(tw, c.ID, c.Name, c.ProductCount)
			}
			return tw.Flush()
		},
	})

	return cmd
}
