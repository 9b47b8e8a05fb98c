package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newWishlistCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wishlist",
		Short: "Drive a local wishlist",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <product-id>",
			Short: "Save a catalog product",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				product, err := a.lookupProduct(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				note, err := a.wishlistStore().Add(*product)
				if note == nil && err == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s is already in your wishlist\n", product.Name)
				}
				printNotification(cmd.OutOrStdout(), note)
				return err
			},
		},
		&cobra.Command{
			Use:   "remove <product-id>",
			Short: "Remove a saved product",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				note, err := a.wishlistStore().Remove(args[0])
				printNotification(cmd.OutOrStdout(), note)
				return err
			},
		},
		&cobra.Command{
			Use:   "move <product-id>",
			Short: "Move a saved product into the cart",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				wishlist := a.wishlistStore()
				for _, p := range wishlist.Snapshot().Items {
					if p.ID != args[0] {
						continue
					}
					note, err := a.cartStore().Add(p)
					if err != nil {
						return err
					}
					printNotification(cmd.OutOrStdout(), note)
					_, err = wishlist.Remove(p.ID)
					return err
				}
				return fmt.Errorf("product %q is not in the wishlist", args[0])
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove every saved product",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.wishlistStore().Clear()
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "List saved products",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				state := a.wishlistStore().Snapshot()
				out := cmd.OutOrStdout()

				if a.jsonOutput {
					return printJSON(out, state)
				}
				if len(state.Items) == 0 {
					fmt.Fprintln(out, "Wishlist is empty")
					return nil
				}

				tw := newTable(out)
				printRow(tw, "ID", "NAME", "PRICE")
				for _, p := range state.Items {
					printRow(tw, p.ID, p.Name, p.Price.StringFixed(2))
				}
				return tw.Flush()
			},
		},
	)

	return cmd
}
