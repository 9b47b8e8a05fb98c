package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"kitchen-store/internal/cart"
	"kitchen-store/internal/domain"
	"kitchen-store/internal/repository"
	"kitchen-store/internal/service"

	"github.com/spf13/cobra"
)

func newCartCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Drive a local shopping cart",
		Long: `Manage a cart stored as JSON under --state-dir.

Examples:
  shopctl cart add cast-iron-skillet     # Add one unit, or bump the quantity
  shopctl cart update cast-iron-skillet 3
  shopctl cart show --json`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <product-id>",
			Short: "Add a catalog product to the cart",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				product, err := a.lookupProduct(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				note, err := a.cartStore().Add(*product)
				printNotification(cmd.OutOrStdout(), note)
				return err
			},
		},
		&cobra.Command{
			Use:   "remove <product-id>",
			Short: "Remove a product from the cart",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				note, err := a.cartStore().Remove(args[0])
				printNotification(cmd.OutOrStdout(), note)
				return err
			},
		},
		&cobra.Command{
			Use:   "update <product-id> <quantity>",
			Short: "Set a product's quantity; zero or less removes it",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				quantity, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("invalid quantity %q", args[1])
				}
				return a.cartStore().UpdateQuantity(args[0], quantity)
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Empty the cart",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.cartStore().Clear()
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Show cart contents and checkout totals",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.showCart(cmd.OutOrStdout(), a.cartStore().Snapshot())
			},
		},
	)

	return cmd
}

// cartView is the JSON shape printed by cart show.
type cartView struct {
	Items      []cart.Item `json:"items"`
	ItemsCount int         `json:"itemsCount"`
	Totals     cart.Totals `json:"totals"`
}

func (a *app) showCart(out io.Writer, state cart.State) error {
	view := cartView{
		Items:      state.Items,
		ItemsCount: state.ItemsCount(),
		Totals:     a.pricing().Totals(state.Subtotal()),
	}

	if a.jsonOutput {
		return printJSON(out, view)
	}

	if len(view.Items) == 0 {
		fmt.Fprintln(out, "Cart is empty")
		return nil
	}

	tw := newTable(out)
	printRow(tw, "ID", "NAME", "PRICE", "QTY", "LINE TOTAL")
	for _, item := range view.Items {
		printRow(tw, item.ID, item.Name, item.Price.StringFixed(2), item.Quantity, item.LineTotal().StringFixed(2))
	}
	printRow(tw)
	printRow(tw, "", "Subtotal", "", "", view.Totals.Subtotal.StringFixed(2))
	printRow(tw, "", "Shipping", "", "", view.Totals.Shipping.StringFixed(2))
	printRow(tw, "", "Tax", "", "", view.Totals.Tax.StringFixed(2))
	printRow(tw, "", "Total", "", "", view.Totals.Total.StringFixed(2))
	return tw.Flush()
}

func (a *app) storage() cart.Storage {
	return cart.NewFileStorage(a.stateDir)
}

func (a *app) cartStore() *cart.Store {
	return cart.NewStore(a.storage(), cart.WithLogger(a.logger))
}

func (a *app) wishlistStore() *cart.WishlistStore {
	return cart.NewWishlistStore(a.storage(), cart.WithLogger(a.logger))
}

// pricing follows the server's checkout configuration so local totals match
// what a quote would return.
func (a *app) pricing() cart.Pricing {
	return cart.Pricing{
		TaxRate:               a.cfg.Checkout.TaxRate,
		FreeShippingThreshold: a.cfg.Checkout.FreeShippingThreshold,
		FlatShipping:          a.cfg.Checkout.FlatShipping,
	}
}

func (a *app) lookupProduct(ctx context.Context, id string) (*domain.Product, error) {
	db, err := a.openDB()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	catalog := service.NewCatalogService(
		repository.NewProductRepository(db),
		repository.NewCategoryRepository(db),
	)
	product, err := catalog.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			return nil, fmt.Errorf("product %q not found", id)
		}
		return nil, err
	}
	return product, nil
}

func printNotification(out io.Writer, note *cart.Notification) {
	if note == nil {
		return
	}
	fmt.Fprintf(out, "%s %s\n", note.Title, note.Message)
}
