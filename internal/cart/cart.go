// Package cart implements the client-held cart and wishlist state machines.
//
// State transitions are pure reducers. Store types wrap them, persisting a full
// JSON snapshot to client-local Storage after every mutation and restoring it
// on load.
package cart

import (
	"fmt"

	"kitchen-store/internal/domain"

	"github.com/shopspring/decimal"
)

// Item is a product in the cart. Quantity is always at least 1.
type Item struct {
	domain.Product
	Quantity int `json:"quantity" validate:"gte=1"`
}

// LineTotal is price times quantity.
func (i Item) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// State is the cart as held by one client. IsOpen is UI visibility only.
type State struct {
	Items  []Item `json:"items"`
	IsOpen bool   `json:"isOpen"`
}

type ActionType string

const (
	ActionAddItem        ActionType = "ADD_ITEM"
	ActionRemoveItem     ActionType = "REMOVE_ITEM"
	ActionUpdateQuantity ActionType = "UPDATE_QUANTITY"
	ActionClearCart      ActionType = "CLEAR_CART"
	ActionToggleCart     ActionType = "TOGGLE_CART"
	ActionLoadCart       ActionType = "LOAD_CART"
)

// Action is a cart transition. Only the fields relevant to Type are read.
type Action struct {
	Type     ActionType
	Product  domain.Product
	ID       string
	Quantity int
	Items    []Item
}

func AddItem(p domain.Product) Action {
	return Action{Type: ActionAddItem, Product: p}
}

func RemoveItem(id string) Action {
	return Action{Type: ActionRemoveItem, ID: id}
}

func UpdateQuantity(id string, quantity int) Action {
	return Action{Type: ActionUpdateQuantity, ID: id, Quantity: quantity}
}

func ClearCart() Action {
	return Action{Type: ActionClearCart}
}

func ToggleCart() Action {
	return Action{Type: ActionToggleCart}
}

func LoadCart(items []Item) Action {
	return Action{Type: ActionLoadCart, Items: items}
}

// Reduce applies action to state and returns the next state along with any
// user-facing notification. The input state is never modified.
func Reduce(state State, action Action) (State, *Notification) {
	next := State{IsOpen: state.IsOpen}

	switch action.Type {
	case ActionAddItem:
		idx := indexOf(state.Items, action.Product.ID)
		next.Items = append([]Item(nil), state.Items...)
		if idx >= 0 {
			next.Items[idx].Quantity++
			return next, &Notification{
				Kind:    NotificationUpdated,
				Title:   "Updated cart!",
				Message: fmt.Sprintf("%s quantity increased to %d", action.Product.Name, next.Items[idx].Quantity),
			}
		}
		next.Items = append(next.Items, Item{Product: action.Product, Quantity: 1})
		return next, &Notification{
			Kind:    NotificationAdded,
			Title:   "Added to cart!",
			Message: fmt.Sprintf("%s has been added to your cart", action.Product.Name),
		}

	case ActionRemoveItem:
		idx := indexOf(state.Items, action.ID)
		if idx < 0 {
			next.Items = append([]Item(nil), state.Items...)
			return next, nil
		}
		removed := state.Items[idx]
		next.Items = without(state.Items, idx)
		return next, &Notification{
			Kind:    NotificationRemoved,
			Title:   "Removed from cart",
			Message: fmt.Sprintf("%s has been removed from your cart", removed.Name),
		}

	case ActionUpdateQuantity:
		idx := indexOf(state.Items, action.ID)
		switch {
		case idx < 0:
			next.Items = append([]Item(nil), state.Items...)
		case action.Quantity <= 0:
			next.Items = without(state.Items, idx)
		default:
			next.Items = append([]Item(nil), state.Items...)
			next.Items[idx].Quantity = action.Quantity
		}
		return next, nil

	case ActionClearCart:
		next.Items = []Item{}
		return next, nil

	case ActionToggleCart:
		next.Items = append([]Item(nil), state.Items...)
		next.IsOpen = !state.IsOpen
		return next, nil

	case ActionLoadCart:
		next.Items = sanitize(action.Items)
		return next, nil
	}

	next.Items = append([]Item(nil), state.Items...)
	return next, nil
}

// ItemsCount is the sum of quantities.
func (s State) ItemsCount() int {
	n := 0
	for _, item := range s.Items {
		n += item.Quantity
	}
	return n
}

// Subtotal is the sum of price times quantity, before tax and shipping.
func (s State) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func indexOf(items []Item, id string) int {
	for i, item := range items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func without(items []Item, idx int) []Item {
	out := make([]Item, 0, len(items)-1)
	out = append(out, items[:idx]...)
	return append(out, items[idx+1:]...)
}

// sanitize drops restored entries that would break the quantity invariant and
// merges duplicate ids.
func sanitize(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if item.ID == "" || item.Quantity < 1 {
			continue
		}
		if idx := indexOf(out, item.ID); idx >= 0 {
			out[idx].Quantity += item.Quantity
			continue
		}
		out = append(out, item)
	}
	return out
}
