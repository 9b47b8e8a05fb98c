package cart

import (
	"fmt"

	"kitchen-store/internal/domain"
)

// WishlistState holds saved products, unique by id.
type WishlistState struct {
	Items []domain.Product `json:"items"`
}

type WishlistActionType string

const (
	WishlistAdd    WishlistActionType = "ADD_ITEM"
	WishlistRemove WishlistActionType = "REMOVE_ITEM"
	WishlistClear  WishlistActionType = "CLEAR_WISHLIST"
	WishlistLoad   WishlistActionType = "LOAD_WISHLIST"
)

type WishlistAction struct {
	Type    WishlistActionType
	Product domain.Product
	ID      string
	Items   []domain.Product
}

// ReduceWishlist applies action to state. Adding a product that is already
// present changes nothing.
func ReduceWishlist(state WishlistState, action WishlistAction) (WishlistState, *Notification) {
	switch action.Type {
	case WishlistAdd:
		if state.Contains(action.Product.ID) {
			return WishlistState{Items: append([]domain.Product(nil), state.Items...)}, nil
		}
		items := append(append([]domain.Product(nil), state.Items...), action.Product)
		return WishlistState{Items: items}, &Notification{
			Kind:    NotificationAdded,
			Title:   "Added to wishlist!",
			Message: fmt.Sprintf("%s has been added to your wishlist", action.Product.Name),
		}

	case WishlistRemove:
		items := make([]domain.Product, 0, len(state.Items))
		var removed *domain.Product
		for i := range state.Items {
			if state.Items[i].ID == action.ID {
				removed = &state.Items[i]
				continue
			}
			items = append(items, state.Items[i])
		}
		if removed == nil {
			return WishlistState{Items: items}, nil
		}
		return WishlistState{Items: items}, &Notification{
			Kind:    NotificationRemoved,
			Title:   "Removed from wishlist",
			Message: fmt.Sprintf("%s has been removed from your wishlist", removed.Name),
		}

	case WishlistClear:
		return WishlistState{Items: []domain.Product{}}, nil

	case WishlistLoad:
		var next WishlistState
		next.Items = []domain.Product{}
		for _, p := range action.Items {
			if p.ID != "" && !next.Contains(p.ID) {
				next.Items = append(next.Items, p)
			}
		}
		return next, nil
	}

	return WishlistState{Items: append([]domain.Product(nil), state.Items...)}, nil
}

// Contains reports whether a product id is saved.
func (s WishlistState) Contains(id string) bool {
	for _, p := range s.Items {
		if p.ID == id {
			return true
		}
	}
	return false
}

// ItemsCount is the number of entries.
func (s WishlistState) ItemsCount() int {
	return len(s.Items)
}
