package cart

import (
	"encoding/json"
	"fmt"
	"sync"

	"kitchen-store/internal/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	CartKey     = "cart"
	WishlistKey = "wishlist"
)

type options struct {
	logger *zap.Logger
}

type Option func(*options)

// WithLogger sets the logger used to report swallowed restore failures.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Store owns one client's cart. Every item mutation is followed by a full
// snapshot write to Storage.
type Store struct {
	mu      sync.Mutex
	state   State
	storage Storage
	logger  *zap.Logger
}

// NewStore restores the cart from storage. A missing or unreadable snapshot
// leaves the cart empty and is not reported as an error.
func NewStore(storage Storage, opts ...Option) *Store {
	o := buildOptions(opts)
	s := &Store{storage: storage, logger: o.logger, state: State{Items: []Item{}}}

	data, err := storage.Load(CartKey)
	if err != nil {
		if err != ErrNotFound {
			s.logger.Debug("Ignoring unreadable cart snapshot", zap.Error(err))
		}
		return s
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		s.logger.Debug("Ignoring malformed cart snapshot", zap.Error(err))
		return s
	}
	s.state, _ = Reduce(s.state, LoadCart(items))
	return s
}

func (s *Store) dispatch(action Action, persist bool) (*Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, note := Reduce(s.state, action)
	s.state = next
	if !persist {
		return note, nil
	}

	data, err := json.Marshal(s.state.Items)
	if err != nil {
		return note, fmt.Errorf("failed to encode cart: %w", err)
	}
	if err := s.storage.Save(CartKey, data); err != nil {
		return note, fmt.Errorf("failed to persist cart: %w", err)
	}
	return note, nil
}

func (s *Store) Add(p domain.Product) (*Notification, error) {
	return s.dispatch(AddItem(p), true)
}

func (s *Store) Remove(id string) (*Notification, error) {
	return s.dispatch(RemoveItem(id), true)
}

func (s *Store) UpdateQuantity(id string, quantity int) error {
	_, err := s.dispatch(UpdateQuantity(id, quantity), true)
	return err
}

func (s *Store) Clear() error {
	_, err := s.dispatch(ClearCart(), true)
	return err
}

// Toggle flips visibility. It is not business state and is not persisted.
func (s *Store) Toggle() {
	s.dispatch(ToggleCart(), false)
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return State{Items: append([]Item(nil), s.state.Items...), IsOpen: s.state.IsOpen}
}

func (s *Store) ItemsCount() int {
	return s.Snapshot().ItemsCount()
}

func (s *Store) Subtotal() decimal.Decimal {
	return s.Snapshot().Subtotal()
}

// WishlistStore owns one client's wishlist.
type WishlistStore struct {
	mu      sync.Mutex
	state   WishlistState
	storage Storage
	logger  *zap.Logger
}

// NewWishlistStore restores the wishlist from storage, starting empty on any failure.
func NewWishlistStore(storage Storage, opts ...Option) *WishlistStore {
	o := buildOptions(opts)
	w := &WishlistStore{storage: storage, logger: o.logger, state: WishlistState{Items: []domain.Product{}}}

	data, err := storage.Load(WishlistKey)
	if err != nil {
		if err != ErrNotFound {
			w.logger.Debug("Ignoring unreadable wishlist snapshot", zap.Error(err))
		}
		return w
	}

	var items []domain.Product
	if err := json.Unmarshal(data, &items); err != nil {
		w.logger.Debug("Ignoring malformed wishlist snapshot", zap.Error(err))
		return w
	}
	w.state, _ = ReduceWishlist(w.state, WishlistAction{Type: WishlistLoad, Items: items})
	return w
}

func (w *WishlistStore) dispatch(action WishlistAction) (*Notification, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	next, note := ReduceWishlist(w.state, action)
	w.state = next

	data, err := json.Marshal(w.state.Items)
	if err != nil {
		return note, fmt.Errorf("failed to encode wishlist: %w", err)
	}
	if err := w.storage.Save(WishlistKey, data); err != nil {
		return note, fmt.Errorf("failed to persist wishlist: %w", err)
	}
	return note, nil
}

func (w *WishlistStore) Add(p domain.Product) (*Notification, error) {
	return w.dispatch(WishlistAction{Type: WishlistAdd, Product: p})
}

func (w *WishlistStore) Remove(id string) (*Notification, error) {
	return w.dispatch(WishlistAction{Type: WishlistRemove, ID: id})
}

func (w *WishlistStore) Clear() error {
	_, err := w.dispatch(WishlistAction{Type: WishlistClear})
	return err
}

func (w *WishlistStore) Snapshot() WishlistState {
	w.mu.Lock()
	defer w.mu.Unlock()

	return WishlistState{Items: append([]domain.Product(nil), w.state.Items...)}
}

func (w *WishlistStore) Contains(id string) bool {
	return w.Snapshot().Contains(id)
}

func (w *WishlistStore) ItemsCount() int {
	return w.Snapshot().ItemsCount()
}
