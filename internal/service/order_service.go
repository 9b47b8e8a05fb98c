package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"kitchen-store/internal/domain"
	"kitchen-store/internal/repository"
)

var ErrOrderNotFound = errors.New("order not found")

// OrderService defines order administration and customer order lookup
type OrderService interface {
	List(ctx context.Context) ([]*domain.Order, error)
	Get(ctx context.Context, id int64) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id int64, status string) (*domain.Order, error)
	Delete(ctx context.Context, id int64) error
	Track(ctx context.Context, orderNumber, email string) (*domain.Order, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
	now       func() time.Time
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(orderRepo repository.OrderRepository) OrderService {
	return &orderService{orderRepo: orderRepo, now: time.Now}
}

func (s *orderService) List(ctx context.Context) ([]*domain.Order, error) {
	orders, err := s.orderRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// Get returns the order with its items loaded
func (s *orderService) Get(ctx context.Context, id int64) (*domain.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if err := s.loadItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateStatus moves the order to status if the transition table allows it.
// Setting the current status again changes nothing.
func (s *orderService) UpdateStatus(ctx context.Context, id int64, status string) (*domain.Order, error) {
	next, err := domain.ParseOrderStatus(status)
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order.Status == next {
		return order, nil
	}
	if !order.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidOrderTransition, order.Status, next)
	}

	now := s.now()
	if err := s.orderRepo.UpdateStatus(ctx, id, next, now); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	order.Status = next
	order.UpdatedAt = now
	return order, nil
}

// Delete removes the order and its items
func (s *orderService) Delete(ctx context.Context, id int64) error {
	if err := s.orderRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return nil
}

// Track finds an order by number for a guest. The email must match the one
// captured at checkout; a mismatch looks the same as an unknown number.
func (s *orderService) Track(ctx context.Context, orderNumber, email string) (*domain.Order, error) {
	order, err := s.orderRepo.FindByNumber(ctx, strings.TrimSpace(orderNumber))
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}

	email = strings.TrimSpace(email)
	if email == "" || !strings.EqualFold(order.CustomerEmail, email) {
		return nil, ErrOrderNotFound
	}

	if err := s.loadItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) loadItems(ctx context.Context, order *domain.Order) error {
	items, err := s.orderRepo.Items(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}
	order.Items = items
	return nil
}
