package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kitchen-store/internal/domain"

	"github.com/jmoiron/sqlx"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderAlreadyExists = errors.New("order with this number already exists")
)

const orderColumns = `
	id, order_number, user_id, total_amount, status,
	COALESCE(shipping_address, '') AS shipping_address,
	COALESCE(billing_address, '') AS billing_address,
	COALESCE(customer_email, '') AS customer_email,
	COALESCE(customer_name, '') AS customer_name,
	COALESCE(payment_method, '') AS payment_method,
	created_at, updated_at`

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	AddItem(ctx context.Context, item *domain.OrderItem) error
	CreateWithItems(ctx context.Context, order *domain.Order, items []*domain.OrderItem) error
	List(ctx context.Context) ([]*domain.Order, error)
	FindByID(ctx context.Context, id int64) (*domain.Order, error)
	FindByNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	Items(ctx context.Context, orderID int64) ([]*domain.OrderItem, error)
	UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus, now time.Time) error
	Delete(ctx context.Context, id int64) error
}

type orderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sqlx.DB) OrderRepository {
	return &orderRepository{db: db}
}

func insertOrder(ctx context.Context, q sqlx.ExtContext, order *domain.Order) error {
	query := q.Rebind(`
		INSERT INTO orders (order_number, user_id, total_amount, status, shipping_address, billing_address,
			customer_email, customer_name, payment_method, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)

	err := q.QueryRowxContext(
		ctx,
		query,
		order.OrderNumber,
		order.UserID,
		order.TotalAmount,
		order.Status,
		order.ShippingAddress,
		order.BillingAddress,
		order.CustomerEmail,
		order.CustomerName,
		order.PaymentMethod,
		order.CreatedAt.UTC(),
		order.UpdatedAt.UTC(),
	).Scan(&order.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrOrderAlreadyExists
		}
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func insertOrderItem(ctx context.Context, q sqlx.ExtContext, item *domain.OrderItem) error {
	query := q.Rebind(`
		INSERT INTO order_items (order_id, product_id, product_name, quantity, price)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`)

	err := q.QueryRowxContext(ctx, query,
		item.OrderID, item.ProductID, item.ProductName, item.Quantity, item.Price,
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("failed to add order item: %w", err)
	}
	return nil
}

// Create inserts the order header only
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	return insertOrder(ctx, r.db, order)
}

// AddItem inserts one line for an existing order
func (r *orderRepository) AddItem(ctx context.Context, item *domain.OrderItem) error {
	return insertOrderItem(ctx, r.db, item)
}

// CreateWithItems writes the order and all of its items in one transaction
func (r *orderRepository) CreateWithItems(ctx context.Context, order *domain.Order, items []*domain.OrderItem) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertOrder(ctx, tx, order); err != nil {
		return err
	}

	for _, item := range items {
		item.OrderID = order.ID
		if err := insertOrderItem(ctx, tx, item); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}
	order.Items = items
	return nil
}

// List returns all orders, newest first
func (r *orderRepository) List(ctx context.Context) ([]*domain.Order, error) {
	orders := []*domain.Order{}
	query := "SELECT " + orderColumns + " FROM orders ORDER BY created_at DESC, id DESC"
	if err := r.db.SelectContext(ctx, &orders, query); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (r *orderRepository) findOne(ctx context.Context, where string, arg interface{}) (*domain.Order, error) {
	order := &domain.Order{}
	query := r.db.Rebind("SELECT " + orderColumns + " FROM orders WHERE " + where)
	if err := r.db.GetContext(ctx, order, query, arg); err != nil {
		if isNoRows(err) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	return order, nil
}

func (r *orderRepository) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *orderRepository) FindByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	return r.findOne(ctx, "order_number = ?", orderNumber)
}

// Items returns the lines of an order in insertion order. A missing snapshot
// name falls back to the live product name.
func (r *orderRepository) Items(ctx context.Context, orderID int64) ([]*domain.OrderItem, error) {
	items := []*domain.OrderItem{}
	query := r.db.Rebind(`
		SELECT oi.id, oi.order_id, oi.product_id, COALESCE(oi.product_name, p.name) AS product_name,
			oi.quantity, oi.price
		FROM order_items oi
		LEFT JOIN products p ON oi.product_id = p.id
		WHERE oi.order_id = ?
		ORDER BY oi.id
	`)
	if err := r.db.SelectContext(ctx, &items, query, orderID); err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	return items, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus, now time.Time) error {
	query := r.db.Rebind(`UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query, status, now.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	return checkAffected(result, ErrOrderNotFound)
}

// Delete removes the order's items and then the order itself
func (r *orderRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM order_items WHERE order_id = ?`), id); err != nil {
		return fmt.Errorf("failed to delete order items: %w", err)
	}

	result, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM orders WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if err := checkAffected(result, ErrOrderNotFound); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order deletion: %w", err)
	}
	return nil
}
