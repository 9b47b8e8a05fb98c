package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"kitchen-store/internal/config"
	"kitchen-store/internal/domain"
	"kitchen-store/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const PaymentMethodPayPal = "PayPal"

// ShippingAddress is the delivery address reported by the payment provider
type ShippingAddress struct {
	RecipientName string
	Line1         string
	City          string
	State         string
	PostalCode    string
	CountryCode   string
}

// String renders the address as the multi-line block stored on the order
func (a *ShippingAddress) String() string {
	if a == nil {
		return ""
	}
	return fmt.Sprintf("%s\n%s\n%s, %s %s\n%s",
		a.RecipientName, a.Line1, a.City, a.State, a.PostalCode, a.CountryCode)
}

// CapturedItem is one line of a captured payment. Price is what the buyer
// was charged per unit.
type CapturedItem struct {
	SKU      string
	Name     string
	Quantity int
	Price    decimal.Decimal
}

// CapturedPayment is a completed payment ready to be recorded as an order
type CapturedPayment struct {
	Total          decimal.Decimal
	PayerEmail     string
	PayerFirstName string
	PayerLastName  string
	Shipping       *ShippingAddress
	Items          []CapturedItem
	UserID         *int64
}

// CheckoutService records captured payments as orders
type CheckoutService interface {
	// RecordOrder writes the order and its items. In best-effort mode an
	// item failure leaves the order header in place and returns it together
	// with the error.
	RecordOrder(ctx context.Context, payment CapturedPayment) (*domain.Order, error)
	// CompleteCheckout records the order and never fails: persistence
	// errors are logged and the result may be nil or partial.
	CompleteCheckout(ctx context.Context, payment CapturedPayment) *domain.Order
}

type checkoutService struct {
	orderRepo repository.OrderRepository
	writeMode string
	logger    *zap.Logger
	now       func() time.Time
}

// NewCheckoutService creates a new instance of CheckoutService. writeMode is
// config.OrderWriteBestEffort or config.OrderWriteTransactional.
func NewCheckoutService(orderRepo repository.OrderRepository, writeMode string, logger *zap.Logger) CheckoutService {
	if writeMode != config.OrderWriteTransactional {
		writeMode = config.OrderWriteBestEffort
	}
	return &checkoutService{
		orderRepo: orderRepo,
		writeMode: writeMode,
		logger:    logger,
		now:       time.Now,
	}
}

// NewOrderNumber derives a human-facing order number from now
func NewOrderNumber(now time.Time) string {
	return "ORD-" + strconv.FormatInt(now.UnixMilli(), 10)
}

func (s *checkoutService) buildOrder(payment CapturedPayment) (*domain.Order, []*domain.OrderItem) {
	now := s.now()
	order := &domain.Order{
		OrderNumber:     NewOrderNumber(now),
		UserID:          payment.UserID,
		TotalAmount:     payment.Total,
		Status:          domain.OrderStatusPaid,
		ShippingAddress: payment.Shipping.String(),
		CustomerEmail:   strings.ToLower(strings.TrimSpace(payment.PayerEmail)),
		CustomerName:    strings.TrimSpace(payment.PayerFirstName + " " + payment.PayerLastName),
		PaymentMethod:   PaymentMethodPayPal,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	items := make([]*domain.OrderItem, 0, len(payment.Items))
	for _, line := range payment.Items {
		productID := line.SKU
		if productID == "" {
			productID = line.Name
		}
		item := &domain.OrderItem{
			ProductID: productID,
			Quantity:  line.Quantity,
			Price:     line.Price,
		}
		if line.Name != "" {
			name := line.Name
			item.ProductName = &name
		}
		items = append(items, item)
	}

	return order, items
}

func (s *checkoutService) RecordOrder(ctx context.Context, payment CapturedPayment) (*domain.Order, error) {
	order, items := s.buildOrder(payment)

	if s.writeMode == config.OrderWriteTransactional {
		if err := s.orderRepo.CreateWithItems(ctx, order, items); err != nil {
			return nil, fmt.Errorf("failed to record order: %w", err)
		}
		return order, nil
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to record order: %w", err)
	}

	// Items are written one by one without a transaction; a failure stops
	// here and keeps what was already stored.
	for _, item := range items {
		item.OrderID = order.ID
		if err := s.orderRepo.AddItem(ctx, item); err != nil {
			return order, fmt.Errorf("failed to record order item %s: %w", item.ProductID, err)
		}
		order.Items = append(order.Items, item)
	}

	return order, nil
}

func (s *checkoutService) CompleteCheckout(ctx context.Context, payment CapturedPayment) *domain.Order {
	order, err := s.RecordOrder(ctx, payment)
	if err != nil {
		fields := []zap.Field{
			zap.String("write_mode", s.writeMode),
			zap.String("total", payment.Total.StringFixed(2)),
			zap.Error(err),
		}
		if order != nil {
			fields = append(fields,
				zap.String("order_number", order.OrderNumber),
				zap.Int("items_written", len(order.Items)),
				zap.Int("items_expected", len(payment.Items)),
			)
		}
		s.logger.Error("Failed to save order after payment capture", fields...)
		return order
	}

	s.logger.Info("Order recorded",
		zap.String("order_number", order.OrderNumber),
		zap.Int("items", len(payment.Items)),
	)
	return order
}
