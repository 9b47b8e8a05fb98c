package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"kitchen-store/internal/cart"
	"kitchen-store/internal/paypal"

	"github.com/shopspring/decimal"
)

const paypalTextLimit = 127

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrPaymentIDsRequired = errors.New("payment id and payer id are required")
	ErrMissingApprovalURL = errors.New("no approval url returned from paypal")
)

// PaymentGateway is the subset of the PayPal API used at checkout
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req *paypal.OrderRequest) (*paypal.Order, error)
	CreatePayment(ctx context.Context, req *paypal.PaymentRequest) (*paypal.Payment, error)
	ExecutePayment(ctx context.Context, paymentID, payerID string) (*paypal.Payment, error)
}

// CustomerAddress is the shipping form submitted at checkout
type CustomerAddress struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
}

type CreatePaymentInput struct {
	Amount          decimal.Decimal
	Items           []cart.Item
	CustomerEmail   string
	ShippingAddress *CustomerAddress
}

// CreatedPayment is a payment awaiting buyer approval
type CreatedPayment struct {
	PaymentID   string
	ApprovalURL string
	Totals      cart.Totals
}

// ExecutedPayment is an approved payment and the order recorded for it.
// Order.Recorded is false when nothing could be saved.
type ExecutedPayment struct {
	Payment *paypal.Payment
	Order   OrderRef
}

// OrderRef identifies a recorded order in the checkout response
type OrderRef struct {
	OrderNumber string
	Recorded    bool
}

// PaymentSettings are the storefront values sent to the gateway
type PaymentSettings struct {
	Pricing   cart.Pricing
	Currency  string
	BrandName string
	SiteURL   string
}

// PaymentService drives the gateway checkout flow
type PaymentService interface {
	Quote(items []cart.Item) cart.Totals
	CreateOrder(ctx context.Context, amount decimal.Decimal, items []cart.Item) (*paypal.Order, error)
	CreatePayment(ctx context.Context, input CreatePaymentInput) (*CreatedPayment, error)
	ExecutePayment(ctx context.Context, paymentID, payerID string, userID *int64) (*ExecutedPayment, error)
}

type paymentService struct {
	gateway  PaymentGateway
	checkout CheckoutService
	settings PaymentSettings
	now      func() time.Time
}

// NewPaymentService creates a new instance of PaymentService
func NewPaymentService(gateway PaymentGateway, checkout CheckoutService, settings PaymentSettings) PaymentService {
	return &paymentService{
		gateway:  gateway,
		checkout: checkout,
		settings: settings,
		now:      time.Now,
	}
}

// Quote prices a cart snapshot the same way CreatePayment does
func (s *paymentService) Quote(items []cart.Item) cart.Totals {
	return s.settings.Pricing.Totals(cart.State{Items: items}.Subtotal())
}

func (s *paymentService) money(d decimal.Decimal) paypal.Money {
	return paypal.Money{CurrencyCode: s.settings.Currency, Value: d.StringFixed(2)}
}

// CreateOrder creates a v2 capture order for amount
func (s *paymentService) CreateOrder(ctx context.Context, amount decimal.Decimal, items []cart.Item) (*paypal.Order, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	lines := make([]paypal.OrderItem, 0, len(items))
	for _, item := range items {
		lines = append(lines, paypal.OrderItem{
			Name:       truncate(item.Name, paypalTextLimit),
			Quantity:   strconv.Itoa(item.Quantity),
			UnitAmount: s.money(item.Price),
		})
	}

	req := &paypal.OrderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []paypal.PurchaseUnit{{
			Amount: paypal.OrderAmount{
				Money:     s.money(amount),
				Breakdown: &paypal.AmountBreakdown{ItemTotal: s.money(amount)},
			},
			Items: lines,
		}},
		ApplicationContext: &paypal.ApplicationContext{
			BrandName:   s.settings.BrandName,
			LandingPage: "NO_PREFERENCE",
			UserAction:  "PAY_NOW",
			ReturnURL:   s.settings.SiteURL + "/checkout/success",
			CancelURL:   s.settings.SiteURL + "/checkout",
		},
	}

	order, err := s.gateway.CreateOrder(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create paypal order: %w", err)
	}
	return order, nil
}

// CreatePayment creates a v1 sale payment. The charged total is recomputed
// from the items; Amount only has to be positive.
func (s *paymentService) CreatePayment(ctx context.Context, input CreatePaymentInput) (*CreatedPayment, error) {
	if !input.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	totals := s.Quote(input.Items)

	lines := make([]paypal.Item, 0, len(input.Items))
	for _, item := range input.Items {
		lines = append(lines, paypal.Item{
			Name:        truncate(item.Name, paypalTextLimit),
			Description: truncate(item.Description, paypalTextLimit),
			Quantity:    strconv.Itoa(item.Quantity),
			Price:       item.Price.StringFixed(2),
			Currency:    s.settings.Currency,
			SKU:         item.ID,
		})
	}

	itemList := &paypal.ItemList{Items: lines}
	if addr := input.ShippingAddress; addr != nil {
		itemList.ShippingAddress = &paypal.ShippingAddress{
			RecipientName: strings.TrimSpace(addr.FirstName + " " + addr.LastName),
			Line1:         addr.Address,
			City:          addr.City,
			State:         addr.State,
			PostalCode:    addr.ZipCode,
			CountryCode:   "US",
		}
	}

	req := &paypal.PaymentRequest{
		Intent: "sale",
		Payer:  paypal.Payer{PaymentMethod: "paypal"},
		Transactions: []paypal.Transaction{{
			Amount: paypal.Amount{
				Total:    totals.Total.StringFixed(2),
				Currency: s.settings.Currency,
				Details: &paypal.AmountDetails{
					Subtotal: totals.Subtotal.StringFixed(2),
					Shipping: totals.Shipping.StringFixed(2),
					Tax:      totals.Tax.StringFixed(2),
				},
			},
			Description:    "Order from " + s.settings.BrandName,
			InvoiceNumber:  "INV-" + strconv.FormatInt(s.now().UnixMilli(), 10),
			ItemList:       itemList,
			PaymentOptions: &paypal.PaymentOptions{AllowedPaymentMethod: "INSTANT_FUNDING_SOURCE"},
		}},
		NoteToPayer: "Thank you for your order from " + s.settings.BrandName,
		RedirectURLs: &paypal.RedirectURLs{
			ReturnURL: s.settings.SiteURL + "/checkout/success",
			CancelURL: s.settings.SiteURL + "/checkout/cancel",
		},
	}

	payment, err := s.gateway.CreatePayment(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create paypal payment: %w", err)
	}

	approvalURL := payment.ApprovalURL()
	if approvalURL == "" {
		return nil, ErrMissingApprovalURL
	}

	return &CreatedPayment{PaymentID: payment.ID, ApprovalURL: approvalURL, Totals: totals}, nil
}

// ExecutePayment captures an approved payment and records the order. The
// result reports success even when the order could not be saved.
func (s *paymentService) ExecutePayment(ctx context.Context, paymentID, payerID string, userID *int64) (*ExecutedPayment, error) {
	if paymentID == "" || payerID == "" {
		return nil, ErrPaymentIDsRequired
	}

	payment, err := s.gateway.ExecutePayment(ctx, paymentID, payerID)
	if err != nil {
		return nil, fmt.Errorf("failed to execute paypal payment: %w", err)
	}

	captured := CapturedFromPayPal(payment)
	captured.UserID = userID

	result := &ExecutedPayment{Payment: payment}
	if order := s.checkout.CompleteCheckout(ctx, captured); order != nil {
		result.Order = OrderRef{OrderNumber: order.OrderNumber, Recorded: true}
	}
	return result, nil
}

// CapturedFromPayPal extracts the first transaction of an executed payment.
// Unparseable amounts become zero and unparseable quantities become one.
func CapturedFromPayPal(payment *paypal.Payment) CapturedPayment {
	captured := CapturedPayment{Total: decimal.Zero}
	if info := payment.Payer.PayerInfo; info != nil {
		captured.PayerEmail = info.Email
		captured.PayerFirstName = info.FirstName
		captured.PayerLastName = info.LastName
	}

	if len(payment.Transactions) == 0 {
		return captured
	}
	tx := payment.Transactions[0]
	captured.Total = parseDecimalOrZero(tx.Amount.Total)

	if tx.ItemList == nil {
		return captured
	}
	if addr := tx.ItemList.ShippingAddress; addr != nil {
		captured.Shipping = &ShippingAddress{
			RecipientName: addr.RecipientName,
			Line1:         addr.Line1,
			City:          addr.City,
			State:         addr.State,
			PostalCode:    addr.PostalCode,
			CountryCode:   addr.CountryCode,
		}
	}

	for _, item := range tx.ItemList.Items {
		quantity, err := strconv.Atoi(item.Quantity)
		if err != nil || quantity < 1 {
			quantity = 1
		}
		captured.Items = append(captured.Items, CapturedItem{
			SKU:      item.SKU,
			Name:     item.Name,
			Quantity: quantity,
			Price:    parseDecimalOrZero(item.Price),
		})
	}

	return captured
}

func parseDecimalOrZero(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
