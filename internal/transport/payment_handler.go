package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"kitchen-store/internal/cart"
	"kitchen-store/internal/middleware"
	"kitchen-store/internal/paypal"
	"kitchen-store/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type QuoteRequest struct {
	Items []cart.Item `json:"items" validate:"dive"`
}

type CreateOrderRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Items  []cart.Item     `json:"items" validate:"dive"`
}

type CreatePaymentRequest struct {
	Amount          decimal.Decimal          `json:"amount"`
	Items           []cart.Item              `json:"items" validate:"dive"`
	CustomerEmail   string                   `json:"customerEmail" validate:"omitempty,email"`
	ShippingAddress *service.CustomerAddress `json:"shippingAddress,omitempty"`
}

type ExecutePaymentRequest struct {
	PaymentID string `json:"paymentId"`
	PayerID   string `json:"payerId"`
}

type CreateOrderResponse struct {
	ID string `json:"id"`
}

type CreatePaymentResponse struct {
	PaymentID   string      `json:"paymentId"`
	ApprovalURL string      `json:"approvalUrl"`
	Totals      cart.Totals `json:"totals"`
}

// ExecutePaymentResponse forwards the upstream payment document. OrderNumber
// is empty when the order could not be recorded.
type ExecutePaymentResponse struct {
	Success     bool            `json:"success"`
	Payment     json.RawMessage `json:"payment"`
	OrderNumber string          `json:"orderNumber,omitempty"`
}

// PaymentHandler proxies checkout to PayPal
type PaymentHandler struct {
	payments service.PaymentService
	logger   *zap.Logger
}

func NewPaymentHandler(payments service.PaymentService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, logger: logger}
}

// RegisterRoutes registers the payment routes. optionalSession attaches the
// signed-in user, if any, so the recorded order can reference it.
func (h *PaymentHandler) RegisterRoutes(r chi.Router, optionalSession func(http.Handler) http.Handler) {
	r.Route("/payment", func(r chi.Router) {
		r.Post("/quote", h.Quote)
		r.Post("/create-order", h.CreateOrder)
		r.Post("/create-payment", h.CreatePayment)
		r.With(optionalSession).Post("/execute-payment", h.ExecutePayment)
	})
}

// respondGatewayError mirrors upstream failures and hides everything else
func (h *PaymentHandler) respondGatewayError(w http.ResponseWriter, err error, message string) {
	var apiErr *paypal.APIError
	switch {
	case errors.Is(err, paypal.ErrNotConfigured):
		middleware.RespondWithError(w, http.StatusServiceUnavailable, "PayPal credentials not configured")
	case errors.As(err, &apiErr):
		h.logger.Error(message, zap.Int("upstream_status", apiErr.StatusCode), zap.ByteString("upstream_body", apiErr.Body))
		middleware.RespondWithUpstreamError(w, apiErr.StatusCode, message, apiErr.Body)
	default:
		h.logger.Error(message, zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// Quote prices a cart snapshot without contacting PayPal
func (h *PaymentHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, h.payments.Quote(req.Items))
}

func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	order, err := h.payments.CreateOrder(r.Context(), req.Amount, req.Items)
	if err != nil {
		if errors.Is(err, service.ErrInvalidAmount) {
			middleware.RespondWithError(w, http.StatusBadRequest, "Invalid amount")
			return
		}
		h.respondGatewayError(w, err, "Failed to create PayPal order")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, CreateOrderResponse{ID: order.ID})
}

func (h *PaymentHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req CreatePaymentRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	created, err := h.payments.CreatePayment(r.Context(), service.CreatePaymentInput{
		Amount:          req.Amount,
		Items:           req.Items,
		CustomerEmail:   req.CustomerEmail,
		ShippingAddress: req.ShippingAddress,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAmount):
			middleware.RespondWithError(w, http.StatusBadRequest, "Invalid amount")
		case errors.Is(err, service.ErrMissingApprovalURL):
			h.logger.Error("PayPal payment has no approval link", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "No approval URL returned from PayPal")
		default:
			h.respondGatewayError(w, err, "Failed to create PayPal payment")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, CreatePaymentResponse{
		PaymentID:   created.PaymentID,
		ApprovalURL: created.ApprovalURL,
		Totals:      created.Totals,
	})
}

// ExecutePayment captures an approved payment. A captured payment is reported
// as a success even when the order could not be stored.
func (h *PaymentHandler) ExecutePayment(w http.ResponseWriter, r *http.Request) {
	var req ExecutePaymentRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	var userID *int64
	if id, ok := middleware.GetUserID(r.Context()); ok {
		userID = &id
	}

	executed, err := h.payments.ExecutePayment(r.Context(), req.PaymentID, req.PayerID, userID)
	if err != nil {
		if errors.Is(err, service.ErrPaymentIDsRequired) {
			middleware.RespondWithError(w, http.StatusBadRequest, "Payment ID and Payer ID are required")
			return
		}
		h.respondGatewayError(w, err, "Failed to execute PayPal payment")
		return
	}

	payment := executed.Payment.Raw
	if len(payment) == 0 {
		payment, _ = json.Marshal(executed.Payment)
	}

	middleware.RespondWithJSON(w, http.StatusOK, ExecutePaymentResponse{
		Success:     true,
		Payment:     payment,
		OrderNumber: executed.Order.OrderNumber,
	})
}
