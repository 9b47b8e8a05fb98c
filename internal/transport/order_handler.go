package transport

import (
	"errors"
	"net/http"

	"kitchen-store/internal/middleware"
	"kitchen-store/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// OrderHandler serves guest order lookup
type OrderHandler struct {
	orders service.OrderService
	logger *zap.Logger
}

func NewOrderHandler(orders service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger}
}

func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/orders/track", h.Track)
}

// Track returns an order and its items when orderNumber and email match
func (h *OrderHandler) Track(w http.ResponseWriter, r *http.Request) {
	orderNumber := r.URL.Query().Get("orderNumber")
	email := r.URL.Query().Get("email")
	if orderNumber == "" || email == "" {
		middleware.RespondWithError(w, http.StatusBadRequest, "Order number and email are required")
		return
	}

	order, err := h.orders.Track(r.Context(), orderNumber, email)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "Order not found")
			return
		}
		h.logger.Error("Failed to track order", zap.String("order_number", orderNumber), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, order)
}
