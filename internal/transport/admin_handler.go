package transport

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"kitchen-store/internal/domain"
	"kitchen-store/internal/middleware"
	"kitchen-store/internal/seed"
	"kitchen-store/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type AdminLoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// CreateProductRequest is the admin product form. Prices may be sent as
// numbers or numeric strings.
type CreateProductRequest struct {
	ID            string           `json:"id,omitempty"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	OriginalPrice *decimal.Decimal `json:"originalPrice,omitempty"`
	Image         string           `json:"image"`
	Category      string           `json:"category"`
	Weight        string           `json:"weight"`
	IsPopular     bool             `json:"isPopular"`
	IsOnSale      bool             `json:"isOnSale"`
	Rating        float64          `json:"rating" validate:"gte=0,lte=5"`
	Reviews       int              `json:"reviews" validate:"gte=0"`
}

// UpdateProductRequest carries the product id alongside the changed fields
type UpdateProductRequest struct {
	ID string `json:"id"`
	domain.ProductPatch
}

type UpdateOrderStatusRequest struct {
	OrderID int64  `json:"orderId"`
	Status  string `json:"status"`
}

type ProductResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Product *domain.Product `json:"product"`
}

type OrderResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
	Order   *domain.Order `json:"order"`
}

type SeedResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Result  *seed.Result `json:"result"`
}

// CatalogSeeder loads the starter catalog
type CatalogSeeder interface {
	Run(ctx context.Context) (*seed.Result, error)
}

// AdminHandler serves the shared-secret admin surface
type AdminHandler struct {
	gate     *middleware.AdminGate
	products service.ProductService
	orders   service.OrderService
	catalog  service.CatalogService
	seeder   CatalogSeeder
	logger   *zap.Logger
}

func NewAdminHandler(
	gate *middleware.AdminGate,
	products service.ProductService,
	orders service.OrderService,
	catalog service.CatalogService,
	seeder CatalogSeeder,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		gate:     gate,
		products: products,
		orders:   orders,
		catalog:  catalog,
		seeder:   seeder,
		logger:   logger,
	}
}

// RegisterRoutes registers the admin routes. Everything except the login
// and session endpoints requires the admin cookie.
func (h *AdminHandler) RegisterRoutes(r chi.Router, rateLimit func(http.Handler) http.Handler) {
	r.Route("/admin", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if rateLimit != nil {
				r.Use(rateLimit)
			}
			r.Post("/login", h.Login)
		})
		r.Get("/session", h.Session)
		r.Post("/logout", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(h.gate.RequireAdmin())

			r.Get("/products", h.ListProducts)
			r.Post("/products", h.CreateProduct)
			r.Put("/products", h.UpdateProduct)
			r.Delete("/products", h.DeleteProduct)

			r.Get("/orders", h.GetOrders)
			r.Put("/orders", h.UpdateOrderStatus)
			r.Delete("/orders", h.DeleteOrder)

			r.Post("/categories/{id}/recount", h.RecountCategory)
			r.Post("/seed", h.Seed)
		})
	})
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req AdminLoginRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	if !h.gate.CheckCredentials(req.Username, req.Password) {
		h.logger.Warn("Admin login rejected", zap.String("remote_addr", r.RemoteAddr))
		middleware.RespondWithError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if err := h.gate.Login(w, r); err != nil {
		h.logger.Error("Failed to save admin session", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// Session reports whether the caller holds a valid admin cookie
func (h *AdminHandler) Session(w http.ResponseWriter, r *http.Request) {
	authenticated := h.gate.IsAuthenticated(r)
	status := http.StatusOK
	if !authenticated {
		status = http.StatusUnauthorized
	}
	middleware.RespondWithJSON(w, status, map[string]bool{"authenticated": authenticated})
}

func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.gate.Logout(w, r); err != nil {
		h.logger.Error("Failed to clear admin session", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

func (h *AdminHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, products)
}

func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	product, err := h.products.Create(r.Context(), service.NewProductInput{
		ID:            req.ID,
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		Image:         req.Image,
		Category:      req.Category,
		Weight:        req.Weight,
		IsPopular:     req.IsPopular,
		IsOnSale:      req.IsOnSale,
		Rating:        req.Rating,
		Reviews:       req.Reviews,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingProductField):
			middleware.RespondWithError(w, http.StatusBadRequest, "Name, price, and category are required")
		case errors.Is(err, service.ErrNegativePrice):
			middleware.RespondWithError(w, http.StatusBadRequest, "Price must not be negative")
		case errors.Is(err, service.ErrProductExists):
			middleware.RespondWithError(w, http.StatusConflict, "A product with this id already exists")
		default:
			h.logger.Error("Failed to create product", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "Failed to create product")
		}
		return
	}

	h.logger.Info("Product created", zap.String("product_id", product.ID))
	middleware.RespondWithJSON(w, http.StatusCreated, ProductResponse{Success: true, Product: product})
}

// UpdateProduct applies a partial update. Only the fields present in the body change.
func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req UpdateProductRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}
	if req.ID == "" {
		middleware.RespondWithError(w, http.StatusBadRequest, "Product ID is required")
		return
	}

	product, err := h.products.Update(r.Context(), req.ID, &req.ProductPatch)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyProductPatch):
			middleware.RespondWithError(w, http.StatusBadRequest, "No fields to update")
		case errors.Is(err, service.ErrNegativePrice):
			middleware.RespondWithError(w, http.StatusBadRequest, "Price must not be negative")
		case errors.Is(err, service.ErrProductNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "Product not found")
		default:
			h.logger.Error("Failed to update product", zap.String("product_id", req.ID), zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "Failed to update product")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ProductResponse{Success: true, Message: "Product updated", Product: product})
}

func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		middleware.RespondWithError(w, http.StatusBadRequest, "Product ID is required")
		return
	}

	if err := h.products.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "Product not found")
			return
		}
		h.logger.Error("Failed to delete product", zap.String("product_id", id), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "Failed to delete product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "Product deleted"})
}

// GetOrders lists all orders, or returns one with its items when id is given
func (h *AdminHandler) GetOrders(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "Invalid order ID")
			return
		}

		order, err := h.orders.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, service.ErrOrderNotFound) {
				middleware.RespondWithError(w, http.StatusNotFound, "Order not found")
				return
			}
			h.logger.Error("Failed to get order", zap.Int64("order_id", id), zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch orders")
			return
		}
		middleware.RespondWithJSON(w, http.StatusOK, order)
		return
	}

	orders, err := h.orders.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list orders", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch orders")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, orders)
}

func (h *AdminHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateOrderStatusRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}
	if req.OrderID == 0 || req.Status == "" {
		middleware.RespondWithError(w, http.StatusBadRequest, "Order ID and status are required")
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), req.OrderID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnknownOrderStatus):
			middleware.RespondWithError(w, http.StatusBadRequest, "Unknown order status")
		case errors.Is(err, domain.ErrInvalidOrderTransition):
			middleware.RespondWithErrorDetails(w, http.StatusConflict, "Order status cannot change that way",
				map[string]interface{}{"requested": req.Status})
		case errors.Is(err, service.ErrOrderNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "Order not found")
		default:
			h.logger.Error("Failed to update order", zap.Int64("order_id", req.OrderID), zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "Failed to update order")
		}
		return
	}

	h.logger.Info("Order status updated",
		zap.Int64("order_id", order.ID),
		zap.String("status", string(order.Status)),
	)
	middleware.RespondWithJSON(w, http.StatusOK, OrderResponse{Success: true, Message: "Order status updated", Order: order})
}

func (h *AdminHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("id")
	if raw == "" {
		middleware.RespondWithError(w, http.StatusBadRequest, "Order ID is required")
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	if err := h.orders.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "Order not found")
			return
		}
		h.logger.Error("Failed to delete order", zap.Int64("order_id", id), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "Failed to delete order")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "Order deleted"})
}

// RecountCategory refreshes the denormalized product counts and returns the
// requested category.
func (h *AdminHandler) RecountCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := h.catalog.GetCategory(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "Category not found")
			return
		}
		h.logger.Error("Failed to get category", zap.String("category_id", id), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := h.catalog.RecountCategories(r.Context()); err != nil {
		h.logger.Error("Failed to recount categories", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	category, err := h.catalog.GetCategory(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to reload category", zap.String("category_id", id), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, category)
}

func (h *AdminHandler) Seed(w http.ResponseWriter, r *http.Request) {
	result, err := h.seeder.Run(r.Context())
	if err != nil {
		h.logger.Error("Seeding failed", zap.Error(err))
		middleware.RespondWithErrorDetails(w, http.StatusInternalServerError, "Failed to seed database",
			map[string]interface{}{"reason": err.Error()})
		return
	}

	message := "Database seeded successfully"
	if result.Skipped {
		message = "Database already contains data, seed skipped"
	}
	middleware.RespondWithJSON(w, http.StatusOK, SeedResponse{Success: true, Message: message, Result: result})
}
