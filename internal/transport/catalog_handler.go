package transport

import (
	"errors"
	"net/http"

	"kitchen-store/internal/middleware"
	"kitchen-store/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CatalogHandler serves the read-only product and category endpoints
type CatalogHandler struct {
	catalog service.CatalogService
	logger  *zap.Logger
}

func NewCatalogHandler(catalog service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/products", h.GetProducts)
	r.Get("/categories", h.GetCategories)
}

// productFilterFromQuery reads the listing parameters. Boolean flags only
// count when set to the literal "true".
func productFilterFromQuery(r *http.Request) service.ProductFilter {
	q := r.URL.Query()
	return service.ProductFilter{
		ID:       q.Get("id"),
		Category: q.Get("category"),
		Popular:  q.Get("popular") == "true",
		OnSale:   q.Get("onSale") == "true",
		Deals:    q.Get("deals") == "true",
		Search:   q.Get("search"),
	}
}

// GetProducts returns a single product when id is given, otherwise a list
func (h *CatalogHandler) GetProducts(w http.ResponseWriter, r *http.Request) {
	filter := productFilterFromQuery(r)

	if filter.ID != "" {
		product, err := h.catalog.GetProduct(r.Context(), filter.ID)
		if err != nil {
			if errors.Is(err, service.ErrProductNotFound) {
				middleware.RespondWithError(w, http.StatusNotFound, "Product not found")
				return
			}
			h.logger.Error("Failed to get product", zap.String("product_id", filter.ID), zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		middleware.RespondWithJSON(w, http.StatusOK, product)
		return
	}

	products, err := h.catalog.ListProducts(r.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

func (h *CatalogHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	if id := r.URL.Query().Get("id"); id != "" {
		category, err := h.catalog.GetCategory(r.Context(), id)
		if err != nil {
			if errors.Is(err, service.ErrCategoryNotFound) {
				middleware.RespondWithError(w, http.StatusNotFound, "Category not found")
				return
			}
			h.logger.Error("Failed to get category", zap.String("category_id", id), zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		middleware.RespondWithJSON(w, http.StatusOK, category)
		return
	}

	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		h.logger.Error("Failed to list categories", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, categories)
}
