package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"kitchen-store/internal/domain"

	"github.com/jmoiron/sqlx"
)

var (
	ErrProductNotFound      = errors.New("product not found")
	ErrProductAlreadyExists = errors.New("product with this id already exists")
)

const productColumns = `
	id, name, COALESCE(description, '') AS description, price, original_price,
	COALESCE(image, '') AS image, category, COALESCE(weight, '') AS weight,
	is_popular, is_on_sale, rating, reviews`

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	List(ctx context.Context) ([]*domain.Product, error)
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	ListByCategory(ctx context.Context, categoryID string) ([]*domain.Product, error)
	ListPopular(ctx context.Context) ([]*domain.Product, error)
	ListOnSale(ctx context.Context) ([]*domain.Product, error)
	ListDeals(ctx context.Context) ([]*domain.Product, error)
	Search(ctx context.Context, query string) ([]*domain.Product, error)
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, id string, patch *domain.ProductPatch) error
	Delete(ctx context.Context, id string) error
}

type productRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sqlx.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) selectProducts(ctx context.Context, where, orderBy string, args ...interface{}) ([]*domain.Product, error) {
	query := "SELECT " + productColumns + " FROM products"
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY " + orderBy

	products := []*domain.Product{}
	if err := r.db.SelectContext(ctx, &products, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return products, nil
}

// List returns every product by name
func (r *productRepository) List(ctx context.Context) ([]*domain.Product, error) {
	products, err := r.selectProducts(ctx, "", "name")
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// FindByID retrieves a product by ID using parameterized queries
func (r *productRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	query := r.db.Rebind("SELECT " + productColumns + " FROM products WHERE id = ?")

	product := &domain.Product{}
	if err := r.db.GetContext(ctx, product, query, id); err != nil {
		if isNoRows(err) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

func (r *productRepository) ListByCategory(ctx context.Context, categoryID string) ([]*domain.Product, error) {
	products, err := r.selectProducts(ctx, "category = ?", "name", categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products by category: %w", err)
	}
	return products, nil
}

func (r *productRepository) ListPopular(ctx context.Context) ([]*domain.Product, error) {
	products, err := r.selectProducts(ctx, "is_popular = ?", "name", true)
	if err != nil {
		return nil, fmt.Errorf("failed to list popular products: %w", err)
	}
	return products, nil
}

func (r *productRepository) ListOnSale(ctx context.Context) ([]*domain.Product, error) {
	products, err := r.selectProducts(ctx, "is_on_sale = ?", "name", true)
	if err != nil {
		return nil, fmt.Errorf("failed to list sale products: %w", err)
	}
	return products, nil
}

// ListDeals returns sale products whose original price is above the current
// price, in the same order as ListOnSale
func (r *productRepository) ListDeals(ctx context.Context) ([]*domain.Product, error) {
	products, err := r.selectProducts(ctx,
		"is_on_sale = ? AND original_price IS NOT NULL AND original_price > price",
		"name", true)
	if err != nil {
		return nil, fmt.Errorf("failed to list deals: %w", err)
	}
	return products, nil
}

// Search matches the query case-insensitively against name, description and category
func (r *productRepository) Search(ctx context.Context, query string) ([]*domain.Product, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	products, err := r.selectProducts(ctx,
		"LOWER(name) LIKE ? OR LOWER(COALESCE(description, '')) LIKE ? OR LOWER(category) LIKE ?",
		"name", pattern, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return products, nil
}

// Create inserts a new product into the database using parameterized queries
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := r.db.Rebind(`
		INSERT INTO products (id, name, description, price, original_price, image, category, weight,
			is_popular, is_on_sale, rating, reviews, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	now := time.Now().UTC()
	_, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.OriginalPrice,
		product.Image,
		product.Category,
		product.Weight,
		product.IsPopular,
		product.IsOnSale,
		product.Rating,
		product.Reviews,
		now,
		now,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrProductAlreadyExists
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update applies the non-nil fields of patch. Column names come from a fixed
// list, never from the request.
func (r *productRepository) Update(ctx context.Context, id string, patch *domain.ProductPatch) error {
	var (
		sets []string
		args []interface{}
	)
	set := func(column string, value interface{}) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if patch.Name != nil {
		set("name", *patch.Name)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.Price != nil {
		set("price", *patch.Price)
	}
	if patch.OriginalPrice.Set {
		set("original_price", patch.OriginalPrice.Price)
	}
	if patch.Image != nil {
		set("image", *patch.Image)
	}
	if patch.Category != nil {
		set("category", *patch.Category)
	}
	if patch.Weight != nil {
		set("weight", *patch.Weight)
	}
	if patch.IsPopular != nil {
		set("is_popular", *patch.IsPopular)
	}
	if patch.IsOnSale != nil {
		set("is_on_sale", *patch.IsOnSale)
	}
	set("updated_at", time.Now().UTC())
	args = append(args, id)

	query := r.db.Rebind("UPDATE products SET " + strings.Join(sets, ", ") + " WHERE id = ?")
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	if err := checkAffected(result, ErrProductNotFound); err != nil {
		return err
	}
	return nil
}

// Delete removes a product. Order items keep their dangling product reference.
func (r *productRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM products WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	return checkAffected(result, ErrProductNotFound)
}
