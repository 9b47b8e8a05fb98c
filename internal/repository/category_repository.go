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
	ErrCategoryNotFound      = errors.New("category not found")
	ErrCategoryAlreadyExists = errors.New("category with this id already exists")
)

const categoryColumns = `
	id, name, COALESCE(description, '') AS description, COALESCE(image, '') AS image, product_count`

// CategoryRepository defines the interface for category data access
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	List(ctx context.Context) ([]*domain.Category, error)
	FindByID(ctx context.Context, id string) (*domain.Category, error)
	RecountProducts(ctx context.Context) error
}

type categoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository creates a new instance of CategoryRepository
func NewCategoryRepository(db *sqlx.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

// Create inserts a new category into the database using parameterized queries
func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	query := r.db.Rebind(`
		INSERT INTO categories (id, name, description, image, product_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)

	now := time.Now().UTC()
	_, err := r.db.ExecContext(
		ctx,
		query,
		category.ID,
		category.Name,
		category.Description,
		category.Image,
		category.ProductCount,
		now,
		now,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrCategoryAlreadyExists
		}
		return fmt.Errorf("failed to create category: %w", err)
	}

	return nil
}

// List returns all categories ordered by name
func (r *categoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	categories := []*domain.Category{}
	query := "SELECT " + categoryColumns + " FROM categories ORDER BY name"
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	return categories, nil
}

// FindByID retrieves a category by ID using parameterized queries
func (r *categoryRepository) FindByID(ctx context.Context, id string) (*domain.Category, error) {
	query := r.db.Rebind("SELECT " + categoryColumns + " FROM categories WHERE id = ?")

	category := &domain.Category{}
	if err := r.db.GetContext(ctx, category, query, id); err != nil {
		if isNoRows(err) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find category by ID: %w", err)
	}

	return category, nil
}

// RecountProducts refreshes the denormalized product_count of every category
func (r *categoryRepository) RecountProducts(ctx context.Context) error {
	query := r.db.Rebind(`
		UPDATE categories
		SET product_count = (SELECT COUNT(*) FROM products WHERE products.category = categories.id),
		    updated_at = ?
	`)

	if _, err := r.db.ExecContext(ctx, query, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to recount category products: %w", err)
	}
	return nil
}
