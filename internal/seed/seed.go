// Package seed loads the bundled starter catalog into an empty store.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"kitchen-store/internal/domain"
	"kitchen-store/internal/repository"

	"go.uber.org/zap"
)

//go:embed catalog.json
var catalogJSON []byte

// Catalog is the set of categories and products written by Run.
type Catalog struct {
	Categories []*domain.Category `json:"categories"`
	Products   []*domain.Product  `json:"products"`
}

// Result summarizes a seeding run.
type Result struct {
	Skipped            bool `json:"skipped"`
	CategoriesInserted int  `json:"categoriesInserted"`
	ProductsInserted   int  `json:"productsInserted"`
	TotalCategories    int  `json:"totalCategories"`
	TotalProducts      int  `json:"totalProducts"`
}

// DefaultCatalog decodes the embedded starter catalog.
func DefaultCatalog() (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(catalogJSON, &c); err != nil {
		return nil, fmt.Errorf("failed to decode seed catalog: %w", err)
	}
	return &c, nil
}

type Seeder struct {
	categories repository.CategoryRepository
	products   repository.ProductRepository
	catalog    *Catalog
	logger     *zap.Logger
}

func NewSeeder(categories repository.CategoryRepository, products repository.ProductRepository, catalog *Catalog, logger *zap.Logger) *Seeder {
	return &Seeder{
		categories: categories,
		products:   products,
		catalog:    catalog,
		logger:     logger,
	}
}

// Run inserts the catalog unless the store already holds both categories and
// products. Rows that already exist are skipped one by one, and category
// counts are recomputed at the end.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	existingCategories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	existingProducts, err := s.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	if len(existingCategories) > 0 && len(existingProducts) > 0 {
		s.logger.Info("Store already contains data, skipping seed",
			zap.Int("categories", len(existingCategories)),
			zap.Int("products", len(existingProducts)),
		)
		return &Result{
			Skipped:         true,
			TotalCategories: len(existingCategories),
			TotalProducts:   len(existingProducts),
		}, nil
	}

	result := &Result{}

	for _, category := range s.catalog.Categories {
		c := *category
		if err := s.categories.Create(ctx, &c); err != nil {
			if errors.Is(err, repository.ErrCategoryAlreadyExists) {
				s.logger.Debug("Category already exists, skipping", zap.String("category_id", c.ID))
				continue
			}
			return nil, fmt.Errorf("failed to insert category %s: %w", c.ID, err)
		}
		result.CategoriesInserted++
	}

	for _, product := range s.catalog.Products {
		p := *product
		if err := s.products.Create(ctx, &p); err != nil {
			if errors.Is(err, repository.ErrProductAlreadyExists) {
				s.logger.Debug("Product already exists, skipping", zap.String("product_id", p.ID))
				continue
			}
			return nil, fmt.Errorf("failed to insert product %s: %w", p.ID, err)
		}
		result.ProductsInserted++
	}

	if err := s.categories.RecountProducts(ctx); err != nil {
		return nil, fmt.Errorf("failed to recount categories: %w", err)
	}

	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	result.TotalCategories = len(categories)
	result.TotalProducts = len(products)

	s.logger.Info("Seeding completed",
		zap.Int("categories_inserted", result.CategoriesInserted),
		zap.Int("products_inserted", result.ProductsInserted),
		zap.Int("total_categories", result.TotalCategories),
		zap.Int("total_products", result.TotalProducts),
	)

	return result, nil
}
