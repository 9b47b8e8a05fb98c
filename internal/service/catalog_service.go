package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"kitchen-store/internal/domain"
	"kitchen-store/internal/repository"
)

var ErrProductNotFound = errors.New("product not found")
var ErrCategoryNotFound = errors.New("category not found")

// ProductFilter selects one catalog dimension. When several fields are set
// the first in declaration order wins.
type ProductFilter struct {
	ID       string
	Category string
	Popular  bool
	OnSale   bool
	Deals    bool
	Search   string
}

// CatalogService defines the read side of the catalog
type CatalogService interface {
	ListProducts(ctx context.Context, filter ProductFilter) ([]*domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	GetCategory(ctx context.Context, id string) (*domain.Category, error)
	RecountCategories(ctx context.Context) error
}

type catalogService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(productRepo repository.ProductRepository, categoryRepo repository.CategoryRepository) CatalogService {
	return &catalogService{productRepo: productRepo, categoryRepo: categoryRepo}
}

func (s *catalogService) ListProducts(ctx context.Context, filter ProductFilter) ([]*domain.Product, error) {
	var (
		products []*domain.Product
		err      error
	)

	switch {
	case filter.ID != "":
		product, err := s.GetProduct(ctx, filter.ID)
		if err != nil {
			return nil, err
		}
		return []*domain.Product{product}, nil
	case filter.Category != "":
		products, err = s.productRepo.ListByCategory(ctx, filter.Category)
	case filter.Popular:
		products, err = s.productRepo.ListPopular(ctx)
	case filter.OnSale:
		products, err = s.productRepo.ListOnSale(ctx)
	case filter.Deals:
		products, err = s.productRepo.ListDeals(ctx)
	case strings.TrimSpace(filter.Search) != "":
		products, err = s.productRepo.Search(ctx, strings.TrimSpace(filter.Search))
	default:
		products, err = s.productRepo.List(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return products, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *catalogService) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return category, nil
}

// RecountCategories refreshes every category's product count
func (s *catalogService) RecountCategories(ctx context.Context) error {
	if err := s.categoryRepo.RecountProducts(ctx); err != nil {
		return fmt.Errorf("failed to recount categories: %w", err)
	}
	return nil
}
