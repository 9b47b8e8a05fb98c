package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"kitchen-store/internal/domain"
	"kitchen-store/internal/repository"

	nanoid "github.com/jaevor/go-nanoid"
	"github.com/shopspring/decimal"
)

const DefaultProductImage = "/placeholder-product.jpg"

var (
	ErrProductExists       = errors.New("product already exists")
	ErrEmptyProductPatch   = errors.New("no fields to update")
	ErrMissingProductField = errors.New("name, price, and category are required")
	ErrNegativePrice       = errors.New("price must not be negative")
)

// NewProductInput carries an admin-created product. ID may be empty, in
// which case one is generated.
type NewProductInput struct {
	ID            string
	Name          string
	Description   string
	Price         *decimal.Decimal
	OriginalPrice *decimal.Decimal
	Image         string
	Category      string
	Weight        string
	IsPopular     bool
	IsOnSale      bool
	Rating        float64
	Reviews       int
}

// ProductService defines the admin write side of the catalog
type ProductService interface {
	List(ctx context.Context) ([]*domain.Product, error)
	Create(ctx context.Context, input NewProductInput) (*domain.Product, error)
	Update(ctx context.Context, id string, patch *domain.ProductPatch) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}

type productService struct {
	productRepo repository.ProductRepository
	now         func() time.Time
	suffix      func() string
}

// NewProductService creates a new instance of ProductService
func NewProductService(productRepo repository.ProductRepository) (ProductService, error) {
	suffix, err := nanoid.CustomASCII("0123456789abcdefghijklmnopqrstuvwxyz", 9)
	if err != nil {
		return nil, fmt.Errorf("failed to create id generator: %w", err)
	}
	return &productService{productRepo: productRepo, now: time.Now, suffix: suffix}, nil
}

// newProductID returns an id of the form product-<unix millis>-<9 chars>
func (s *productService) newProductID() string {
	return "product-" + strconv.FormatInt(s.now().UnixMilli(), 10) + "-" + s.suffix()
}

func (s *productService) List(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.productRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (s *productService) Create(ctx context.Context, input NewProductInput) (*domain.Product, error) {
	if strings.TrimSpace(input.Name) == "" || input.Price == nil || strings.TrimSpace(input.Category) == "" {
		return nil, ErrMissingProductField
	}
	if input.Price.IsNegative() {
		return nil, ErrNegativePrice
	}

	product := &domain.Product{
		ID:          input.ID,
		Name:        input.Name,
		Description: input.Description,
		Price:       *input.Price,
		Image:       input.Image,
		Category:    input.Category,
		Weight:      input.Weight,
		IsPopular:   input.IsPopular,
		IsOnSale:    input.IsOnSale,
		Rating:      input.Rating,
		Reviews:     input.Reviews,
	}
	if product.ID == "" {
		product.ID = s.newProductID()
	}
	if product.Image == "" {
		product.Image = DefaultProductImage
	}
	if input.OriginalPrice != nil {
		product.OriginalPrice = decimal.NewNullDecimal(*input.OriginalPrice)
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		if errors.Is(err, repository.ErrProductAlreadyExists) {
			return nil, ErrProductExists
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

// Update applies only the supplied fields and returns the stored product
func (s *productService) Update(ctx context.Context, id string, patch *domain.ProductPatch) (*domain.Product, error) {
	if patch == nil || patch.IsEmpty() {
		return nil, ErrEmptyProductPatch
	}
	if patch.Price != nil && patch.Price.IsNegative() {
		return nil, ErrNegativePrice
	}

	if err := s.productRepo.Update(ctx, id, patch); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload product: %w", err)
	}
	return product, nil
}

// Delete removes the product. Order items keep their dangling product id.
func (s *productService) Delete(ctx context.Context, id string) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}
