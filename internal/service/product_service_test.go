package service

import (
	"context"
	"regexp"
	"testing"

	"kitchen-store/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var generatedProductID = regexp.MustCompile(`^product-\d+-[0-9a-z]{9}$`)

func TestProductService_CreateDefaults(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	product, err := f.products.Create(ctx, NewProductInput{Name: "Whisk", Price: dec("12.50"), Category: "cookware"})
	require.NoError(t, err)
	assert.Regexp(t, generatedProductID, product.ID)
	assert.Equal(t, DefaultProductImage, product.Image)
	assert.False(t, product.OriginalPrice.Valid)

	stored, err := f.catalog.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.True(t, stored.Price.Equal(*dec("12.5")))

	other, err := f.products.Create(ctx, NewProductInput{Name: "Whisk", Price: dec("12.50"), Category: "cookware"})
	require.NoError(t, err)
	assert.NotEqual(t, product.ID, other.ID)
}

func TestProductService_CreateValidation(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	_, err := f.products.Create(ctx, NewProductInput{Price: dec("1"), Category: "cookware"})
	assert.ErrorIs(t, err, ErrMissingProductField)
	_, err = f.products.Create(ctx, NewProductInput{Name: "x", Category: "cookware"})
	assert.ErrorIs(t, err, ErrMissingProductField)
	_, err = f.products.Create(ctx, NewProductInput{Name: "x", Price: dec("1")})
	assert.ErrorIs(t, err, ErrMissingProductField)
	_, err = f.products.Create(ctx, NewProductInput{Name: "x", Price: dec("-1"), Category: "cookware"})
	assert.ErrorIs(t, err, ErrNegativePrice)

	_, err = f.products.Create(ctx, NewProductInput{ID: "dup", Name: "x", Price: dec("1"), Category: "cookware"})
	require.NoError(t, err)
	_, err = f.products.Create(ctx, NewProductInput{ID: "dup", Name: "y", Price: dec("1"), Category: "cookware"})
	assert.ErrorIs(t, err, ErrProductExists)
}

func TestProductService_UpdateAndDelete(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	_, err := f.products.Create(ctx, NewProductInput{ID: "pan", Name: "Pan", Price: dec("30"), Category: "cookware", Weight: "1kg"})
	require.NoError(t, err)

	name := "Copper Pan"
	onSale := true
	updated, err := f.products.Update(ctx, "pan", &domain.ProductPatch{Name: &name, IsOnSale: &onSale, OriginalPrice: domain.SetPrice(*dec("40"))})
	require.NoError(t, err)
	assert.Equal(t, "Copper Pan", updated.Name)
	assert.Equal(t, "1kg", updated.Weight)
	assert.True(t, updated.IsDeal())

	updated, err = f.products.Update(ctx, "pan", &domain.ProductPatch{OriginalPrice: domain.ClearPrice()})
	require.NoError(t, err)
	assert.False(t, updated.OriginalPrice.Valid)
	assert.False(t, updated.IsDeal())

	_, err = f.products.Update(ctx, "pan", &domain.ProductPatch{})
	assert.ErrorIs(t, err, ErrEmptyProductPatch)
	_, err = f.products.Update(ctx, "missing", &domain.ProductPatch{Name: &name})
	assert.ErrorIs(t, err, ErrProductNotFound)

	require.NoError(t, f.products.Delete(ctx, "pan"))
	assert.ErrorIs(t, f.products.Delete(ctx, "pan"), ErrProductNotFound)

	all, err := f.products.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
