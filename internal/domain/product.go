package domain

import (
	"github.com/shopspring/decimal"
)

func init() {
	// Prices travel as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product represents a product in the catalog
type Product struct {
	ID            string              `json:"id" db:"id" validate:"required"`
	Name          string              `json:"name" db:"name"`
	Description   string              `json:"description" db:"description"`
	Price         decimal.Decimal     `json:"price" db:"price" validate:"gte=0"`
	OriginalPrice decimal.NullDecimal `json:"originalPrice" db:"original_price"`
	Image         string              `json:"image" db:"image"`
	Category      string              `json:"category" db:"category"`
	Weight        string              `json:"weight" db:"weight"`
	IsPopular     bool                `json:"isPopular" db:"is_popular"`
	IsOnSale      bool                `json:"isOnSale" db:"is_on_sale"`
	Rating        float64             `json:"rating" db:"rating"`
	Reviews       int                 `json:"reviews" db:"reviews"`
}

// IsDeal reports whether the product is on sale with an original price strictly above its price.
func (p *Product) IsDeal() bool {
	return p.IsOnSale && p.OriginalPrice.Valid && p.OriginalPrice.Decimal.GreaterThan(p.Price)
}

// ProductPatch carries a partial product update. Nil fields and an unset
// OriginalPrice are left untouched.
type ProductPatch struct {
	Name          *string          `json:"name,omitempty"`
	Description   *string          `json:"description,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty" validate:"omitempty"`
	OriginalPrice PriceUpdate      `json:"originalPrice"`
	Image         *string          `json:"image,omitempty"`
	Category      *string          `json:"category,omitempty"`
	Weight        *string          `json:"weight,omitempty"`
	IsPopular     *bool            `json:"isPopular,omitempty"`
	IsOnSale      *bool            `json:"isOnSale,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p *ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil && !p.OriginalPrice.Set &&
		p.Image == nil && p.Category == nil && p.Weight == nil && p.IsPopular == nil && p.IsOnSale == nil
}

// PriceUpdate is an optional price in a patch. An absent key leaves Set
// false; an explicit null sets it with an invalid Price, clearing the column.
type PriceUpdate struct {
	Set   bool
	Price decimal.NullDecimal
}

// SetPrice returns an update that stores d.
func SetPrice(d decimal.Decimal) PriceUpdate {
	return PriceUpdate{Set: true, Price: decimal.NewNullDecimal(d)}
}

// ClearPrice returns an update that stores NULL.
func ClearPrice() PriceUpdate {
	return PriceUpdate{Set: true}
}

// UnmarshalJSON is only called when the key is present, including for null.
func (u *PriceUpdate) UnmarshalJSON(data []byte) error {
	u.Set = true
	return u.Price.UnmarshalJSON(data)
}

// Category represents a product category. ProductCount is denormalized and only
// refreshed by an explicit recount.
type Category struct {
	ID           string `json:"id" db:"id"`
	Name         string `json:"name" db:"name"`
	Description  string `json:"description" db:"description"`
	Image        string `json:"image" db:"image"`
	ProductCount int    `json:"productCount" db:"product_count"`
}
