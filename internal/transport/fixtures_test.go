package transport

import (
	"kitchen-store/internal/domain"
	"kitchen-store/internal/seed"

	"github.com/shopspring/decimal"
)

func smallCatalog() *seed.Catalog {
	dec := decimal.RequireFromString
	return &seed.Catalog{
		Categories: []*domain.Category{
			{ID: "cookware", Name: "Cookware"},
			{ID: "spices", Name: "Spices"},
		},
		Products: []*domain.Product{
			{ID: "skillet", Name: "Cast Iron Skillet", Price: dec("34.99"), Category: "cookware", IsPopular: true},
			{ID: "dutch-oven", Name: "Dutch Oven", Price: dec("79.99"), OriginalPrice: decimal.NewNullDecimal(dec("99.99")), Category: "cookware", IsOnSale: true},
			{ID: "saffron", Name: "Saffron", Price: dec("24.99"), Category: "spices", IsOnSale: true},
			{ID: "paprika", Name: "Smoked Paprika", Price: dec("6.50"), Category: "spices"},
		},
	}
}
