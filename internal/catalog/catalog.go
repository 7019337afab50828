// Package catalog holds the static product catalog.
//
// The catalog is loaded once at startup and never mutated. It is an explicit
// value passed to its consumers, not package-level state, so tests can run
// against alternate catalogs.
package catalog

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase.
type Product struct {
	ID          string
	Name        string
	Price       decimal.Decimal
	Description string
	Badge       string
}

// Catalog is an immutable set of products keyed by ID.
type Catalog struct {
	products []Product
	byID     map[string]Product
}

// New builds a Catalog from the given products. Listing order follows the
// input order.
func New(products []Product) *Catalog {
	byID := make(map[string]Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &Catalog{products: products, byID: byID}
}

// Default returns the built-in storefront catalog.
func Default() *Catalog {
	return New([]Product{
		{
			ID:          "copper-mug",
			Name:        "Copper Mug",
			Price:       decimal.RequireFromString("12.50"),
			Description: "Hand-hammered mug for warm drinks.",
			Badge:       "Craft",
		},
		{
			ID:          "linen-tote",
			Name:        "Linen Tote",
			Price:       decimal.RequireFromString("18.00"),
			Description: "Lightweight tote with sturdy handles.",
			Badge:       "Everyday",
		},
		{
			ID:          "atlas-notebook",
			Name:        "Atlas Notebook",
			Price:       decimal.RequireFromString("9.00"),
			Description: "Dot-grid pages with soft-touch cover.",
			Badge:       "Study",
		},
	})
}

// List returns every product in catalog order.
func (c *Catalog) List() []Product {
	return c.products
}

// Get returns a single product by its identifier. It returns ErrNotFound
// when no matching product exists.
func (c *Catalog) Get(id string) (Product, error) {
	p, ok := c.byID[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}
