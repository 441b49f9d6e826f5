package store

import (
	"fmt"
	"strings"

	ierrors "github.com/abgdnv/inventory/internal/inventory/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a stock-keeping record. ID is assigned once and never changes.
type Product struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Stock    int64           `json:"stock"`
	Category string          `json:"category"`
}

// ProductFields are the user-editable parts of a Product.
type ProductFields struct {
	Name     string
	Price    decimal.Decimal
	Stock    int64
	Category string
}

// Fields returns the editable part of p.
func (p Product) Fields() ProductFields {
	return ProductFields{Name: p.Name, Price: p.Price, Stock: p.Stock, Category: p.Category}
}

// Validate checks the product invariants: non-empty name, non-negative price and stock.
func (f ProductFields) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("%w: name is required", ierrors.ErrInvalidProduct)
	}
	if f.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ierrors.ErrInvalidProduct)
	}
	if f.Stock < 0 {
		return fmt.Errorf("%w: stock must not be negative", ierrors.ErrInvalidProduct)
	}
	return nil
}

func newProduct(id uuid.UUID, f ProductFields) Product {
	return Product{ID: id, Name: f.Name, Price: f.Price, Stock: f.Stock, Category: f.Category}
}
