package service

import (
	"bytes"
	"encoding/json"
	"reflect"

	"github.com/abgdnv/inventory/internal/inventory/dashboard"
	"github.com/abgdnv/inventory/internal/inventory/store"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ProductFormDto is the product form as submitted for create, update or edit-submit.
type ProductFormDto struct {
	Name     string          `json:"name"     validate:"required,max=100"`
	Price    decimal.Decimal `json:"price"    validate:"min=0"`
	Stock    int64           `json:"stock"    validate:"min=0"`
	Category string          `json:"category" validate:"max=50"`
}

// ProductDto represents the data transfer object for a product.
// Status is derived from Stock and ignored on input.
type ProductDto struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Stock    int64           `json:"stock"`
	Category string          `json:"category"`
	Status   string          `json:"status"`
}

// ListQuery selects and orders the product list.
type ListQuery struct {
	Q        string
	Category string
	Sort     string
	Order    string
}

// CategoryCreateDto represents the data transfer object for creating a category.
type CategoryCreateDto struct {
	Name string `json:"name" validate:"required,max=50"`
}

// Quantity is an import quantity as typed by the user. It accepts a JSON
// string or a bare JSON number and is validated when used.
type Quantity string

func (q *Quantity) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*q = Quantity(s)
		return nil
	}
	*q = Quantity(bytes.TrimSpace(b))
	return nil
}

// CatalogImportDto imports one catalog item with the given quantity as stock.
type CatalogImportDto struct {
	CatalogID int      `json:"catalogId" validate:"required,min=1"`
	Quantity  Quantity `json:"quantity"`
}

// SessionDto describes the edit session. Product is set while editing.
type SessionDto struct {
	Mode      string      `json:"mode"`
	ProductID string      `json:"productId,omitempty"`
	Product   *ProductDto `json:"product,omitempty"`
}

// SubmitResultDto is the outcome of a form submit.
type SubmitResultDto struct {
	Created bool       `json:"created"`
	Product ProductDto `json:"product"`
}

// SortedDto is the product list after a sort toggle.
type SortedDto struct {
	Field    string       `json:"field"`
	Order    string       `json:"order"`
	Products []ProductDto `json:"products"`
}

// CategoryDeletedDto reports a cascading category removal.
// Deleted is false when nothing matched.
type CategoryDeletedDto struct {
	Name            string `json:"name"`
	Deleted         bool   `json:"deleted"`
	RemovedProducts int    `json:"removedProducts"`
}

// SeedResultDto reports whether a catalog seed was applied.
type SeedResultDto struct {
	Applied  bool `json:"applied"`
	Products int  `json:"products"`
}

// DashboardDto is the dashboard view.
type DashboardDto = dashboard.Dashboard

// NewValidator returns a validator that understands decimal fields.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

func (f ProductFormDto) toFields() store.ProductFields {
	return store.ProductFields{Name: f.Name, Price: f.Price, Stock: f.Stock, Category: f.Category}
}

// toDto converts a store.Product to a ProductDto.
func toDto(p store.Product) ProductDto {
	return ProductDto{
		ID:       p.ID.String(),
		Name:     p.Name,
		Price:    p.Price,
		Stock:    p.Stock,
		Category: p.Category,
		Status:   dashboard.StockStatus(p.Stock),
	}
}

func toDtos(products []store.Product) []ProductDto {
	out := make([]ProductDto, len(products))
	for i, p := range products {
		out[i] = toDto(p)
	}
	return out
}
