package query

import (
	ierrors "github.com/abgdnv/inventory/internal/inventory/errors"
	"github.com/abgdnv/inventory/internal/inventory/store"
)

// View describes what the product table shows: at most one active filter
// and an optional sort.
type View struct {
	Name     string
	Category string
	Sort     Field
	Order    Direction
}

// Validate rejects a view with both a name and a category filter.
func (v View) Validate() error {
	if v.Name != "" && v.Category != "" && v.Category != AllCategories {
		return ierrors.ErrConflictingFilters
	}
	if v.Sort != "" {
		if _, ok := ParseField(string(v.Sort)); !ok {
			return ierrors.ErrUnknownSortField
		}
	}
	return nil
}

// Apply filters then sorts products. Without a sort the storage order is kept.
func (v View) Apply(products []store.Product) ([]store.Product, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	var out []store.Product
	if v.Name != "" {
		out = FilterByNameSubstring(products, v.Name)
	} else {
		out = FilterByCategory(products, v.Category)
	}
	if v.Sort == "" {
		return out, nil
	}
	field, _ := ParseField(string(v.Sort))
	order := v.Order
	if order == "" {
		order = Asc
	}
	return Sort(out, field, order), nil
}
