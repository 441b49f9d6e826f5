// Package query holds the pure list operations behind the product table:
// name and category filters plus sorting by name, price or stock.
// None of the functions modify their input.
package query

import (
	"cmp"
	"slices"
	"strings"
	"sync"

	"github.com/abgdnv/inventory/internal/inventory/store"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// AllCategories is the category filter value that matches every product.
const AllCategories = "all"

// Direction is a sort order.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Field names a sortable product column.
type Field string

const (
	ByName  Field = "name"
	ByPrice Field = "price"
	ByStock Field = "stock"
)

// ParseField returns the Field named s and whether it is known.
func ParseField(s string) (Field, bool) {
	switch f := Field(strings.ToLower(s)); f {
	case ByName, ByPrice, ByStock:
		return f, true
	default:
		return "", false
	}
}

// FilterByNameSubstring keeps products whose name contains q, ignoring case.
// An empty q returns every product.
func FilterByNameSubstring(products []store.Product, q string) []store.Product {
	if q == "" {
		return slices.Clone(products)
	}
	needle := strings.ToLower(q)
	out := make([]store.Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			out = append(out, p)
		}
	}
	return out
}

// FilterByCategory keeps products filed under category, compared exactly.
// AllCategories and the empty string return every product.
func FilterByCategory(products []store.Product, category string) []store.Product {
	if category == "" || category == AllCategories {
		return slices.Clone(products)
	}
	out := make([]store.Product, 0, len(products))
	for _, p := range products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

var (
	collatorMu sync.Mutex
	collator   = collate.New(language.Und)
)

// compareNames orders names with the root locale collation. Case is a
// tertiary difference, so "pen" and "Pen" never compare equal and sort
// lowercase first. collate.Collator keeps internal buffers, so calls are
// serialized.
func compareNames(a, b string) int {
	collatorMu.Lock()
	defer collatorMu.Unlock()
	return collator.CompareString(a, b)
}

// SortByName returns products ordered by locale-aware name comparison.
func SortByName(products []store.Product, dir Direction) []store.Product {
	return sortBy(products, dir, func(a, b store.Product) int {
		return compareNames(a.Name, b.Name)
	})
}

// SortByPrice returns products ordered numerically by price.
func SortByPrice(products []store.Product, dir Direction) []store.Product {
	return sortBy(products, dir, func(a, b store.Product) int {
		return a.Price.Cmp(b.Price)
	})
}

// SortByStock returns products ordered by stock.
func SortByStock(products []store.Product, dir Direction) []store.Product {
	return sortBy(products, dir, func(a, b store.Product) int {
		return cmp.Compare(a.Stock, b.Stock)
	})
}

// Sort dispatches to the sort for field. An unknown field leaves the order unchanged.
func Sort(products []store.Product, field Field, dir Direction) []store.Product {
	switch field {
	case ByName:
		return SortByName(products, dir)
	case ByPrice:
		return SortByPrice(products, dir)
	case ByStock:
		return SortByStock(products, dir)
	default:
		return slices.Clone(products)
	}
}

// sortBy is stable so that equal keys keep their storage order in both directions.
func sortBy(products []store.Product, dir Direction, compare func(a, b store.Product) int) []store.Product {
	out := slices.Clone(products)
	if out == nil {
		out = []store.Product{}
	}
	if dir == Desc {
		slices.SortStableFunc(out, func(a, b store.Product) int { return compare(b, a) })
	} else {
		slices.SortStableFunc(out, compare)
	}
	return out
}
