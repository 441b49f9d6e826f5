// Package dashboard derives the summary counters and the stock-by-category
// chart from a product snapshot.
package dashboard

import (
	"github.com/abgdnv/inventory/internal/inventory/store"
)

// LowStockThreshold is the highest stock still reported as low.
const LowStockThreshold = 3

const (
	StatusLow     = "Low Stock"
	StatusInStock = "In Stock"
)

// Summary holds the dashboard counters.
type Summary struct {
	TotalProducts   int   `json:"totalProducts"`
	TotalStock      int64 `json:"totalStock"`
	TotalCategories int   `json:"totalCategories"`
	LowStock        int   `json:"lowStock"`
}

// Chart is stock summed per category. Labels appear in the order their
// category is first seen in the product list.
type Chart struct {
	Labels []string `json:"labels"`
	Values []int64  `json:"values"`
}

// Dashboard is a Summary plus its Chart.
type Dashboard struct {
	Summary Summary `json:"summary"`
	Chart   Chart   `json:"chart"`
}

// StockStatus labels a stock level.
func StockStatus(stock int64) string {
	if stock <= LowStockThreshold {
		return StatusLow
	}
	return StatusInStock
}

// Summarize counts products, total stock and low-stock products.
// TotalCategories is the size of the category list, not the number of
// categories referenced by products.
func Summarize(products []store.Product, categories []string) Summary {
	s := Summary{
		TotalProducts:   len(products),
		TotalCategories: len(categories),
	}
	for _, p := range products {
		s.TotalStock += p.Stock
		if p.Stock <= LowStockThreshold {
			s.LowStock++
		}
	}
	return s
}

// StockByCategory sums stock per product category.
func StockByCategory(products []store.Product) Chart {
	c := Chart{Labels: []string{}, Values: []int64{}}
	index := make(map[string]int)
	for _, p := range products {
		i, ok := index[p.Category]
		if !ok {
			i = len(c.Labels)
			index[p.Category] = i
			c.Labels = append(c.Labels, p.Category)
			c.Values = append(c.Values, 0)
		}
		c.Values[i] += p.Stock
	}
	return c
}

// Build computes a fresh Dashboard. Nothing is carried over between calls.
func Build(products []store.Product, categories []string) Dashboard {
	return Dashboard{
		Summary: Summarize(products, categories),
		Chart:   StockByCategory(products),
	}
}
