package render

import (
	"strings"
	"testing"
	"time"

	"github.com/abgdnv/inventory/internal/inventory/catalog"
	"github.com/abgdnv/inventory/internal/inventory/dashboard"
	"github.com/abgdnv/inventory/internal/inventory/events"
	"github.com/abgdnv/inventory/internal/inventory/store"
	"github.com/abgdnv/inventory/pkg/messaging"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func products() []store.Product {
	return []store.Product{
		{ID: uuid.New(), Name: "Pen", Price: decimal.RequireFromString("2"), Stock: 2, Category: "Office"},
		{ID: uuid.New(), Name: "Lamp", Price: decimal.RequireFromString("15.5"), Stock: 10, Category: "Home"},
	}
}

func Test_Products(t *testing.T) {
	// when
	out := Products(DefaultStyles(), products())

	// then
	for _, want := range []string{"Name", "Pen", "$2.00", "Lamp", "$15.50", "Office", "Low Stock", "In Stock"} {
		assert.Contains(t, out, want)
	}
	assert.Less(t, strings.Index(out, "Pen"), strings.Index(out, "Lamp"), "storage order kept")
}

func Test_Products_Empty(t *testing.T) {
	assert.Contains(t, Products(DefaultStyles(), nil), "No products found.")
}

func Test_Categories(t *testing.T) {
	out := Categories(DefaultStyles(), []string{"Office", "Home"})
	assert.Contains(t, out, " 1. Office")
	assert.Contains(t, out, " 2. Home")
	assert.Contains(t, Categories(DefaultStyles(), nil), "No categories.")
}

func Test_BarChart(t *testing.T) {
	// given
	chart := dashboard.Chart{Labels: []string{"Office", "Home", ""}, Values: []int64{5, 10, 0}}

	// when
	out := BarChart(DefaultStyles(), chart)

	// then
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 3)
	assert.Equal(t, maxBarWidth/2, strings.Count(lines[0], "█"))
	assert.Equal(t, maxBarWidth, strings.Count(lines[1], "█"))
	assert.Zero(t, strings.Count(lines[2], "█"))
	assert.Contains(t, lines[2], "(none)")
}

func Test_Dashboard(t *testing.T) {
	// given
	d := dashboard.Build(products(), []string{"Office", "Home"})

	// when
	out := Dashboard(DefaultStyles(), d)

	// then
	assert.Contains(t, out, "Products: 2")
	assert.Contains(t, out, "Stock: 12")
	assert.Contains(t, out, "Categories: 2")
	assert.Contains(t, out, "Low stock: 1")
	assert.Contains(t, out, "Office")
}

func Test_Catalog(t *testing.T) {
	items := []catalog.Item{{ID: 3, Title: "Backpack", Price: decimal.RequireFromString("109.95"), Category: "men's clothing"}}

	out := Catalog(DefaultStyles(), items)

	assert.Contains(t, out, "   3  Backpack  $109.95")
	assert.Contains(t, Catalog(DefaultStyles(), nil), "unavailable")
}

func Test_truncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}

func Test_Event(t *testing.T) {
	at := time.Date(2025, 3, 1, 14, 5, 9, 0, time.UTC)
	testCases := []struct {
		name  string
		event messaging.Event
		want  []string
	}{
		{
			name:  "products changed",
			event: events.ProductsChanged{Op: "add_product", ProductIDs: []uuid.UUID{uuid.New()}, Total: 3, OccurredAt: at},
			want:  []string{"14:05:09", "inventory.products.changed", "add_product", "1 product(s), 3 total"},
		},
		{
			name:  "category cascade",
			event: events.CategoriesChanged{Prefix: "shop", Op: "remove_category", Category: "Office", RemovedProducts: 2, Total: 1, OccurredAt: at},
			want:  []string{"shop.categories.changed", "remove_category", "Office, 1 total", "2 product(s) removed"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := Event(DefaultStyles(), tc.event)
			for _, w := range tc.want {
				assert.Contains(t, out, w)
			}
		})
	}
}
