// Package catalog reads the remote demo catalog and turns its items into
// local products, either as a one-off seed or one item at a time.
package catalog

import (
	"github.com/shopspring/decimal"
)

// Item is a product as published by the remote catalog.
type Item struct {
	ID          int             `json:"id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
}

// FindItem returns the item with the given catalog id.
func FindItem(items []Item, id int) (Item, bool) {
	for _, it := range items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}
