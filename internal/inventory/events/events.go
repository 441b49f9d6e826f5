// Package events defines the change notifications published after inventory mutations.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abgdnv/inventory/pkg/messaging"
	"github.com/google/uuid"
)

// ErrUnknownEvent is returned by Decode for a subject that is not an inventory event.
var ErrUnknownEvent = errors.New("unknown event subject")

// DefaultPrefix is the subject prefix used when none is configured.
const DefaultPrefix = "inventory"

const (
	productsChangedSuffix   = ".products.changed"
	categoriesChangedSuffix = ".categories.changed"
)

// ProductsChanged reports a mutation of the product list.
type ProductsChanged struct {
	Prefix     string      `json:"-"`
	Op         string      `json:"op"`
	ProductIDs []uuid.UUID `json:"product_ids"`
	Total      int         `json:"total"`
	OccurredAt time.Time   `json:"occurred_at"`
}

func (e ProductsChanged) Subject() string {
	return prefix(e.Prefix) + productsChangedSuffix
}

func (e ProductsChanged) Payload() ([]byte, error) {
	return json.Marshal(e)
}

// CategoriesChanged reports a mutation of the category list.
type CategoriesChanged struct {
	Prefix          string    `json:"-"`
	Op              string    `json:"op"`
	Category        string    `json:"category,omitempty"`
	RemovedProducts int       `json:"removed_products"`
	Total           int       `json:"total"`
	OccurredAt      time.Time `json:"occurred_at"`
}

func (e CategoriesChanged) Subject() string {
	return prefix(e.Prefix) + categoriesChangedSuffix
}

func (e CategoriesChanged) Payload() ([]byte, error) {
	return json.Marshal(e)
}

func prefix(p string) string {
	if p == "" {
		return DefaultPrefix
	}
	return p
}

// Decode rebuilds the event published under subject. The subject prefix is
// restored into the event.
func Decode(subject string, data []byte) (messaging.Event, error) {
	if p, ok := strings.CutSuffix(subject, productsChangedSuffix); ok {
		e := ProductsChanged{}
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", subject, err)
		}
		e.Prefix = p
		return e, nil
	}
	if p, ok := strings.CutSuffix(subject, categoriesChangedSuffix); ok {
		e := CategoriesChanged{}
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", subject, err)
		}
		e.Prefix = p
		return e, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, subject)
}
