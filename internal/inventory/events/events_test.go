package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Subjects(t *testing.T) {
	assert.Equal(t, "inventory.products.changed", ProductsChanged{}.Subject())
	assert.Equal(t, "shop.products.changed", ProductsChanged{Prefix: "shop"}.Subject())
	assert.Equal(t, "inventory.categories.changed", CategoriesChanged{}.Subject())
}

func Test_ProductsChanged_Payload(t *testing.T) {
	// given
	id := uuid.New()
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	e := ProductsChanged{Prefix: "shop", Op: "add_product", ProductIDs: []uuid.UUID{id}, Total: 4, OccurredAt: at}

	// when
	data, err := e.Payload()

	// then
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "add_product", decoded["op"])
	assert.Equal(t, []any{id.String()}, decoded["product_ids"])
	assert.InDelta(t, 4, decoded["total"], 0)
	assert.NotContains(t, decoded, "Prefix")
}

func Test_Decode(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	id := uuid.New()
	testCases := []struct {
		name  string
		event interface {
			Subject() string
			Payload() ([]byte, error)
		}
		want any
	}{
		{
			name:  "products changed",
			event: ProductsChanged{Prefix: "shop", Op: "remove_product", ProductIDs: []uuid.UUID{id}, Total: 1, OccurredAt: at},
			want:  ProductsChanged{Prefix: "shop", Op: "remove_product", ProductIDs: []uuid.UUID{id}, Total: 1, OccurredAt: at},
		},
		{
			name:  "categories changed",
			event: CategoriesChanged{Prefix: "inventory", Op: "remove_category", Category: "Office", RemovedProducts: 2, OccurredAt: at},
			want:  CategoriesChanged{Prefix: "inventory", Op: "remove_category", Category: "Office", RemovedProducts: 2, OccurredAt: at},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			data, err := tc.event.Payload()
			require.NoError(t, err)

			// when
			got, err := Decode(tc.event.Subject(), data)

			// then
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func Test_Decode_Errors(t *testing.T) {
	_, err := Decode("orders.created", []byte(`{}`))
	assert.ErrorIs(t, err, ErrUnknownEvent)

	_, err = Decode("inventory.products.changed", []byte("not json"))
	assert.Error(t, err)
}
