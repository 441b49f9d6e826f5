// Package metrics holds the prometheus collectors of the inventory service.
package metrics

import (
	"github.com/abgdnv/inventory/internal/inventory/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Mutation op labels.
const (
	OpAddProduct     = "add_product"
	OpUpdateProduct  = "update_product"
	OpRemoveProduct  = "remove_product"
	OpAddCategory    = "add_category"
	OpRemoveCategory = "remove_category"
	OpImport         = "import"
	OpSeed           = "seed"
)

var (
	MutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_mutations_total",
		Help: "Total number of successful inventory mutations",
	}, []string{"op"})

	MutationsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_mutations_failed_total",
		Help: "Total number of rejected or failed inventory mutations",
	}, []string{"op", "reason"})

	CatalogFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_catalog_fetches_total",
		Help: "Total number of remote catalog fetches",
	}, []string{"outcome"})

	CatalogFetchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "inventory_catalog_fetch_latency_seconds",
		Help:    "Latency of remote catalog fetches",
		Buckets: prometheus.DefBuckets,
	})

	ProductsStored = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "inventory_products",
		Help: "Number of stored products",
	})

	StockUnits = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "inventory_stock_units",
		Help: "Sum of stock over all stored products",
	})
)

// ObserveInventory sets the inventory gauges from a product snapshot.
func ObserveInventory(products []store.Product) {
	var stock int64
	for _, p := range products {
		stock += p.Stock
	}
	ProductsStored.Set(float64(len(products)))
	StockUnits.Set(float64(stock))
}
