package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	ierrors "github.com/abgdnv/inventory/internal/inventory/errors"
	"github.com/abgdnv/inventory/internal/inventory/store"
)

// Seeded stock is drawn uniformly from [MinSeedStock, MaxSeedStock].
const (
	MinSeedStock = 1
	MaxSeedStock = 20
)

// Store is the part of store.Store the importer writes to.
type Store interface {
	SeedIfEmpty(ctx context.Context, fields []store.ProductFields, categories []string) (bool, error)
	AppendImported(ctx context.Context, f store.ProductFields) (store.Product, bool, error)
}

// Importer copies catalog items into the local store.
type Importer struct {
	fetcher Fetcher
	store   Store
	logger  *slog.Logger
	stock   func() int64
}

type ImporterOption func(*Importer)

// WithStockSource replaces the random seed stock generator.
func WithStockSource(fn func() int64) ImporterOption {
	return func(i *Importer) { i.stock = fn }
}

func NewImporter(fetcher Fetcher, s Store, logger *slog.Logger, opts ...ImporterOption) *Importer {
	i := &Importer{
		fetcher: fetcher,
		store:   s,
		logger:  logger.With("component", "catalog"),
		stock: func() int64 {
			return MinSeedStock + rand.Int64N(MaxSeedStock-MinSeedStock+1)
		},
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// FetchCatalog returns the remote catalog. Failures are logged and yield
// an empty list.
func (i *Importer) FetchCatalog(ctx context.Context) []Item {
	items, err := i.fetcher.Fetch(ctx)
	if err != nil {
		i.logger.ErrorContext(ctx, "Failed to fetch catalog", "error", err)
		return []Item{}
	}
	i.logger.DebugContext(ctx, "Catalog fetched", "items", len(items))
	return items
}

// Lookup fetches the catalog and returns the item with the given id.
func (i *Importer) Lookup(ctx context.Context, id int) (Item, error) {
	items, err := i.fetcher.Fetch(ctx)
	if err != nil {
		i.logger.ErrorContext(ctx, "Failed to fetch catalog", "error", err)
		return Item{}, fmt.Errorf("%w: %w", ierrors.ErrCatalogUnavailable, err)
	}
	item, ok := FindItem(items, id)
	if !ok {
		return Item{}, fmt.Errorf("%w: %d", ierrors.ErrCatalogItemNotFound, id)
	}
	return item, nil
}

// SeedIfEmpty replaces both collections with the catalog when the store
// has no products. Every product gets a random stock and a normalized
// category. Items without a title or with a negative price are skipped.
func (i *Importer) SeedIfEmpty(ctx context.Context, items []Item) (bool, error) {
	if len(items) == 0 {
		return false, nil
	}

	fields := make([]store.ProductFields, 0, len(items))
	categories := make([]string, 0)
	seen := make(map[string]struct{})
	for _, it := range items {
		f := store.ProductFields{
			Name:     it.Title,
			Price:    it.Price,
			Stock:    i.stock(),
			Category: NormalizeCategory(it.Category),
		}
		if err := f.Validate(); err != nil {
			i.logger.WarnContext(ctx, "Skipping catalog item", "catalog_id", it.ID, "error", err)
			continue
		}
		fields = append(fields, f)
		if _, ok := seen[f.Category]; !ok && f.Category != "" {
			seen[f.Category] = struct{}{}
			categories = append(categories, f.Category)
		}
	}
	if len(fields) == 0 {
		i.logger.WarnContext(ctx, "Catalog has no usable items, seed skipped", "items", len(items))
		return false, nil
	}

	applied, err := i.store.SeedIfEmpty(ctx, fields, categories)
	if err != nil {
		return false, fmt.Errorf("failed to seed inventory: %w", err)
	}
	if applied {
		i.logger.InfoContext(ctx, "Inventory seeded from catalog", "products", len(fields), "categories", len(categories))
	}
	return applied, nil
}

// ImportOne adds item to the store with the given quantity as stock and
// reports whether its category was new. quantity must be a positive whole
// number, otherwise ErrInvalidQuantity is returned and nothing changes.
func (i *Importer) ImportOne(ctx context.Context, item Item, quantity string) (store.Product, bool, error) {
	qty, err := ParseQuantity(quantity)
	if err != nil {
		i.logger.WarnContext(ctx, "Rejected catalog import", "catalog_id", item.ID, "quantity", quantity)
		return store.Product{}, false, err
	}

	p, addedCategory, err := i.store.AppendImported(ctx, store.ProductFields{
		Name:     item.Title,
		Price:    item.Price,
		Stock:    qty,
		Category: NormalizeCategory(item.Category),
	})
	if err != nil {
		return store.Product{}, false, fmt.Errorf("failed to import catalog item %d: %w", item.ID, err)
	}
	i.logger.InfoContext(ctx, "Catalog item imported", "catalog_id", item.ID, "product_id", p.ID, "new_category", addedCategory)
	return p, addedCategory, nil
}

// ParseQuantity parses a positive whole number, ignoring surrounding spaces.
func ParseQuantity(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", ierrors.ErrInvalidQuantity, s)
	}
	return n, nil
}

// NormalizeCategory upper-cases the first letter and lower-cases the rest.
func NormalizeCategory(s string) string {
	s = strings.TrimSpace(s)
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return ""
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
