// Package store owns the canonical product and category collections and
// mirrors every change to a key-value backend.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	ierrors "github.com/abgdnv/inventory/internal/inventory/errors"
	"github.com/abgdnv/inventory/internal/inventory/kv"
	"github.com/google/uuid"
)

// Collection names double as the backend keys.
type Collection string

const (
	Products   Collection = "products"
	Categories Collection = "categories"
)

// Store is the single owner of the product and category lists.
// Every mutation is persisted before it becomes visible to readers; if the
// backend write fails the in-memory state is left untouched.
type Store struct {
	mu         sync.RWMutex
	backend    kv.Store
	logger     *slog.Logger
	newID      func() uuid.UUID
	products   []Product
	categories []string
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator replaces uuid.New as the product id source.
func WithIDGenerator(gen func() uuid.UUID) Option {
	return func(s *Store) { s.newID = gen }
}

// New creates an empty Store backed by backend. Call Load to read persisted state.
func New(backend kv.Store, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		backend:    backend,
		logger:     logger.With("component", "store"),
		newID:      uuid.New,
		products:   []Product{},
		categories: []string{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory collections with the persisted ones.
// Missing or unparsable entries become empty collections. Only a failing
// backend is reported. Products stored without an id, or with an id
// already taken, get a fresh one and the product list is written back.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := readCollection[Product](ctx, s, Products)
	if err != nil {
		return err
	}
	categories, err := readCollection[string](ctx, s, Categories)
	if err != nil {
		return err
	}

	repaired := s.repairIDs(products)
	s.products = products
	s.categories = categories
	s.logger.InfoContext(ctx, "Inventory loaded", "products", len(products), "categories", len(categories))

	if repaired > 0 {
		s.logger.InfoContext(ctx, "Assigned ids to products without a unique id", "count", repaired)
		if err := s.write(ctx, Products, s.products); err != nil {
			s.logger.WarnContext(ctx, "Failed to persist repaired product ids", "error", err)
		}
	}
	return nil
}

// Save writes the current state of one collection to the backend.
func (s *Store) Save(ctx context.Context, c Collection) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch c {
	case Products:
		return s.write(ctx, Products, s.products)
	case Categories:
		return s.write(ctx, Categories, s.categories)
	default:
		return fmt.Errorf("unknown collection %q", c)
	}
}

// Products returns a snapshot of the product list in storage order.
func (s *Store) Products() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.products)
}

// Categories returns a snapshot of the category list in insertion order.
func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.categories)
}

// FindByID returns the product with the given id.
// Returns ErrProductNotFound if no product exists with the given ID.
func (s *Store) FindByID(id uuid.UUID) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return Product{}, ierrors.ErrProductNotFound
	}
	return s.products[i], nil
}

// Exists reports whether a product with the given id is stored.
func (s *Store) Exists(id uuid.UUID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOf(id) >= 0
}

// AddProduct appends a new product with a freshly generated id.
func (s *Store) AddProduct(ctx context.Context, f ProductFields) (Product, error) {
	if err := f.Validate(); err != nil {
		return Product{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := newProduct(s.uniqueID(), f)
	next := append(slices.Clone(s.products), p)
	if err := s.write(ctx, Products, next); err != nil {
		return Product{}, err
	}
	s.products = next
	return p, nil
}

// UpdateProduct replaces every field of the product except its id.
// Returns ErrProductNotFound if no product exists with the given ID.
func (s *Store) UpdateProduct(ctx context.Context, id uuid.UUID, f ProductFields) (Product, error) {
	if err := f.Validate(); err != nil {
		return Product{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return Product{}, ierrors.ErrProductNotFound
	}
	updated := newProduct(id, f)
	next := slices.Clone(s.products)
	next[i] = updated
	if err := s.write(ctx, Products, next); err != nil {
		return Product{}, err
	}
	s.products = next
	return updated, nil
}

// RemoveProduct deletes the product with the given id.
// Removing an unknown id is a no-op and reports false.
func (s *Store) RemoveProduct(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false, nil
	}
	next := slices.Delete(slices.Clone(s.products), i, i+1)
	if err := s.write(ctx, Products, next); err != nil {
		return false, err
	}
	s.products = next
	return true, nil
}

// AddCategory appends a category after trimming surrounding whitespace.
// Names are compared case-sensitively.
func (s *Store) AddCategory(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ierrors.ErrCategoryNameRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if slices.Contains(s.categories, name) {
		return "", fmt.Errorf("%w: %s", ierrors.ErrCategoryExists, name)
	}
	next := append(slices.Clone(s.categories), name)
	if err := s.write(ctx, Categories, next); err != nil {
		return "", err
	}
	s.categories = next
	return name, nil
}

// RemoveCategory deletes the category and every product filed under it.
// It returns the number of products removed and whether the category
// existed; an unknown name is a no-op.
func (s *Store) RemoveCategory(ctx context.Context, name string) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.Index(s.categories, name)
	if i < 0 {
		return 0, false, nil
	}
	n, err := s.removeCategoryAt(ctx, i)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

// RemoveCategoryAt is RemoveCategory addressed by position in Categories().
// The lookup and the delete happen under one lock. An out of range index is
// a no-op and returns an empty name.
func (s *Store) RemoveCategoryAt(ctx context.Context, index int) (string, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.categories) {
		return "", 0, nil
	}
	removed := s.categories[index]
	n, err := s.removeCategoryAt(ctx, index)
	if err != nil {
		return "", 0, err
	}
	return removed, n, nil
}

// removeCategoryAt captures the category value before the list shrinks and
// filters products by that value. Callers hold the write lock.
func (s *Store) removeCategoryAt(ctx context.Context, index int) (int, error) {
	removed := s.categories[index]
	categories := slices.Delete(slices.Clone(s.categories), index, index+1)
	products := slices.DeleteFunc(slices.Clone(s.products), func(p Product) bool {
		return p.Category == removed
	})

	if err := s.write(ctx, Categories, categories); err != nil {
		return 0, err
	}
	if err := s.write(ctx, Products, products); err != nil {
		// keep the backend consistent with memory
		if rbErr := s.write(ctx, Categories, s.categories); rbErr != nil {
			s.logger.ErrorContext(ctx, "Failed to restore categories after product write failure", "error", rbErr)
		}
		return 0, err
	}
	removedProducts := len(s.products) - len(products)
	s.categories = categories
	s.products = products
	return removedProducts, nil
}

// AppendImported adds a product and, if it is not yet known, its category.
// Both collections are persisted. The second result reports whether the
// category was new.
func (s *Store) AppendImported(ctx context.Context, f ProductFields) (Product, bool, error) {
	if err := f.Validate(); err != nil {
		return Product{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := newProduct(s.uniqueID(), f)
	products := append(slices.Clone(s.products), p)
	categories := s.categories
	addedCategory := f.Category != "" && !slices.Contains(s.categories, f.Category)
	if addedCategory {
		categories = append(slices.Clone(s.categories), f.Category)
		if err := s.write(ctx, Categories, categories); err != nil {
			return Product{}, false, err
		}
	}
	if err := s.write(ctx, Products, products); err != nil {
		if addedCategory {
			if rbErr := s.write(ctx, Categories, s.categories); rbErr != nil {
				s.logger.ErrorContext(ctx, "Failed to restore categories after product write failure", "error", rbErr)
			}
		}
		return Product{}, false, err
	}
	s.products = products
	s.categories = categories
	return p, addedCategory, nil
}

// SeedIfEmpty replaces both collections when, and only when, there are no
// products yet. Each seeded product gets a fresh id. It reports whether
// the seed was applied; an empty seed never is.
func (s *Store) SeedIfEmpty(ctx context.Context, fields []ProductFields, categories []string) (bool, error) {
	if len(fields) == 0 {
		return false, nil
	}
	for _, f := range fields {
		if err := f.Validate(); err != nil {
			return false, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.products) > 0 {
		return false, nil
	}
	products := make([]Product, 0, len(fields))
	for _, f := range fields {
		products = append(products, newProduct(s.uniqueIDAmong(products), f))
	}
	categories = slices.Clone(categories)
	if categories == nil {
		categories = []string{}
	}

	if err := s.write(ctx, Products, products); err != nil {
		return false, err
	}
	if err := s.write(ctx, Categories, categories); err != nil {
		if rbErr := s.write(ctx, Products, s.products); rbErr != nil {
			s.logger.ErrorContext(ctx, "Failed to restore products after category write failure", "error", rbErr)
		}
		return false, err
	}
	s.products = products
	s.categories = categories
	return true, nil
}

func (s *Store) indexOf(id uuid.UUID) int {
	return slices.IndexFunc(s.products, func(p Product) bool { return p.ID == id })
}

// uniqueID draws ids until one is unused. Callers hold the write lock.
func (s *Store) uniqueID() uuid.UUID {
	return s.uniqueIDAmong(s.products)
}

func (s *Store) uniqueIDAmong(products []Product) uuid.UUID {
	for {
		id := s.newID()
		if id == uuid.Nil {
			continue
		}
		if !slices.ContainsFunc(products, func(p Product) bool { return p.ID == id }) {
			return id
		}
	}
}

// repairIDs assigns fresh ids to products whose id is missing or repeated.
func (s *Store) repairIDs(products []Product) int {
	seen := make(map[uuid.UUID]struct{}, len(products))
	repaired := 0
	for i := range products {
		if _, dup := seen[products[i].ID]; products[i].ID == uuid.Nil || dup {
			products[i].ID = s.uniqueIDAmong(products)
			repaired++
		}
		seen[products[i].ID] = struct{}{}
	}
	return repaired
}

// readCollection decodes the list stored under c. Missing or malformed
// values yield an empty list.
func readCollection[T any](ctx context.Context, s *Store, c Collection) ([]T, error) {
	raw, err := s.backend.Get(ctx, string(c))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			s.logger.DebugContext(ctx, "No persisted collection, starting empty", "collection", c)
			return []T{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", c, err)
	}
	var list []T
	if err := json.Unmarshal(raw, &list); err != nil {
		s.logger.WarnContext(ctx, "Persisted collection is malformed, starting empty", "collection", c, "error", err)
		return []T{}, nil
	}
	if list == nil {
		list = []T{}
	}
	return list, nil
}

func (s *Store) write(ctx context.Context, c Collection, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", c, err)
	}
	if err := s.backend.Set(ctx, string(c), data); err != nil {
		return fmt.Errorf("failed to save %s: %w", c, err)
	}
	return nil
}
