// Package service provides the inventory use cases on top of the store,
// the edit session and the catalog importer.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/abgdnv/inventory/internal/inventory/catalog"
	"github.com/abgdnv/inventory/internal/inventory/dashboard"
	ierrors "github.com/abgdnv/inventory/internal/inventory/errors"
	"github.com/abgdnv/inventory/internal/inventory/events"
	"github.com/abgdnv/inventory/internal/inventory/metrics"
	"github.com/abgdnv/inventory/internal/inventory/query"
	"github.com/abgdnv/inventory/internal/inventory/session"
	"github.com/abgdnv/inventory/internal/inventory/store"
	"github.com/abgdnv/inventory/pkg/messaging"
	"github.com/google/uuid"
)

// InventoryService defines the inventory use cases shared by the HTTP API and the CLI.
type InventoryService interface {
	// ListProducts returns products filtered by name or category and optionally sorted.
	// Returns ErrConflictingFilters if both a name and a category filter are set.
	ListProducts(ctx context.Context, q ListQuery) ([]ProductDto, error)

	// FindByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id uuid.UUID) (*ProductDto, error)

	// Create adds a new product with a fresh id.
	Create(ctx context.Context, form ProductFormDto) (*ProductDto, error)

	// Update replaces every field of an existing product but its id.
	// Returns ErrProductNotFound if no product exists with the given ID.
	Update(ctx context.Context, id uuid.UUID, form ProductFormDto) (*ProductDto, error)

	// DeleteByID removes a product. Deleting an unknown id is a no-op.
	DeleteByID(ctx context.Context, id uuid.UUID) error

	// BeginEdit puts the form into edit mode for the product.
	// Returns ErrProductNotFound and leaves the session as it was if the id is unknown.
	BeginEdit(ctx context.Context, id uuid.UUID) (*SessionDto, error)

	// Session returns the current edit session.
	Session(ctx context.Context) SessionDto

	// SubmitForm creates a product when idle or replaces the edited one.
	SubmitForm(ctx context.Context, form ProductFormDto) (*SubmitResultDto, error)

	// ToggleSort flips the remembered direction for field and returns the sorted list.
	// Returns ErrUnknownSortField for anything but name, price or stock.
	ToggleSort(ctx context.Context, field string, q ListQuery) (*SortedDto, error)

	// Categories returns the category list in insertion order.
	Categories(ctx context.Context) []string

	// AddCategory appends a category.
	// Returns ErrCategoryExists for a duplicate name.
	AddCategory(ctx context.Context, dto CategoryCreateDto) (string, error)

	// DeleteCategory removes a category and all its products. Unknown names are a no-op.
	DeleteCategory(ctx context.Context, name string) (*CategoryDeletedDto, error)

	// DeleteCategoryAt is DeleteCategory addressed by position in Categories().
	// An out of range index is a no-op.
	DeleteCategoryAt(ctx context.Context, index int) (*CategoryDeletedDto, error)

	// Dashboard computes the summary counters and the stock chart.
	Dashboard(ctx context.Context) DashboardDto

	// Catalog returns the remote catalog, or an empty list if it cannot be fetched.
	Catalog(ctx context.Context) []catalog.Item

	// ImportFromCatalog copies one catalog item into the store.
	// Returns ErrInvalidQuantity, ErrCatalogItemNotFound or ErrCatalogUnavailable.
	ImportFromCatalog(ctx context.Context, dto CatalogImportDto) (*ProductDto, error)

	// SeedFromCatalog fills an empty store from the remote catalog.
	SeedFromCatalog(ctx context.Context) (*SeedResultDto, error)
}

var _ InventoryService = (*Service)(nil)

// Service implements InventoryService.
type Service struct {
	store         *store.Store
	edit          *session.EditSession
	toggles       *session.SortToggles
	importer      *catalog.Importer
	publisher     messaging.Publisher
	subjectPrefix string
	logger        *slog.Logger
	now           func() time.Time
}

type Option func(*Service)

// WithSubjectPrefix sets the prefix of published event subjects.
func WithSubjectPrefix(prefix string) Option {
	return func(s *Service) { s.subjectPrefix = prefix }
}

// WithClock replaces time.Now for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service. A nil publisher drops events.
func NewService(st *store.Store, importer *catalog.Importer, publisher messaging.Publisher, logger *slog.Logger, opts ...Option) *Service {
	if publisher == nil {
		publisher = messaging.NoopPublisher{}
	}
	s := &Service{
		store:     st,
		edit:      session.NewEditSession(st),
		toggles:   session.NewSortToggles(),
		importer:  importer,
		publisher: publisher,
		logger:    logger.With("component", "service"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.refreshGauges()
	return s
}

func (s *Service) ListProducts(_ context.Context, q ListQuery) ([]ProductDto, error) {
	view := query.View{
		Name:     q.Q,
		Category: q.Category,
		Sort:     query.Field(q.Sort),
		Order:    query.Direction(q.Order),
	}
	products, err := view.Apply(s.store.Products())
	if err != nil {
		return nil, err
	}
	return toDtos(products), nil
}

func (s *Service) FindByID(_ context.Context, id uuid.UUID) (*ProductDto, error) {
	p, err := s.store.FindByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product by ID %s: %w", id, err)
	}
	dto := toDto(p)
	return &dto, nil
}

func (s *Service) Create(ctx context.Context, form ProductFormDto) (*ProductDto, error) {
	p, err := s.store.AddProduct(ctx, form.toFields())
	if err != nil {
		s.failed(metrics.OpAddProduct, err)
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	s.productsChanged(ctx, metrics.OpAddProduct, p.ID)
	dto := toDto(p)
	return &dto, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, form ProductFormDto) (*ProductDto, error) {
	p, err := s.store.UpdateProduct(ctx, id, form.toFields())
	if err != nil {
		s.failed(metrics.OpUpdateProduct, err)
		return nil, fmt.Errorf("failed to update product with ID %s: %w", id, err)
	}
	s.productsChanged(ctx, metrics.OpUpdateProduct, p.ID)
	dto := toDto(p)
	return &dto, nil
}

func (s *Service) DeleteByID(ctx context.Context, id uuid.UUID) error {
	removed, err := s.store.RemoveProduct(ctx, id)
	if err != nil {
		s.failed(metrics.OpRemoveProduct, err)
		return fmt.Errorf("failed to delete product with ID %s: %w", id, err)
	}
	if removed {
		s.productsChanged(ctx, metrics.OpRemoveProduct, id)
	}
	return nil
}

func (s *Service) BeginEdit(_ context.Context, id uuid.UUID) (*SessionDto, error) {
	p, err := s.edit.BeginEdit(id)
	if err != nil {
		return nil, fmt.Errorf("failed to edit product with ID %s: %w", id, err)
	}
	dto := toDto(p)
	return &SessionDto{Mode: string(session.Editing), ProductID: p.ID.String(), Product: &dto}, nil
}

func (s *Service) Session(_ context.Context) SessionDto {
	st := s.edit.State()
	if st.Mode == session.Idle {
		return SessionDto{Mode: string(session.Idle)}
	}
	out := SessionDto{Mode: string(st.Mode), ProductID: st.ProductID.String()}
	if p, err := s.store.FindByID(st.ProductID); err == nil {
		dto := toDto(p)
		out.Product = &dto
	}
	return out
}

func (s *Service) SubmitForm(ctx context.Context, form ProductFormDto) (*SubmitResultDto, error) {
	p, created, err := s.edit.Submit(ctx, form.toFields())
	if err != nil {
		s.failed("submit", err)
		return nil, fmt.Errorf("failed to submit product form: %w", err)
	}
	op := metrics.OpUpdateProduct
	if created {
		op = metrics.OpAddProduct
	}
	s.productsChanged(ctx, op, p.ID)
	return &SubmitResultDto{Created: created, Product: toDto(p)}, nil
}

func (s *Service) ToggleSort(ctx context.Context, field string, q ListQuery) (*SortedDto, error) {
	f, ok := query.ParseField(field)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ierrors.ErrUnknownSortField, field)
	}
	// a rejected query must not advance the toggle
	if err := (query.View{Name: q.Q, Category: q.Category}).Validate(); err != nil {
		return nil, err
	}
	dir := s.toggles.Toggle(f)
	q.Sort = string(f)
	q.Order = string(dir)
	products, err := s.ListProducts(ctx, q)
	if err != nil {
		return nil, err
	}
	return &SortedDto{Field: string(f), Order: string(dir), Products: products}, nil
}

func (s *Service) Categories(_ context.Context) []string {
	return s.store.Categories()
}

func (s *Service) AddCategory(ctx context.Context, dto CategoryCreateDto) (string, error) {
	name, err := s.store.AddCategory(ctx, dto.Name)
	if err != nil {
		s.failed(metrics.OpAddCategory, err)
		return "", fmt.Errorf("failed to add category: %w", err)
	}
	s.categoriesChanged(ctx, metrics.OpAddCategory, name, 0)
	return name, nil
}

func (s *Service) DeleteCategory(ctx context.Context, name string) (*CategoryDeletedDto, error) {
	removed, found, err := s.store.RemoveCategory(ctx, name)
	if err != nil {
		s.failed(metrics.OpRemoveCategory, err)
		return nil, fmt.Errorf("failed to delete category %q: %w", name, err)
	}
	if !found {
		return &CategoryDeletedDto{Name: name}, nil
	}
	s.categoryRemoved(ctx, name, removed)
	return &CategoryDeletedDto{Name: name, Deleted: true, RemovedProducts: removed}, nil
}

func (s *Service) DeleteCategoryAt(ctx context.Context, index int) (*CategoryDeletedDto, error) {
	name, removed, err := s.store.RemoveCategoryAt(ctx, index)
	if err != nil {
		s.failed(metrics.OpRemoveCategory, err)
		return nil, fmt.Errorf("failed to delete category at %d: %w", index, err)
	}
	if name == "" {
		return &CategoryDeletedDto{}, nil
	}
	s.categoryRemoved(ctx, name, removed)
	return &CategoryDeletedDto{Name: name, Deleted: true, RemovedProducts: removed}, nil
}

func (s *Service) categoryRemoved(ctx context.Context, name string, removedProducts int) {
	s.categoriesChanged(ctx, metrics.OpRemoveCategory, name, removedProducts)
	if removedProducts > 0 {
		s.productsChanged(ctx, metrics.OpRemoveCategory)
	}
}

func (s *Service) Dashboard(_ context.Context) DashboardDto {
	return dashboard.Build(s.store.Products(), s.store.Categories())
}

func (s *Service) Catalog(ctx context.Context) []catalog.Item {
	return s.importer.FetchCatalog(ctx)
}

func (s *Service) ImportFromCatalog(ctx context.Context, dto CatalogImportDto) (*ProductDto, error) {
	if _, err := catalog.ParseQuantity(string(dto.Quantity)); err != nil {
		s.failed(metrics.OpImport, err)
		return nil, err
	}
	item, err := s.importer.Lookup(ctx, dto.CatalogID)
	if err != nil {
		s.failed(metrics.OpImport, err)
		return nil, err
	}
	p, addedCategory, err := s.importer.ImportOne(ctx, item, string(dto.Quantity))
	if err != nil {
		s.failed(metrics.OpImport, err)
		return nil, err
	}
	s.productsChanged(ctx, metrics.OpImport, p.ID)
	if addedCategory {
		s.categoriesChanged(ctx, metrics.OpImport, p.Category, 0)
	}
	out := toDto(p)
	return &out, nil
}

func (s *Service) SeedFromCatalog(ctx context.Context) (*SeedResultDto, error) {
	items := s.importer.FetchCatalog(ctx)
	applied, err := s.importer.SeedIfEmpty(ctx, items)
	if err != nil {
		s.failed(metrics.OpSeed, err)
		return nil, err
	}
	result := &SeedResultDto{Applied: applied}
	if applied {
		result.Products = len(s.store.Products())
		s.productsChanged(ctx, metrics.OpSeed)
		s.categoriesChanged(ctx, metrics.OpSeed, "", 0)
	}
	return result, nil
}

// productsChanged records a successful product mutation and publishes it.
func (s *Service) productsChanged(ctx context.Context, op string, ids ...uuid.UUID) {
	metrics.MutationsTotal.WithLabelValues(op).Inc()
	s.refreshGauges()
	s.logger.InfoContext(ctx, "Products changed", "op", op, "ids", ids)
	s.publish(ctx, events.ProductsChanged{
		Prefix:     s.subjectPrefix,
		Op:         op,
		ProductIDs: ids,
		Total:      len(s.store.Products()),
		OccurredAt: s.now().UTC(),
	})
}

func (s *Service) categoriesChanged(ctx context.Context, op, name string, removedProducts int) {
	if op == metrics.OpAddCategory || op == metrics.OpRemoveCategory {
		metrics.MutationsTotal.WithLabelValues(op).Inc()
	}
	s.logger.InfoContext(ctx, "Categories changed", "op", op, "category", name, "removed_products", removedProducts)
	s.publish(ctx, events.CategoriesChanged{
		Prefix:          s.subjectPrefix,
		Op:              op,
		Category:        name,
		RemovedProducts: removedProducts,
		Total:           len(s.store.Categories()),
		OccurredAt:      s.now().UTC(),
	})
}

// publish never fails the mutation: the change is already persisted.
func (s *Service) publish(ctx context.Context, e messaging.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish change event", "subject", e.Subject(), "error", err)
	}
}

func (s *Service) failed(op string, err error) {
	metrics.MutationsFailed.WithLabelValues(op, reason(err)).Inc()
}

func (s *Service) refreshGauges() {
	metrics.ObserveInventory(s.store.Products())
}
