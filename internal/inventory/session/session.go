// Package session tracks the single in-progress product edit and the
// remembered direction of each sort toggle.
package session

import (
	"context"
	"sync"

	ierrors "github.com/abgdnv/inventory/internal/inventory/errors"
	"github.com/abgdnv/inventory/internal/inventory/query"
	"github.com/abgdnv/inventory/internal/inventory/store"
	"github.com/google/uuid"
)

// Mode is the edit session state.
type Mode string

const (
	Idle    Mode = "idle"
	Editing Mode = "editing"
)

// State is a snapshot of the edit session.
type State struct {
	Mode      Mode
	ProductID uuid.UUID
}

// ProductStore is the part of store.Store the edit session needs.
type ProductStore interface {
	Exists(id uuid.UUID) bool
	FindByID(id uuid.UUID) (store.Product, error)
	AddProduct(ctx context.Context, f store.ProductFields) (store.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, f store.ProductFields) (store.Product, error)
}

// EditSession decides whether a submitted form creates or replaces a product.
// The form is always in exactly one of two modes: Idle or Editing(id).
type EditSession struct {
	mu      sync.Mutex
	store   ProductStore
	editing uuid.UUID
}

// NewEditSession returns an Idle session over s.
func NewEditSession(s ProductStore) *EditSession {
	return &EditSession{store: s}
}

// State returns the current mode and, when editing, the product id.
func (e *EditSession) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state()
}

func (e *EditSession) state() State {
	if e.editing == uuid.Nil {
		return State{Mode: Idle}
	}
	return State{Mode: Editing, ProductID: e.editing}
}

// BeginEdit switches to Editing(id) and returns the product to prefill the form.
// An unknown id leaves the session unchanged and returns ErrProductNotFound.
func (e *EditSession) BeginEdit(id uuid.UUID) (store.Product, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.store.FindByID(id)
	if err != nil {
		return store.Product{}, err
	}
	e.editing = id
	return p, nil
}

// Submit creates a product when Idle, or replaces the edited product when
// Editing. A successful submit always returns the session to Idle; a
// failed one leaves it where it was.
func (e *EditSession) Submit(ctx context.Context, f store.ProductFields) (store.Product, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.editing == uuid.Nil {
		p, err := e.store.AddProduct(ctx, f)
		if err != nil {
			return store.Product{}, false, err
		}
		return p, true, nil
	}

	id := e.editing
	if !e.store.Exists(id) {
		// deleted while being edited
		e.editing = uuid.Nil
		return store.Product{}, false, ierrors.ErrProductNotFound
	}
	p, err := e.store.UpdateProduct(ctx, id, f)
	if err != nil {
		return store.Product{}, false, err
	}
	e.editing = uuid.Nil
	return p, false, nil
}

// SortToggles remembers, per field, the direction used last. Each Toggle
// flips it, starting from ascending.
type SortToggles struct {
	mu   sync.Mutex
	last map[query.Field]query.Direction
}

func NewSortToggles() *SortToggles {
	return &SortToggles{last: make(map[query.Field]query.Direction)}
}

// Toggle returns the direction to sort field by on this press.
func (t *SortToggles) Toggle(field query.Field) query.Direction {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := query.Asc
	if t.last[field] == query.Asc {
		next = query.Desc
	}
	t.last[field] = next
	return next
}

// Current returns the last direction used for field, or "" if it was never toggled.
func (t *SortToggles) Current(field query.Field) query.Direction {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last[field]
}
