package service

import (
	"errors"

	ierrors "github.com/abgdnv/inventory/internal/inventory/errors"
)

// reason maps an error to a low-cardinality metric label.
func reason(err error) string {
	switch {
	case errors.Is(err, ierrors.ErrProductNotFound):
		return "not_found"
	case errors.Is(err, ierrors.ErrInvalidProduct),
		errors.Is(err, ierrors.ErrInvalidQuantity),
		errors.Is(err, ierrors.ErrCategoryNameRequired):
		return "invalid"
	case errors.Is(err, ierrors.ErrCategoryExists):
		return "conflict"
	case errors.Is(err, ierrors.ErrCatalogItemNotFound),
		errors.Is(err, ierrors.ErrCatalogUnavailable):
		return "catalog"
	default:
		return "storage"
	}
}
