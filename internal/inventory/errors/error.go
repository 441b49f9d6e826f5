// Package errors provides custom error types for inventory operations.
package errors

import "errors"

var (
	ErrProductNotFound      = errors.New("product not found")
	ErrInvalidProduct       = errors.New("invalid product")
	ErrCategoryExists       = errors.New("category already exists")
	ErrCategoryNameRequired = errors.New("category name is required")
	ErrInvalidQuantity      = errors.New("please enter a valid quantity")
	ErrCatalogItemNotFound  = errors.New("catalog item not found")
	ErrCatalogUnavailable   = errors.New("catalog unavailable")
	ErrConflictingFilters   = errors.New("only one filter may be active at a time")
	ErrUnknownSortField     = errors.New("unknown sort field")
)
