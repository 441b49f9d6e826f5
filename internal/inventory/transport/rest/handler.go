// Package rest provides HTTP handlers for inventory operations.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	ierrors "github.com/abgdnv/inventory/internal/inventory/errors"
	"github.com/abgdnv/inventory/internal/inventory/query"
	"github.com/abgdnv/inventory/internal/inventory/service"
	"github.com/abgdnv/inventory/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	service  service.InventoryService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new instance of Handler with the provided service.
func NewHandler(svc service.InventoryService, logger *slog.Logger) *Handler {
	return &Handler{
		service:  svc,
		validate: service.NewValidator(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the inventory service.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.FindAll)
			r.Post("/", h.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.FindByID)
				r.Put("/", h.Update)
				r.Delete("/", h.DeleteByID)
				r.Post("/edit", h.BeginEdit)
			})
		})

		r.Get("/session", h.Session)
		r.Post("/session/submit", h.SubmitForm)
		r.Post("/view/sort/{field}", h.ToggleSort)

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.Categories)
			r.Post("/", h.AddCategory)
			r.Delete("/", h.DeleteCategoryAt)
			r.Delete("/{name}", h.DeleteCategory)
		})

		r.Get("/dashboard", h.Dashboard)

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/", h.Catalog)
			r.Post("/import", h.ImportFromCatalog)
			r.Post("/seed", h.SeedFromCatalog)
		})
	})

	r.Get("/healthz", h.HealthCheck)
}

// FindAll returns the product list, filtered and sorted by query parameters.
func (h *Handler) FindAll(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	q, ok := h.parseListQuery(w, r, mLogger)
	if !ok {
		return
	}
	mLogger.DebugContext(r.Context(), "Received request to list products", "query", q)
	list, err := h.service.ListProducts(r.Context(), q)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "Failed to fetch products")
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved product list", "count", len(list))
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// FindByID retrieves a product by its ID.
func (h *Handler) FindByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	mLogger.DebugContext(r.Context(), "Received request to find product by ID", "ID", id)
	found, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, fmt.Sprintf("Failed to retrieve product with ID %s", id))
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

// Create handles the creation of a new product.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var form service.ProductFormDto
	if !h.decodeAndValidate(w, r, mLogger, &form) {
		return
	}
	created, err := h.service.Create(r.Context(), form)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "Failed to create product")
		return
	}
	mLogger.InfoContext(r.Context(), "Product created successfully", "ID", created.ID, "Name", created.Name)
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// Update replaces a product's fields.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	var form service.ProductFormDto
	if !h.decodeAndValidate(w, r, mLogger, &form) {
		return
	}
	updated, err := h.service.Update(r.Context(), id, form)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, fmt.Sprintf("Failed to update product with ID %s", id))
		return
	}
	mLogger.InfoContext(r.Context(), "Product updated successfully", "ID", updated.ID, "Name", updated.Name)
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// DeleteByID deletes a product by its ID. Unknown ids succeed.
func (h *Handler) DeleteByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	if err := h.service.DeleteByID(r.Context(), id); err != nil {
		h.respondServiceError(w, r, mLogger, err, fmt.Sprintf("Failed to delete product with ID %s", id))
		return
	}
	mLogger.InfoContext(r.Context(), "Product deleted", "ID", id)
	w.WriteHeader(http.StatusNoContent)
}

// BeginEdit switches the form to edit mode for a product.
func (h *Handler) BeginEdit(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	s, err := h.service.BeginEdit(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, fmt.Sprintf("Failed to edit product with ID %s", id))
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, s)
}

// Session returns the edit session state.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	web.RespondJSON(w, mLogger, http.StatusOK, h.service.Session(r.Context()))
}

// SubmitForm creates or updates a product depending on the edit session.
func (h *Handler) SubmitForm(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var form service.ProductFormDto
	if !h.decodeAndValidate(w, r, mLogger, &form) {
		return
	}
	result, err := h.service.SubmitForm(r.Context(), form)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "Failed to submit product form")
		return
	}
	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	web.RespondJSON(w, mLogger, status, result)
}

// ToggleSort flips the sort direction of a column and returns the sorted list.
func (h *Handler) ToggleSort(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	field := web.PathParam(r, "field")
	q, ok := h.parseListQuery(w, r, mLogger)
	if !ok {
		return
	}
	sorted, err := h.service.ToggleSort(r.Context(), field, q)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "Failed to sort products")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, sorted)
}

// Categories returns the category list.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	web.RespondJSON(w, mLogger, http.StatusOK, h.service.Categories(r.Context()))
}

// AddCategory appends a category.
func (h *Handler) AddCategory(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var dto service.CategoryCreateDto
	if !h.decodeAndValidate(w, r, mLogger, &dto) {
		return
	}
	name, err := h.service.AddCategory(r.Context(), dto)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "Failed to add category")
		return
	}
	mLogger.InfoContext(r.Context(), "Category added", "name", name)
	web.RespondJSON(w, mLogger, http.StatusCreated, map[string]string{"name": name})
}

// DeleteCategory removes a category and its products. Unknown names succeed
// with deleted=false.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	name := web.PathParam(r, "name")
	// chi matches on RawPath when the request carried escapes such as %2F,
	// leaving the parameter encoded. Otherwise it is already decoded.
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(name)
		if err != nil {
			web.RespondError(w, mLogger, http.StatusBadRequest, fmt.Sprintf("Invalid category name: %s", name))
			return
		}
		name = unescaped
	}
	deleted, err := h.service.DeleteCategory(r.Context(), name)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, fmt.Sprintf("Failed to delete category %s", name))
		return
	}
	mLogger.InfoContext(r.Context(), "Category deleted", "name", name, "deleted", deleted.Deleted, "removed_products", deleted.RemovedProducts)
	web.RespondJSON(w, mLogger, http.StatusOK, deleted)
}

// DeleteCategoryAt removes the category at the position given by the index
// query parameter. An out of range index succeeds with deleted=false.
func (h *Handler) DeleteCategoryAt(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	raw := r.URL.Query().Get("index")
	index, err := strconv.Atoi(raw)
	if err != nil {
		web.RespondError(w, mLogger, http.StatusBadRequest, fmt.Sprintf("Invalid index value: %s", raw))
		return
	}
	deleted, err := h.service.DeleteCategoryAt(r.Context(), index)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, fmt.Sprintf("Failed to delete category at %d", index))
		return
	}
	mLogger.InfoContext(r.Context(), "Category deleted", "index", index, "name", deleted.Name, "deleted", deleted.Deleted)
	web.RespondJSON(w, mLogger, http.StatusOK, deleted)
}

// Dashboard returns the summary counters and chart data.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	web.RespondJSON(w, mLogger, http.StatusOK, h.service.Dashboard(r.Context()))
}

// Catalog returns the remote catalog. An unreachable catalog yields an empty list.
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	web.RespondJSON(w, mLogger, http.StatusOK, h.service.Catalog(r.Context()))
}

// ImportFromCatalog imports one catalog item.
func (h *Handler) ImportFromCatalog(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var dto service.CatalogImportDto
	if !h.decodeAndValidate(w, r, mLogger, &dto) {
		return
	}
	p, err := h.service.ImportFromCatalog(r.Context(), dto)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "Failed to import catalog item")
		return
	}
	mLogger.InfoContext(r.Context(), "Product imported", "ID", p.ID, "catalog_id", dto.CatalogID)
	web.RespondJSON(w, mLogger, http.StatusCreated, p)
}

// SeedFromCatalog fills an empty inventory from the catalog.
func (h *Handler) SeedFromCatalog(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	result, err := h.service.SeedFromCatalog(r.Context())
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "Failed to seed inventory")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, result)
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) parseListQuery(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger) (service.ListQuery, bool) {
	sort, ok := web.ParseEnum(r, w, mLogger, "sort", "", string(query.ByName), string(query.ByPrice), string(query.ByStock))
	if !ok {
		return service.ListQuery{}, false
	}
	order, ok := web.ParseEnum(r, w, mLogger, "order", string(query.Asc), string(query.Asc), string(query.Desc))
	if !ok {
		return service.ListQuery{}, false
	}
	return service.ListQuery{
		Q:        r.URL.Query().Get("q"),
		Category: r.URL.Query().Get("category"),
		Sort:     sort,
		Order:    order,
	}, true
}

// decodeAndValidate reads the JSON body into dst and runs struct validation.
// On failure the response has been written.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		mLogger.WarnContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			errorResponse := make(map[string]string)
			for _, fieldErr := range validationErrors {
				errorResponse[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
			}
			mLogger.WarnContext(r.Context(), "Validation errors occurred", "errors", errorResponse)
			web.RespondJSON(w, mLogger, http.StatusBadRequest, map[string]any{"validation_errors": errorResponse})
			return false
		}
		mLogger.ErrorContext(r.Context(), "Error validating request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// respondServiceError maps service errors to HTTP statuses.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, err error, fallback string) {
	status := http.StatusInternalServerError
	message := fallback
	switch {
	case errors.Is(err, ierrors.ErrProductNotFound):
		status, message = http.StatusNotFound, ierrors.ErrProductNotFound.Error()
	case errors.Is(err, ierrors.ErrCatalogItemNotFound):
		status, message = http.StatusNotFound, ierrors.ErrCatalogItemNotFound.Error()
	case errors.Is(err, ierrors.ErrCategoryExists):
		status, message = http.StatusConflict, ierrors.ErrCategoryExists.Error()
	case errors.Is(err, ierrors.ErrInvalidProduct),
		errors.Is(err, ierrors.ErrInvalidQuantity),
		errors.Is(err, ierrors.ErrCategoryNameRequired),
		errors.Is(err, ierrors.ErrConflictingFilters),
		errors.Is(err, ierrors.ErrUnknownSortField):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, ierrors.ErrCatalogUnavailable):
		status, message = http.StatusBadGateway, ierrors.ErrCatalogUnavailable.Error()
	}
	if status >= http.StatusInternalServerError {
		mLogger.ErrorContext(r.Context(), fallback, "error", err)
	} else {
		mLogger.WarnContext(r.Context(), fallback, "error", err)
	}
	web.RespondError(w, mLogger, status, message)
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID, _ := web.GetRequestID(r.Context())
	return h.logger.With("request_id", reqID)
}
