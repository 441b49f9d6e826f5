package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/abgdnv/inventory/internal/inventory/catalog"
	"github.com/abgdnv/inventory/internal/inventory/dashboard"
	ierrors "github.com/abgdnv/inventory/internal/inventory/errors"
	"github.com/abgdnv/inventory/internal/inventory/kv"
	"github.com/abgdnv/inventory/internal/inventory/service"
	"github.com/abgdnv/inventory/internal/inventory/store"
	"github.com/abgdnv/inventory/pkg/logger"
	"github.com/abgdnv/inventory/pkg/server"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockInventoryService is a mock implementation of the InventoryService interface.
// Every method returns product/products and error as configured.
type mockInventoryService struct {
	product  service.ProductDto
	products []service.ProductDto
	error    error
	// category receives the name passed to DeleteCategory.
	category string
}

func (m *mockInventoryService) ListProducts(context.Context, service.ListQuery) ([]service.ProductDto, error) {
	return m.products, m.error
}

func (m *mockInventoryService) FindByID(context.Context, uuid.UUID) (*service.ProductDto, error) {
	return &m.product, m.error
}

func (m *mockInventoryService) Create(context.Context, service.ProductFormDto) (*service.ProductDto, error) {
	return &m.product, m.error
}

func (m *mockInventoryService) Update(context.Context, uuid.UUID, service.ProductFormDto) (*service.ProductDto, error) {
	return &m.product, m.error
}

func (m *mockInventoryService) DeleteByID(context.Context, uuid.UUID) error {
	return m.error
}

func (m *mockInventoryService) BeginEdit(context.Context, uuid.UUID) (*service.SessionDto, error) {
	return &service.SessionDto{Mode: "editing", ProductID: m.product.ID, Product: &m.product}, m.error
}

func (m *mockInventoryService) Session(context.Context) service.SessionDto {
	return service.SessionDto{Mode: "idle"}
}

func (m *mockInventoryService) SubmitForm(context.Context, service.ProductFormDto) (*service.SubmitResultDto, error) {
	return &service.SubmitResultDto{Product: m.product}, m.error
}

func (m *mockInventoryService) ToggleSort(_ context.Context, field string, _ service.ListQuery) (*service.SortedDto, error) {
	return &service.SortedDto{Field: field, Order: "asc", Products: m.products}, m.error
}

func (m *mockInventoryService) Categories(context.Context) []string {
	return []string{}
}

func (m *mockInventoryService) AddCategory(_ context.Context, dto service.CategoryCreateDto) (string, error) {
	return dto.Name, m.error
}

func (m *mockInventoryService) DeleteCategory(_ context.Context, name string) (*service.CategoryDeletedDto, error) {
	m.category = name
	return &service.CategoryDeletedDto{Name: name, Deleted: true}, m.error
}

func (m *mockInventoryService) DeleteCategoryAt(_ context.Context, index int) (*service.CategoryDeletedDto, error) {
	return &service.CategoryDeletedDto{Name: fmt.Sprint(index), Deleted: true}, m.error
}

func (m *mockInventoryService) Dashboard(context.Context) service.DashboardDto {
	return dashboard.Build(nil, nil)
}

func (m *mockInventoryService) Catalog(context.Context) []catalog.Item {
	return []catalog.Item{}
}

func (m *mockInventoryService) ImportFromCatalog(context.Context, service.CatalogImportDto) (*service.ProductDto, error) {
	return &m.product, m.error
}

func (m *mockInventoryService) SeedFromCatalog(context.Context) (*service.SeedResultDto, error) {
	return &service.SeedResultDto{}, m.error
}

func newRouter(svc service.InventoryService) http.Handler {
	mux := server.NewChiRouter(logger.Discard())
	NewHandler(svc, logger.Discard()).RegisterRoutes(mux)
	return mux
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func Test_Handler_ErrorMapping(t *testing.T) {
	id := uuid.MustParse("123e4567-e89b-12d3-a456-426614174000")
	testCases := []struct {
		name         string
		err          error
		method       string
		target       string
		body         string
		expectedCode int
		expectedBody string
	}{
		{
			name:         "product not found",
			err:          ierrors.ErrProductNotFound,
			method:       http.MethodGet,
			target:       "/api/v1/products/" + id.String(),
			expectedCode: http.StatusNotFound,
			expectedBody: `{"error":"product not found"}`,
		},
		{
			name:         "edit unknown product",
			err:          ierrors.ErrProductNotFound,
			method:       http.MethodPost,
			target:       "/api/v1/products/" + id.String() + "/edit",
			expectedCode: http.StatusNotFound,
			expectedBody: `{"error":"product not found"}`,
		},
		{
			name:         "duplicate category",
			err:          ierrors.ErrCategoryExists,
			method:       http.MethodPost,
			target:       "/api/v1/categories",
			body:         `{"name":"Office"}`,
			expectedCode: http.StatusConflict,
			expectedBody: `{"error":"category already exists"}`,
		},
		{
			name:         "conflicting filters",
			err:          ierrors.ErrConflictingFilters,
			method:       http.MethodGet,
			target:       "/api/v1/products?q=pen&category=Office",
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"error":"only one filter may be active at a time"}`,
		},
		{
			name:         "invalid quantity",
			err:          ierrors.ErrInvalidQuantity,
			method:       http.MethodPost,
			target:       "/api/v1/catalog/import",
			body:         `{"catalogId":1,"quantity":"abc"}`,
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"error":"please enter a valid quantity"}`,
		},
		{
			name:         "catalog unavailable",
			err:          ierrors.ErrCatalogUnavailable,
			method:       http.MethodPost,
			target:       "/api/v1/catalog/import",
			body:         `{"catalogId":1,"quantity":2}`,
			expectedCode: http.StatusBadGateway,
			expectedBody: `{"error":"catalog unavailable"}`,
		},
		{
			name:         "storage failure",
			err:          errors.New("disk full"),
			method:       http.MethodPost,
			target:       "/api/v1/products",
			body:         `{"name":"Pen","price":"2","stock":1,"category":"Office"}`,
			expectedCode: http.StatusInternalServerError,
			expectedBody: `{"error":"Failed to create product"}`,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			h := newRouter(&mockInventoryService{error: tc.err})
			// when
			rr := do(t, h, tc.method, tc.target, tc.body)
			// then
			assert.Equal(t, tc.expectedCode, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			assert.JSONEq(t, tc.expectedBody, rr.Body.String())
		})
	}
}

func Test_Handler_RequestValidation(t *testing.T) {
	testCases := []struct {
		name         string
		method       string
		target       string
		body         string
		expectedBody string
	}{
		{name: "bad id", method: http.MethodGet, target: "/api/v1/products/42", expectedBody: `{"error":"Invalid ID: 42"}`},
		{name: "bad json", method: http.MethodPost, target: "/api/v1/products", body: `{"name":`, expectedBody: `{"error":"Invalid request body"}`},
		{name: "missing name", method: http.MethodPost, target: "/api/v1/products", body: `{"price":"1","stock":1}`, expectedBody: `{"validation_errors":{"Name":"failed on rule: required"}}`},
		{name: "negative price", method: http.MethodPost, target: "/api/v1/session/submit", body: `{"name":"Pen","price":"-1","stock":1}`, expectedBody: `{"validation_errors":{"Price":"failed on rule: min"}}`},
		{name: "empty category", method: http.MethodPost, target: "/api/v1/categories", body: `{"name":""}`, expectedBody: `{"validation_errors":{"Name":"failed on rule: required"}}`},
		{name: "bad sort", method: http.MethodGet, target: "/api/v1/products?sort=color", expectedBody: `{"error":"Invalid sort value: color"}`},
		{name: "bad order", method: http.MethodGet, target: "/api/v1/products?sort=name&order=up", expectedBody: `{"error":"Invalid order value: up"}`},
		{name: "missing category index", method: http.MethodDelete, target: "/api/v1/categories", expectedBody: `{"error":"Invalid index value: "}`},
		{name: "bad category index", method: http.MethodDelete, target: "/api/v1/categories?index=two", expectedBody: `{"error":"Invalid index value: two"}`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			h := newRouter(&mockInventoryService{})
			// when
			rr := do(t, h, tc.method, tc.target, tc.body)
			// then
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.JSONEq(t, tc.expectedBody, rr.Body.String())
		})
	}
}

func Test_Handler_DeleteCategory_PathDecoding(t *testing.T) {
	testCases := []struct {
		name     string
		target   string
		expected string
	}{
		{name: "plain", target: "/api/v1/categories/Office", expected: "Office"},
		{name: "space and percent", target: "/api/v1/categories/Sale%2050%25", expected: "Sale 50%"},
		{name: "literal escape sequence", target: "/api/v1/categories/100%2541", expected: "100%41"},
		{name: "escaped slash", target: "/api/v1/categories/a%2Fb", expected: "a/b"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			svc := &mockInventoryService{}
			h := newRouter(svc)
			// when
			rr := do(t, h, http.MethodDelete, tc.target, "")
			// then
			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, tc.expected, svc.category)
			assert.Equal(t, tc.expected, decode[service.CategoryDeletedDto](t, rr).Name)
		})
	}
}

func Test_Handler_HealthCheck(t *testing.T) {
	rr := do(t, newRouter(&mockInventoryService{}), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

// newRealRouter wires the handler to a real service over an in-memory store.
func newRealRouter(t *testing.T, items []catalog.Item) http.Handler {
	t.Helper()
	st := store.New(kv.NewMemory(), logger.Discard())
	require.NoError(t, st.Load(context.Background()))
	importer := catalog.NewImporter(stubFetcher(items), st, logger.Discard())
	return newRouter(service.NewService(st, importer, nil, logger.Discard()))
}

type stubFetcher []catalog.Item

func (s stubFetcher) Fetch(context.Context) ([]catalog.Item, error) {
	return s, nil
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func Test_Handler_InventoryFlow(t *testing.T) {
	// given
	h := newRealRouter(t, []catalog.Item{
		{ID: 3, Title: "Desk Lamp", Price: decimal.RequireFromString("19.99"), Category: "HOME"},
	})

	// when categories and products are created
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/v1/categories", `{"name":"Office"}`).Code)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/v1/categories", `{"name":"Home"}`).Code)
	pen := decode[service.ProductDto](t, do(t, h, http.MethodPost, "/api/v1/products", `{"name":"Pen","price":2,"stock":2,"category":"Office"}`))
	rr := do(t, h, http.MethodPost, "/api/v1/catalog/import", `{"catalogId":3,"quantity":"10"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	// then
	list := decode[[]service.ProductDto](t, do(t, h, http.MethodGet, "/api/v1/products?sort=stock&order=desc", ""))
	require.Len(t, list, 2)
	assert.Equal(t, "Desk Lamp", list[0].Name)
	assert.Equal(t, "Home", list[0].Category)
	assert.Equal(t, "Low Stock", pen.Status)

	// when the pen is edited through the session
	rr = do(t, h, http.MethodPost, "/api/v1/products/"+pen.ID+"/edit", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "editing", decode[service.SessionDto](t, do(t, h, http.MethodGet, "/api/v1/session", "")).Mode)
	rr = do(t, h, http.MethodPost, "/api/v1/session/submit", `{"name":"Pen","price":"2.5","stock":8,"category":"Office"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	result := decode[service.SubmitResultDto](t, rr)

	// then
	assert.False(t, result.Created)
	assert.Equal(t, pen.ID, result.Product.ID)
	assert.Equal(t, "idle", decode[service.SessionDto](t, do(t, h, http.MethodGet, "/api/v1/session", "")).Mode)

	// when sorting is toggled twice
	first := decode[service.SortedDto](t, do(t, h, http.MethodPost, "/api/v1/view/sort/price", ""))
	second := decode[service.SortedDto](t, do(t, h, http.MethodPost, "/api/v1/view/sort/price", ""))

	// then
	assert.Equal(t, "asc", first.Order)
	assert.Equal(t, "Pen", first.Products[0].Name)
	assert.Equal(t, "desc", second.Order)
	assert.Equal(t, "Desk Lamp", second.Products[0].Name)

	// when the Office category is deleted
	deleted := decode[service.CategoryDeletedDto](t, do(t, h, http.MethodDelete, "/api/v1/categories/Office", ""))
	again := decode[service.CategoryDeletedDto](t, do(t, h, http.MethodDelete, "/api/v1/categories/Office", ""))
	outOfRange := decode[service.CategoryDeletedDto](t, do(t, h, http.MethodDelete, "/api/v1/categories?index=7", ""))
	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/api/v1/products/"+uuid.NewString(), "").Code)

	// then
	assert.Equal(t, service.CategoryDeletedDto{Name: "Office", Deleted: true, RemovedProducts: 1}, deleted)
	assert.False(t, again.Deleted)
	assert.False(t, outOfRange.Deleted)
	d := decode[dashboard.Dashboard](t, do(t, h, http.MethodGet, "/api/v1/dashboard", ""))
	assert.Equal(t, dashboard.Summary{TotalProducts: 1, TotalStock: 10, TotalCategories: 1, LowStock: 0}, d.Summary)
	assert.Equal(t, []string{"Home"}, d.Chart.Labels)
	assert.Equal(t, []string{"Home"}, decode[[]string](t, do(t, h, http.MethodGet, "/api/v1/categories", "")))
	_, err := uuid.Parse(pen.ID)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/v1/products/"+pen.ID, "").Code)
}

func Test_Handler_CatalogSeed(t *testing.T) {
	// given
	h := newRealRouter(t, []catalog.Item{
		{ID: 1, Title: "Backpack", Price: decimal.RequireFromString("109.95"), Category: "men's clothing"},
	})

	// when
	items := decode[[]catalog.Item](t, do(t, h, http.MethodGet, "/api/v1/catalog", ""))
	first := decode[service.SeedResultDto](t, do(t, h, http.MethodPost, "/api/v1/catalog/seed", ""))
	second := decode[service.SeedResultDto](t, do(t, h, http.MethodPost, "/api/v1/catalog/seed", ""))

	// then
	assert.Len(t, items, 1)
	assert.True(t, first.Applied)
	assert.Equal(t, 1, first.Products)
	assert.False(t, second.Applied)
	assert.Equal(t, []string{"Men's clothing"}, decode[[]string](t, do(t, h, http.MethodGet, "/api/v1/categories", "")))

	// when the only category is deleted by position
	byIndex := decode[service.CategoryDeletedDto](t, do(t, h, http.MethodDelete, "/api/v1/categories?index=0", ""))

	// then
	assert.Equal(t, service.CategoryDeletedDto{Name: "Men's clothing", Deleted: true, RemovedProducts: 1}, byIndex)
	assert.Empty(t, decode[[]string](t, do(t, h, http.MethodGet, "/api/v1/categories", "")))
}
