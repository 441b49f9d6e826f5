package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/abgdnv/inventory/internal/config"
	"github.com/abgdnv/inventory/internal/inventory/service"
	"github.com/abgdnv/inventory/pkg/logger"
	pkgconfig "github.com/abgdnv/inventory/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogJSON = `[
	{"id":1,"title":"Backpack","price":109.95,"description":"bag","category":"men's clothing","image":"https://img/1.jpg"},
	{"id":2,"title":"Silver Ring","price":9.99,"description":"ring","category":"jewelery","image":"https://img/2.jpg"}
]`

func testConfig(t *testing.T, catalogURL string) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Storage = pkgconfig.StorageConfig{Driver: pkgconfig.StorageSQLite, Path: filepath.Join(t.TempDir(), "inventory.db")}
	cfg.Catalog = pkgconfig.CatalogConfig{
		URL:     catalogURL,
		Timeout: 2 * time.Second,
		CircuitBreaker: pkgconfig.CircuitBreakerConfig{
			ConsecutiveFailures: 5,
			ErrorRatePercent:    60,
			OpenTimeout:         time.Minute,
		},
	}
	return cfg
}

func newCatalogServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		if status == http.StatusOK {
			_, _ = w.Write([]byte(catalogJSON))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func Test_Start_SeedsEmptyStore(t *testing.T) {
	// given
	srv := newCatalogServer(t, http.StatusOK)
	cfg := testConfig(t, srv.URL)
	deps, err := SetupDependencies(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = deps.Close() })

	// when
	require.NoError(t, deps.Start(context.Background(), true))

	// then
	products := deps.Store.Products()
	require.Len(t, products, 2)
	assert.Equal(t, []string{"Men's clothing", "Jewelery"}, deps.Store.Categories())
}

func Test_Start_SurvivesRestartWithoutReseeding(t *testing.T) {
	// given
	srv := newCatalogServer(t, http.StatusOK)
	cfg := testConfig(t, srv.URL)
	first, err := SetupDependencies(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	require.NoError(t, first.Start(context.Background(), true))
	_, err = first.Service.Create(context.Background(), service.ProductFormDto{Name: "Pen", Stock: 2, Category: "Office"})
	require.NoError(t, err)
	require.NoError(t, first.Close())

	// when
	second, err := SetupDependencies(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })
	require.NoError(t, second.Start(context.Background(), true))

	// then
	assert.Len(t, second.Store.Products(), 3)
}

func Test_Start_CatalogDownLeavesStoreEmpty(t *testing.T) {
	// given
	srv := newCatalogServer(t, http.StatusServiceUnavailable)
	cfg := testConfig(t, srv.URL)
	deps, err := SetupDependencies(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = deps.Close() })

	// when
	err = deps.Start(context.Background(), true)

	// then
	require.NoError(t, err)
	assert.Empty(t, deps.Store.Products())
}

func Test_SetupHttpHandler(t *testing.T) {
	// given
	srv := newCatalogServer(t, http.StatusOK)
	cfg := testConfig(t, srv.URL)
	cfg.Storage = pkgconfig.StorageConfig{Driver: pkgconfig.StorageMemory}
	deps, err := SetupDependencies(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = deps.Close() })
	require.NoError(t, deps.Start(context.Background(), true))
	api := httptest.NewServer(SetupHttpHandler(deps))
	t.Cleanup(api.Close)

	// when
	resp, err := http.Get(api.URL + "/api/v1/products?sort=price")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	var list []service.ProductDto
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))

	metricsResp, err := http.Get(api.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = metricsResp.Body.Close() }()
	body, err := io.ReadAll(metricsResp.Body)
	require.NoError(t, err)

	// then
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, list, 2)
	assert.Equal(t, "Silver Ring", list[0].Name)
	assert.Equal(t, http.StatusOK, metricsResp.StatusCode)
	assert.True(t, strings.Contains(string(body), "inventory_products"))
}

func Test_OpenBackend_UnknownDriver(t *testing.T) {
	cfg := testConfig(t, "http://localhost")
	cfg.Storage.Driver = "etcd"

	_, _, err := OpenBackend(context.Background(), cfg, logger.Discard())

	assert.ErrorContains(t, err, "unknown storage driver")
}
