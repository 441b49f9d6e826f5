// Package app contains the application setup for the inventory service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/inventory/internal/config"
	"github.com/abgdnv/inventory/internal/inventory/catalog"
	"github.com/abgdnv/inventory/internal/inventory/kv"
	"github.com/abgdnv/inventory/internal/inventory/metrics"
	"github.com/abgdnv/inventory/internal/inventory/service"
	"github.com/abgdnv/inventory/internal/inventory/store"
	"github.com/abgdnv/inventory/internal/inventory/transport/rest"
	"github.com/abgdnv/inventory/pkg/bootstrap"
	pkgconfig "github.com/abgdnv/inventory/pkg/config"
	"github.com/abgdnv/inventory/pkg/messaging"
	pkgnats "github.com/abgdnv/inventory/pkg/nats"
	"github.com/abgdnv/inventory/pkg/server"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Dependencies struct {
	Service service.InventoryService
	Store   *store.Store
	Logger  *slog.Logger

	closers []func() error
}

// SetupDependencies opens the configured storage backend and event
// publisher and builds the service on top of them. Call Start before serving.
func SetupDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: logger}

	backend, closeBackend, err := OpenBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	deps.closers = append(deps.closers, closeBackend)

	publisher, closePublisher, err := newPublisher(ctx, cfg.NATS, logger)
	if err != nil {
		_ = deps.Close()
		return nil, err
	}
	deps.closers = append(deps.closers, closePublisher)

	client := catalog.NewClient(cfg.Catalog)
	deps.closers = append(deps.closers, func() error {
		client.Close()
		return nil
	})

	return deps.wire(kv.WithPrefix(backend, cfg.Storage.KeyPrefix), client, publisher, cfg.NATS.Subject), nil
}

func (d *Dependencies) wire(backend kv.Store, fetcher catalog.Fetcher, publisher messaging.Publisher, subjectPrefix string) *Dependencies {
	d.Store = store.New(backend, d.Logger)
	importer := catalog.NewImporter(fetcher, d.Store, d.Logger)
	d.Service = service.NewService(d.Store, importer, publisher, d.Logger, service.WithSubjectPrefix(subjectPrefix))
	return d
}

// Start loads the persisted inventory and, when seed is set, fills an
// empty store from the remote catalog. A catalog that cannot be reached
// leaves the store empty.
func (d *Dependencies) Start(ctx context.Context, seed bool) error {
	if err := d.Store.Load(ctx); err != nil {
		return fmt.Errorf("failed to load inventory: %w", err)
	}
	metrics.ObserveInventory(d.Store.Products())
	if !seed {
		return nil
	}
	result, err := d.Service.SeedFromCatalog(ctx)
	if err != nil {
		d.Logger.WarnContext(ctx, "Startup seed failed", "error", err)
		return nil
	}
	if result.Applied {
		d.Logger.InfoContext(ctx, "Inventory seeded on startup", "products", result.Products)
	}
	return nil
}

// Close releases the backend, publisher and catalog client in reverse order.
func (d *Dependencies) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}

// OpenBackend connects the key-value backend selected by storage.driver.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (kv.Store, func() error, error) {
	switch cfg.Storage.Driver {
	case pkgconfig.StorageMemory:
		logger.Warn("Using in-memory storage, inventory is lost on exit")
		return kv.NewMemory(), func() error { return nil }, nil

	case pkgconfig.StorageSQLite:
		s, err := kv.NewSQLite(cfg.Storage.Path)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Using sqlite storage", "path", s.Path())
		return s, s.Close, nil

	case pkgconfig.StorageRedis:
		client, err := bootstrap.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Using redis storage", "addr", cfg.Redis.Addr)
		return kv.NewRedis(client), client.Close, nil

	case pkgconfig.StoragePostgres:
		if err := bootstrap.MigrateDB(kv.Migrations, kv.MigrationsDir, cfg.Database.URL); err != nil {
			return nil, nil, err
		}
		pool, err := bootstrap.NewDbPool(ctx, cfg.Database.URL, cfg.Database.Timeout)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Using postgres storage", "url", pkgconfig.MaskURL(cfg.Database.URL))
		return kv.NewPostgres(pool), func() error {
			pool.Close()
			return nil
		}, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver: %q", cfg.Storage.Driver)
	}
}

// newPublisher connects to NATS and makes sure the stream covering the event subjects exists.
func newPublisher(ctx context.Context, cfg pkgconfig.NATSConfig, logger *slog.Logger) (messaging.Publisher, func() error, error) {
	if !cfg.Enabled() {
		logger.Info("NATS is not configured, change events are dropped")
		return messaging.NoopPublisher{}, func() error { return nil }, nil
	}
	nc, err := pkgnats.NewClient(cfg.Url, config.ServiceName, cfg.Timeout, logger)
	if err != nil {
		return nil, nil, err
	}
	js, err := pkgnats.NewJetStreamContext(nc)
	if err != nil {
		return nil, nil, err
	}
	if _, err := pkgnats.EnsureStream(ctx, js, cfg.Stream, EventSubjects(cfg.Subject)); err != nil {
		nc.Close()
		return nil, nil, err
	}
	logger.Info("Publishing change events to NATS", "subject", cfg.Subject, "stream", cfg.Stream)
	return pkgnats.NewNatsPublisher(js), nc.Drain, nil
}

// EventSubjects is the wildcard matching every change event under prefix.
func EventSubjects(prefix string) string {
	return prefix + ".>"
}

// SetupHttpHandler initializes the routes for the inventory service.
// Used by tests to set up the HTTP handler with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return otelhttp.NewHandler(mux, config.ServiceName)
}

// wireRoutes sets up the HTTP routes for the inventory service.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	rest.NewHandler(deps.Service, deps.Logger).RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())
}

// SetupHttpServer creates and configures an HTTP server for the inventory service.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	return server.NewHTTPServer(cfg.HTTPServer, SetupHttpHandler(deps))
}
