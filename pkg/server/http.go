// Package server builds the HTTP server and router shared by the service
// and the tests that drive its handler directly.
package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/inventory/pkg/config"
	"github.com/abgdnv/inventory/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewHTTPServer returns a server for handler listening on every interface
// at cfg.Port, with the configured timeouts and header limit.
func NewHTTPServer(cfg config.HTTPConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.Timeout.Read,
		WriteTimeout:      cfg.Timeout.Write,
		IdleTimeout:       cfg.Timeout.Idle,
		ReadHeaderTimeout: cfg.Timeout.ReadHeader,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
}

// NewChiRouter returns a router whose requests carry a request id, are
// access-logged and recover from handler panics. The id is taken from an
// incoming X-Request-Id header when present and echoed in the response.
func NewChiRouter(logger *slog.Logger) *chi.Mux {
	mux := chi.NewRouter()
	mux.Use(
		middleware.RequestID,
		web.RequestIDInjector,
		web.StructuredLogger(logger),
		web.Recoverer(logger),
	)
	return mux
}
