package server

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/abgdnv/inventory/pkg/config"
	"github.com/abgdnv/inventory/pkg/web"
	"github.com/stretchr/testify/assert"
)

func Test_NewHTTPServer(t *testing.T) {
	// given
	var cfg config.HTTPConfig
	cfg.Port = 8081
	cfg.MaxHeaderBytes = 1 << 16
	cfg.Timeout.Read = time.Second
	cfg.Timeout.Write = 2 * time.Second
	cfg.Timeout.Idle = 3 * time.Second
	cfg.Timeout.ReadHeader = 4 * time.Second

	// when
	srv := NewHTTPServer(cfg, http.NotFoundHandler())

	// then
	assert.Equal(t, ":8081", srv.Addr)
	assert.Equal(t, 1<<16, srv.MaxHeaderBytes)
	assert.Equal(t, time.Second, srv.ReadTimeout)
	assert.Equal(t, 2*time.Second, srv.WriteTimeout)
	assert.Equal(t, 3*time.Second, srv.IdleTimeout)
	assert.Equal(t, 4*time.Second, srv.ReadHeaderTimeout)
}

func Test_NewChiRouter(t *testing.T) {
	// given
	mux := NewChiRouter(slog.New(slog.DiscardHandler))
	var seen string
	mux.Get("/ping", func(_ http.ResponseWriter, r *http.Request) {
		seen, _ = web.GetRequestID(r.Context())
	})
	mux.Get("/panic", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(web.RequestIDHeader, "req-1")

	// when
	ping := httptest.NewRecorder()
	mux.ServeHTTP(ping, req)
	panicked := httptest.NewRecorder()
	mux.ServeHTTP(panicked, httptest.NewRequest(http.MethodGet, "/panic", nil))

	// then
	assert.Equal(t, "req-1", seen)
	assert.Equal(t, "req-1", ping.Header().Get(web.RequestIDHeader))
	assert.Equal(t, http.StatusInternalServerError, panicked.Code)
	assert.NotEmpty(t, panicked.Header().Get(web.RequestIDHeader))
}
