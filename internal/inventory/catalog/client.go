package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/abgdnv/inventory/internal/inventory/metrics"
	"github.com/abgdnv/inventory/pkg/config"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxCatalogBytes = 10 << 20

// Fetcher returns the full remote catalog.
type Fetcher interface {
	Fetch(ctx context.Context) ([]Item, error)
}

// StatusError reports a non-2xx catalog response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog responded with status %d", e.Code)
}

// Client fetches the catalog over HTTP behind a circuit breaker.
type Client struct {
	url  string
	http *http.Client
	base *http.Transport
	cb   *gobreaker.CircuitBreaker[[]Item]
}

type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client. The configured timeout is not applied to it.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
		c.base = nil
	}
}

// NewClient creates a catalog client for cfg.URL. Requests are traced with
// the global OpenTelemetry provider.
func NewClient(cfg config.CatalogConfig, opts ...ClientOption) *Client {
	base := http.DefaultTransport.(*http.Transport).Clone()
	c := &Client{
		url: cfg.URL,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(base),
		},
		base: base,
		cb:   gobreaker.NewCircuitBreaker[[]Item](breakerSettings(cfg.CircuitBreaker)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func breakerSettings(cfg config.CircuitBreakerConfig) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        "catalog-cb",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			total := counts.TotalSuccesses + counts.TotalFailures
			return counts.ConsecutiveFailures > cfg.ConsecutiveFailures ||
				(total > cfg.ConsecutiveFailures &&
					float64(counts.TotalFailures)/float64(total)*100 > float64(cfg.ErrorRatePercent))
		},
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			var se *StatusError
			if errors.As(err, &se) {
				// 4xx is our fault, not the catalog's
				return se.Code < http.StatusInternalServerError
			}
			return false
		},
	}
}

// Fetch downloads and decodes the catalog.
func (c *Client) Fetch(ctx context.Context) ([]Item, error) {
	start := time.Now()
	items, err := c.cb.Execute(func() ([]Item, error) {
		return c.fetch(ctx)
	})
	metrics.CatalogFetchLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.CatalogFetchesTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.CatalogFetchesTotal.WithLabelValues("ok").Inc()
	return items, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	if c.base != nil {
		c.base.CloseIdleConnections()
	}
	c.http.CloseIdleConnections()
}

func (c *Client) fetch(ctx context.Context) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode}
	}
	var items []Item
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxCatalogBytes)).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}
