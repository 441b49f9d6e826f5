// Package client is a typed HTTP client of the inventory REST API.
//
// inventoryctl talks to the running service through it, so the service's
// store stays the only writer of the persisted collections.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/abgdnv/inventory/internal/inventory/catalog"
	ierrors "github.com/abgdnv/inventory/internal/inventory/errors"
	"github.com/abgdnv/inventory/internal/inventory/service"
	"github.com/abgdnv/inventory/pkg/config"
	"github.com/abgdnv/inventory/pkg/web"
	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	apiPrefix       = "/api/v1"
	maxResponseSize = 10 << 20
)

// sentinels are matched against the error message of a failed response so
// that callers can use errors.Is across the wire.
var sentinels = []error{
	ierrors.ErrProductNotFound,
	ierrors.ErrInvalidProduct,
	ierrors.ErrCategoryExists,
	ierrors.ErrCategoryNameRequired,
	ierrors.ErrInvalidQuantity,
	ierrors.ErrCatalogItemNotFound,
	ierrors.ErrCatalogUnavailable,
	ierrors.ErrConflictingFilters,
	ierrors.ErrUnknownSortField,
}

// APIError is a non-2xx response from the service.
type APIError struct {
	Status     int
	Message    string
	Validation map[string]string
	RequestID  string
}

func (e *APIError) Error() string {
	msg := e.Message
	if len(e.Validation) > 0 {
		fields := make([]string, 0, len(e.Validation))
		for field, rule := range e.Validation {
			fields = append(fields, field+" "+rule)
		}
		msg = "invalid request: " + strings.Join(fields, ", ")
	}
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.RequestID != "" {
		return fmt.Sprintf("%s (status %d, request %s)", msg, e.Status, e.RequestID)
	}
	return fmt.Sprintf("%s (status %d)", msg, e.Status)
}

// Unwrap returns the inventory sentinel the message stands for, if any.
func (e *APIError) Unwrap() error {
	for _, s := range sentinels {
		if e.Message == s.Error() {
			return s
		}
	}
	return nil
}

// Client calls the inventory service at a base URL.
type Client struct {
	base  string
	http  *http.Client
	trans *http.Transport
	retry config.RetryConfig
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client, e.g. with an
// httptest.Server's client. The configured timeout is not applied to it.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
		c.trans = nil
	}
}

// New creates a client for cfg.URL. Requests are traced with the global
// OpenTelemetry provider so that they join the service's traces.
func New(cfg config.ClientConfig, opts ...Option) *Client {
	trans := http.DefaultTransport.(*http.Transport).Clone()
	c := &Client{
		base: strings.TrimRight(cfg.URL, "/"),
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(trans),
		},
		trans: trans,
		retry: cfg.Retry,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close releases idle connections.
func (c *Client) Close() {
	if c.trans != nil {
		c.trans.CloseIdleConnections()
	}
	c.http.CloseIdleConnections()
}

// Health reports whether the service answers its health check.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (c *Client) ListProducts(ctx context.Context, q service.ListQuery) ([]service.ProductDto, error) {
	var out []service.ProductDto
	err := c.do(ctx, http.MethodGet, apiPrefix+"/products"+listValues(q), nil, &out)
	return out, err
}

func (c *Client) FindByID(ctx context.Context, id string) (*service.ProductDto, error) {
	var out service.ProductDto
	if err := c.do(ctx, http.MethodGet, apiPrefix+"/products/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Create(ctx context.Context, form service.ProductFormDto) (*service.ProductDto, error) {
	var out service.ProductDto
	if err := c.do(ctx, http.MethodPost, apiPrefix+"/products", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Update(ctx context.Context, id string, form service.ProductFormDto) (*service.ProductDto, error) {
	var out service.ProductDto
	if err := c.do(ctx, http.MethodPut, apiPrefix+"/products/"+url.PathEscape(id), form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteByID(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, apiPrefix+"/products/"+url.PathEscape(id), nil, nil)
}

func (c *Client) BeginEdit(ctx context.Context, id string) (*service.SessionDto, error) {
	var out service.SessionDto
	if err := c.do(ctx, http.MethodPost, apiPrefix+"/products/"+url.PathEscape(id)+"/edit", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Session(ctx context.Context) (*service.SessionDto, error) {
	var out service.SessionDto
	if err := c.do(ctx, http.MethodGet, apiPrefix+"/session", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SubmitForm(ctx context.Context, form service.ProductFormDto) (*service.SubmitResultDto, error) {
	var out service.SubmitResultDto
	if err := c.do(ctx, http.MethodPost, apiPrefix+"/session/submit", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ToggleSort(ctx context.Context, field string, q service.ListQuery) (*service.SortedDto, error) {
	var out service.SortedDto
	q.Sort, q.Order = "", ""
	path := apiPrefix + "/view/sort/" + url.PathEscape(field) + listValues(q)
	if err := c.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var out []string
	err := c.do(ctx, http.MethodGet, apiPrefix+"/categories", nil, &out)
	return out, err
}

func (c *Client) AddCategory(ctx context.Context, name string) (string, error) {
	var out struct {
		Name string `json:"name"`
	}
	if err := c.do(ctx, http.MethodPost, apiPrefix+"/categories", service.CategoryCreateDto{Name: name}, &out); err != nil {
		return "", err
	}
	return out.Name, nil
}

func (c *Client) DeleteCategory(ctx context.Context, name string) (*service.CategoryDeletedDto, error) {
	var out service.CategoryDeletedDto
	if err := c.do(ctx, http.MethodDelete, apiPrefix+"/categories/"+url.PathEscape(name), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCategoryAt deletes by zero-based position in Categories. The
// service resolves the position and deletes under one lock.
func (c *Client) DeleteCategoryAt(ctx context.Context, index int) (*service.CategoryDeletedDto, error) {
	var out service.CategoryDeletedDto
	path := apiPrefix + "/categories?" + url.Values{"index": {strconv.Itoa(index)}}.Encode()
	if err := c.do(ctx, http.MethodDelete, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Dashboard(ctx context.Context) (*service.DashboardDto, error) {
	var out service.DashboardDto
	if err := c.do(ctx, http.MethodGet, apiPrefix+"/dashboard", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Catalog(ctx context.Context) ([]catalog.Item, error) {
	var out []catalog.Item
	err := c.do(ctx, http.MethodGet, apiPrefix+"/catalog", nil, &out)
	return out, err
}

func (c *Client) ImportFromCatalog(ctx context.Context, dto service.CatalogImportDto) (*service.ProductDto, error) {
	var out service.ProductDto
	if err := c.do(ctx, http.MethodPost, apiPrefix+"/catalog/import", dto, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SeedFromCatalog(ctx context.Context) (*service.SeedResultDto, error) {
	var out service.SeedResultDto
	if err := c.do(ctx, http.MethodPost, apiPrefix+"/catalog/seed", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func listValues(q service.ListQuery) string {
	v := url.Values{}
	for key, value := range map[string]string{"q": q.Q, "category": q.Category, "sort": q.Sort, "order": q.Order} {
		if value != "" {
			v.Set(key, value)
		}
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// do sends one request and decodes a 2xx body into out. GETs are retried
// with exponential backoff on connection errors and 502, 503 or 504.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	return backoff.Retry(func() error {
		err := c.send(ctx, method, path, payload, out)
		if err != nil && (method != http.MethodGet || !retryable(err)) {
			return backoff.Permanent(err)
		}
		return err
	}, c.policy(ctx))
}

func (c *Client) policy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retry.InitialBackoff
	if b.InitialInterval <= 0 {
		b.InitialInterval = backoff.DefaultInitialInterval
	}
	var retries uint64
	if c.retry.MaxAttempts > 1 {
		retries = uint64(c.retry.MaxAttempts - 1)
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, retries), ctx)
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, out any) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if reqID, ok := web.GetRequestID(ctx); ok {
		req.Header.Set(web.RequestIDHeader, reqID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("inventory service unreachable at %s: %w", c.base, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, RequestID: resp.Header.Get(web.RequestIDHeader)}
	var body struct {
		Error      string            `json:"error"`
		Validation map[string]string `json:"validation_errors"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&body); err == nil {
		apiErr.Message = body.Error
		apiErr.Validation = body.Validation
	}
	return apiErr
}

func retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	// transport failure
	return true
}
