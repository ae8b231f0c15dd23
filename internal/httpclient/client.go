// Package httpclient provides the small HTTP client used to talk to the
// ephemeral store, the durable backend and the order-state provider.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	// DefaultTimeout is used when NewDefaultClient is given a zero timeout
	DefaultTimeout = 10 * time.Second

	// MaxResponseSize bounds how much of a response body is read
	MaxResponseSize = 1 << 20

	// UserAgent is sent on every request
	UserAgent = "location-tracker/1.0"
)

// Client is the interface for issuing JSON HTTP requests
//
//go:generate mockgen -destination=mocks/mock_client.go -package=mocks -source=client.go Client
type Client interface {
	// Get fetches url and returns the response body
	Get(ctx context.Context, url string, opts ...RequestOption) ([]byte, error)
	// PostJSON encodes body as JSON, posts it to url and returns the response body
	PostJSON(ctx context.Context, url string, body any, opts ...RequestOption) ([]byte, error)
}

// RequestOption mutates an outgoing request
type RequestOption func(*http.Request)

// WithHeader sets a request header
func WithHeader(key, value string) RequestOption {
	return func(r *http.Request) {
		r.Header.Set(key, value)
	}
}

// WithBearerToken sets the Authorization header to a bearer token
func WithBearerToken(token string) RequestOption {
	return WithHeader("Authorization", "Bearer "+token)
}

// DefaultClient implements Client on top of net/http
type DefaultClient struct {
	client *http.Client
}

// NewDefaultClient creates a client with the given overall request timeout.
// Outgoing requests carry W3C trace context through the otelhttp transport.
func NewDefaultClient(timeout time.Duration) *DefaultClient {
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &DefaultClient{
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Get implements Client.Get
func (c *DefaultClient) Get(ctx context.Context, url string, opts ...RequestOption) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, opts)
}

// PostJSON implements Client.PostJSON
func (c *DefaultClient) PostJSON(ctx context.Context, url string, body any, opts ...RequestOption) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, opts)
}

func (c *DefaultClient) do(req *http.Request, opts []RequestOption) ([]byte, error) {
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")
	for _, opt := range opts {
		opt(req)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.ContentLength > MaxResponseSize {
		return nil, fmt.Errorf("response size %d exceeds maximum allowed size of %d bytes",
			resp.ContentLength, MaxResponseSize)
	}

	// Read one byte past the limit to detect oversized bodies without a Content-Length
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(body) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeds maximum allowed size of %d bytes", MaxResponseSize)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, NewHTTPError(resp.StatusCode, req.URL.String(), http.StatusText(resp.StatusCode))
	}

	return body, nil
}
