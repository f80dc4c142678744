// Package provider holds the shared HTTP plumbing of market data clients.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	xhttp "FinBot/pkg/http"
)

// HTTPBase wraps the HTTP client with a base URL and retry on transient errors.
type HTTPBase struct {
	name     string
	baseURL  string
	headers  map[string]string
	client   *xhttp.Client
	attempts int
	backoff  time.Duration
}

// Option configures HTTPBase.
type Option func(*HTTPBase)

// WithHeader sets a header on every request.
func WithHeader(key, value string) Option {
	return func(b *HTTPBase) { b.headers[key] = value }
}

// WithRetry sets attempts and the linear backoff step.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(b *HTTPBase) {
		if attempts > 0 {
			b.attempts = attempts
		}
		b.backoff = backoff
	}
}

// WithClient swaps the HTTP client.
func WithClient(c *xhttp.Client) Option {
	return func(b *HTTPBase) { b.client = c }
}

// NewHTTPBase builds a client for baseURL with a request timeout.
func NewHTTPBase(name, baseURL string, timeout time.Duration, opts ...Option) *HTTPBase {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	b := &HTTPBase{
		name:     name,
		baseURL:  baseURL,
		headers:  map[string]string{},
		client:   xhttp.NewClient(xhttp.WithTimeout(timeout)),
		attempts: 3,
		backoff:  200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *HTTPBase) Name() string { return b.name }

func (b *HTTPBase) BaseURL() string { return b.baseURL }

// Get issues a single GET against baseURL+path and decodes into dest.
func (b *HTTPBase) Get(ctx context.Context, path string, query map[string][]string, dest interface{}) error {
	if b.client == nil || b.baseURL == "" {
		return fmt.Errorf("%s http client not initialized", b.name)
	}
	err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         b.baseURL + path,
		Headers:     b.headers,
		QueryParams: query,
	}, dest)
	if err != nil {
		return fmt.Errorf("%s get %s: %w", b.name, path, err)
	}
	return nil
}

// GetWithRetry retries Get while the error is transient.
func (b *HTTPBase) GetWithRetry(ctx context.Context, path string, query map[string][]string, dest interface{}) error {
	var err error
	for i := 1; i <= b.attempts; i++ {
		err = b.Get(ctx, path, query, dest)
		if err == nil || !Retryable(err) || i == b.attempts {
			return err
		}
		select {
		case <-time.After(time.Duration(i) * b.backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// Retryable reports whether err is worth another attempt: network failures,
// 429 and 5xx answers.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	return true
}

// IsNotFound reports a 404 from the provider.
func IsNotFound(err error) bool {
	var se *xhttp.StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}
