// Package fetch downloads remote resources with bounded retries.
package fetch

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"gsabyss/internal/logging"
)

// Fetcher is what the cache and data loaders need from the network.
type Fetcher interface {
	Fetch(ctx context.Context, url string, retry RetryConfig) ([]byte, error)
}

// Options configures a Client.
type Options struct {
	Timeout            time.Duration
	Headers            map[string]string
	InsecureSkipVerify bool
	MaxBytes           int64
}

// Client is an HTTP Fetcher.
type Client struct {
	http     *http.Client
	headers  map[string]string
	maxBytes int64
}

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.StatusCode)
}

// NewClient builds a Client.
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}
	return &Client{
		http:     &http.Client{Timeout: opts.Timeout, Transport: transport},
		headers:  opts.Headers,
		maxBytes: opts.MaxBytes,
	}
}

// Get performs one request and returns the body.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	var body io.Reader = resp.Body
	if c.maxBytes > 0 {
		body = io.LimitReader(resp.Body, c.maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if c.maxBytes > 0 && int64(len(data)) > c.maxBytes {
		return nil, fmt.Errorf("GET %s: body exceeds %d bytes", url, c.maxBytes)
	}
	return data, nil
}

// Fetch performs Get with retries.
func (c *Client) Fetch(ctx context.Context, url string, retry RetryConfig) ([]byte, error) {
	logging.FetchDebug("GET %s", url)
	return WithRetry(ctx, retry, url, func(ctx context.Context) ([]byte, error) {
		return c.Get(ctx, url)
	})
}

// FetchDecoded fetches url and decodes it inside the retry loop, so a malformed body
// is retried like a failed request.
func FetchDecoded[T any](ctx context.Context, f Fetcher, url string, retry RetryConfig, decode func([]byte) (T, error)) (T, error) {
	once := RetryConfig{Attempts: 1}
	return WithRetry(ctx, retry, url, func(ctx context.Context) (T, error) {
		data, err := f.Fetch(ctx, url, once)
		if err != nil {
			var zero T
			return zero, err
		}
		return decode(data)
	})
}
