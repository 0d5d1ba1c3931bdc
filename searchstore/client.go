// Package searchstore is a hand-built bulk HTTP client for the engine's
// search store (an Elasticsearch/OpenSearch-compatible bulk index API). No
// repository in the example corpus imports a client library for this kind
// of store, so this package is built directly on net/http, following the
// request/response structure of the teacher's own http/client.go, applied
// to bulk NDJSON bodies. Each request is sent once; the client does not
// retry (the sync driver retries bulk chunks).
package searchstore

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Config describes how to reach the search store.
type Config struct {
	URLs       []string
	Timeout    time.Duration
	RetryCount int
}

// DefaultConfig returns sensible defaults for local development.
func DefaultConfig() Config {
	return Config{
		URLs:       []string{"http://localhost:9200"},
		Timeout:    30 * time.Second,
		RetryCount: 3,
	}
}

// Client issues bulk index/delete requests and index-settings changes
// against the search store.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retryCount int
}

// NewClient builds a Client bound to the first URL in config.URLs.
func NewClient(config Config) (*Client, error) {
	if len(config.URLs) == 0 {
		return nil, fmt.Errorf("searchstore: at least one URL is required")
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    config.URLs[0],
		httpClient: &http.Client{Timeout: timeout},
		retryCount: config.RetryCount,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, contentType string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, newBodyReader(body))
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return c.httpClient.Do(req)
}

// isTimeoutErr reports whether err originated from a connection or request
// deadline being exceeded, as distinct from a transport error carrying an
// application-level HTTP status. The sync driver uses this distinction to
// decide what is worth retrying.
func isTimeoutErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}
