package cowin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxResponseBodySize = 1 << 20 // 1MB

// connection pooling limits; every request of a session hits the same host
const (
	defaultMaxIdleConns        = 20
	defaultMaxIdleConnsPerHost = 10
	defaultMaxConnsPerHost     = 10
	defaultIdleConnTimeout     = 60 * time.Second
)

// response holds the raw outcome of a single HTTP request.
type response struct {
	Body       []byte
	StatusCode int
	Latency    time.Duration
	Error      error
}

// client is an HTTP client wrapper with per-request timeouts and a capped
// response body.
type client struct {
	httpClient *http.Client
	headers    map[string]string
}

func newClient(httpClient *http.Client, headers map[string]string) *client {
	if httpClient == nil {
		httpClient = &http.Client{
			// no default timeout - we use per-request timeouts via context
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				MaxConnsPerHost:     defaultMaxConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		}
	}
	return &client{httpClient: httpClient, headers: headers}
}

// get performs a GET request and always returns a response; failures are
// captured in the Error field.
func (c *client) get(ctx context.Context, url string, timeout time.Duration) response {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("failed to create request: %w", err),
		}
	}

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("request failed: %w", err),
		}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return response{
			StatusCode: resp.StatusCode,
			Latency:    time.Since(start),
			Error:      fmt.Errorf("failed to read response body: %w", err),
		}
	}

	return response{
		Body:       body,
		StatusCode: resp.StatusCode,
		Latency:    time.Since(start),
	}
}

// close releases idle pooled connections. Safe to call multiple times.
func (c *client) close() {
	if c == nil || c.httpClient == nil {
		return
	}
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}
