package cowin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the public CoWIN API root.
	DefaultBaseURL = "https://cdn-api.co-vin.in/api/v2"

	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:88.0) Gecko/20100101 Firefox/88.0"
)

// TransportError reports a failed gateway call: a network failure, a
// non-2xx response, or a payload that could not be decoded.
//
// TransportError unwraps to the underlying cause when there is one.
type TransportError struct {
	// Op is the gateway operation, e.g. "calendarByDistrict".
	Op string

	// URL is the requested URL.
	URL string

	// StatusCode is the HTTP status, zero if no response was received.
	StatusCode int

	// Err is the underlying cause.
	Err error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 && e.Err == nil {
		return fmt.Sprintf("cowin %s: unexpected status %d", e.Op, e.StatusCode)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("cowin %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("cowin %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportError reports whether err is or wraps a [TransportError].
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// Gateway queries the CoWIN public API.
//
// Gateway never retries: a failed call returns a [TransportError] and the
// caller decides whether to try again (the monitor simply waits for the next
// tick). All methods are safe for concurrent use.
type Gateway struct {
	baseURL string
	timeout time.Duration
	client  *client
}

// GatewayOption configures a [Gateway].
type GatewayOption func(*gatewayConfig) error

type gatewayConfig struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	headers    map[string]string
}

// WithBaseURL overrides [DefaultBaseURL]. Useful for mirrors and tests.
func WithBaseURL(raw string) GatewayOption {
	return func(cfg *gatewayConfig) error {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid base url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("base url scheme must be http or https, got %q", u.Scheme)
		}
		cfg.baseURL = strings.TrimRight(raw, "/")
		return nil
	}
}

// WithRequestTimeout sets the per-request timeout. Defaults to 10 seconds.
func WithRequestTimeout(d time.Duration) GatewayOption {
	return func(cfg *gatewayConfig) error {
		if d <= 0 {
			return errors.New("request timeout must be positive")
		}
		cfg.timeout = d
		return nil
	}
}

// WithHTTPClient replaces the pooled default HTTP client.
func WithHTTPClient(c *http.Client) GatewayOption {
	return func(cfg *gatewayConfig) error {
		if c == nil {
			return errors.New("http client cannot be nil")
		}
		cfg.httpClient = c
		return nil
	}
}

// WithHeader sets an extra request header sent on every call.
func WithHeader(key, value string) GatewayOption {
	return func(cfg *gatewayConfig) error {
		if key == "" {
			return errors.New("header key cannot be empty")
		}
		cfg.headers[key] = value
		return nil
	}
}

// NewGateway creates a [Gateway] for the public API.
//
// The public API rejects requests without a browser-like User-Agent, so one
// is set by default; override it with [WithHeader].
func NewGateway(opts ...GatewayOption) (*Gateway, error) {
	cfg := &gatewayConfig{
		baseURL: DefaultBaseURL,
		timeout: defaultTimeout,
		headers: map[string]string{
			"Accept":          "application/json",
			"Accept-Language": "en_US",
			"User-Agent":      defaultUserAgent,
		},
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	return &Gateway{
		baseURL: cfg.baseURL,
		timeout: cfg.timeout,
		client:  newClient(cfg.httpClient, cfg.headers),
	}, nil
}

// QueryByDistrict fetches the 7-day calendar of all centers in a district
// starting at date (DD-MM-YYYY).
func (g *Gateway) QueryByDistrict(ctx context.Context, districtID int, date string) (*Calendar, error) {
	q := url.Values{}
	q.Set("district_id", strconv.Itoa(districtID))
	q.Set("date", date)

	var cal Calendar
	if err := g.getJSON(ctx, "calendarByDistrict", "/appointment/sessions/public/calendarByDistrict?"+q.Encode(), &cal); err != nil {
		return nil, err
	}
	return &cal, nil
}

// QueryByPinCode fetches the 7-day calendar of all centers in a pin code
// area starting at date (DD-MM-YYYY).
func (g *Gateway) QueryByPinCode(ctx context.Context, pinCode, date string) (*Calendar, error) {
	q := url.Values{}
	q.Set("pincode", pinCode)
	q.Set("date", date)

	var cal Calendar
	if err := g.getJSON(ctx, "calendarByPin", "/appointment/sessions/public/calendarByPin?"+q.Encode(), &cal); err != nil {
		return nil, err
	}
	return &cal, nil
}

// States lists all states.
func (g *Gateway) States(ctx context.Context) ([]State, error) {
	var resp statesResponse
	if err := g.getJSON(ctx, "states", "/admin/location/states", &resp); err != nil {
		return nil, err
	}
	return resp.States, nil
}

// Districts lists the districts of a state.
func (g *Gateway) Districts(ctx context.Context, stateID int) ([]District, error) {
	var resp districtsResponse
	if err := g.getJSON(ctx, "districts", "/admin/location/districts/"+strconv.Itoa(stateID), &resp); err != nil {
		return nil, err
	}
	return resp.Districts, nil
}

// Close releases idle connections held by the gateway.
func (g *Gateway) Close() {
	g.client.close()
}

func (g *Gateway) getJSON(ctx context.Context, op, path string, out any) error {
	target := g.baseURL + path
	resp := g.client.get(ctx, target, g.timeout)
	if resp.Error != nil {
		return &TransportError{Op: op, URL: target, StatusCode: resp.StatusCode, Err: resp.Error}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &TransportError{Op: op, URL: target, StatusCode: resp.StatusCode}
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return &TransportError{Op: op, URL: target, StatusCode: resp.StatusCode, Err: fmt.Errorf("malformed payload: %w", err)}
	}
	return nil
}
