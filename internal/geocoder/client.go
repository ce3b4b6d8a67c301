// Package geocoder is the transport shared by every vendor adapter: it owns
// the HTTP client, per-call timeouts, request headers, JSON validation and
// the classification of failures into typed errors. Adapters hand it a URL
// and a parser closure and get parsed domain values back.
package geocoder

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// DefaultTimeout is applied to calls that do not set their own timeout.
	DefaultTimeout = 10 * time.Second
	// DefaultScheme is the network scheme used to build vendor URLs.
	DefaultScheme = "https"
	// DefaultUserAgent is sent with every request unless overridden.
	DefaultUserAgent = "meridian/1.0 (+https://github.com/UnknownOlympus/meridian)"

	// MaxResponseBody is the largest response body the client accepts.
	MaxResponseBody = 16 << 20

	maxErrorBody = 512
)

// redactedParams are query parameters holding credentials.
var redactedParams = []string{"key", "subscription-key"}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Observer receives the outcome of every request issued by the client.
type Observer interface {
	ObserveRequest(provider, operation string, duration time.Duration, err error)
}

// Options configures a Client. The zero value is usable.
type Options struct {
	Scheme           string                                   // "https" (default) or "http"
	Timeout          time.Duration                            // Default per-call timeout
	Proxy            string                                   // Proxy URL; empty means the environment's proxy settings
	UserAgent        string                                   // User-Agent header value
	TLSConfig        *tls.Config                              // TLS settings for the default transport
	TransportFactory func(http.RoundTripper) http.RoundTripper // Wraps the default transport
	HTTPClient       HTTPClient                               // Overrides the whole HTTP stack when set
	Observer         Observer                                 // Optional request observer (metrics)
	Logger           *slog.Logger                             // Logger for request logging
}

// Client issues geocoding requests on behalf of the vendor adapters.
type Client struct {
	http      HTTPClient
	scheme    string
	timeout   time.Duration
	userAgent string
	observer  Observer
	log       *slog.Logger
}

// Request describes one HTTP round trip to a vendor API.
type Request struct {
	Provider  string            // Provider name, used for logs and metrics
	Operation string            // Operation name, used for logs and metrics
	Method    string            // Defaults to GET, or POST when Body is set
	URL       string            // Fully built URL including the query string
	Headers   map[string]string // Extra request headers
	Body      any               // JSON-encoded into the request body when non-nil
	Timeout   time.Duration     // Overrides the client timeout when positive
}

// Parser turns a validated JSON response body into domain values.
type Parser[T any] func(body json.RawMessage) (T, error)

// New creates a Client from the given options.
func New(opts Options) (*Client, error) {
	scheme := strings.ToLower(opts.Scheme)
	if scheme == "" {
		scheme = DefaultScheme
	}
	if scheme != "http" && scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q, must be http or https", opts.Scheme)
	}

	client := &Client{
		http:      opts.HTTPClient,
		scheme:    scheme,
		timeout:   opts.Timeout,
		userAgent: opts.UserAgent,
		observer:  opts.Observer,
		log:       opts.Logger,
	}
	if client.timeout <= 0 {
		client.timeout = DefaultTimeout
	}
	if client.userAgent == "" {
		client.userAgent = DefaultUserAgent
	}
	if client.log == nil {
		client.log = slog.Default()
	}
	if client.http == nil {
		httpClient, err := NewHTTPClient(opts)
		if err != nil {
			return nil, err
		}
		client.http = httpClient
	}

	return client, nil
}

// NewHTTPClient builds the standard HTTP client from the proxy, TLS and
// transport settings in opts. Timeouts are enforced per call through the
// request context, so the returned client has none of its own.
func NewHTTPClient(opts Options) (*http.Client, error) {
	tlsConfig := opts.TLSConfig
	if tlsConfig == nil {
		tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsConfig
	if opts.Proxy != "" {
		proxyURL, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("failed to parse proxy URL: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	var roundTripper http.RoundTripper = transport
	if opts.TransportFactory != nil {
		roundTripper = opts.TransportFactory(roundTripper)
	}

	return &http.Client{Transport: roundTripper}, nil
}

// Endpoint joins the client scheme, a vendor domain and an API path.
func (c *Client) Endpoint(domain, path string) string {
	return fmt.Sprintf("%s://%s%s", c.scheme, strings.Trim(domain, "/"), path)
}

// Call performs req and hands the JSON body to parse.
func Call[T any](ctx context.Context, c *Client, req Request, parse Parser[T]) (T, error) {
	var zero T

	startTime := time.Now()
	body, err := c.fetch(ctx, req)
	if err != nil {
		c.observe(req, time.Since(startTime), err)
		return zero, err
	}

	result, err := parse(body)
	c.observe(req, time.Since(startTime), err)
	if err != nil {
		return zero, err
	}

	return result, nil
}

func (c *Client) fetch(ctx context.Context, req Request) (json.RawMessage, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	method := req.Method
	var reader io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
		if method == "" {
			method = http.MethodPost
		}
	}
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	c.log.DebugContext(ctx, "Geocoder request",
		"provider", req.Provider,
		"operation", req.Operation,
		"method", method,
		"url", redactURL(req.URL))

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, ClassifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBody+1))
	if err != nil {
		return nil, ClassifyTransportError(fmt.Errorf("failed to read response body: %w", err))
	}
	if len(body) > MaxResponseBody {
		return nil, &Error{
			Kind:       ErrParse,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("response body exceeds %d bytes", MaxResponseBody),
		}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.log.ErrorContext(ctx, "Geocoder API error",
			"provider", req.Provider,
			"status", resp.StatusCode,
			"body", truncate(string(body)))
		return nil, statusError(resp, body)
	}

	if !json.Valid(body) {
		return nil, &Error{
			Kind:       ErrParse,
			StatusCode: resp.StatusCode,
			Message:    "response body is not valid JSON",
		}
	}

	return body, nil
}

func (c *Client) observe(req Request, duration time.Duration, err error) {
	if c.observer != nil {
		c.observer.ObserveRequest(req.Provider, req.Operation, duration, err)
	}
}

// ClassifyTransportError maps a failed round trip onto an error kind.
// Deadlines become ErrTimedOut and other network failures ErrUnavailable.
// Cancellation by the caller is returned wrapped but unclassified.
func ClassifyTransportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("geocoding request canceled: %w", err)
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return NewError(ErrTimedOut, "service timed out", err)
	}

	return NewError(ErrUnavailable, "service not available", err)
}

func statusError(resp *http.Response, body []byte) *Error {
	geoErr := &Error{
		Kind:       kindForStatus(resp.StatusCode),
		StatusCode: resp.StatusCode,
		Message:    truncate(strings.TrimSpace(string(body))),
	}
	if geoErr.Kind == ErrRateLimited {
		if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			geoErr.RetryAfter = time.Duration(seconds) * time.Second
		}
	}

	return geoErr
}

func truncate(s string) string {
	if len(s) <= maxErrorBody {
		return s
	}

	cut := maxErrorBody
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}

func redactURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	query := parsed.Query()
	for _, param := range redactedParams {
		if query.Has(param) {
			query.Set(param, "REDACTED")
		}
	}
	parsed.RawQuery = query.Encode()

	return parsed.String()
}
