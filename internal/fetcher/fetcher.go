// Package fetcher retrieves the listing page over HTTP with a bounded
// timeout and a browser-like header policy. It holds no business logic and
// never retries; every failure is returned as a transient FetchError.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/agentstation/utc"

	"github.com/agentstation/periodmap/internal/metrics"
	"github.com/agentstation/periodmap/pkg/constants"
	"github.com/agentstation/periodmap/pkg/errors"
	"github.com/agentstation/periodmap/pkg/logging"
)

// Page is a fetched listing page.
type Page struct {
	// URL is the final URL after redirects; relative links resolve against it.
	URL        *url.URL
	StatusCode int
	Body       []byte
	FetchedAt  utc.Time
}

// Client fetches pages.
type Client struct {
	http     *http.Client
	timeout  time.Duration
	headers  http.Header
	maxBytes int64
	metrics  *metrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. The client is never
// modified; the fetch timeout still bounds every request, and a shorter
// Timeout set on the client also applies.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds each request, body included.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.headers.Set("User-Agent", ua)
		}
	}
}

// WithHeader sets an extra request header.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers.Set(key, value)
	}
}

// WithMaxBytes caps how much of a response body is read.
func WithMaxBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBytes = n
		}
	}
}

// WithMetrics records fetch outcomes and latency.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New creates a Client with the default timeout and header policy.
func New(opts ...Option) *Client {
	c := &Client{
		http:     &http.Client{},
		timeout:  constants.DefaultHTTPTimeout,
		headers:  make(http.Header),
		maxBytes: constants.MaxPageBytes,
	}
	c.headers.Set("User-Agent", constants.DefaultUserAgent)
	c.headers.Set("Accept", constants.DefaultAccept)
	c.headers.Set("Accept-Language", constants.DefaultAcceptLanguage)

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches rawURL. A malformed URL is a validation error; network
// failures, timeouts and non-2xx responses are FetchErrors.
func (c *Client) Get(ctx context.Context, rawURL string) (*Page, error) {
	logger := logging.FromContext(ctx)

	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.NewValidationError("url", rawURL, "must be an absolute http(s) URL")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.WrapResource("create", "request", "GET "+rawURL, err)
	}
	for k, v := range c.headers {
		req.Header[k] = v
	}

	start := time.Now()
	page, err := c.do(req)
	elapsed := time.Since(start)
	c.metrics.ObserveFetch(elapsed, err)

	if err != nil {
		logger.Warn().Err(err).Str("url", rawURL).Dur("elapsed", elapsed).Msg("Listing page fetch failed")
		return nil, err
	}
	logger.Debug().
		Str("url", page.URL.String()).
		Int("status", page.StatusCode).
		Int("bytes", len(page.Body)).
		Dur("elapsed", elapsed).
		Msg("Fetched listing page")
	return page, nil
}

func (c *Client) do(req *http.Request) (*Page, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.NewFetchError(req.URL.String(), 0, "", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.NewFetchError(req.URL.String(), resp.StatusCode, resp.Status, nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, errors.NewFetchError(req.URL.String(), resp.StatusCode, "", err)
	}
	if int64(len(body)) > c.maxBytes {
		return nil, errors.NewFetchError(req.URL.String(), resp.StatusCode,
			fmt.Sprintf("body exceeds %d bytes", c.maxBytes), nil)
	}

	final := req.URL
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL
	}
	return &Page{
		URL:        final,
		StatusCode: resp.StatusCode,
		Body:       body,
		FetchedAt:  utc.Now(),
	}, nil
}
