// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package interceptor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeremyhahn/go-certpin/pkg/pinning"
)

const (
	// DefaultConnectTimeout is the default timeout for a pinned request.
	DefaultConnectTimeout = 10 * time.Second

	// DefaultTLSHandshakeTimeout bounds the handshake, including evaluation.
	DefaultTLSHandshakeTimeout = 10 * time.Second

	// MaxResponseSize is the maximum allowed response body size (1 MB).
	MaxResponseSize = 1 << 20

	// maxRedirects matches the net/http default limit.
	maxRedirects = 10
)

// ClientConfig configures the pinned HTTPS client.
type ClientConfig struct {
	// Interceptor performs trust evaluation during each handshake. Required.
	Interceptor *Interceptor

	// ConnectTimeout is the timeout for a whole request. Defaults to
	// DefaultConnectTimeout.
	ConnectTimeout time.Duration

	// RateLimit caps outgoing requests per second across all calls. Zero
	// disables limiting.
	RateLimit float64

	// Burst is the token bucket size used with RateLimit. Defaults to 1.
	Burst int

	// Logger for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// Client fetches resources over HTTPS with the pinning policy chosen per
// call. Each call uses its own transport, so no connection or trust
// decision is shared between calls.
type Client struct {
	interceptor *Interceptor
	timeout     time.Duration
	limiter     *rate.Limiter
	logger      *slog.Logger
}

// NewClient creates a pinned HTTPS client.
func NewClient(cfg *ClientConfig) (*Client, error) {
	if cfg == nil || cfg.Interceptor == nil {
		return nil, fmt.Errorf("%w: interceptor is required", ErrInvalidConfig)
	}

	timeout := cfg.ConnectTimeout
	if timeout == 0 {
		timeout = DefaultConnectTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.RateLimit < 0 || cfg.Burst < 0 {
		return nil, fmt.Errorf("%w: rate limit and burst must not be negative", ErrInvalidConfig)
	}
	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst == 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		interceptor: cfg.Interceptor,
		timeout:     timeout,
		limiter:     limiter,
		logger:      logger.With("component", "pinned_client"),
	}, nil
}

// Fetch performs a GET of url and returns the response body. A rejected
// handshake surfaces as a transport failure wrapped in ErrFetchFailed.
func (c *Client) Fetch(ctx context.Context, url string, policy pinning.Policy) ([]byte, error) {
	if !policy.Valid() {
		return nil, fmt.Errorf("%w: %w: %q", ErrFetchFailed, pinning.ErrUnknownPolicy, policy)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	if req.URL.Scheme != "https" {
		return nil, fmt.Errorf("%w: pinning requires https, got %q", ErrFetchFailed, req.URL.Scheme)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limit: %w", ErrFetchFailed, err)
		}
	}

	// No proxy: a CONNECT tunnel would bypass DialTLSContext.
	transport := &http.Transport{
		DialTLSContext:      c.interceptor.DialTLSContext(policy),
		TLSHandshakeTimeout: DefaultTLSHandshakeTimeout,
		DisableKeepAlives:   true,
	}
	defer transport.CloseIdleConnections()

	httpClient := &http.Client{
		Timeout:       c.timeout,
		Transport:     transport,
		CheckRedirect: checkRedirect,
	}

	c.logger.Debug("fetching", "url", req.URL.String(), "policy", policy)

	resp, err := httpClient.Do(req) // #nosec G107 -- URL is operator-provided
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: server returned %d", ErrFetchFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	if len(body) == 0 {
		return nil, ErrEmptyResponse
	}

	c.logger.Info("fetched", "url", resp.Request.URL.String(), "policy", policy, "size", len(body))
	return body, nil
}

// checkRedirect only follows https redirects, so every hop is dialed through
// the pinning interceptor.
func checkRedirect(req *http.Request, via []*http.Request) error {
	if req.URL.Scheme != "https" {
		return fmt.Errorf("%w: %w: redirect to %q scheme", ErrFetchFailed, ErrInsecureRedirect, req.URL.Scheme)
	}
	if len(via) >= maxRedirects {
		return fmt.Errorf("%w: %w: stopped after %d redirects", ErrFetchFailed, ErrInsecureRedirect, maxRedirects)
	}
	return nil
}
