// Package http provides the resilient outbound HTTP client used to reach
// the policy backend.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/stayhub/availability-service/internal/http/ratelimit"
)

// Client is an HTTP client with rate limiting and retry logic.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	config     ratelimit.Config
	userAgent  string
}

// NewClient creates a new HTTP client with the given rate limit config.
func NewClient(config ratelimit.Config) *Client {
	if config.RequestsPerSecond <= 0 {
		config = ratelimit.DefaultConfig()
	}
	burst := config.Burst
	if burst <= 0 {
		burst = config.RequestsPerSecond
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst),
		config:     config,
		userAgent:  "StayHub-AvailabilityService/1.0",
	}
}

// NewClientDefault creates a new HTTP client with default rate limiting.
func NewClientDefault() *Client {
	return NewClient(ratelimit.DefaultConfig())
}

// Get performs a GET request with rate limiting and retry logic.
func (c *Client) Get(ctx context.Context, url string, header http.Header) (*http.Response, error) {
	return c.Do(ctx, http.MethodGet, url, header, nil)
}

// Do performs an HTTP request with rate limiting and retry logic. Requests
// with 2xx responses are returned as-is; retryable failures (network
// errors, 429, 5xx) are retried with backoff up to MaxRetries; everything
// else fails immediately with a RetryError.
func (c *Client) Do(ctx context.Context, method, url string, header http.Header, body io.Reader) (*http.Response, error) {
	var lastStatus int
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, body)
		if err != nil {
			return nil, fmt.Errorf("building request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if attempt < c.config.MaxRetries {
				if err := sleep(ctx, ratelimit.Backoff(attempt, c.config)); err != nil {
					return nil, err
				}
				continue
			}
			break
		}

		lastStatus = resp.StatusCode

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		resp.Body.Close()

		if !ratelimit.IsRetryableStatus(resp.StatusCode) || attempt == c.config.MaxRetries {
			break
		}

		var backoff time.Duration
		if resp.StatusCode == http.StatusTooManyRequests {
			backoff = ratelimit.RateLimitBackoff(attempt, c.config, resp.Header.Get("Retry-After"))
		} else {
			backoff = ratelimit.Backoff(attempt, c.config)
		}
		if err := sleep(ctx, backoff); err != nil {
			return nil, err
		}
	}

	return nil, &ratelimit.RetryError{
		URL:        url,
		Attempts:   c.config.MaxRetries + 1,
		LastStatus: lastStatus,
		LastErr:    lastErr,
	}
}

// GetBytes performs a GET request and returns the response body.
func (c *Client) GetBytes(ctx context.Context, url string, header http.Header) ([]byte, error) {
	resp, err := c.Get(ctx, url, header)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return data, nil
}

// Config returns the current rate limit config.
func (c *Client) Config() ratelimit.Config {
	return c.config
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
