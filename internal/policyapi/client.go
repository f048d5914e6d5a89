// Package policyapi is the client for the external daily-policy backend,
// the single remote collaborator of the quote pipeline.
package policyapi

import (
	"context"
	"fmt"
	nethttp "net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/stayhub/availability-service/internal/cache"
	"github.com/stayhub/availability-service/internal/http"
	"github.com/stayhub/availability-service/internal/http/ratelimit"
	"github.com/stayhub/availability-service/internal/policy"
	"github.com/stayhub/availability-service/internal/quote"
)

// Config holds the policy backend connection settings.
type Config struct {
	BaseURL   string
	APIKey    string
	RateLimit ratelimit.Config
	Breaker   CircuitBreakerConfig
}

// Client fetches daily policy windows over HTTP. It implements
// quote.PolicySource.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	breaker *CircuitBreaker
	cache   *cache.PolicyCache
	metrics *quote.MetricsRecorder
	logger  zerolog.Logger
}

var _ quote.PolicySource = (*Client)(nil)

// New creates a policy backend client. policyCache may be nil to run
// uncached.
func New(cfg Config, policyCache *cache.PolicyCache, metrics *quote.MetricsRecorder) *Client {
	if metrics == nil {
		metrics = quote.NewMetricsRecorder()
	}
	logger := log.With().Str("component", "policy_client").Logger()
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    http.NewClient(cfg.RateLimit),
		breaker: NewCircuitBreaker(cfg.Breaker, logger),
		cache:   policyCache,
		metrics: metrics,
		logger:  logger,
	}
}

// FetchDailyPolicies returns the normalized policy window for one room
// over an inclusive date range. The cache is consulted first; fresh
// fetches are written back. Backend failures count against the circuit
// breaker and surface as errors for the quoter to downgrade per room.
func (c *Client) FetchDailyPolicies(ctx context.Context, roomID, startDate, endDate string) ([]policy.Record, error) {
	if records, ok := c.cache.Get(ctx, roomID, startDate, endDate); ok {
		c.metrics.RecordCacheHit()
		return records, nil
	}
	c.metrics.RecordCacheMiss()

	if !c.breaker.Allow() {
		return nil, ErrCircuitOpen
	}

	body, err := c.http.GetBytes(ctx, c.lookupURL(roomID, startDate, endDate), c.header())
	if err != nil {
		c.breaker.RecordFailure()
		return nil, fmt.Errorf("policy lookup for room %s: %w", roomID, err)
	}

	records, err := policy.NormalizePayload(body)
	if err != nil {
		// The backend answered but with an unusable shape. That is a
		// data problem, not an availability problem; don't trip the
		// breaker for it.
		c.breaker.RecordSuccess()
		return nil, fmt.Errorf("policy payload for room %s: %w", roomID, err)
	}

	c.breaker.RecordSuccess()
	c.cache.Set(ctx, roomID, startDate, endDate, records)
	return records, nil
}

// Healthy reports whether the backend circuit is accepting calls.
func (c *Client) Healthy() bool {
	return c.breaker.State() != CircuitOpen
}

func (c *Client) lookupURL(roomID, startDate, endDate string) string {
	q := url.Values{}
	q.Set("startDate", startDate)
	q.Set("endDate", endDate)
	return fmt.Sprintf("%s/rooms/%s/daily-policies?%s", c.baseURL, url.PathEscape(roomID), q.Encode())
}

func (c *Client) header() nethttp.Header {
	h := nethttp.Header{}
	if c.apiKey != "" {
		h.Set("X-Internal-API-Key", c.apiKey)
	}
	return h
}
