// Package cache provides a Redis-backed cache of normalized policy
// windows. The policy backend is the source of truth; this only shaves
// repeat lookups for hot stay windows.
package cache

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/stayhub/availability-service/internal/policy"
)

// PolicyCache caches one room's normalized policy records per stay window.
// A nil *PolicyCache or one built over a nil client is a no-op: every Get
// misses and every Set is dropped.
type PolicyCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	logger zerolog.Logger
}

// New creates a policy cache over the given Redis client. client may be
// nil to disable caching.
func New(client *redis.Client, ttl time.Duration) *PolicyCache {
	return &PolicyCache{
		client: client,
		ttl:    ttl,
		prefix: "policywin",
		logger: log.With().Str("component", "policy_cache").Logger(),
	}
}

// Enabled reports whether the cache has a backing client.
func (c *PolicyCache) Enabled() bool {
	return c != nil && c.client != nil
}

// Get returns the cached window for a room and date range, or false on a
// miss. Redis errors are treated as misses.
func (c *PolicyCache) Get(ctx context.Context, roomID, startDate, endDate string) ([]policy.Record, bool) {
	if !c.Enabled() {
		return nil, false
	}
	raw, err := c.client.Get(ctx, c.key(roomID, startDate, endDate)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn().Err(err).Str("room_id", roomID).Msg("Cache read failed")
		}
		return nil, false
	}
	var records []policy.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		c.logger.Warn().Err(err).Str("room_id", roomID).Msg("Dropping undecodable cache entry")
		return nil, false
	}
	return records, true
}

// Set stores a room's window. Failures are logged and swallowed; the
// cache never fails a quote.
func (c *PolicyCache) Set(ctx context.Context, roomID, startDate, endDate string, records []policy.Record) {
	if !c.Enabled() {
		return
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(roomID, startDate, endDate), raw, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("room_id", roomID).Msg("Cache write failed")
	}
}

func (c *PolicyCache) key(roomID, startDate, endDate string) string {
	return strings.Join([]string{c.prefix, roomID, startDate, endDate}, ":")
}

// NewRedisClient instantiates a Redis client from environment variables:
// REDIS_ADDR (or REDIS_HOST/REDIS_PORT), REDIS_PASSWORD, REDIS_DB and
// REDIS_TLS. It returns nil when the server is unreachable so callers can
// degrade gracefully by running uncached.
func NewRedisClient() *redis.Client {
	host := os.Getenv("REDIS_HOST")
	port := os.Getenv("REDIS_PORT")
	addr := os.Getenv("REDIS_ADDR")
	if host != "" && port != "" {
		addr = fmt.Sprintf("%s:%s", host, port)
	}
	if addr == "" {
		return nil
	}

	db := 0
	if s := os.Getenv("REDIS_DB"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			db = n
		}
	}
	var tlsConf *tls.Config
	if v := os.Getenv("REDIS_TLS"); strings.EqualFold(v, "true") || v == "1" {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client := redis.NewClient(&redis.Options{
		Addr:      addr,
		Password:  os.Getenv("REDIS_PASSWORD"),
		DB:        db,
		TLSConfig: tlsConf,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", addr).Msg("Redis unreachable, caching disabled")
		return nil
	}
	return client
}
