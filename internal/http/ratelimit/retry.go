package ratelimit

import (
	"math"
	"math/rand"
	"strconv"
	"time"
)

// IsRetryableStatus reports whether an HTTP status is worth retrying.
// Retryable: 429 and 5xx.
func IsRetryableStatus(status int) bool {
	return status == 429 || (status >= 500 && status < 600)
}

// Backoff computes the exponential backoff delay for a given attempt,
// capped at MaxBackoffMs, with up to 25% jitter.
func Backoff(attempt int, config Config) time.Duration {
	delay := float64(config.InitialBackoffMs) * math.Pow(2, float64(attempt))
	delay = math.Min(delay, float64(config.MaxBackoffMs))
	delay += rand.Float64() * 0.25 * delay
	return time.Duration(delay) * time.Millisecond
}

// RateLimitBackoff computes the delay after an HTTP 429. A server-provided
// Retry-After wins; otherwise a steeper exponential curve than Backoff is
// used.
func RateLimitBackoff(attempt int, config Config, retryAfter string) time.Duration {
	if retryAfter != "" {
		if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
			return time.Duration(seconds)*time.Second + time.Duration(rand.Intn(1000))*time.Millisecond
		}
	}
	delay := float64(config.InitialBackoffMs) * math.Pow(3, float64(attempt))
	delay = math.Min(delay, float64(config.MaxBackoffMs))
	delay += rand.Float64() * 0.25 * delay
	return time.Duration(delay) * time.Millisecond
}
