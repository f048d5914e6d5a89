// Package ratelimit holds throttling and retry policy for outbound HTTP
// calls to the policy backend.
package ratelimit

import "strconv"

// Config holds rate limiting and retry configuration.
type Config struct {
	RequestsPerSecond int `json:"requestsPerSecond" mapstructure:"requests_per_second"`
	Burst             int `json:"burst" mapstructure:"burst"`
	MaxRetries        int `json:"maxRetries" mapstructure:"max_retries"`
	InitialBackoffMs  int `json:"initialBackoffMs" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs      int `json:"maxBackoffMs" mapstructure:"max_backoff_ms"`
}

// DefaultConfig returns the default rate limit configuration.
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 20,
		Burst:             40,
		MaxRetries:        3,
		InitialBackoffMs:  100,
		MaxBackoffMs:      10000,
	}
}

// RetryError is returned when all retry attempts are exhausted, or on a
// non-retryable HTTP status.
type RetryError struct {
	URL        string
	Attempts   int
	LastStatus int
	LastErr    error
}

func (e *RetryError) Error() string {
	msg := "failed to fetch " + e.URL + " after " + strconv.Itoa(e.Attempts) + " attempts"
	if e.LastStatus != 0 {
		msg += " (HTTP " + strconv.Itoa(e.LastStatus) + ")"
	}
	if e.LastErr != nil {
		msg += ": " + e.LastErr.Error()
	}
	return msg
}

func (e *RetryError) Unwrap() error { return e.LastErr }
