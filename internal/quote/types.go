// Package quote turns a room set and a stay window into per-room price
// quotes by fetching daily policy windows and running the stay evaluator.
package quote

import (
	"context"
	"time"

	"github.com/stayhub/availability-service/internal/policy"
)

// DateLayout is the wire format for stay dates.
const DateLayout = "2006-01-02"

// Blocking reasons surfaced to the booking front end. The strings are the
// platform's user-facing copy and must match it byte for byte.
const (
	// ReasonNoPolicy means no policy records exist for the stay window.
	ReasonNoPolicy = "해당 기간의 가격 정책이 없습니다."

	// ReasonUnavailable means the window does not cover the requested
	// nights, or a night in it is inactive or sold out.
	ReasonUnavailable = "해당 기간에 예약할 수 없습니다."
)

// Request identifies one quote batch: which rooms, which stay.
type Request struct {
	RoomIDs  []string
	CheckIn  string // YYYY-MM-DD, inclusive
	CheckOut string // YYYY-MM-DD, exclusive
	Mode     policy.DisplayMode
}

// RoomQuote is the consumer-facing verdict for a single room. DisplayPrice
// and Bookable are independent: a price may be shown for a partially
// covered stay that is still unbookable.
type RoomQuote struct {
	DisplayPrice *float64 `json:"displayPrice"`
	Bookable     bool     `json:"isBookable"`
	Reason       string   `json:"reason"`
}

// PolicySource fetches one room's daily policy records over an inclusive
// date range. Implementations must be safe for concurrent use.
type PolicySource interface {
	FetchDailyPolicies(ctx context.Context, roomID, startDate, endDate string) ([]policy.Record, error)
}

// Config holds quoter tuning knobs.
type Config struct {
	// MaxConcurrentFetches bounds the per-room fetch fan-out.
	MaxConcurrentFetches int

	// FetchTimeout caps a single room's policy lookup. The remote
	// collaborator could hang; a stuck room must not stall the batch
	// forever.
	FetchTimeout time.Duration

	// DefaultMode is used when a request does not name a display mode.
	DefaultMode policy.DisplayMode
}

// DefaultConfig returns the default quoter configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrentFetches: 8,
		FetchTimeout:         10 * time.Second,
		DefaultMode:          policy.DisplayMinPerNight,
	}
}
