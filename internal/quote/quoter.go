package quote

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/stayhub/availability-service/internal/policy"
)

// Quoter coordinates per-room policy fetches and evaluation for one stay.
type Quoter struct {
	source  PolicySource
	config  Config
	metrics *MetricsRecorder
	logger  zerolog.Logger
}

// NewQuoter creates a quoter over the given policy source.
func NewQuoter(source PolicySource, config Config, metrics *MetricsRecorder) *Quoter {
	if metrics == nil {
		metrics = NewMetricsRecorder()
	}
	if config.MaxConcurrentFetches <= 0 {
		config.MaxConcurrentFetches = DefaultConfig().MaxConcurrentFetches
	}
	if config.DefaultMode == "" {
		config.DefaultMode = policy.DisplayMinPerNight
	}
	return &Quoter{
		source:  source,
		config:  config,
		metrics: metrics,
		logger:  log.With().Str("component", "quoter").Logger(),
	}
}

// Quote evaluates every room in the request for the stay window and returns
// a quote per room id.
//
// Missing or malformed dates are not an error: the result is an empty map
// and no fetches are issued. Per-room fetch failures are degraded to the
// no-policy verdict for that room only; sibling rooms are unaffected. The
// returned error is reserved for context cancellation.
func (q *Quoter) Quote(ctx context.Context, req Request) (map[string]RoomQuote, error) {
	startTime := time.Now()
	defer func() {
		q.metrics.RecordQuoteDuration(time.Since(startTime))
	}()

	checkIn, checkOut, ok := parseStay(req.CheckIn, req.CheckOut)
	if !ok {
		return map[string]RoomQuote{}, nil
	}

	nights := nightsBetween(checkIn, checkOut)

	// Policy records are keyed by the night being stayed, so the lookup
	// window ends the day before checkout: a 2-night stay starting on D
	// covers [D, D+1], not [D, D+2].
	endDate := checkOut.AddDate(0, 0, -1).Format(DateLayout)
	startDate := checkIn.Format(DateLayout)

	roomIDs := dedupe(req.RoomIDs)
	q.metrics.RecordRoomCount(len(roomIDs))

	mode := req.Mode
	if mode == "" {
		mode = q.config.DefaultMode
	}

	quotes := make([]RoomQuote, len(roomIDs))
	sem := semaphore.NewWeighted(int64(q.config.MaxConcurrentFetches))

	for i, roomID := range roomIDs {
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		go func(idx int, id string) {
			defer sem.Release(1)
			quotes[idx] = q.quoteRoom(ctx, id, startDate, endDate, nights, mode)
		}(i, roomID)
	}

	// Wait for the whole batch to settle before publishing anything.
	if err := sem.Acquire(ctx, int64(q.config.MaxConcurrentFetches)); err != nil {
		return nil, err
	}
	sem.Release(int64(q.config.MaxConcurrentFetches))

	result := make(map[string]RoomQuote, len(roomIDs))
	for i, roomID := range roomIDs {
		result[roomID] = quotes[i]
	}
	return result, nil
}

// quoteRoom fetches and evaluates a single room. It never fails: fetch
// errors and unusable payloads collapse into the no-policy verdict.
func (q *Quoter) quoteRoom(ctx context.Context, roomID, startDate, endDate string, nights int, mode policy.DisplayMode) RoomQuote {
	fetchCtx := ctx
	if q.config.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, q.config.FetchTimeout)
		defer cancel()
	}

	records, err := q.source.FetchDailyPolicies(fetchCtx, roomID, startDate, endDate)
	if err != nil {
		q.metrics.RecordFetchError()
		q.logger.Warn().
			Err(err).
			Str("room_id", roomID).
			Str("start_date", startDate).
			Str("end_date", endDate).
			Msg("Policy lookup failed, treating room as having no policy")
		records = nil
	}

	if len(records) == 0 {
		q.metrics.RecordOutcome(OutcomeNoPolicy)
		return RoomQuote{Bookable: false, Reason: ReasonNoPolicy}
	}

	eval := policy.Evaluate(records, policy.EvalOptions{Mode: mode, NightsRequired: nights})

	// The priced-night count must cover the stay exactly, and every night
	// must be sellable. The display price is still reported for a partial
	// window.
	if eval.Nights != nights || !eval.Bookable {
		q.metrics.RecordOutcome(OutcomeUnavailable)
		return RoomQuote{DisplayPrice: eval.DisplayPrice, Bookable: false, Reason: ReasonUnavailable}
	}

	q.metrics.RecordOutcome(OutcomeBookable)
	return RoomQuote{DisplayPrice: eval.DisplayPrice, Bookable: true, Reason: ""}
}

// parseStay parses both stay dates. Blank or malformed dates mean "no
// query" rather than an error.
func parseStay(checkIn, checkOut string) (time.Time, time.Time, bool) {
	if checkIn == "" || checkOut == "" {
		return time.Time{}, time.Time{}, false
	}
	in, err := time.Parse(DateLayout, checkIn)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	out, err := time.Parse(DateLayout, checkOut)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return in, out, true
}

// nightsBetween returns the stay length in nights, floored at zero.
func nightsBetween(checkIn, checkOut time.Time) int {
	nights := int(math.Round(checkOut.Sub(checkIn).Hours() / 24))
	if nights < 0 {
		return 0
	}
	return nights
}

// dedupe removes duplicate room ids while preserving first-seen order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
