package quote

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels a room's quote verdict for metrics.
type Outcome string

const (
	OutcomeBookable    Outcome = "bookable"
	OutcomeNoPolicy    Outcome = "no_policy"
	OutcomeUnavailable Outcome = "unavailable"
)

var (
	// quoteDuration tracks the wall time of a full quote batch.
	quoteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "quote_batch_duration_seconds",
		Help:    "Time taken to quote a full room batch",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	// roomCount tracks the distribution of rooms per quote request.
	roomCount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "quote_rooms_count",
		Help:    "Number of rooms in quote requests",
		Buckets: []float64{1, 2, 5, 10, 20, 50},
	})

	// fetchErrors tracks failed policy lookups.
	fetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quote_policy_fetch_errors_total",
		Help: "Total number of failed daily policy lookups",
	})

	// outcomes tracks per-room verdict counts by outcome.
	outcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quote_room_outcomes_total",
		Help: "Total number of room quote verdicts by outcome",
	}, []string{"outcome"})

	// cacheHits tracks policy window cache hits.
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quote_policy_cache_hits_total",
		Help: "Total number of policy window cache hits",
	})

	// cacheMisses tracks policy window cache misses.
	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quote_policy_cache_misses_total",
		Help: "Total number of policy window cache misses",
	})
)

// MetricsRecorder wraps the Prometheus collectors behind methods so the
// quoter and its collaborators never touch collectors directly.
type MetricsRecorder struct{}

// NewMetricsRecorder creates a metrics recorder.
func NewMetricsRecorder() *MetricsRecorder {
	return &MetricsRecorder{}
}

// RecordQuoteDuration records the wall time of a quote batch.
func (m *MetricsRecorder) RecordQuoteDuration(d time.Duration) {
	quoteDuration.Observe(d.Seconds())
}

// RecordRoomCount records the number of rooms in a request.
func (m *MetricsRecorder) RecordRoomCount(n int) {
	roomCount.Observe(float64(n))
}

// RecordFetchError records a failed policy lookup.
func (m *MetricsRecorder) RecordFetchError() {
	fetchErrors.Inc()
}

// RecordOutcome records a per-room verdict.
func (m *MetricsRecorder) RecordOutcome(o Outcome) {
	outcomes.WithLabelValues(string(o)).Inc()
}

// RecordCacheHit records a policy window cache hit.
func (m *MetricsRecorder) RecordCacheHit() {
	cacheHits.Inc()
}

// RecordCacheMiss records a policy window cache miss.
func (m *MetricsRecorder) RecordCacheMiss() {
	cacheMisses.Inc()
}
