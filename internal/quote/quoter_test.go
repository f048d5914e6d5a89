package quote

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stayhub/availability-service/internal/policy"
)

// mockPolicySource is a mock implementation of PolicySource for testing.
type mockPolicySource struct {
	mu      sync.Mutex
	windows map[string][]policy.Record // roomID -> records
	errs    map[string]error           // roomID -> forced error
	calls   []fetchCall
	delay   time.Duration
}

type fetchCall struct {
	roomID    string
	startDate string
	endDate   string
}

func newMockPolicySource() *mockPolicySource {
	return &mockPolicySource{
		windows: make(map[string][]policy.Record),
		errs:    make(map[string]error),
	}
}

func (m *mockPolicySource) FetchDailyPolicies(ctx context.Context, roomID, startDate, endDate string) ([]policy.Record, error) {
	m.mu.Lock()
	m.calls = append(m.calls, fetchCall{roomID, startDate, endDate})
	delay := m.delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.errs[roomID]; ok {
		return nil, err
	}
	return m.windows[roomID], nil
}

func (m *mockPolicySource) setWindow(roomID string, records ...policy.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.windows[roomID] = records
}

func (m *mockPolicySource) setError(roomID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[roomID] = err
}

func (m *mockPolicySource) fetches() []fetchCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]fetchCall, len(m.calls))
	copy(out, m.calls)
	return out
}

func night(date string, price float64, stock int) policy.Record {
	p := price
	return policy.Record{Date: date, Price: &p, Active: true, Stock: stock}
}

// TestQuoteDateWindowShift verifies the policy window end date is the day
// before checkout and the night count matches the stay length.
func TestQuoteDateWindowShift(t *testing.T) {
	mock := newMockPolicySource()
	mock.setWindow("1", night("2025-01-10", 100, 1), night("2025-01-11", 100, 1))
	quoter := NewQuoter(mock, DefaultConfig(), nil)

	result, err := quoter.Quote(context.Background(), Request{
		RoomIDs:  []string{"1"},
		CheckIn:  "2025-01-10",
		CheckOut: "2025-01-12",
	})
	require.NoError(t, err)

	calls := mock.fetches()
	require.Len(t, calls, 1)
	assert.Equal(t, "2025-01-10", calls[0].startDate)
	assert.Equal(t, "2025-01-11", calls[0].endDate)

	// Two records for two nights: bookable.
	assert.True(t, result["1"].Bookable)
}

// TestQuoteNoDates verifies missing dates produce an empty map without any
// remote lookups.
func TestQuoteNoDates(t *testing.T) {
	mock := newMockPolicySource()
	quoter := NewQuoter(mock, DefaultConfig(), nil)

	for _, stay := range [][2]string{{"", ""}, {"2025-01-10", ""}, {"", "2025-01-12"}, {"bad", "2025-01-12"}} {
		result, err := quoter.Quote(context.Background(), Request{
			RoomIDs:  []string{"1"},
			CheckIn:  stay[0],
			CheckOut: stay[1],
		})
		require.NoError(t, err)
		assert.Empty(t, result)
	}
	assert.Empty(t, mock.fetches())
}

// TestQuoteIsolatedRoomFailure verifies that one room's failed lookup does
// not affect its siblings: the failed room gets the no-policy verdict, the
// healthy one a bookable quote.
func TestQuoteIsolatedRoomFailure(t *testing.T) {
	mock := newMockPolicySource()
	mock.setError("a", errors.New("backend down"))
	mock.setWindow("b", night("2025-01-10", 50000, 2), night("2025-01-11", 40000, 2))
	quoter := NewQuoter(mock, DefaultConfig(), nil)

	result, err := quoter.Quote(context.Background(), Request{
		RoomIDs:  []string{"a", "b"},
		CheckIn:  "2025-01-10",
		CheckOut: "2025-01-12",
	})
	require.NoError(t, err)
	require.Len(t, result, 2)

	assert.False(t, result["a"].Bookable)
	assert.Equal(t, ReasonNoPolicy, result["a"].Reason)
	assert.Nil(t, result["a"].DisplayPrice)

	assert.True(t, result["b"].Bookable)
	assert.Equal(t, "", result["b"].Reason)
	require.NotNil(t, result["b"].DisplayPrice)
	assert.Equal(t, 40000.0, *result["b"].DisplayPrice)
}

// TestQuoteEndToEnd mirrors the canonical two-night scenario: a fully
// stocked window of [100000, 90000] yields a bookable min-price quote.
func TestQuoteEndToEnd(t *testing.T) {
	mock := newMockPolicySource()
	mock.setWindow("7", night("2025-03-01", 100000, 3), night("2025-03-02", 90000, 3))
	quoter := NewQuoter(mock, DefaultConfig(), nil)

	result, err := quoter.Quote(context.Background(), Request{
		RoomIDs:  []string{"7"},
		CheckIn:  "2025-03-01",
		CheckOut: "2025-03-03",
	})
	require.NoError(t, err)

	q := result["7"]
	assert.True(t, q.Bookable)
	assert.Equal(t, "", q.Reason)
	require.NotNil(t, q.DisplayPrice)
	assert.Equal(t, 90000.0, *q.DisplayPrice)
}

// TestQuoteEmptyWindow verifies the no-policy verdict for rooms whose
// lookup returns no records.
func TestQuoteEmptyWindow(t *testing.T) {
	mock := newMockPolicySource()
	quoter := NewQuoter(mock, DefaultConfig(), nil)

	result, err := quoter.Quote(context.Background(), Request{
		RoomIDs:  []string{"9"},
		CheckIn:  "2025-03-01",
		CheckOut: "2025-03-02",
	})
	require.NoError(t, err)

	q := result["9"]
	assert.False(t, q.Bookable)
	assert.Equal(t, ReasonNoPolicy, q.Reason)
	assert.Nil(t, q.DisplayPrice)
}

// TestQuoteNightMismatchKeepsPrice verifies that a partially covered stay
// is unbookable with the unavailability reason while still reporting a
// display price.
func TestQuoteNightMismatchKeepsPrice(t *testing.T) {
	mock := newMockPolicySource()
	mock.setWindow("3", night("2025-03-01", 70000, 2)) // one record for a two-night stay
	quoter := NewQuoter(mock, DefaultConfig(), nil)

	result, err := quoter.Quote(context.Background(), Request{
		RoomIDs:  []string{"3"},
		CheckIn:  "2025-03-01",
		CheckOut: "2025-03-03",
	})
	require.NoError(t, err)

	q := result["3"]
	assert.False(t, q.Bookable)
	assert.Equal(t, ReasonUnavailable, q.Reason)
	require.NotNil(t, q.DisplayPrice)
	assert.Equal(t, 70000.0, *q.DisplayPrice)
}

// TestQuoteSoldOutNight verifies a sold-out night inside a fully priced
// window blocks booking.
func TestQuoteSoldOutNight(t *testing.T) {
	mock := newMockPolicySource()
	mock.setWindow("4", night("2025-03-01", 80000, 2), night("2025-03-02", 80000, 0))
	quoter := NewQuoter(mock, DefaultConfig(), nil)

	result, err := quoter.Quote(context.Background(), Request{
		RoomIDs:  []string{"4"},
		CheckIn:  "2025-03-01",
		CheckOut: "2025-03-03",
	})
	require.NoError(t, err)

	q := result["4"]
	assert.False(t, q.Bookable)
	assert.Equal(t, ReasonUnavailable, q.Reason)
}

// TestQuoteDuplicateRoomIDs verifies duplicate ids are fetched once.
func TestQuoteDuplicateRoomIDs(t *testing.T) {
	mock := newMockPolicySource()
	mock.setWindow("5", night("2025-03-01", 60000, 1))
	quoter := NewQuoter(mock, DefaultConfig(), nil)

	result, err := quoter.Quote(context.Background(), Request{
		RoomIDs:  []string{"5", "5", "5"},
		CheckIn:  "2025-03-01",
		CheckOut: "2025-03-02",
	})
	require.NoError(t, err)

	assert.Len(t, result, 1)
	assert.Len(t, mock.fetches(), 1)
}

// TestQuoteDisplayModeSelection verifies the requested display mode flows
// through to the published price.
func TestQuoteDisplayModeSelection(t *testing.T) {
	mock := newMockPolicySource()
	mock.setWindow("6", night("2025-03-01", 100, 1), night("2025-03-02", 80, 1))
	quoter := NewQuoter(mock, DefaultConfig(), nil)

	result, err := quoter.Quote(context.Background(), Request{
		RoomIDs:  []string{"6"},
		CheckIn:  "2025-03-01",
		CheckOut: "2025-03-03",
		Mode:     policy.DisplayTotal,
	})
	require.NoError(t, err)

	require.NotNil(t, result["6"].DisplayPrice)
	assert.Equal(t, 180.0, *result["6"].DisplayPrice)
}
