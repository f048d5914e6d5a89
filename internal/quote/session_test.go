package quote

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitSettled(t *testing.T, s *Session) Snapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		snap := s.Snapshot()
		if !snap.Loading {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("session did not settle")
	return Snapshot{}
}

// TestSessionSettles verifies a session publishes the batch result for its
// current key.
func TestSessionSettles(t *testing.T) {
	mock := newMockPolicySource()
	mock.setWindow("1", night("2025-01-10", 100, 1), night("2025-01-11", 100, 1))
	session := NewSession(NewQuoter(mock, DefaultConfig(), nil))

	session.Update(context.Background(), Request{
		RoomIDs:  []string{"1"},
		CheckIn:  "2025-01-10",
		CheckOut: "2025-01-12",
	})

	snap := waitSettled(t, session)
	session.Wait()
	require.Contains(t, snap.Quotes, "1")
	assert.True(t, snap.Quotes["1"].Bookable)
}

// TestSessionEmptyDates verifies missing dates settle immediately to an
// empty map with no fetches.
func TestSessionEmptyDates(t *testing.T) {
	mock := newMockPolicySource()
	session := NewSession(NewQuoter(mock, DefaultConfig(), nil))

	session.Update(context.Background(), Request{RoomIDs: []string{"1"}})

	snap := session.Snapshot()
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.Quotes)
	assert.Empty(t, mock.fetches())
}

// TestSessionReorderDoesNotRefetch verifies that reordering the room list
// without changing membership keeps the same query key.
func TestSessionReorderDoesNotRefetch(t *testing.T) {
	mock := newMockPolicySource()
	mock.setWindow("a", night("2025-01-10", 100, 1))
	mock.setWindow("b", night("2025-01-10", 100, 1))
	session := NewSession(NewQuoter(mock, DefaultConfig(), nil))

	req := Request{RoomIDs: []string{"a", "b"}, CheckIn: "2025-01-10", CheckOut: "2025-01-11"}
	session.Update(context.Background(), req)
	waitSettled(t, session)
	session.Wait()
	fetched := len(mock.fetches())

	req.RoomIDs = []string{"b", "a", "b"}
	session.Update(context.Background(), req)
	session.Wait()

	assert.Equal(t, fetched, len(mock.fetches()))
}

// TestSessionSupersededBatchDiscarded verifies an in-flight batch for an
// older key never overwrites the newer key's snapshot.
func TestSessionSupersededBatchDiscarded(t *testing.T) {
	mock := newMockPolicySource()
	mock.setWindow("1", night("2025-01-10", 100, 1))
	mock.delay = 100 * time.Millisecond
	session := NewSession(NewQuoter(mock, DefaultConfig(), nil))

	// Slow batch for the first key.
	session.Update(context.Background(), Request{
		RoomIDs:  []string{"1"},
		CheckIn:  "2025-01-10",
		CheckOut: "2025-01-11",
	})

	// Newer key with empty dates settles instantly; the slow batch must
	// not resurface once it completes.
	session.Update(context.Background(), Request{RoomIDs: []string{"1"}})

	session.Wait()
	time.Sleep(20 * time.Millisecond)

	snap := session.Snapshot()
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.Quotes)
}
