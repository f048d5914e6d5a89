package quote

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Snapshot is the published state of a session: the quote map for the
// current query key, and whether a batch is still in flight.
type Snapshot struct {
	Quotes  map[string]RoomQuote
	Loading bool
}

// Session is a stateful coordinator for push-style consumers that update
// their stay parameters over time. It keys batches by the sorted room-id
// set plus the stay dates, refetches only when the key changes, and
// guarantees a superseded in-flight batch never overwrites the snapshot
// belonging to a newer key.
type Session struct {
	quoter *Quoter
	logger zerolog.Logger

	mu     sync.Mutex
	key    string
	gen    uint64
	cancel context.CancelFunc
	wg     sync.WaitGroup

	snapshot atomic.Value // Snapshot
}

// NewSession creates a session over the given quoter.
func NewSession(quoter *Quoter) *Session {
	s := &Session{
		quoter: quoter,
		logger: log.With().Str("component", "quote_session").Logger(),
	}
	s.snapshot.Store(Snapshot{Quotes: map[string]RoomQuote{}})
	return s
}

// Update sets the session's query parameters. A batch is launched only
// when the query key actually changes; reordering the room list without
// changing membership is a no-op. Missing dates settle immediately to an
// empty map.
func (s *Session) Update(ctx context.Context, req Request) {
	key := queryKey(req)

	s.mu.Lock()
	defer s.mu.Unlock()

	if key == s.key {
		return
	}
	s.key = key
	s.gen++
	gen := s.gen

	// Supersede the outstanding batch, if any. Its results are discarded
	// by the generation check below even if it has already passed the
	// point of cancellation.
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	if req.CheckIn == "" || req.CheckOut == "" {
		s.snapshot.Store(Snapshot{Quotes: map[string]RoomQuote{}})
		return
	}

	batchCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.snapshot.Store(Snapshot{Quotes: map[string]RoomQuote{}, Loading: true})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()

		quotes, err := s.quoter.Quote(batchCtx, req)
		if err != nil {
			s.logger.Debug().Err(err).Msg("Quote batch aborted")
			quotes = map[string]RoomQuote{}
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.gen != gen {
			// A newer key started while this batch was in flight.
			return
		}
		s.snapshot.Store(Snapshot{Quotes: quotes, Loading: false})
	}()
}

// Snapshot returns the current published state.
func (s *Session) Snapshot() Snapshot {
	return s.snapshot.Load().(Snapshot)
}

// Wait blocks until no batch is in flight. Intended for tests and
// shutdown.
func (s *Session) Wait() {
	s.wg.Wait()
}

// queryKey builds the stability key: sorted unique room ids plus both
// dates. Membership, not order, decides whether a refetch happens.
func queryKey(req Request) string {
	ids := dedupe(req.RoomIDs)
	sort.Strings(ids)
	return strings.Join(ids, ",") + "|" + req.CheckIn + "|" + req.CheckOut + "|" + string(req.Mode)
}
