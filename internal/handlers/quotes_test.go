package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stayhub/availability-service/internal/policy"
	"github.com/stayhub/availability-service/internal/quote"
)

// stubPolicySource serves fixed windows per room id.
type stubPolicySource struct {
	windows map[string][]policy.Record
	errs    map[string]error
}

func (s *stubPolicySource) FetchDailyPolicies(ctx context.Context, roomID, startDate, endDate string) ([]policy.Record, error) {
	if err, ok := s.errs[roomID]; ok {
		return nil, err
	}
	return s.windows[roomID], nil
}

func (s *stubPolicySource) Healthy() bool { return true }

func priced(date string, price float64, stock int) policy.Record {
	p := price
	return policy.Record{Date: date, Price: &p, Active: true, Stock: stock}
}

func setupRouter(t *testing.T, source *stubPolicySource) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	InitQuoteService(quote.NewQuoter(source, quote.DefaultConfig(), nil), source)
	InitHealth(source, false)

	router := gin.New()
	router.GET("/health", HealthCheck)
	router.POST("/internal/quotes", QuoteRooms)
	router.GET("/internal/rooms/:roomId/policies", GetRoomPolicies)
	return router
}

func postQuotes(t *testing.T, router *gin.Engine, body any) *httptest.ResponseRecorder {
	t.Helper()
	jsonBody, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, "/internal/quotes", bytes.NewBuffer(jsonBody))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestQuoteRoomsHappyPath runs the canonical two-night scenario through
// the HTTP surface, with the room id sent as a JSON number.
func TestQuoteRoomsHappyPath(t *testing.T) {
	source := &stubPolicySource{windows: map[string][]policy.Record{
		"7": {priced("2025-03-01", 100000, 3), priced("2025-03-02", 90000, 3)},
	}}
	router := setupRouter(t, source)

	w := postQuotes(t, router, map[string]any{
		"rooms":    []map[string]any{{"roomId": 7}},
		"checkIn":  "2025-03-01",
		"checkOut": "2025-03-03",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp QuoteResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	q, ok := resp.RoomPriceMap["7"]
	require.True(t, ok)
	assert.True(t, q.IsBookable)
	assert.Equal(t, "", q.Reason)
	require.NotNil(t, q.DisplayPrice)
	assert.Equal(t, 90000.0, *q.DisplayPrice)
}

// TestQuoteRoomsBlankDates verifies blank dates yield an empty map, not an
// error.
func TestQuoteRoomsBlankDates(t *testing.T) {
	source := &stubPolicySource{windows: map[string][]policy.Record{}}
	router := setupRouter(t, source)

	w := postQuotes(t, router, map[string]any{
		"rooms":    []map[string]any{{"roomId": "1"}},
		"checkIn":  "",
		"checkOut": "",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp QuoteResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.RoomPriceMap)
}

// TestQuoteRoomsMixedVerdicts verifies a failing room and a bookable room
// coexist in one response.
func TestQuoteRoomsMixedVerdicts(t *testing.T) {
	source := &stubPolicySource{
		windows: map[string][]policy.Record{
			"b": {priced("2025-03-01", 50000, 1)},
		},
		errs: map[string]error{"a": errors.New("backend down")},
	}
	router := setupRouter(t, source)

	w := postQuotes(t, router, map[string]any{
		"rooms":    []map[string]any{{"roomId": "a"}, {"roomId": "b"}},
		"checkIn":  "2025-03-01",
		"checkOut": "2025-03-02",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp QuoteResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.False(t, resp.RoomPriceMap["a"].IsBookable)
	assert.Equal(t, quote.ReasonNoPolicy, resp.RoomPriceMap["a"].Reason)
	assert.True(t, resp.RoomPriceMap["b"].IsBookable)
}

// TestQuoteRoomsValidation verifies an empty room list is rejected.
func TestQuoteRoomsValidation(t *testing.T) {
	router := setupRouter(t, &stubPolicySource{})

	w := postQuotes(t, router, map[string]any{
		"rooms":    []map[string]any{},
		"checkIn":  "2025-03-01",
		"checkOut": "2025-03-02",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestGetRoomPolicies verifies the policy window dump endpoint.
func TestGetRoomPolicies(t *testing.T) {
	source := &stubPolicySource{windows: map[string][]policy.Record{
		"5": {priced("2025-03-01", 70000, 2)},
	}}
	router := setupRouter(t, source)

	req, err := http.NewRequest(http.MethodGet, "/internal/rooms/5/policies?startDate=2025-03-01&endDate=2025-03-01", nil)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp GetPoliciesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "5", resp.RoomID)
	assert.Equal(t, 1, resp.Total)
}

// TestGetRoomPoliciesMissingRange verifies the date range is mandatory.
func TestGetRoomPoliciesMissingRange(t *testing.T) {
	router := setupRouter(t, &stubPolicySource{})

	req, err := http.NewRequest(http.MethodGet, "/internal/rooms/5/policies", nil)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestHealthCheck verifies the health endpoint reflects backend health.
func TestHealthCheck(t *testing.T) {
	router := setupRouter(t, &stubPolicySource{})

	req, err := http.NewRequest(http.MethodGet, "/health", nil)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "available", resp.PolicyBackend)
}
