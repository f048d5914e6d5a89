package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stayhub/availability-service/internal/policy"
	"github.com/stayhub/availability-service/internal/quote"
)

// RoomRef identifies a room in a quote request. Callers send ids as JSON
// numbers or strings; both are accepted.
type RoomRef struct {
	RoomID json.Number `json:"roomId" binding:"required"`
}

// QuoteRequest represents a quote batch request. Check-in/check-out may be
// blank, which yields an empty map rather than an error.
type QuoteRequest struct {
	Rooms       []RoomRef `json:"rooms" binding:"required,min=1,max=100"`
	CheckIn     string    `json:"checkIn"`
	CheckOut    string    `json:"checkOut"`
	DisplayMode string    `json:"displayMode,omitempty"`
}

// RoomQuoteInfo is the per-room verdict in a quote response.
type RoomQuoteInfo struct {
	DisplayPrice *float64 `json:"displayPrice"`
	IsBookable   bool     `json:"isBookable"`
	Reason       string   `json:"reason"`
}

// QuoteResponse maps room ids to their quotes.
type QuoteResponse struct {
	RoomPriceMap map[string]RoomQuoteInfo `json:"roomPriceMap"`
	CheckIn      string                   `json:"checkIn"`
	CheckOut     string                   `json:"checkOut"`
}

// Quote service instances (initialized by the application).
var (
	quoter       *quote.Quoter
	policySource quote.PolicySource
)

// InitQuoteService wires the quoter and policy source used by the quote
// and policy handlers. Call during application startup.
func InitQuoteService(q *quote.Quoter, source quote.PolicySource) {
	quoter = q
	policySource = source
}

// QuoteRooms evaluates a set of rooms for a stay window.
// POST /internal/quotes
func QuoteRooms(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if quoter == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Quote service not initialized"})
		return
	}

	roomIDs := make([]string, len(req.Rooms))
	for i, room := range req.Rooms {
		roomIDs[i] = room.RoomID.String()
	}

	quotes, err := quoter.Quote(c.Request.Context(), quote.Request{
		RoomIDs:  roomIDs,
		CheckIn:  req.CheckIn,
		CheckOut: req.CheckOut,
		Mode:     policy.ParseDisplayMode(req.DisplayMode),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to quote rooms"})
		return
	}

	roomPriceMap := make(map[string]RoomQuoteInfo, len(quotes))
	for id, q := range quotes {
		roomPriceMap[id] = RoomQuoteInfo{
			DisplayPrice: q.DisplayPrice,
			IsBookable:   q.Bookable,
			Reason:       q.Reason,
		}
	}

	c.JSON(http.StatusOK, QuoteResponse{
		RoomPriceMap: roomPriceMap,
		CheckIn:      req.CheckIn,
		CheckOut:     req.CheckOut,
	})
}
