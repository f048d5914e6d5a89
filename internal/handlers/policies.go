package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stayhub/availability-service/internal/policy"
)

// GetPoliciesRequest represents query parameters for a policy window dump.
type GetPoliciesRequest struct {
	StartDate string `form:"startDate" binding:"required"`
	EndDate   string `form:"endDate" binding:"required"`
}

// GetPoliciesResponse returns a room's normalized policy window.
type GetPoliciesResponse struct {
	RoomID  string          `json:"roomId"`
	Records []policy.Record `json:"records"`
	Total   int             `json:"total"`
}

// GetRoomPolicies returns the normalized daily policy window for one room.
// Mostly an ops/debugging surface over the policy backend.
// GET /internal/rooms/:roomId/policies?startDate=YYYY-MM-DD&endDate=YYYY-MM-DD
func GetRoomPolicies(c *gin.Context) {
	roomID := c.Param("roomId")
	if roomID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "roomId is required"})
		return
	}

	var req GetPoliciesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if policySource == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Quote service not initialized"})
		return
	}

	records, err := policySource.FetchDailyPolicies(c.Request.Context(), roomID, req.StartDate, req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Policy backend lookup failed"})
		return
	}
	if records == nil {
		records = []policy.Record{}
	}

	c.JSON(http.StatusOK, GetPoliciesResponse{
		RoomID:  roomID,
		Records: records,
		Total:   len(records),
	})
}
