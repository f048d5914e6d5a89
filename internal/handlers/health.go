package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BackendHealth reports whether the policy backend is accepting calls.
type BackendHealth interface {
	Healthy() bool
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status        string `json:"status"`
	PolicyBackend string `json:"policyBackend"`
	Cache         string `json:"cache"`
}

var (
	backendHealth BackendHealth
	cacheEnabled  bool
)

// InitHealth wires the collaborators reported by the health endpoint.
func InitHealth(backend BackendHealth, cacheOn bool) {
	backendHealth = backend
	cacheEnabled = cacheOn
}

// HealthCheck handles the health check endpoint.
func HealthCheck(c *gin.Context) {
	response := HealthResponse{Status: "ok", Cache: "disabled"}
	if cacheEnabled {
		response.Cache = "enabled"
	}

	switch {
	case backendHealth == nil:
		response.PolicyBackend = "not configured"
	case backendHealth.Healthy():
		response.PolicyBackend = "available"
	default:
		response.PolicyBackend = "circuit open"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	c.JSON(http.StatusOK, response)
}
