package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/farewatch/fare-service/internal/database"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status" jsonschema:"required"`
	Database string `json:"database" jsonschema:"required,enum=connected,enum=disconnected,enum=not configured"`
	Renderer string `json:"renderer" jsonschema:"required,enum=configured,enum=not configured"`
}

// HealthCheck handles the health check endpoint
// @Summary Health check
// @Description Reports service, database and renderer status
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:   "ok",
		Renderer: "not configured",
	}
	if deps.Runner != nil {
		response.Renderer = "configured"
	}

	if database.Pool() != nil {
		if err := database.Status(c.Request.Context()); err != nil {
			response.Database = "disconnected"
			c.JSON(http.StatusServiceUnavailable, response)
			return
		}
		response.Database = "connected"
	} else {
		response.Database = "not configured"
	}

	c.JSON(http.StatusOK, response)
}
