package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/farewatch/fare-service/internal/database"
	"github.com/farewatch/fare-service/internal/merge"
)

// ListRunsRequest represents query parameters for listing runs
type ListRunsRequest struct {
	Limit int `form:"limit" json:"limit" binding:"omitempty,min=1,max=100" jsonschema:"minimum=1,maximum=100"`
}

// ListRunsResponse represents the response for listing runs
type ListRunsResponse struct {
	Runs  []database.Run `json:"runs" jsonschema:"required"`
	Total int            `json:"total" jsonschema:"required"`
}

// GetRunResponse is one run with its offers
type GetRunResponse struct {
	Run    *database.Run `json:"run" jsonschema:"required"`
	Offers []merge.Offer `json:"offers" jsonschema:"required"`
}

// ListRuns returns the most recent stored runs
// @Summary List search runs
// @Description Returns the most recent persisted runs, newest first
// @Tags runs
// @Produce json
// @Param limit query int false "Number of runs to return" default(20) minimum(1) maximum(100)
// @Success 200 {object} ListRunsResponse
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 503 {object} map[string]string "Database not configured"
// @Router /api/v1/runs [get]
func ListRuns(c *gin.Context) {
	var req ListRunsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Limit == 0 {
		req.Limit = 20
	}

	runs, err := database.ListRuns(c.Request.Context(), req.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListRunsResponse{Runs: runs, Total: len(runs)})
}

// GetRun returns a stored run and its offers in merge order
// @Summary Get a search run
// @Description Returns one persisted run with its offers in merge order
// @Tags runs
// @Produce json
// @Param runId path string true "Run ID"
// @Success 200 {object} GetRunResponse
// @Failure 404 {object} map[string]string "Run not found"
// @Failure 503 {object} map[string]string "Database not configured"
// @Router /api/v1/runs/{runId} [get]
func GetRun(c *gin.Context) {
	runID := c.Param("runId")
	ctx := c.Request.Context()

	run, err := database.GetRun(ctx, runID)
	if err != nil {
		respondError(c, err)
		return
	}
	offers, err := database.ListOffers(ctx, runID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, GetRunResponse{Run: run, Offers: offers})
}
