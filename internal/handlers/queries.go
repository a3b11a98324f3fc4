package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/farewatch/fare-service/internal/query"
)

// QueryRequest describes one query by topology tag and positional arguments
type QueryRequest struct {
	ID       string   `json:"id"`
	Entity   string   `json:"entity"`
	Topology string   `json:"topology" binding:"required" jsonschema:"required,enum=one-way,enum=round-trip,enum=chain-trip,enum=perfect-chain"`
	Args     []string `json:"args" binding:"required,min=1" jsonschema:"required,minItems=1"`
}

// QueryResponse is a validated query with its segment URLs
type QueryResponse struct {
	Topology query.Topology  `json:"topology" jsonschema:"required"`
	Segments []query.Segment `json:"segments" jsonschema:"required"`
	URLs     []string        `json:"urls" jsonschema:"required"`
}

// BuildQuery validates a query and returns its segments and results-page URLs
// @Summary Build a query
// @Description Validates topology arguments and returns the segments with their results-page URLs
// @Tags queries
// @Accept json
// @Produce json
// @Param request body QueryRequest true "Topology and arguments"
// @Success 200 {object} QueryResponse
// @Failure 400 {object} map[string]string "Invalid topology"
// @Router /api/v1/queries [post]
func BuildQuery(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	q, err := query.BuildTag(req.Topology, req.Args)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, QueryResponse{
		Topology: q.Topology(),
		Segments: q.Segments(),
		URLs:     q.URLs(deps.URLBuilder),
	})
}
