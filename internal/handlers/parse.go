package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/farewatch/fare-service/internal/parsers/flights"
	"github.com/farewatch/fare-service/internal/parsers/text"
	"github.com/farewatch/fare-service/internal/query"
)

// ParseRequest carries raw results-page text for one segment
type ParseRequest struct {
	Text        string `json:"text" jsonschema:"required"`
	Origin      string `json:"origin" binding:"required,len=3" jsonschema:"required,minLength=3,maxLength=3"`
	Destination string `json:"destination" binding:"required,len=3" jsonschema:"required,minLength=3,maxLength=3"`
	Date        string `json:"date" binding:"required" jsonschema:"required,format=date"`
	StartAfter  string `json:"startAfter,omitempty"`
	StopAt      string `json:"stopAt,omitempty"`
}

// ParseText parses raw page text into flight records without rendering anything
// @Summary Parse page text
// @Description Parses already rendered results-page text for one segment
// @Tags parse
// @Accept json
// @Produce json
// @Param request body ParseRequest true "Page text and segment"
// @Success 200 {object} flights.ParseResult
// @Failure 400 {object} map[string]string "Bad request"
// @Router /api/v1/parse [post]
func ParseText(c *gin.Context) {
	var req ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	q, err := query.Build(query.OneWay, []string{
		strings.ToUpper(req.Origin), strings.ToUpper(req.Destination), req.Date,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	opts := deps.Parser
	if req.StartAfter != "" {
		opts.StartAfter = req.StartAfter
	}
	if req.StopAt != "" {
		opts.StopAt = req.StopAt
	}
	if opts.Logger == nil {
		opts.Logger = deps.Logger
	}

	lines := text.NewNormalizer(deps.Normalizer).Lines(req.Text)
	result := flights.NewParser(opts).Parse(lines, q.Segments()[0])

	c.JSON(http.StatusOK, result)
}
