package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/farewatch/fare-service/internal/pipeline"
	"github.com/farewatch/fare-service/internal/query"
)

// BatchRequest crosses routes with dates against one counterpart airport
type BatchRequest struct {
	Routes      []query.Route `json:"routes" binding:"required,min=1" jsonschema:"required,minItems=1"`
	Counterpart string        `json:"counterpart" binding:"required,len=3" jsonschema:"required,minLength=3,maxLength=3"`
	Direction   string        `json:"direction" jsonschema:"enum=outbound,enum=inbound"`
	Dates       []string      `json:"dates" binding:"required,min=1" jsonschema:"required,minItems=1"`
}

// SearchRequest is either a list of queries or a batch
type SearchRequest struct {
	Queries []QueryRequest `json:"queries,omitempty"`
	Batch   *BatchRequest  `json:"batch,omitempty"`
}

// SearchResponse is the pipeline report of one search
type SearchResponse = pipeline.Report

var errEmptySearch = errors.New("search needs queries or a batch")

// jobs builds pipeline jobs from the request
func (r SearchRequest) jobs() ([]pipeline.Job, error) {
	jobs := make([]pipeline.Job, 0, len(r.Queries))
	for i, qr := range r.Queries {
		q, err := query.BuildTag(qr.Topology, qr.Args)
		if err != nil {
			return nil, err
		}
		id := qr.ID
		if id == "" {
			id = fmt.Sprintf("q%d", i+1)
		}
		jobs = append(jobs, pipeline.Job{ID: id, Entity: qr.Entity, Query: q})
	}

	if r.Batch != nil {
		dates, err := query.ParseDates(r.Batch.Dates)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", query.ErrInvalidTopology, err)
		}
		direction := query.Outbound
		if r.Batch.Direction != "" {
			direction = query.Direction(r.Batch.Direction)
		}
		if direction != query.Outbound && direction != query.Inbound {
			return nil, fmt.Errorf("%w: unknown direction %q", query.ErrInvalidTopology, r.Batch.Direction)
		}
		batch, err := query.Batch(query.BatchSpec{
			Routes:      r.Batch.Routes,
			Counterpart: r.Batch.Counterpart,
			Direction:   direction,
			Dates:       dates,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", query.ErrInvalidTopology, err)
		}
		for _, bq := range batch {
			jobs = append(jobs, pipeline.Job{ID: bq.Entity, Entity: bq.Entity, Query: bq.Query})
		}
	}

	if len(jobs) == 0 {
		return nil, errEmptySearch
	}
	return jobs, nil
}

// Search renders, parses and merges every segment of the requested queries.
// Partial failures are reported per segment; a search in which every segment
// failed answers 502.
// @Summary Run a search
// @Description Renders, parses and merges every segment of the given queries or batch
// @Tags search
// @Accept json
// @Produce json
// @Param request body SearchRequest true "Queries or batch"
// @Success 200 {object} pipeline.Report
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 502 {object} map[string]interface{} "Every segment failed"
// @Failure 503 {object} map[string]string "Search disabled"
// @Router /api/v1/search [post]
func Search(c *gin.Context) {
	if deps.Runner == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "renderer not configured"})
		return
	}

	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	jobs, err := req.jobs()
	if errors.Is(err, errEmptySearch) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	searchMu.Lock()
	report, err := deps.Runner.Run(c.Request.Context(), jobs)
	searchMu.Unlock()
	if err != nil {
		respondError(c, err)
		return
	}

	if n := len(report.Segments); n > 0 && report.Failed() == n {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":  "every segment failed to render",
			"report": report,
		})
		return
	}

	c.JSON(http.StatusOK, report)
}
