// Package handlers exposes queries, parsing, searches and aggregation over HTTP.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/farewatch/fare-service/internal/database"
	"github.com/farewatch/fare-service/internal/http/ratelimit"
	"github.com/farewatch/fare-service/internal/parsers/flights"
	"github.com/farewatch/fare-service/internal/parsers/text"
	"github.com/farewatch/fare-service/internal/pipeline"
	"github.com/farewatch/fare-service/internal/query"
	"github.com/farewatch/fare-service/internal/render"
)

// SearchRunner runs pipeline jobs
type SearchRunner interface {
	Run(ctx context.Context, jobs []pipeline.Job) (*pipeline.Report, error)
}

// Deps are the collaborators shared by all handlers
type Deps struct {
	// Runner executes searches; search endpoints answer 503 when nil
	Runner       SearchRunner
	URLBuilder   query.URLBuilder
	Normalizer   text.Options
	Parser       flights.Options
	Placeholders []string
	Logger       *zerolog.Logger
}

var (
	deps Deps
	// the renderer is one stateful session, so searches run one at a time
	searchMu sync.Mutex
)

// Init installs handler dependencies. It should be called during startup.
func Init(d Deps) {
	if d.URLBuilder.BaseURL == "" {
		d.URLBuilder = query.DefaultURLBuilder()
	}
	if d.Logger == nil {
		nop := zerolog.Nop()
		d.Logger = &nop
	}
	deps = d
}

// respondError maps domain errors to status codes
func respondError(c *gin.Context, err error) {
	var topoErr *query.TopologyError
	var retryErr *ratelimit.RetryError
	var statusErr *render.StatusError

	switch {
	case errors.As(err, &topoErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "rule": topoErr.Rule})
	case errors.Is(err, query.ErrInvalidTopology):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, render.ErrPageLoadInsufficient), errors.As(err, &retryErr), errors.As(err, &statusErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case errors.Is(err, database.ErrNotConnected):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database not configured"})
	case errors.Is(err, pgx.ErrNoRows):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
	default:
		deps.Logger.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
