package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/farewatch/fare-service/internal/aggregate"
	"github.com/farewatch/fare-service/internal/database"
	"github.com/farewatch/fare-service/internal/merge"
)

// OffersInput names the offers to aggregate: inline, or a stored run
type OffersInput struct {
	RunID  string        `json:"runId,omitempty"`
	Offers []merge.Offer `json:"offers,omitempty"`
}

// PriceTableRequest configures a price table
type PriceTableRequest struct {
	OffersInput
	Key         string   `json:"key" jsonschema:"enum=entity,enum=origin,enum=destination,enum=airline"`
	Reducer     string   `json:"reducer" jsonschema:"enum=min,enum=all"`
	IncludeKeys []string `json:"includeKeys,omitempty"`
}

// BestDatesRequest configures a best-dates ranking
type BestDatesRequest struct {
	OffersInput
	By  string `json:"by" jsonschema:"enum=mean,enum=median,enum=min"`
	Top int    `json:"top" binding:"min=0" jsonschema:"minimum=0"`
	Key string `json:"key" jsonschema:"enum=entity,enum=origin,enum=destination,enum=airline"`
}

// BestDatesResponse wraps the ranking
type BestDatesResponse struct {
	Dates      []aggregate.BestDate `json:"dates" jsonschema:"required"`
	InputEmpty bool                 `json:"inputEmpty"`
}

var errNoOffers = errors.New("request needs offers or a runId")

func (in OffersInput) load(c *gin.Context) ([]merge.Offer, error) {
	if in.RunID != "" {
		return database.ListOffers(c.Request.Context(), in.RunID)
	}
	if in.Offers == nil {
		return nil, errNoOffers
	}
	return in.Offers, nil
}

// AggregatePrices builds a key-by-date price table
// @Summary Build a price table
// @Description Pivots offers into one row per key and one column per date. Offers come inline or from a stored run.
// @Tags aggregate
// @Accept json
// @Produce json
// @Param request body PriceTableRequest true "Offers and table options"
// @Success 200 {object} aggregate.Table
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 404 {object} map[string]string "Run not found"
// @Failure 503 {object} map[string]string "Database not configured"
// @Router /api/v1/aggregate/prices [post]
func AggregatePrices(c *gin.Context) {
	var req PriceTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key, err := aggregate.ParseKey(req.Key)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	reducer, err := aggregate.ParseReducer(req.Reducer)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	offers, err := req.load(c)
	if errors.Is(err, errNoOffers) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	table, err := aggregate.PriceTable(offers, aggregate.TableOptions{
		Key:          key,
		Reducer:      reducer,
		IncludeKeys:  req.IncludeKeys,
		Placeholders: deps.Placeholders,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, table)
}

// AggregateBestDates ranks dates by a price statistic
// @Summary Rank travel dates
// @Description Ranks dates by the mean, median or minimum price across offers
// @Tags aggregate
// @Accept json
// @Produce json
// @Param request body BestDatesRequest true "Offers and ranking options"
// @Success 200 {object} BestDatesResponse
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 404 {object} map[string]string "Run not found"
// @Failure 503 {object} map[string]string "Database not configured"
// @Router /api/v1/aggregate/best-dates [post]
func AggregateBestDates(c *gin.Context) {
	var req BestDatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	by, err := aggregate.ParseStatistic(req.By)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	key, err := aggregate.ParseKey(req.Key)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	offers, err := req.load(c)
	if errors.Is(err, errNoOffers) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	filtered := aggregate.FilterPlaceholders(offers, deps.Placeholders)
	dates, err := aggregate.BestDates(filtered, aggregate.BestDateOptions{
		By:           by,
		Top:          req.Top,
		Key:          key,
		Placeholders: deps.Placeholders,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, BestDatesResponse{
		Dates:      dates,
		InputEmpty: len(filtered) == 0,
	})
}
