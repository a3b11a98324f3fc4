package aggregate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/farewatch/fare-service/internal/merge"
)

// Statistic reduces the prices of one date to a single value
type Statistic string

const (
	ByMean   Statistic = "mean"
	ByMedian Statistic = "median"
	ByMin    Statistic = "min"
)

// ParseStatistic validates a statistic name; empty means ByMean
func ParseStatistic(s string) (Statistic, error) {
	switch st := Statistic(strings.ToLower(strings.TrimSpace(s))); st {
	case "":
		return ByMean, nil
	case ByMean, ByMedian, ByMin:
		return st, nil
	}
	return "", fmt.Errorf("unknown statistic %q", s)
}

func (s Statistic) apply(data stats.Float64Data) (float64, error) {
	switch s {
	case ByMedian:
		return stats.Median(data)
	case ByMin:
		return stats.Min(data)
	}
	return stats.Mean(data)
}

// BestDateOptions configures BestDates
type BestDateOptions struct {
	By Statistic
	// Top truncates the ranking; zero or negative returns every date
	Top int
	// Key decides what counts as a distinct contributing route
	Key          Key
	Placeholders []string
}

// BestDate is one ranked date
type BestDate struct {
	Date   string  `json:"date"`
	Price  float64 `json:"price"`
	Routes int     `json:"routes"`
}

// BestDates ranks dates by the chosen price statistic, cheapest first.
// Equal prices are ordered by the earlier date.
func BestDates(offers []merge.Offer, opts BestDateOptions) ([]BestDate, error) {
	by, err := ParseStatistic(string(opts.By))
	if err != nil {
		return nil, err
	}
	key, err := ParseKey(string(opts.Key))
	if err != nil {
		return nil, err
	}

	byDate := make(map[string][]merge.Offer)
	for _, o := range FilterPlaceholders(offers, opts.Placeholders) {
		d := Day(o)
		byDate[d] = append(byDate[d], o)
	}

	ranked := make([]BestDate, 0, len(byDate))
	for d, dayOffers := range byDate {
		price, err := by.apply(prices(dayOffers))
		if err != nil {
			return nil, fmt.Errorf("date %s: %w", d, err)
		}

		routes := make(map[string]struct{})
		for _, o := range dayOffers {
			routes[key.Of(o)] = struct{}{}
		}

		ranked = append(ranked, BestDate{Date: d, Price: price, Routes: len(routes)})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Price != ranked[j].Price {
			return ranked[i].Price < ranked[j].Price
		}
		return ranked[i].Date < ranked[j].Date
	})

	if opts.Top > 0 && opts.Top < len(ranked) {
		ranked = ranked[:opts.Top]
	}
	return ranked, nil
}
