// Package aggregate turns merged offers into wide price tables and ranked
// best-date lists.
package aggregate

import (
	"strings"

	"github.com/farewatch/fare-service/internal/merge"
	"github.com/farewatch/fare-service/internal/query"
)

// DefaultPlaceholders are UI labels the results page renders alongside real
// offers, e.g. chart legends
var DefaultPlaceholders = []string{
	"Price graph",
	"Price history",
	"Date grid",
	"Track prices",
}

// FilterPlaceholders drops offers with an empty or placeholder airline label
// or without a price. Matching is case-insensitive; nil phrases means
// DefaultPlaceholders. Applying it twice gives the same result as once.
func FilterPlaceholders(offers []merge.Offer, phrases []string) []merge.Offer {
	if phrases == nil {
		phrases = DefaultPlaceholders
	}
	placeholders := make(map[string]struct{}, len(phrases))
	for _, p := range phrases {
		placeholders[strings.ToLower(strings.TrimSpace(p))] = struct{}{}
	}

	out := make([]merge.Offer, 0, len(offers))
	for _, o := range offers {
		label := strings.ToLower(strings.TrimSpace(o.Airline))
		if label == "" {
			continue
		}
		if _, ok := placeholders[label]; ok {
			continue
		}
		if o.Price == nil {
			continue
		}
		out = append(out, o)
	}
	return out
}

// Day returns the calendar date an offer is grouped under: its search date,
// or the departure date when the offer carries no provenance.
func Day(o merge.Offer) string {
	d := o.SearchDate
	if d.IsZero() {
		d = o.DepartureTime
	}
	if d.IsZero() {
		return ""
	}
	return d.UTC().Format(query.DateLayout)
}
