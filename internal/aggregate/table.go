package aggregate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/farewatch/fare-service/internal/merge"
)

// Key selects the row identity of a price table
type Key string

const (
	KeyEntity      Key = "entity"
	KeyOrigin      Key = "origin"
	KeyDestination Key = "destination"
	KeyAirline     Key = "airline"
)

// ParseKey validates a key name; empty means KeyEntity
func ParseKey(s string) (Key, error) {
	switch k := Key(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return KeyEntity, nil
	case KeyEntity, KeyOrigin, KeyDestination, KeyAirline:
		return k, nil
	}
	return "", fmt.Errorf("unknown aggregation key %q", s)
}

// Of returns the key value for an offer. Offers without an entity label
// fall back to their origin.
func (k Key) Of(o merge.Offer) string {
	switch k {
	case KeyOrigin:
		return o.Origin
	case KeyDestination:
		return o.Destination
	case KeyAirline:
		return o.Airline
	}
	if o.Entity == "" {
		return o.Origin
	}
	return o.Entity
}

// Reducer decides what a (key, date) cell holds
type Reducer string

const (
	// ReduceMin keeps the cheapest offer of the day
	ReduceMin Reducer = "min"
	// ReduceAll keeps every offer; the cell price is their mean
	ReduceAll Reducer = "all"
)

// ParseReducer validates a reducer name; empty means ReduceMin
func ParseReducer(s string) (Reducer, error) {
	switch r := Reducer(strings.ToLower(strings.TrimSpace(s))); r {
	case "":
		return ReduceMin, nil
	case ReduceMin, ReduceAll:
		return r, nil
	}
	return "", fmt.Errorf("unknown reducer %q", s)
}

// TableOptions configures PriceTable
type TableOptions struct {
	Key     Key
	Reducer Reducer
	// IncludeKeys are always shown, with all-missing cells when they have no offers
	IncludeKeys []string
	// Placeholders overrides DefaultPlaceholders when non-nil
	Placeholders []string
}

// Cell is one (key, date) entry. Price is nil when the key has no offers that day.
type Cell struct {
	Date   string        `json:"date"`
	Price  *float64      `json:"price"`
	Count  int           `json:"count"`
	Offers []merge.Offer `json:"offers,omitempty"`
}

// Row is one key of a price table with a cell per table date
type Row struct {
	Key     string   `json:"key"`
	Cells   []Cell   `json:"cells"`
	Average *float64 `json:"average"`
}

// Table is a wide key-by-date price table
type Table struct {
	Key        Key      `json:"key"`
	Reducer    Reducer  `json:"reducer"`
	Dates      []string `json:"dates"`
	Rows       []Row    `json:"rows"`
	InputEmpty bool     `json:"inputEmpty"`
}

// PriceTable groups filtered offers by key and date. Dates are ordered
// chronologically; Average is the mean over a row's populated cells.
func PriceTable(offers []merge.Offer, opts TableOptions) (*Table, error) {
	key, err := ParseKey(string(opts.Key))
	if err != nil {
		return nil, err
	}
	reducer, err := ParseReducer(string(opts.Reducer))
	if err != nil {
		return nil, err
	}

	filtered := FilterPlaceholders(offers, opts.Placeholders)
	table := &Table{
		Key:        key,
		Reducer:    reducer,
		Dates:      make([]string, 0),
		Rows:       make([]Row, 0),
		InputEmpty: len(filtered) == 0,
	}

	grouped := make(map[string]map[string][]merge.Offer)
	dateSet := make(map[string]struct{})
	for _, o := range filtered {
		k, d := key.Of(o), Day(o)
		if grouped[k] == nil {
			grouped[k] = make(map[string][]merge.Offer)
		}
		grouped[k][d] = append(grouped[k][d], o)
		dateSet[d] = struct{}{}
	}
	for _, k := range opts.IncludeKeys {
		if _, ok := grouped[k]; !ok {
			grouped[k] = nil
		}
	}

	for d := range dateSet {
		table.Dates = append(table.Dates, d)
	}
	sort.Strings(table.Dates)

	keys := make([]string, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		row, err := buildRow(k, grouped[k], table.Dates, reducer)
		if err != nil {
			return nil, fmt.Errorf("row %s: %w", k, err)
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

func buildRow(key string, byDate map[string][]merge.Offer, dates []string, reducer Reducer) (Row, error) {
	row := Row{Key: key, Cells: make([]Cell, len(dates))}

	var populated []float64
	for i, d := range dates {
		cell := Cell{Date: d}
		dayOffers := byDate[d]
		if len(dayOffers) > 0 {
			price, err := reduceCell(dayOffers, reducer)
			if err != nil {
				return Row{}, err
			}
			cell.Price = &price
			cell.Count = len(dayOffers)
			if reducer == ReduceAll {
				cell.Offers = dayOffers
			}
			populated = append(populated, price)
		}
		row.Cells[i] = cell
	}

	if len(populated) > 0 {
		avg, err := stats.Mean(populated)
		if err != nil {
			return Row{}, err
		}
		row.Average = &avg
	}
	return row, nil
}

func reduceCell(offers []merge.Offer, reducer Reducer) (float64, error) {
	if reducer == ReduceAll {
		return stats.Mean(prices(offers))
	}
	return stats.Min(prices(offers))
}

func prices(offers []merge.Offer) stats.Float64Data {
	out := make(stats.Float64Data, 0, len(offers))
	for _, o := range offers {
		if p, ok := o.PriceValue(); ok {
			out = append(out, p)
		}
	}
	return out
}
