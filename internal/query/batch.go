package query

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Direction says which side of a batch route the counterpart airport is on
type Direction string

const (
	// Outbound flies from each route airport to the counterpart
	Outbound Direction = "outbound"
	// Inbound flies from the counterpart to each route airport
	Inbound Direction = "inbound"
)

// Route is one entity of a batch, e.g. a city and the airport serving it
type Route struct {
	Entity  string `json:"entity" mapstructure:"entity"`
	Airport string `json:"airport" mapstructure:"airport"`
}

// ParseRoute parses "Entity=AIR" (or a bare airport code, which is also used as the entity)
func ParseRoute(value string) (Route, error) {
	entity, airport, found := strings.Cut(value, "=")
	if !found {
		airport = entity
	}
	entity = strings.TrimSpace(entity)
	airport = strings.ToUpper(strings.TrimSpace(airport))
	if entity == "" || !isAirportCode(airport) {
		return Route{}, fmt.Errorf("invalid route %q: want Entity=AIR", value)
	}
	return Route{Entity: entity, Airport: airport}, nil
}

// BatchSpec crosses a set of routes with a set of dates
type BatchSpec struct {
	Routes      []Route
	Counterpart string
	Direction   Direction
	Dates       []time.Time
}

// BatchQuery is the query built for one route entity
type BatchQuery struct {
	Entity string
	Query  *Query
}

// Batch builds one query per route covering every requested date. Dates are
// sorted so each entity's legs form a chain trip (one-way for a single date).
func Batch(opts BatchSpec) ([]BatchQuery, error) {
	if len(opts.Routes) == 0 {
		return nil, fmt.Errorf("batch has no routes")
	}
	if len(opts.Dates) == 0 {
		return nil, fmt.Errorf("batch has no dates")
	}

	dates := make([]time.Time, len(opts.Dates))
	copy(dates, opts.Dates)
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	topology := ChainTrip
	if len(dates) == 1 {
		topology = OneWay
	}

	counterpart := strings.ToUpper(strings.TrimSpace(opts.Counterpart))
	out := make([]BatchQuery, 0, len(opts.Routes))
	for _, route := range opts.Routes {
		segments := make([]Segment, 0, len(dates))
		for _, date := range dates {
			seg := Segment{Origin: route.Airport, Destination: counterpart, Date: date}
			if opts.Direction == Inbound {
				seg.Origin, seg.Destination = counterpart, route.Airport
			}
			segments = append(segments, seg)
		}

		q, err := New(topology, segments)
		if err != nil {
			return nil, fmt.Errorf("route %s: %w", route.Entity, err)
		}
		out = append(out, BatchQuery{Entity: route.Entity, Query: q})
	}

	return out, nil
}

// ParseDates parses a list of DateLayout strings
func ParseDates(values []string) ([]time.Time, error) {
	dates := make([]time.Time, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		d, err := time.Parse(DateLayout, v)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: %w", v, err)
		}
		dates = append(dates, d)
	}
	return dates, nil
}
