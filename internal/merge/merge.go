// Package merge flattens the parsed records of many queries into one offer
// set, tagging each offer with the query and segment it came from.
package merge

import (
	"time"

	"github.com/farewatch/fare-service/internal/query"
	"github.com/farewatch/fare-service/internal/types"
)

// Provenance identifies where an offer was found
type Provenance struct {
	QueryID      string    `json:"queryId"`
	Entity       string    `json:"entity"`
	SegmentIndex int       `json:"segmentIndex"`
	SearchDate   time.Time `json:"searchDate"`
}

// Offer is a flight record plus its provenance
type Offer struct {
	types.FlightRecord
	Provenance
}

// SearchDay returns the search date in query.DateLayout
func (o Offer) SearchDay() string {
	return o.SearchDate.Format(query.DateLayout)
}

// Merger accumulates offers. It is append-only and keeps insertion order;
// identical offers seen twice are kept twice.
type Merger struct {
	offers []Offer
}

// NewMerger creates an empty merger
func NewMerger() *Merger {
	return &Merger{offers: make([]Offer, 0)}
}

// AddQuery appends the records attached to every segment result of q, in
// segment order. Segments whose fetch failed contribute nothing.
func (m *Merger) AddQuery(queryID, entity string, q *query.Query) int {
	if q == nil {
		return 0
	}

	added := 0
	for i, res := range q.Results() {
		added += m.AddRecords(Provenance{
			QueryID:      queryID,
			Entity:       entity,
			SegmentIndex: i,
			SearchDate:   res.Segment.Date,
		}, res.Records)
	}
	return added
}

// AddRecords appends records under a single provenance
func (m *Merger) AddRecords(prov Provenance, records []types.FlightRecord) int {
	for _, rec := range records {
		m.offers = append(m.offers, Offer{FlightRecord: rec, Provenance: prov})
	}
	return len(records)
}

// Len returns the number of accumulated offers
func (m *Merger) Len() int {
	return len(m.offers)
}

// Offers returns a copy of the accumulated offers
func (m *Merger) Offers() []Offer {
	out := make([]Offer, len(m.offers))
	copy(out, m.offers)
	return out
}
