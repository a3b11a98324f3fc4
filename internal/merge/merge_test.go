package merge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farewatch/fare-service/internal/query"
	"github.com/farewatch/fare-service/internal/types"
)

func record(airline string, price float64) types.FlightRecord {
	return types.FlightRecord{Airline: airline, Price: types.Float64Ptr(price)}
}

func TestMergerAddQuery(t *testing.T) {
	d1 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)

	q, err := query.Build(query.ChainTrip, []string{"JFK", "LAX", "2024-06-01", "JFK", "LAX", "2024-06-02"})
	require.NoError(t, err)

	segs := q.Segments()
	q.SetResults([]query.SegmentResult{
		{Segment: segs[0], Records: []types.FlightRecord{record("Delta", 300), record("United", 400)}},
		{Segment: segs[1], Err: assert.AnError},
		{Segment: segs[1], Records: []types.FlightRecord{record("Delta", 300)}},
	})

	m := NewMerger()
	added := m.AddQuery("q1", "New York", q)
	assert.Equal(t, 3, added)

	offers := m.Offers()
	require.Len(t, offers, 3)
	assert.Equal(t, "Delta", offers[0].Airline)
	assert.Equal(t, "United", offers[1].Airline)
	assert.Equal(t, Provenance{QueryID: "q1", Entity: "New York", SegmentIndex: 0, SearchDate: d1}, offers[0].Provenance)
	assert.Equal(t, 2, offers[2].SegmentIndex)
	assert.Equal(t, d2, offers[2].SearchDate)
	assert.Equal(t, "2024-06-02", offers[2].SearchDay())
}

func TestMergerKeepsDuplicatesAndOrder(t *testing.T) {
	m := NewMerger()
	prov := Provenance{QueryID: "a", Entity: "X"}

	m.AddRecords(prov, []types.FlightRecord{record("Delta", 300)})
	m.AddRecords(Provenance{QueryID: "b", Entity: "Y"}, []types.FlightRecord{record("KLM", 100)})
	m.AddRecords(prov, []types.FlightRecord{record("Delta", 300)})

	offers := m.Offers()
	require.Len(t, offers, 3)
	assert.Equal(t, []string{"a", "b", "a"}, []string{offers[0].QueryID, offers[1].QueryID, offers[2].QueryID})
	assert.Equal(t, offers[0], offers[2])
}

func TestMergerOffersIsACopy(t *testing.T) {
	m := NewMerger()
	m.AddRecords(Provenance{Entity: "X"}, []types.FlightRecord{record("Delta", 300)})

	offers := m.Offers()
	offers[0].Entity = "changed"

	assert.Equal(t, "X", m.Offers()[0].Entity)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 0, m.AddQuery("q", "e", nil))
}
