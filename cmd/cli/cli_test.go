package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadOffers(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"offer list", `[{"airline":"Delta","price":300,"entity":"NYC"}]`, 1},
		{"report", `{"runId":"r1","offers":[{"airline":"Delta","price":300},{"airline":"United","price":250}]}`, 2},
		{"empty list", `[]`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offers, err := readOffers(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Len(t, offers, tt.want)
		})
	}

	_, err := readOffers(strings.NewReader("not json"))
	assert.Error(t, err)
}

func TestBatchJobs(t *testing.T) {
	batchRoutes = []string{"Boston=BOS", "jfk"}
	batchCounterpart = "mia"
	batchDirection = "inbound"
	batchDates = []string{"2024-06-02", "2024-06-01"}
	t.Cleanup(func() {
		batchRoutes, batchCounterpart, batchDirection, batchDates = nil, "", "outbound", nil
	})

	jobs, err := batchJobs()
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "Boston", jobs[0].Entity)
	assert.Equal(t, "jfk", jobs[1].Entity)

	segs := jobs[1].Query.Segments()
	require.Len(t, segs, 2)
	assert.Equal(t, "MIA", segs[0].Origin)
	assert.Equal(t, "JFK", segs[0].Destination)
	assert.Equal(t, "2024-06-01", segs[0].DateString())

	batchDirection = "sideways"
	_, err = batchJobs()
	assert.Error(t, err)
}

func TestBuildQuery(t *testing.T) {
	q, err := buildQuery([]string{"round-trip", "JFK", "LAX", "2024-06-01", "2024-06-08"})
	require.NoError(t, err)
	assert.Equal(t, 2, q.Len())

	_, err = buildQuery([]string{"one-way", "JFK", "LAX"})
	assert.Error(t, err)
}
