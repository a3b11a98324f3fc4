package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentURL(t *testing.T) {
	seg := Segment{Origin: "JFK", Destination: "IST", Date: date("2024-07-20")}

	tests := []struct {
		name     string
		builder  URLBuilder
		expected string
	}{
		{
			name:     "default builder",
			builder:  DefaultURLBuilder(),
			expected: "https://www.google.com/travel/flights?hl=en&q=Flights%20to%20IST%20from%20JFK%20on%202024-07-20%20oneway",
		},
		{
			name:     "zero value falls back to defaults",
			builder:  URLBuilder{},
			expected: "https://www.google.com/travel/flights?hl=en&q=Flights%20to%20IST%20from%20JFK%20on%202024-07-20%20oneway",
		},
		{
			name:     "currency and language",
			builder:  URLBuilder{BaseURL: "https://example.test/flights", Language: "de", Currency: "eur"},
			expected: "https://example.test/flights?hl=de&curr=EUR&q=Flights%20to%20IST%20from%20JFK%20on%202024-07-20%20oneway",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.builder.SegmentURL(seg))
			// stable across calls
			assert.Equal(t, tt.builder.SegmentURL(seg), tt.builder.SegmentURL(seg))
		})
	}
}

func TestQueryURLs(t *testing.T) {
	q, err := Build(RoundTrip, []string{"JFK", "IST", "2024-07-20", "2024-08-20"})
	require.NoError(t, err)

	urls := q.URLs(DefaultURLBuilder())
	require.Len(t, urls, 2)
	assert.Contains(t, urls[0], "Flights%20to%20IST%20from%20JFK%20on%202024-07-20")
	assert.Contains(t, urls[1], "Flights%20to%20JFK%20from%20IST%20on%202024-08-20")
}
