package flights

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
		wantErr  bool
	}{
		{name: "dollar thousands", input: "$1,250", expected: 1250},
		{name: "dollar plain", input: "$450", expected: 450},
		{name: "euro decimal comma", input: "1.234,56 €", expected: 1234.56},
		{name: "iso prefix", input: "EUR 99", expected: 99},
		{name: "iso prefix wide gap", input: "EUR  99", expected: 99},
		{name: "iso suffix", input: "450 USD", expected: 450},
		{name: "space thousands", input: "€1 250", expected: 1250},
		{name: "decimal dot", input: "$12.99", expected: 12.99},
		{name: "repeated separators", input: "$1,250,000", expected: 1250000},
		{name: "empty", input: "", wantErr: true},
		{name: "no digits", input: "$", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePrice(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 0.0001)
		})
	}
}

func TestIsPriceLine(t *testing.T) {
	assert.True(t, IsPriceLine("$1,250"))
	assert.True(t, IsPriceLine("1.234,56 €"))
	assert.True(t, IsPriceLine("EUR 99"))
	assert.True(t, IsPriceLine("EUR  99"))
	assert.True(t, IsPriceLine("450   USD"))
	assert.False(t, IsPriceLine("1250"))
	assert.False(t, IsPriceLine("12 more flights"))
	assert.False(t, IsPriceLine("Delta"))
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input    string
		expected int
		ok       bool
	}{
		{"8 hr 0 min", 480, true},
		{"3 hr 45 min", 225, true},
		{"2 hr", 120, true},
		{"55 min", 55, true},
		{"1h 5m", 65, true},
		{"Delta", 0, false},
		{"2 hr 10 min FRA", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := parseDuration(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestExtractGroupStops(t *testing.T) {
	now := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		stopsLine   string
		expected    int
		wantLayover *string
	}{
		{name: "nonstop", stopsLine: "Nonstop", expected: 0},
		{name: "one stop", stopsLine: "1 stop", expected: 1},
		{name: "two stops", stopsLine: "2 stops", expected: 2},
		{name: "inline layover", stopsLine: "1 stop AMS", expected: 1, wantLayover: strPtr("AMS")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, reason := ExtractGroup([]string{"9:00 AM", "Delta", tt.stopsLine, "$300"}, testSegment, now)
			require.Equal(t, SkipNone, reason)
			assert.Equal(t, tt.expected, rec.NumStops)
			assert.Equal(t, tt.wantLayover, rec.Layover)
			assert.Equal(t, now, rec.RetrievedAt)
		})
	}
}

func TestExtractGroupLayoverDuration(t *testing.T) {
	lines := []string{"9:00 AM", "6:00 PM", "Delta", "9 hr 0 min", "1 stop", "1 hr 5 min", "$300"}

	rec, reason := ExtractGroup(lines, testSegment, fixedNow)
	require.Equal(t, SkipNone, reason)
	assert.Equal(t, 540, rec.TravelTimeMinutes)
	require.NotNil(t, rec.Layover)
	assert.Equal(t, "1 hr 5 min", *rec.Layover)
	assert.Equal(t, "Delta", rec.Airline)

	// a later duration outside the stops position leaves the total alone
	rec, reason = ExtractGroup([]string{"9:00 AM", "Delta", "9 hr 0 min", "Nonstop", "45 min", "$300"}, testSegment, fixedNow)
	require.Equal(t, SkipNone, reason)
	assert.Equal(t, 540, rec.TravelTimeMinutes)
	assert.Nil(t, rec.Layover)
}

func TestExtractGroupSkipReasons(t *testing.T) {
	_, reason := ExtractGroup([]string{"Delta", "$300"}, testSegment, fixedNow)
	assert.Equal(t, SkipMissingDeparture, reason)

	_, reason = ExtractGroup([]string{"9:00 AM", "Delta", "Nonstop"}, testSegment, fixedNow)
	assert.Equal(t, SkipMissingPrice, reason)
}

func TestExtractGroupFields(t *testing.T) {
	lines := []string{
		"11:50 PM",
		"6:10 AM+2",
		"Operated by SkyWest",
		"Best",
		"United",
		"LGA–ORD",
		"1,020 kg CO2e",
		"−15% emissions",
		"$199",
		"$250",
	}

	rec, reason := ExtractGroup(lines, testSegment, fixedNow)
	require.Equal(t, SkipNone, reason)

	assert.Equal(t, time.Date(2024, 7, 20, 23, 50, 0, 0, time.UTC), rec.DepartureTime)
	require.NotNil(t, rec.ArrivalTime)
	assert.Equal(t, time.Date(2024, 7, 22, 6, 10, 0, 0, time.UTC), *rec.ArrivalTime)
	assert.Equal(t, "United", rec.Airline)
	assert.Equal(t, "LGA", rec.Origin)
	assert.Equal(t, "ORD", rec.Destination)
	require.NotNil(t, rec.CO2EmissionKg)
	assert.Equal(t, 1020, *rec.CO2EmissionKg)
	require.NotNil(t, rec.EmissionDiffPercent)
	assert.Equal(t, -15, *rec.EmissionDiffPercent)
	assert.Equal(t, 199.0, *rec.Price)
}

func TestExtractGroupCustomNoise(t *testing.T) {
	p := newTestParser(Options{NoisePhrases: []string{"Sponsored"}})
	result := p.Parse([]string{"9:00 AM", "5:00 PM", "Sponsored", "Air Canada", "$320"}, testSegment)

	require.Len(t, result.Records, 1)
	assert.Equal(t, "Air Canada", result.Records[0].Airline)
}

func strPtr(s string) *string {
	return &s
}
