package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farewatch/fare-service/internal/merge"
	"github.com/farewatch/fare-service/internal/types"
)

func offer(entity, airline, day string, price float64) merge.Offer {
	d, _ := time.Parse("2006-01-02", day)
	return merge.Offer{
		FlightRecord: types.FlightRecord{
			Origin:      "JFK",
			Destination: "LAX",
			Airline:     airline,
			Price:       types.Float64Ptr(price),
		},
		Provenance: merge.Provenance{Entity: entity, SearchDate: d},
	}
}

func TestFilterPlaceholders(t *testing.T) {
	unpriced := offer("NYC", "Delta", "2024-06-01", 0)
	unpriced.Price = nil

	offers := []merge.Offer{
		offer("NYC", "Delta", "2024-06-01", 300),
		offer("NYC", "Price Graph", "2024-06-01", 1),
		offer("NYC", "PRICE GRAPH", "2024-06-01", 1),
		offer("NYC", "", "2024-06-01", 1),
		offer("NYC", "   ", "2024-06-01", 1),
		offer("NYC", "track prices", "2024-06-01", 1),
		unpriced,
		offer("NYC", "United", "2024-06-02", 400),
	}

	once := FilterPlaceholders(offers, nil)
	require.Len(t, once, 2)
	assert.Equal(t, "Delta", once[0].Airline)
	assert.Equal(t, "United", once[1].Airline)

	twice := FilterPlaceholders(once, nil)
	assert.Equal(t, once, twice)
}

func TestFilterPlaceholdersCustomPhrases(t *testing.T) {
	offers := []merge.Offer{
		offer("NYC", "Price graph", "2024-06-01", 1),
		offer("NYC", "Sponsored", "2024-06-01", 1),
	}

	got := FilterPlaceholders(offers, []string{"sponsored"})
	require.Len(t, got, 1)
	assert.Equal(t, "Price graph", got[0].Airline)
}

func TestPriceTableCheapestOfDay(t *testing.T) {
	offers := []merge.Offer{
		offer("Boston", "Delta", "2024-06-03", 220),
		offer("New York", "Delta", "2024-06-02", 300),
		offer("New York", "United", "2024-06-02", 250),
		offer("New York", "KLM", "2024-06-01", 410),
		offer("Boston", "Price graph", "2024-06-01", 5),
	}

	table, err := PriceTable(offers, TableOptions{})
	require.NoError(t, err)

	assert.False(t, table.InputEmpty)
	assert.Equal(t, KeyEntity, table.Key)
	assert.Equal(t, ReduceMin, table.Reducer)
	assert.Equal(t, []string{"2024-06-01", "2024-06-02", "2024-06-03"}, table.Dates)
	require.Len(t, table.Rows, 2)

	boston := table.Rows[0]
	assert.Equal(t, "Boston", boston.Key)
	assert.Nil(t, boston.Cells[0].Price)
	assert.Nil(t, boston.Cells[1].Price)
	assert.Equal(t, 220.0, *boston.Cells[2].Price)
	require.NotNil(t, boston.Average)
	assert.Equal(t, 220.0, *boston.Average)

	ny := table.Rows[1]
	assert.Equal(t, "New York", ny.Key)
	assert.Equal(t, 410.0, *ny.Cells[0].Price)
	assert.Equal(t, 250.0, *ny.Cells[1].Price)
	assert.Equal(t, 2, ny.Cells[1].Count)
	assert.Empty(t, ny.Cells[1].Offers)
	assert.Nil(t, ny.Cells[2].Price)
	assert.InDelta(t, 330.0, *ny.Average, 1e-9)
}

func TestPriceTableRetainAll(t *testing.T) {
	offers := []merge.Offer{
		offer("New York", "Delta", "2024-06-01", 300),
		offer("New York", "United", "2024-06-01", 200),
		offer("New York", "KLM", "2024-06-02", 500),
	}

	table, err := PriceTable(offers, TableOptions{Reducer: ReduceAll})
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)

	row := table.Rows[0]
	assert.Len(t, row.Cells[0].Offers, 2)
	assert.Equal(t, 250.0, *row.Cells[0].Price)
	assert.Equal(t, 375.0, *row.Average)
}

func TestPriceTableKeysAndInclude(t *testing.T) {
	offers := []merge.Offer{
		offer("New York", "Delta", "2024-06-01", 300),
		offer("New York", "United", "2024-06-01", 200),
	}

	table, err := PriceTable(offers, TableOptions{Key: KeyAirline, IncludeKeys: []string{"Aer Lingus"}})
	require.NoError(t, err)

	require.Len(t, table.Rows, 3)
	assert.Equal(t, "Aer Lingus", table.Rows[0].Key)
	assert.Nil(t, table.Rows[0].Cells[0].Price)
	assert.Nil(t, table.Rows[0].Average)
	assert.Equal(t, "Delta", table.Rows[1].Key)
	assert.Equal(t, "United", table.Rows[2].Key)
}

func TestPriceTableEmptyInput(t *testing.T) {
	table, err := PriceTable([]merge.Offer{offer("X", "Price history", "2024-06-01", 1)}, TableOptions{})
	require.NoError(t, err)

	assert.True(t, table.InputEmpty)
	assert.Empty(t, table.Dates)
	assert.Empty(t, table.Rows)
	assert.NotNil(t, table.Rows)
}

func TestPriceTableInvalidOptions(t *testing.T) {
	_, err := PriceTable(nil, TableOptions{Key: "carrier"})
	assert.Error(t, err)

	_, err = PriceTable(nil, TableOptions{Reducer: "max"})
	assert.Error(t, err)
}

func tieFixture() []merge.Offer {
	return []merge.Offer{
		offer("Boston", "Delta", "2024-06-02", 300),
		offer("New York", "United", "2024-06-02", 400),
		offer("Boston", "KLM", "2024-06-01", 350),
		offer("Boston", "Delta", "2024-06-01", 350),
	}
}

func TestBestDates(t *testing.T) {
	tests := []struct {
		name     string
		by       Statistic
		expected []BestDate
	}{
		{
			name: "mean ties break on earlier date",
			by:   ByMean,
			expected: []BestDate{
				{Date: "2024-06-01", Price: 350, Routes: 1},
				{Date: "2024-06-02", Price: 350, Routes: 2},
			},
		},
		{
			name: "min",
			by:   ByMin,
			expected: []BestDate{
				{Date: "2024-06-02", Price: 300, Routes: 2},
				{Date: "2024-06-01", Price: 350, Routes: 1},
			},
		},
		{
			name: "median",
			by:   ByMedian,
			expected: []BestDate{
				{Date: "2024-06-01", Price: 350, Routes: 1},
				{Date: "2024-06-02", Price: 350, Routes: 2},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BestDates(tieFixture(), BestDateOptions{By: tt.by})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestBestDatesTruncation(t *testing.T) {
	top, err := BestDates(tieFixture(), BestDateOptions{By: ByMin, Top: 1})
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "2024-06-02", top[0].Date)

	all, err := BestDates(tieFixture(), BestDateOptions{Top: 10})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	none, err := BestDates(nil, BestDateOptions{Top: 3})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestBestDatesRoutesByKey(t *testing.T) {
	got, err := BestDates(tieFixture(), BestDateOptions{Key: KeyAirline})
	require.NoError(t, err)

	assert.Equal(t, 2, got[0].Routes)
	assert.Equal(t, 2, got[1].Routes)
}

func TestBestDatesUnknownStatistic(t *testing.T) {
	_, err := BestDates(tieFixture(), BestDateOptions{By: "mode"})
	assert.Error(t, err)
}
