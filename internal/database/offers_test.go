package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/farewatch/fare-service/internal/merge"
	"github.com/farewatch/fare-service/internal/types"
)

// setupTestDB starts a PostgreSQL container, connects the shared pool and
// creates the schema.
func setupTestDB(t *testing.T) func() {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err, "Failed to start postgres container")

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")

	require.NoError(t, Connect(ctx, PoolConfig{URL: connStr, MaxConns: 4}))
	require.NoError(t, EnsureSchema(ctx))

	return func() {
		Close()
		testcontainers.TerminateContainer(container)
	}
}

func TestNotConnected(t *testing.T) {
	Close()
	ctx := context.Background()

	assert.ErrorIs(t, EnsureSchema(ctx), ErrNotConnected)
	assert.ErrorIs(t, Status(ctx), ErrNotConnected)
	_, err := ListOffers(ctx, "run")
	assert.ErrorIs(t, err, ErrNotConnected)
	n, err := SaveOffers(ctx, "run", nil)
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestSaveAndListOffers(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	started := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	run := &Run{ID: "run-1", Status: RunStatusCompleted, QueryCount: 1, SegmentCount: 2, StartedAt: started}
	require.NoError(t, SaveRun(ctx, run))

	layover := "FRA"
	offers := []merge.Offer{
		{
			FlightRecord: types.FlightRecord{
				DepartureTime: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
				Origin:        "JFK",
				Destination:   "IST",
				Airline:       "Delta",
				Price:         types.Float64Ptr(450),
				NumStops:      1,
				Layover:       &layover,
				RetrievedAt:   started,
			},
			Provenance: merge.Provenance{QueryID: "q1", Entity: "New York", SearchDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		},
		{
			FlightRecord: types.FlightRecord{
				DepartureTime: time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC),
				Origin:        "JFK",
				Destination:   "IST",
				Airline:       "United",
				Price:         types.Float64Ptr(300),
				RetrievedAt:   started,
			},
			Provenance: merge.Provenance{QueryID: "q1", Entity: "New York", SegmentIndex: 1, SearchDate: time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)},
		},
	}

	n, err := SaveOffers(ctx, run.ID, offers)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := ListOffers(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Delta", got[0].Airline)
	assert.Equal(t, "FRA", *got[0].Layover)
	assert.Equal(t, 450.0, *got[0].Price)
	assert.Equal(t, "2024-06-02", got[1].SearchDay())
	assert.Equal(t, 1, got[1].SegmentIndex)
	assert.True(t, got[1].DepartureTime.Equal(offers[1].DepartureTime))

	loaded, err := GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.OfferCount)

	runs, err := ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
}
