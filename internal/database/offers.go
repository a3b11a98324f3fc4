package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/farewatch/fare-service/internal/merge"
)

const schema = `
CREATE TABLE IF NOT EXISTS search_runs (
	id TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	query_count INTEGER NOT NULL DEFAULT 0,
	segment_count INTEGER NOT NULL DEFAULT 0,
	failed_segments INTEGER NOT NULL DEFAULT 0,
	offer_count INTEGER NOT NULL DEFAULT 0,
	skipped_count INTEGER NOT NULL DEFAULT 0,
	started_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS flight_offers (
	id BIGSERIAL PRIMARY KEY,
	run_id TEXT NOT NULL REFERENCES search_runs(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	query_id TEXT NOT NULL,
	entity TEXT NOT NULL,
	segment_index INTEGER NOT NULL,
	search_date DATE,
	departure_time TIMESTAMPTZ NOT NULL,
	arrival_time TIMESTAMPTZ,
	origin TEXT NOT NULL,
	destination TEXT NOT NULL,
	airline TEXT NOT NULL,
	travel_time_minutes INTEGER NOT NULL,
	price DOUBLE PRECISION,
	num_stops INTEGER NOT NULL,
	layover TEXT,
	co2_emission_kg INTEGER,
	emission_diff_percent INTEGER,
	retrieved_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS flight_offers_run_idx ON flight_offers (run_id, position);
`

// EnsureSchema creates the run and offer tables when missing
func EnsureSchema(ctx context.Context) error {
	p := Pool()
	if p == nil {
		return ErrNotConnected
	}
	if _, err := p.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveRun inserts or updates a run
func SaveRun(ctx context.Context, run *Run) error {
	p := Pool()
	if p == nil {
		return ErrNotConnected
	}

	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	_, err := p.Exec(ctx, `
		INSERT INTO search_runs (
			id, status, query_count, segment_count, failed_segments,
			offer_count, skipped_count, started_at, finished_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			query_count = EXCLUDED.query_count,
			segment_count = EXCLUDED.segment_count,
			failed_segments = EXCLUDED.failed_segments,
			offer_count = EXCLUDED.offer_count,
			skipped_count = EXCLUDED.skipped_count,
			finished_at = EXCLUDED.finished_at
	`, run.ID, run.Status, run.QueryCount, run.SegmentCount, run.FailedSegments,
		run.OfferCount, run.SkippedCount, run.StartedAt, run.FinishedAt, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	return nil
}

// GetRun loads a run by ID
func GetRun(ctx context.Context, id string) (*Run, error) {
	p := Pool()
	if p == nil {
		return nil, ErrNotConnected
	}

	var run Run
	err := p.QueryRow(ctx, `
		SELECT id, status, query_count, segment_count, failed_segments,
			offer_count, skipped_count, started_at, finished_at, created_at
		FROM search_runs
		WHERE id = $1
	`, id).Scan(
		&run.ID, &run.Status, &run.QueryCount, &run.SegmentCount, &run.FailedSegments,
		&run.OfferCount, &run.SkippedCount, &run.StartedAt, &run.FinishedAt, &run.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}
	return &run, nil
}

// SaveOffers appends offers to a run in one transaction, keeping their order
func SaveOffers(ctx context.Context, runID string, offers []merge.Offer) (int, error) {
	if len(offers) == 0 {
		return 0, nil
	}
	p := Pool()
	if p == nil {
		return 0, ErrNotConnected
	}

	tx, err := p.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var start int
	if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(position) + 1, 0) FROM flight_offers WHERE run_id = $1`, runID).Scan(&start); err != nil {
		return 0, fmt.Errorf("failed to read offer position: %w", err)
	}

	batch := &pgx.Batch{}
	for i, o := range offers {
		var searchDate *time.Time
		if !o.SearchDate.IsZero() {
			d := o.SearchDate
			searchDate = &d
		}
		batch.Queue(`
			INSERT INTO flight_offers (
				run_id, position, query_id, entity, segment_index, search_date,
				departure_time, arrival_time, origin, destination, airline,
				travel_time_minutes, price, num_stops, layover,
				co2_emission_kg, emission_diff_percent, retrieved_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		`, runID, start+i, o.QueryID, o.Entity, o.SegmentIndex, searchDate,
			o.DepartureTime, o.ArrivalTime, o.Origin, o.Destination, o.Airline,
			o.TravelTimeMinutes, o.Price, o.NumStops, o.Layover,
			o.CO2EmissionKg, o.EmissionDiffPercent, o.RetrievedAt)
	}

	br := tx.SendBatch(ctx, batch)
	for i := range offers {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return 0, fmt.Errorf("failed to insert offer %d: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return 0, fmt.Errorf("failed to close batch: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE search_runs
		SET offer_count = (SELECT COUNT(*) FROM flight_offers WHERE run_id = $1)
		WHERE id = $1
	`, runID); err != nil {
		return 0, fmt.Errorf("failed to update offer_count: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit offers: %w", err)
	}
	return len(offers), nil
}

// ListOffers returns the offers of a run in insertion order
func ListOffers(ctx context.Context, runID string) ([]merge.Offer, error) {
	p := Pool()
	if p == nil {
		return nil, ErrNotConnected
	}

	rows, err := p.Query(ctx, `
		SELECT query_id, entity, segment_index, search_date,
			departure_time, arrival_time, origin, destination, airline,
			travel_time_minutes, price, num_stops, layover,
			co2_emission_kg, emission_diff_percent, retrieved_at
		FROM flight_offers
		WHERE run_id = $1
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query offers: %w", err)
	}
	defer rows.Close()

	offers := make([]merge.Offer, 0)
	for rows.Next() {
		var (
			o          merge.Offer
			searchDate *time.Time
		)
		if err := rows.Scan(
			&o.QueryID, &o.Entity, &o.SegmentIndex, &searchDate,
			&o.DepartureTime, &o.ArrivalTime, &o.Origin, &o.Destination, &o.Airline,
			&o.TravelTimeMinutes, &o.Price, &o.NumStops, &o.Layover,
			&o.CO2EmissionKg, &o.EmissionDiffPercent, &o.RetrievedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		if searchDate != nil {
			o.SearchDate = searchDate.UTC()
		}
		offers = append(offers, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate offers: %w", err)
	}
	return offers, nil
}

// ListRuns returns the most recent runs first
func ListRuns(ctx context.Context, limit int) ([]Run, error) {
	p := Pool()
	if p == nil {
		return nil, ErrNotConnected
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := p.Query(ctx, `
		SELECT id, status, query_count, segment_count, failed_segments,
			offer_count, skipped_count, started_at, finished_at, created_at
		FROM search_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}

	runs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Run, error) {
		var run Run
		err := row.Scan(
			&run.ID, &run.Status, &run.QueryCount, &run.SegmentCount, &run.FailedSegments,
			&run.OfferCount, &run.SkippedCount, &run.StartedAt, &run.FinishedAt, &run.CreatedAt,
		)
		return run, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan runs: %w", err)
	}
	return runs, nil
}

// PoolStore adapts the package-level functions to the pipeline's store
// interface
type PoolStore struct{}

// SaveRun implements pipeline.Store
func (PoolStore) SaveRun(ctx context.Context, run *Run) error {
	return SaveRun(ctx, run)
}

// SaveOffers implements pipeline.Store
func (PoolStore) SaveOffers(ctx context.Context, runID string, offers []merge.Offer) (int, error) {
	return SaveOffers(ctx, runID, offers)
}
