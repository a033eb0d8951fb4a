package db

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/j-veylop/divvy-insights/internal/models"
)

// InsertRun records the digest of one analysis run.
func (db *DB) InsertRun(ctx context.Context, run models.RunSummary) error {
	query := `
		INSERT INTO runs (
			id, created_at, source, slice, records, rejected,
			stations, congested, short, short_trip_ratio, r_squared, failures
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := db.ExecContext(ctx, query,
		run.ID,
		createdAt.UTC().Format(timeFormat),
		nullString(run.Source),
		run.Slice,
		run.Records,
		run.Rejected,
		run.Stations,
		run.Congested,
		run.Short,
		nanToNull(run.ShortTripRatio),
		nanToNull(run.RSquared),
		nullString(strings.Join(run.Failures, ",")),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// RecentRuns returns the most recent runs, newest first.
func (db *DB) RecentRuns(ctx context.Context, limit int) ([]models.RunSummary, error) {
	query := `
		SELECT id, created_at, source, slice, records, rejected,
			   stations, congested, short, short_trip_ratio, r_squared, failures
		FROM runs
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []models.RunSummary
	for rows.Next() {
		var (
			run                  models.RunSummary
			createdAt            string
			source, failures     sql.NullString
			shortRatio, rSquared sql.NullFloat64
		)
		err := rows.Scan(
			&run.ID,
			&createdAt,
			&source,
			&run.Slice,
			&run.Records,
			&run.Rejected,
			&run.Stations,
			&run.Congested,
			&run.Short,
			&shortRatio,
			&rSquared,
			&failures,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		if run.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse run time: %w", err)
		}
		run.Source = source.String
		run.ShortTripRatio = nullToNaN(shortRatio)
		run.RSquared = nullToNaN(rSquared)
		if failures.String != "" {
			run.Failures = strings.Split(failures.String, ",")
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

func nanToNull(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func nullToNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
