package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/j-veylop/divvy-insights/internal/logger"
	"github.com/j-veylop/divvy-insights/internal/models"
)

// timeFormat is the storage layout of every timestamp column.
const timeFormat = time.RFC3339Nano

// SourceKey identifies one version of a trip export on disk, read in one
// time zone.
type SourceKey struct {
	Path    string
	Size    int64
	ModTime time.Time
	Zone    string // location the naive timestamps were parsed in
}

// SourceKeyFor stats path and returns its cache key for timestamps read
// in zone.
func SourceKeyFor(path, zone string) (SourceKey, error) {
	info, err := os.Stat(path)
	if err != nil {
		return SourceKey{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return SourceKey{Path: path, Size: info.Size(), ModTime: info.ModTime(), Zone: zone}, nil
}

// SaveTrips replaces the cached rows of key.Path with raw.
func (db *DB) SaveTrips(ctx context.Context, key SourceKey, raw []models.RawTrip) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sources WHERE path = ?`, key.Path); err != nil {
		return fmt.Errorf("failed to clear cached source: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sources (path, size, mod_time, zone, row_count, cached_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, key.Path, key.Size, key.ModTime.UTC().Format(timeFormat), key.Zone, len(raw), time.Now().UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("failed to insert source: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trips (
			source, ride_id, rideable_type, start_station, end_station,
			started_at, ended_at, rider, temperature_c, promotion
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare trip insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range raw {
		r := &raw[i]
		_, err := stmt.ExecContext(ctx,
			key.Path,
			r.RideID,
			r.RideableType,
			nullString(r.StartStation),
			nullString(r.EndStation),
			formatTime(r.StartedAt),
			formatTime(r.EndedAt),
			nullString(r.Rider),
			nullFloat(r.TemperatureC),
			nullBool(r.Promotion),
		)
		if err != nil {
			return fmt.Errorf("failed to insert trip %s: %w", r.RideID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit trip cache: %w", err)
	}

	logger.Debug("trip cache written", "path", key.Path, "rows", len(raw))
	return nil
}

// LoadTrips returns the cached rows for key. ok is false when nothing is
// cached for the path, or the file or zone changed since it was cached.
func (db *DB) LoadTrips(ctx context.Context, key SourceKey) (raw []models.RawTrip, ok bool, err error) {
	var size int64
	var modTime, zone string
	err = db.QueryRowContext(ctx, `SELECT size, mod_time, zone FROM sources WHERE path = ?`, key.Path).Scan(&size, &modTime, &zone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query source: %w", err)
	}
	if size != key.Size || modTime != key.ModTime.UTC().Format(timeFormat) || zone != key.Zone {
		logger.Debug("trip cache stale", "path", key.Path)
		return nil, false, nil
	}

	rows, err := db.QueryContext(ctx, `
		SELECT ride_id, rideable_type, start_station, end_station,
			   started_at, ended_at, rider, temperature_c, promotion
		FROM trips
		WHERE source = ?
		ORDER BY id
	`, key.Path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to query trips: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			r                  models.RawTrip
			start, end, rider  sql.NullString
			startedAt, endedAt sql.NullString
			temperature        sql.NullFloat64
			promotion          sql.NullBool
		)
		if err := rows.Scan(&r.RideID, &r.RideableType, &start, &end,
			&startedAt, &endedAt, &rider, &temperature, &promotion); err != nil {
			return nil, false, fmt.Errorf("failed to scan trip: %w", err)
		}

		r.StartStation = start.String
		r.EndStation = end.String
		r.Rider = rider.String
		if r.StartedAt, err = parseTime(startedAt); err != nil {
			return nil, false, err
		}
		if r.EndedAt, err = parseTime(endedAt); err != nil {
			return nil, false, err
		}
		if temperature.Valid {
			v := temperature.Float64
			r.TemperatureC = &v
		}
		if promotion.Valid {
			v := promotion.Bool
			r.Promotion = &v
		}
		raw = append(raw, r)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}

	return raw, true, nil
}

// DeleteSource drops the cached rows of path and reclaims their space.
func (db *DB) DeleteSource(ctx context.Context, path string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM sources WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("failed to delete cached source: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil
	}
	return db.Vacuum()
}

func formatTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(timeFormat), Valid: true}
}

func parseTime(s sql.NullString) (time.Time, error) {
	if !s.Valid || s.String == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(timeFormat, s.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse cached timestamp %q: %w", s.String, err)
	}
	return t, nil
}

// nullString returns a sql.NullString from a string.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullBool(v *bool) sql.NullBool {
	if v == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *v, Valid: true}
}
