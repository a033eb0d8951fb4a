// Package db manages the SQLite cache of ingested trips and the analysis
// run history.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Import modernc.org/sqlite as a blank import to register the driver
	_ "modernc.org/sqlite"
)

// DB wraps the SQL database connection with application-specific methods.
type DB struct {
	*sql.DB
	path string
}

// New creates a new database connection and initializes the schema.
func New(path string) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := sqlDB.PingContext(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{
		DB:   sqlDB,
		path: path,
	}

	if err := db.configure(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	if err := db.createSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return db, nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// configure sets up database pragmas for bulk trip inserts.
func (db *DB) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=-64000", // 64MB cache
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(context.Background(), pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	return nil
}

func (db *DB) createSchema() error {
	if err := db.createSourcesTable(); err != nil {
		return err
	}
	if err := db.createTripsTable(); err != nil {
		return err
	}
	if err := db.createRunsTable(); err != nil {
		return err
	}
	return db.migrate()
}

func (db *DB) createSourcesTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS sources (
		path TEXT PRIMARY KEY,
		size INTEGER NOT NULL,
		mod_time TEXT NOT NULL,
		zone TEXT NOT NULL DEFAULT '',
		row_count INTEGER NOT NULL DEFAULT 0,
		cached_at TEXT NOT NULL
	);
	`
	_, err := db.ExecContext(context.Background(), query)
	return err
}

func (db *DB) createTripsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS trips (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL REFERENCES sources(path) ON DELETE CASCADE,
		ride_id TEXT NOT NULL,
		rideable_type TEXT NOT NULL,
		start_station TEXT,
		end_station TEXT,
		started_at TEXT,
		ended_at TEXT,
		rider TEXT,
		temperature_c REAL,
		promotion INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_trips_source ON trips(source);
	`
	_, err := db.ExecContext(context.Background(), query)
	return err
}

func (db *DB) createRunsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		source TEXT,
		slice TEXT NOT NULL,
		records INTEGER DEFAULT 0,
		rejected INTEGER DEFAULT 0,
		stations INTEGER DEFAULT 0,
		congested INTEGER DEFAULT 0,
		short INTEGER DEFAULT 0,
		short_trip_ratio REAL,
		r_squared REAL,
		failures TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`
	_, err := db.ExecContext(context.Background(), query)
	return err
}

// Close closes the database connection gracefully.
func (db *DB) Close() error {
	// Checkpoint WAL before closing
	_, _ = db.ExecContext(context.Background(), "PRAGMA wal_checkpoint(TRUNCATE)")
	return db.DB.Close()
}

// Vacuum reclaims the space left by replaced trip caches.
func (db *DB) Vacuum() error {
	_, err := db.ExecContext(context.Background(), "VACUUM")
	return err
}
