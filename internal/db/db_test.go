package db

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/j-veylop/divvy-insights/internal/models"
)

func TestNew(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if db.Path() != dbPath {
		t.Errorf("Expected path %s, got %s", dbPath, db.Path())
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestNew_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "nested", "cache.db")

	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database with nested path: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(filepath.Dir(dbPath)); os.IsNotExist(err) {
		t.Error("Nested directories were not created")
	}
}

func TestSchema_TablesExist(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	for _, table := range []string{"sources", "trips", "runs"} {
		var name string
		err := db.QueryRowContext(context.Background(), "SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s does not exist: %v", table, err)
		}
	}
}

func TestVacuum(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	if err := db.Vacuum(); err != nil {
		t.Errorf("Vacuum() failed: %v", err)
	}
}

func TestTripsRoundTrip(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	temp := -3.5
	promo := true
	start := time.Date(2026, 1, 5, 8, 0, 0, 500, time.FixedZone("CST", -6*3600))
	raw := []models.RawTrip{
		{
			RideID: "r1", RideableType: "electric_bike",
			StartStation: "A", EndStation: "B",
			StartedAt: start, EndedAt: start.Add(12 * time.Minute),
			Rider: "member", TemperatureC: &temp, Promotion: &promo,
		},
		{
			RideID: "r2", RideableType: "classic_bike",
			StartedAt: start, EndedAt: start.Add(time.Minute),
		},
	}
	key := SourceKey{Path: "/data/trips.csv", Size: 1024, ModTime: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)}

	if err := db.SaveTrips(ctx, key, raw); err != nil {
		t.Fatalf("SaveTrips() failed: %v", err)
	}

	got, ok, err := db.LoadTrips(ctx, key)
	if err != nil || !ok {
		t.Fatalf("LoadTrips() = %v, %v", ok, err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d trips, want 2", len(got))
	}

	first := got[0]
	if first.RideID != "r1" || first.StartStation != "A" || first.Rider != "member" {
		t.Errorf("unexpected first trip: %+v", first)
	}
	if !first.StartedAt.Equal(start) {
		t.Errorf("StartedAt = %v, want %v", first.StartedAt, start)
	}
	if _, offset := first.StartedAt.Zone(); offset != -6*3600 {
		t.Errorf("zone offset lost: %d", offset)
	}
	if first.TemperatureC == nil || *first.TemperatureC != temp {
		t.Errorf("TemperatureC = %v", first.TemperatureC)
	}
	if first.Promotion == nil || !*first.Promotion {
		t.Errorf("Promotion = %v", first.Promotion)
	}

	second := got[1]
	if second.StartStation != "" || second.TemperatureC != nil || second.Promotion != nil {
		t.Errorf("optional fields should round-trip as empty: %+v", second)
	}
}

func TestLoadTrips_Miss(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	key := SourceKey{Path: "/data/trips.csv", Size: 10, ModTime: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), Zone: "America/Chicago"}
	if _, ok, err := db.LoadTrips(ctx, key); ok || err != nil {
		t.Fatalf("LoadTrips() on empty cache = %v, %v", ok, err)
	}

	if err := db.SaveTrips(ctx, key, []models.RawTrip{{RideID: "r1", RideableType: "classic_bike"}}); err != nil {
		t.Fatalf("SaveTrips() failed: %v", err)
	}

	tests := []struct {
		name string
		key  SourceKey
	}{
		{"SizeChanged", SourceKey{Path: key.Path, Size: 11, ModTime: key.ModTime, Zone: key.Zone}},
		{"ModTimeChanged", SourceKey{Path: key.Path, Size: key.Size, ModTime: key.ModTime.Add(time.Second), Zone: key.Zone}},
		{"OtherPath", SourceKey{Path: "/data/other.csv", Size: key.Size, ModTime: key.ModTime, Zone: key.Zone}},
		{"ZoneChanged", SourceKey{Path: key.Path, Size: key.Size, ModTime: key.ModTime, Zone: "UTC"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok, err := db.LoadTrips(ctx, tt.key); ok || err != nil {
				t.Errorf("LoadTrips() = %v, %v, want miss", ok, err)
			}
		})
	}

	if _, ok, err := db.LoadTrips(ctx, key); !ok || err != nil {
		t.Errorf("LoadTrips() with the saved key = %v, %v, want hit", ok, err)
	}
}

func TestSaveTrips_Replaces(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	key := SourceKey{Path: "/data/trips.csv", Size: 10, ModTime: time.Unix(1000, 0)}
	_ = db.SaveTrips(ctx, key, []models.RawTrip{{RideID: "a", RideableType: "classic_bike"}, {RideID: "b", RideableType: "classic_bike"}})

	key.Size = 20
	if err := db.SaveTrips(ctx, key, []models.RawTrip{{RideID: "c", RideableType: "docked_bike"}}); err != nil {
		t.Fatalf("SaveTrips() failed: %v", err)
	}

	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM trips").Scan(&n); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("trips table has %d rows, want 1", n)
	}

	if err := db.DeleteSource(ctx, key.Path); err != nil {
		t.Fatalf("DeleteSource() failed: %v", err)
	}
	if _, ok, _ := db.LoadTrips(ctx, key); ok {
		t.Error("LoadTrips() should miss after DeleteSource")
	}
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM trips").Scan(&n); err != nil || n != 0 {
		t.Errorf("trips left after DeleteSource: %d, %v", n, err)
	}
	if err := db.DeleteSource(ctx, "/data/never-cached.csv"); err != nil {
		t.Errorf("DeleteSource() of an unknown path failed: %v", err)
	}
}

func TestMigrate_AddsZoneColumn(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "legacy.db")

	legacy, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	ctx := context.Background()
	for _, q := range []string{
		"DROP TABLE trips",
		"DROP TABLE sources",
		`CREATE TABLE sources (path TEXT PRIMARY KEY, size INTEGER NOT NULL, mod_time TEXT NOT NULL,
			row_count INTEGER NOT NULL DEFAULT 0, cached_at TEXT NOT NULL)`,
	} {
		if _, err := legacy.ExecContext(ctx, q); err != nil {
			t.Fatalf("%s: %v", q, err)
		}
	}
	legacy.Close()

	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("reopening a legacy cache failed: %v", err)
	}
	defer db.Close()

	key := SourceKey{Path: "/data/trips.csv", Size: 1, ModTime: time.Unix(1000, 0), Zone: "America/Chicago"}
	if err := db.SaveTrips(ctx, key, []models.RawTrip{{RideID: "a", RideableType: "classic_bike"}}); err != nil {
		t.Fatalf("SaveTrips() after migration failed: %v", err)
	}
	if _, ok, err := db.LoadTrips(ctx, key); !ok || err != nil {
		t.Errorf("LoadTrips() after migration = %v, %v", ok, err)
	}

	// A second open must leave the migrated schema alone.
	if err := db.migrate(); err != nil {
		t.Errorf("migrate() on a current schema failed: %v", err)
	}
}

func TestSourceKeyFor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trips.csv")
	if err := os.WriteFile(path, []byte("ride_id\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	key, err := SourceKeyFor(path, "America/Chicago")
	if err != nil {
		t.Fatalf("SourceKeyFor() failed: %v", err)
	}
	if key.Size != 8 || key.Path != path || key.Zone != "America/Chicago" {
		t.Errorf("key = %+v", key)
	}
	if _, err := SourceKeyFor(filepath.Join(t.TempDir(), "missing.csv"), "UTC"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestRuns(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	runs := []models.RunSummary{
		{ID: "old", CreatedAt: base, Slice: "2026-01", Records: 10, ShortTripRatio: 0.5, RSquared: math.NaN()},
		{ID: "new", CreatedAt: base.Add(time.Hour), Slice: "all", Source: "/data/trips.csv",
			Records: 20, Rejected: 2, Stations: 4, Congested: 1, Short: 2,
			ShortTripRatio: 0.7, RSquared: 0.25, Failures: []string{"regression", "ue"}},
	}
	for _, r := range runs {
		if err := db.InsertRun(ctx, r); err != nil {
			t.Fatalf("InsertRun() failed: %v", err)
		}
	}

	got, err := db.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRuns() failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != "new" {
		t.Fatalf("RecentRuns() = %+v", got)
	}
	if got[0].Short != 2 || got[0].RSquared != 0.25 || len(got[0].Failures) != 2 {
		t.Errorf("newest run = %+v", got[0])
	}
	if !got[0].CreatedAt.Equal(runs[1].CreatedAt) {
		t.Errorf("CreatedAt = %v", got[0].CreatedAt)
	}
	if !math.IsNaN(got[1].RSquared) {
		t.Errorf("missing R² should load as NaN, got %v", got[1].RSquared)
	}
	if got[1].Failures != nil {
		t.Errorf("Failures = %v, want nil", got[1].Failures)
	}

	limited, _ := db.RecentRuns(ctx, 1)
	if len(limited) != 1 {
		t.Errorf("RecentRuns(1) returned %d runs", len(limited))
	}
}

func newTestDB(t *testing.T) *DB {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	return db
}
