// Package tripstest provides fixtures for tests that need record sets.
package tripstest

import (
	"testing"
	"time"

	"github.com/j-veylop/divvy-insights/internal/models"
	"github.com/j-veylop/divvy-insights/internal/trips"
)

// Monday is a weekday reference date used by fixtures.
var Monday = time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)

// Saturday is a weekend reference date used by fixtures.
var Saturday = time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC)

// Trip returns a raw trip of the given class between two stations that
// starts at start and lasts the given number of minutes.
func Trip(id string, class models.VehicleClass, from, to string, start time.Time, minutes float64) models.RawTrip {
	return models.RawTrip{
		RideID:       id,
		RideableType: string(class) + "_bike",
		StartStation: from,
		EndStation:   to,
		StartedAt:    start,
		EndedAt:      start.Add(time.Duration(minutes * float64(time.Minute))),
		Rider:        string(models.RiderMember),
	}
}

// At returns the reference day shifted to the given hour and minute.
func At(day time.Time, hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

// RecordSet builds a RecordSet with default options and fails the test on
// error.
func RecordSet(t testing.TB, raw ...models.RawTrip) *trips.RecordSet {
	t.Helper()
	rs, err := trips.NewRecordSet(raw, trips.BuildOptions{})
	if err != nil {
		t.Fatalf("NewRecordSet() failed: %v", err)
	}
	return rs
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// Reversed returns raw in reverse order.
func Reversed(raw []models.RawTrip) []models.RawTrip {
	out := make([]models.RawTrip, len(raw))
	for i, r := range raw {
		out[len(raw)-1-i] = r
	}
	return out
}

// Minutes converts fractional minutes to a duration.
func Minutes(m float64) time.Duration {
	return time.Duration(m * float64(time.Minute))
}
