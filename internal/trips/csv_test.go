package trips

import (
	"strings"
	"testing"
	"time"
)

const sampleCSV = `ride_id,rideable_type,started_at,ended_at,start_station_name,start_station_id,end_station_name,end_station_id,member_casual,temperature_c,promotion
A1,classic_bike,2026-01-05 08:00:00,2026-01-05 08:10:00,Clark St & Elm St,TA1,Wells St & Concord Ln,TA2,member,-4.5,false
A2,electric_bike,2026-01-10 13:00:00.500,2026-01-10 13:31:00,,,Wells St & Concord Ln,TA2,casual,,true
A3,classic_bike,not-a-time,2026-01-05 08:10:00,Clark St & Elm St,TA1,Wells St & Concord Ln,TA2,member,,
A4,classic_bike,2026-01-05 09:00:00,2026-01-05 09:05:00,Clark St & Elm St,TA1,Wells St & Concord Ln,TA2,member,cold,
`

func TestReadCSV(t *testing.T) {
	rows, stats, err := ReadCSV(strings.NewReader(sampleCSV), nil)
	if err != nil {
		t.Fatalf("ReadCSV() failed: %v", err)
	}
	if stats.Rows != 4 || stats.Skipped != 2 {
		t.Errorf("stats = %+v, want 4 rows and 2 skipped", stats)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d trips, want 2", len(rows))
	}

	first := rows[0]
	if first.RideID != "A1" || first.StartStation != "Clark St & Elm St" {
		t.Errorf("unexpected first row: %+v", first)
	}
	if first.TemperatureC == nil || *first.TemperatureC != -4.5 {
		t.Errorf("TemperatureC = %v, want -4.5", first.TemperatureC)
	}
	if first.Promotion == nil || *first.Promotion {
		t.Errorf("Promotion = %v, want false", first.Promotion)
	}
	if got := first.EndedAt.Sub(first.StartedAt); got != 10*time.Minute {
		t.Errorf("duration = %v, want 10m", got)
	}

	second := rows[1]
	if second.StartStation != "" {
		t.Errorf("StartStation = %q, want empty", second.StartStation)
	}
	if second.TemperatureC != nil {
		t.Error("TemperatureC should be nil when blank")
	}
	if second.Promotion == nil || !*second.Promotion {
		t.Error("Promotion should be true")
	}
	if second.StartedAt.Nanosecond() != 500_000_000 {
		t.Errorf("fractional seconds lost: %v", second.StartedAt)
	}
}

func TestReadCSV_Location(t *testing.T) {
	chicago := time.FixedZone("CST", -6*3600)
	rows, _, err := ReadCSV(strings.NewReader(sampleCSV), chicago)
	if err != nil {
		t.Fatalf("ReadCSV() failed: %v", err)
	}
	if _, offset := rows[0].StartedAt.Zone(); offset != -6*3600 {
		t.Errorf("offset = %d, want -21600", offset)
	}
}

func TestReadCSV_StationIDFallback(t *testing.T) {
	data := "ride_id,rideable_type,started_at,ended_at,start_station_id,end_station_id\n" +
		"B1,docked_bike,2026-01-05 08:00:00,2026-01-05 08:10:00,S1,S2\n"
	rows, _, err := ReadCSV(strings.NewReader(data), nil)
	if err != nil {
		t.Fatalf("ReadCSV() failed: %v", err)
	}
	if len(rows) != 1 || rows[0].StartStation != "S1" || rows[0].EndStation != "S2" {
		t.Errorf("unexpected rows: %+v", rows)
	}
}

func TestReadCSV_MissingColumns(t *testing.T) {
	_, _, err := ReadCSV(strings.NewReader("ride_id,started_at\nA,2026-01-05 08:00:00\n"), nil)
	if err == nil {
		t.Fatal("expected error for missing columns")
	}
	if !strings.Contains(err.Error(), "ended_at, rideable_type") {
		t.Errorf("error should list missing columns in order: %v", err)
	}
}

func TestReadCSV_Empty(t *testing.T) {
	if _, _, err := ReadCSV(strings.NewReader(""), nil); err == nil {
		t.Error("expected error for empty input")
	}
}
