package models

import (
	"errors"
	"math"
	"slices"
	"testing"
	"time"
)

func TestParseVehicleClass(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want VehicleClass
	}{
		{"Classic", "classic_bike", VehicleClassic},
		{"Electric", "electric_bike", VehicleElectric},
		{"Docked", "docked_bike", VehicleDocked},
		{"MixedCase", "  Electric_Bike ", VehicleElectric},
		{"Scooter", "electric_scooter", VehicleClass("electric_scooter")},
		{"Bare", "classic", VehicleClassic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseVehicleClass(tt.in); got != tt.want {
				t.Errorf("ParseVehicleClass(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDayTypeOf(t *testing.T) {
	tests := []struct {
		name string
		date string
		want DayType
	}{
		{"Monday", "2026-01-05", Weekday},
		{"Friday", "2026-01-09", Weekday},
		{"Saturday", "2026-01-10", Weekend},
		{"Sunday", "2026-01-11", Weekend},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := time.Parse(time.DateOnly, tt.date)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if got := DayTypeOf(d); got != tt.want {
				t.Errorf("DayTypeOf(%s) = %v, want %v", tt.date, got, tt.want)
			}
		})
	}
}

func TestDayType_String(t *testing.T) {
	if Weekday.String() != "weekday" || Weekend.String() != "weekend" {
		t.Errorf("unexpected names: %s %s", Weekday, Weekend)
	}
	if DayType(7).String() != "unknown" {
		t.Errorf("DayType(7).String() = %s, want unknown", DayType(7))
	}
}

func TestParseRiderType(t *testing.T) {
	if ParseRiderType("Member") != RiderMember {
		t.Error("expected member")
	}
	if ParseRiderType("casual") != RiderCasual {
		t.Error("expected casual")
	}
	if ParseRiderType("") != RiderUnknown {
		t.Error("expected unknown")
	}
}

func TestTripRecord_Helpers(t *testing.T) {
	start := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	rec := TripRecord{
		StartStation: "A",
		StartedAt:    start,
		Duration:     90 * time.Second,
	}
	if rec.Minutes() != 1.5 {
		t.Errorf("Minutes() = %v, want 1.5", rec.Minutes())
	}
	if rec.HasStations() {
		t.Error("HasStations() should be false without an end station")
	}
	if rec.Date() != "2026-01-05" {
		t.Errorf("Date() = %s", rec.Date())
	}
}

func TestRatios(t *testing.T) {
	if SafeRatio(3, 0) != 0 {
		t.Error("SafeRatio with zero denominator should be 0")
	}
	if SafeRatio(3, 4) != 0.75 {
		t.Error("SafeRatio(3, 4) should be 0.75")
	}
	if !math.IsNaN(NaNRatio(3, 0)) {
		t.Error("NaNRatio with zero denominator should be NaN")
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			"ValidationRecord",
			&ValidationError{RideID: "r1", Field: "duration", Reason: "negative"},
			"ride r1: invalid duration: negative",
		},
		{
			"ValidationSummary",
			&ValidationError{Reason: "too few records", Count: 4},
			"validation failed: too few records (4 records rejected)",
		},
		{
			"Configuration",
			&ConfigurationError{Class: VehicleElectric, Config: "pricing", Reason: "missing tariff"},
			`pricing: vehicle class "electric": missing tariff`,
		},
		{
			"Insufficient",
			&InsufficientDataError{N: 2, Required: 3},
			"insufficient data: 2 usable rows, need more than 3",
		},
		{
			"Collinearity",
			&CollinearityError{Rank: 1, Columns: []string{"intercept", "x"}},
			"design matrix is singular: rank 1 < 2 columns [intercept, x]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStationFlowResult_Helpers(t *testing.T) {
	r := &StationFlowResult{Stations: map[string]StationFlow{
		"A": {Station: "A", NetFlow: 25, Status: FlowSevereCongestion},
		"B": {Station: "B", NetFlow: -25, Status: FlowSevereShortage},
		"C": {Station: "C", NetFlow: 0, Status: FlowBalanced},
	}}
	if r.NetFlowSum() != 0 {
		t.Errorf("NetFlowSum() = %d, want 0", r.NetFlowSum())
	}
	if r.CountByStatus(FlowSevereShortage) != 1 {
		t.Errorf("CountByStatus(shortage) = %d, want 1", r.CountByStatus(FlowSevereShortage))
	}
}

func TestSummarize(t *testing.T) {
	created := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	r := &AnalysisReport{
		RunID:     "run-1",
		CreatedAt: created,
		Slice:     "2026-01",
		Records:   40,
		Rejected:  2,
		Flow: &StationFlowResult{Stations: map[string]StationFlow{
			"A": {Station: "A", NetFlow: 25, Status: FlowSevereCongestion},
			"B": {Station: "B", NetFlow: -25, Status: FlowSevereShortage},
			"C": {Station: "C", Status: FlowBalanced},
		}},
		Temporal: &TemporalPatternResult{ShortTripRatio: 0.7},
		Failures: map[Component]error{
			ComponentSignificance: errors.New("singular"),
			ComponentEconomics:    errors.New("missing tariff"),
		},
	}

	s := Summarize(r, "/data/trips.csv")
	if s.ID != "run-1" || s.Source != "/data/trips.csv" || s.Slice != "2026-01" || !s.CreatedAt.Equal(created) {
		t.Errorf("identity fields = %+v", s)
	}
	if s.Records != 40 || s.Rejected != 2 {
		t.Errorf("Records, Rejected = %d, %d", s.Records, s.Rejected)
	}
	if s.Stations != 3 || s.Congested != 1 || s.Short != 1 {
		t.Errorf("Stations, Congested, Short = %d, %d, %d", s.Stations, s.Congested, s.Short)
	}
	if s.ShortTripRatio != 0.7 {
		t.Errorf("ShortTripRatio = %v", s.ShortTripRatio)
	}
	if !math.IsNaN(s.RSquared) {
		t.Errorf("RSquared = %v, want NaN without a regression", s.RSquared)
	}
	if want := []string{"regression", "ue"}; !slices.Equal(s.Failures, want) {
		t.Errorf("Failures = %v, want %v", s.Failures, want)
	}

	empty := Summarize(&AnalysisReport{RunID: "run-2"}, "x.csv")
	if !math.IsNaN(empty.ShortTripRatio) || empty.Stations != 0 || empty.Failures != nil {
		t.Errorf("Summarize of an empty report = %+v", empty)
	}
}
