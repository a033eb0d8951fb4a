package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/j-veylop/divvy-insights/internal/models"
	"github.com/j-veylop/divvy-insights/internal/trips"
	"github.com/j-veylop/divvy-insights/internal/trips/tripstest"
)

func sampleRecords(t *testing.T) *trips.RecordSet {
	t.Helper()
	var raw []models.RawTrip
	for i := range 12 {
		trip := tripstest.Trip(fmt.Sprintf("r%02d", i), models.VehicleClassic, "A", "B",
			tripstest.At(tripstest.Monday, 7+i%3, 0), float64(5+2*i))
		trip.TemperatureC = tripstest.Float(float64(i))
		trip.Promotion = tripstest.Bool(i%3 == 0)
		raw = append(raw, trip)
	}
	return tripstest.RecordSet(t, raw...)
}

func fullRequest() Request {
	return Request{
		Flow:     models.DefaultFlowConfig(),
		Temporal: models.DefaultTemporalConfig(),
		Pricing: models.PricingConfig{models.VehicleClassic: {
			UnlockFee: decimal.NewFromInt(1), RatePerMinuteAfter: decimal.RequireFromString("0.10"),
		}},
		Costs:      models.CostConfig{models.VehicleClassic: {DepreciationPerTrip: decimal.RequireFromString("0.30")}},
		Response:   "duration_min",
		Covariates: []string{"temperature_c"},
	}
}

func TestParseTasks(t *testing.T) {
	tests := []struct {
		in      string
		want    []models.Component
		wantErr bool
	}{
		{"all", AllComponents, false},
		{"", AllComponents, false},
		{"imbalance", []models.Component{models.ComponentFlow}, false},
		{"ue,efficiency", []models.Component{models.ComponentEconomics}, false},
		{"Bimodal, regression", []models.Component{models.ComponentTemporal, models.ComponentSignificance}, false},
		{"kmeans", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTasks(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTasks(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && !slices.Equal(got, tt.want) {
				t.Errorf("ParseTasks(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestAnalyzer_Run(t *testing.T) {
	rs := sampleRecords(t)
	report, err := NewAnalyzer().Run(context.Background(), rs, fullRequest())
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if report.RunID == "" {
		t.Error("RunID should be set")
	}
	if report.Records != 12 {
		t.Errorf("Records = %d, want 12", report.Records)
	}
	if len(report.Failures) != 0 {
		t.Fatalf("unexpected failures: %v", report.Failures)
	}
	if report.Flow == nil || report.Economics == nil || report.Temporal == nil || report.Significance == nil {
		t.Fatalf("missing results: %+v", report)
	}
	if report.Flow.Stations["B"].Inflow != 12 {
		t.Errorf("B inflow = %d, want 12", report.Flow.Stations["B"].Inflow)
	}
}

func TestAnalyzer_IsolatesFailures(t *testing.T) {
	req := fullRequest()
	req.Pricing = models.PricingConfig{}
	req.Covariates = []string{"wind"}

	report, err := NewAnalyzer().Run(context.Background(), sampleRecords(t), req)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	var cerr *models.ConfigurationError
	if !errors.As(report.Failures[models.ComponentEconomics], &cerr) {
		t.Errorf("economics failure = %v, want ConfigurationError", report.Failures[models.ComponentEconomics])
	}
	if !report.Failed(models.ComponentSignificance) {
		t.Error("regression should have failed")
	}
	if report.Economics != nil || report.Significance != nil {
		t.Error("failed components should leave nil results")
	}
	if report.Flow == nil || report.Temporal == nil {
		t.Error("healthy components should still produce results")
	}
}

func TestAnalyzer_SelectedComponents(t *testing.T) {
	req := fullRequest()
	req.Components = []models.Component{models.ComponentTemporal}

	report, err := NewAnalyzer().Run(context.Background(), sampleRecords(t), req)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if report.Temporal == nil {
		t.Error("temporal result missing")
	}
	if report.Flow != nil || report.Economics != nil || report.Significance != nil {
		t.Error("unrequested components should not run")
	}
}

func TestAnalyzer_Demand(t *testing.T) {
	req := fullRequest()
	req.Components = []models.Component{models.ComponentSignificance}
	req.Demand = true
	req.Covariates = []string{"hour"}

	report, err := NewAnalyzer().Run(context.Background(), sampleRecords(t), req)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	// Three observed cells (hours 7, 8, 9) leave one residual degree of freedom.
	if report.Significance == nil || report.Significance.Response != "demand" || report.Significance.N != 3 {
		t.Errorf("demand fit = %+v, failures %v", report.Significance, report.Failures)
	}
}

func TestAnalyzer_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewAnalyzer().Run(ctx, sampleRecords(t), fullRequest()); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}
