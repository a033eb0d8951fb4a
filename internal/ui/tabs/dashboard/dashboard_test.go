package dashboard

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/shopspring/decimal"

	"github.com/j-veylop/divvy-insights/internal/app"
	"github.com/j-veylop/divvy-insights/internal/models"
)

func testReport() *models.AnalysisReport {
	congested := models.StationFlow{Station: "S1", Inflow: 30, Outflow: 5, NetFlow: 25, Status: models.FlowSevereCongestion}
	short := models.StationFlow{Station: "S2", Inflow: 5, Outflow: 30, NetFlow: -25, Status: models.FlowSevereShortage}

	var temporal models.TemporalPatternResult
	temporal.Counts[models.Weekday][8] = 4
	temporal.Peaks[models.Weekday] = models.DayTypePeaks{LocalMaxima: []int{8}, GlobalHour: 8, GlobalCount: 4}
	temporal.Peaks[models.Weekend] = models.DayTypePeaks{GlobalHour: -1}
	temporal.ShortTripRatio = 0.5
	temporal.Total = 4

	return &models.AnalysisReport{
		RunID:     "run-1",
		CreatedAt: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC),
		Slice:     "2026-01",
		Records:   60,
		Flow: &models.StationFlowResult{
			Stations:  map[string]models.StationFlow{"S1": congested, "S2": short},
			Congested: []models.StationFlow{congested},
			Short:     []models.StationFlow{short},
			Dispatch:  []models.StationFlow{short},
			Threshold: 20,
		},
		Economics: &models.UnitEconomicsResult{
			Classes: map[models.VehicleClass]models.ClassEconomics{
				models.VehicleClassic: {
					Class:        models.VehicleClassic,
					TripCount:    60,
					TotalRevenue: decimal.NewFromInt(90),
					Margin:       decimal.NewFromInt(72),
				},
			},
			Order:       []models.VehicleClass{models.VehicleClassic},
			Fleet:       []models.ClassUtilization{{Class: models.VehicleClassic, Trips: 60, TripShare: 1, MinuteShare: 1}},
			UpsellTrips: 12,
		},
		Temporal: &temporal,
		Failures: map[models.Component]error{
			models.ComponentSignificance: errors.New("singular design"),
		},
	}
}

func TestNew(t *testing.T) {
	m := New(app.NewState())
	if m == nil {
		t.Fatal("New returned nil")
	}
	if m.Init() == nil {
		t.Error("Init should start the spinner")
	}
}

func TestModel_ViewEmpty(t *testing.T) {
	state := app.NewState()
	m := New(state)
	m.SetSize(80, 24)

	if got := ansi.Strip(m.View()); !strings.Contains(got, "No report yet") {
		t.Errorf("view = %q", got)
	}

	state.StartLoading("Analyzing trips.csv")
	if got := ansi.Strip(m.View()); !strings.Contains(got, "Analyzing trips.csv") {
		t.Errorf("loading view = %q", got)
	}
}

func TestModel_ViewReport(t *testing.T) {
	state := app.NewState()
	state.SetReport("/data/trips.csv", testReport())
	m := New(state)
	m.SetSize(120, 80)

	got := ansi.Strip(m.View())
	for _, want := range []string{
		"Divvy insights · 2026-01",
		"trips.csv",
		"S1 (+25)",
		"S2 (-25)",
		"Revenue 90.00",
		"margin 72.00",
		"peak 08h",
		"Short trips 50.0% of 4",
		"Rebalancing: 0 incentives · 1 truck dispatches",
		"Upsell pool 12 classic trips",
		"Failed, see below",
		"singular design",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("view is missing %q", want)
		}
	}
}

func TestModel_ViewRegression(t *testing.T) {
	report := testReport()
	delete(report.Failures, models.ComponentSignificance)
	report.Significance = &models.SignificanceTestResult{
		Response:     "duration_min",
		Terms:        []string{models.InterceptTerm, "temperature_c"},
		Coefficients: []float64{5, 2},
		PValues:      []float64{0.2, 0.001},
		RSquared:     0.75,
		N:            30,
	}
	state := app.NewState()
	state.SetReport("trips.csv", report)
	m := New(state)
	m.SetSize(120, 80)

	got := ansi.Strip(m.View())
	for _, want := range []string{"duration_min on 1 covariates", "1 significant", "Baseline 5.000"} {
		if !strings.Contains(got, want) {
			t.Errorf("view is missing %q", want)
		}
	}
}

func TestModel_Update(t *testing.T) {
	state := app.NewState()
	state.SetReport("trips.csv", testReport())
	m := New(state)
	m.SetSize(80, 10)
	_ = m.View()

	for _, msg := range []tea.Msg{
		nil,
		app.ReportUpdatedMsg{},
		tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("G")},
		tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("g")},
	} {
		if updated, _ := m.Update(msg); updated == nil {
			t.Fatalf("Update(%v) returned nil", msg)
		}
	}
	if !m.viewport.AtTop() {
		t.Error("g should scroll back to the top")
	}
}

func TestModel_Help(t *testing.T) {
	m := New(app.NewState())
	if len(m.ShortHelp()) != 2 {
		t.Errorf("ShortHelp has %d bindings, want 2", len(m.ShortHelp()))
	}
	if len(m.FullHelp()) != 2 {
		t.Errorf("FullHelp has %d groups, want 2", len(m.FullHelp()))
	}
}
