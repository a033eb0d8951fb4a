package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FlowStatus classifies how far a station is out of balance.
type FlowStatus string

const (
	FlowBalanced         FlowStatus = "balanced"
	FlowSevereCongestion FlowStatus = "severe_congestion" // bikes piling up
	FlowSevereShortage   FlowStatus = "severe_shortage"   // bikes running out
)

// StationTag is a set of station profile labels.
type StationTag uint8

const (
	TagHot        StationTag = 1 << iota // outflow above the hot quantile
	TagZombie                            // hardly used
	TagCommute                           // large share of morning rush departures
	TagLeisure                           // large share of weekend departures
	TagShortTrip                         // departures are short on average
	TagInflowOnly                        // bikes arrive but never leave
)

// StationTags lists every tag in display order.
var StationTags = []StationTag{TagHot, TagZombie, TagCommute, TagLeisure, TagShortTrip, TagInflowOnly}

// Has reports whether every tag in t is set.
func (s StationTag) Has(t StationTag) bool {
	return s&t == t
}

// Names returns the names of the tags in s, in display order.
func (s StationTag) Names() []string {
	var out []string
	for _, t := range StationTags {
		if s.Has(t) {
			out = append(out, t.name())
		}
	}
	return out
}

func (s StationTag) name() string {
	switch s {
	case TagHot:
		return "hot"
	case TagZombie:
		return "zombie"
	case TagCommute:
		return "commute"
	case TagLeisure:
		return "leisure"
	case TagShortTrip:
		return "short-trip"
	case TagInflowOnly:
		return "inflow-only"
	default:
		return "unknown"
	}
}

// String joins the tag names with commas, or returns "regular".
func (s StationTag) String() string {
	names := s.Names()
	if len(names) == 0 {
		return "regular"
	}
	return strings.Join(names, ",")
}

// StationFlow is the trip balance of one station.
type StationFlow struct {
	Station        string
	Inflow         int // trips ending here
	Outflow        int // trips starting here
	NetFlow        int // Inflow - Outflow
	Status         FlowStatus
	AMPeakOutflow  int
	WeekendOutflow int
	AMPeakRatio    float64 // AMPeakOutflow / Outflow, 0 without outflow
	WeekendRatio   float64 // WeekendOutflow / Outflow, 0 without outflow
	AvgMinutes     float64 // mean duration of departures, 0 without outflow
	Tags           StationTag
}

// StationFlowResult is the output of the station flow model.
type StationFlowResult struct {
	Stations      map[string]StationFlow
	Ordered       []StationFlow // by station id ascending
	Congested     []StationFlow // highest net flow first
	Short         []StationFlow // lowest net flow first
	Threshold     int
	IncludedTrips int
	ExcludedTrips int // trips missing a start or end station

	// Rebalancing: Incentive holds tagged hot or commute stations gaining
	// bikes, highest net first; Dispatch holds stations losing bikes,
	// lowest net first.
	Incentive  []StationFlow
	Dispatch   []StationFlow
	HotOutflow float64 // outflow cutoff of TagHot
}

// NetFlowSum returns the sum of net flow over all stations. It is zero for
// every well-formed result.
func (r *StationFlowResult) NetFlowSum() int {
	sum := 0
	for _, s := range r.Stations {
		sum += s.NetFlow
	}
	return sum
}

// CountByStatus returns how many stations carry the given status.
func (r *StationFlowResult) CountByStatus(status FlowStatus) int {
	n := 0
	for _, s := range r.Stations {
		if s.Status == status {
			n++
		}
	}
	return n
}

// ClassEconomics is the unit economics of one vehicle class.
type ClassEconomics struct {
	Class        VehicleClass
	TripCount    int
	TotalRevenue decimal.Decimal
	TotalCost    decimal.Decimal
	Margin       decimal.Decimal // TotalRevenue - TotalCost, exact
	MarginRate   float64         // Margin / TotalRevenue, NaN when revenue is zero
	AvgRevenue   decimal.Decimal
	AvgCost      decimal.Decimal
}

// ClassUtilization is the fleet throughput of one vehicle class.
type ClassUtilization struct {
	Class        VehicleClass
	Trips        int
	TripShare    float64
	TotalMinutes float64
	MinuteShare  float64
	AvgMinutes   float64
}

// UnitEconomicsResult is the output of the unit economics model.
type UnitEconomicsResult struct {
	Classes map[VehicleClass]ClassEconomics
	Order   []VehicleClass // class names ascending
	Fleet   []ClassUtilization

	// Classic trips longer than UpsellThreshold.
	UpsellTrips     int
	UpsellThreshold time.Duration
}

// HistogramBin counts durations in [Lower, Upper).
type HistogramBin struct {
	Lower time.Duration
	Upper time.Duration
	Count int
}

// DurationHistogram is a fixed-width histogram of trip durations.
type DurationHistogram struct {
	Bins     []HistogramBin
	Overflow int // durations at or beyond the last bin
}

// Add counts d in its bin, or in Overflow when it lies past the last bin.
func (h *DurationHistogram) Add(d time.Duration) {
	for i := range h.Bins {
		if d >= h.Bins[i].Lower && d < h.Bins[i].Upper {
			h.Bins[i].Count++
			return
		}
	}
	h.Overflow++
}

// Total returns the number of durations counted, overflow included.
func (h *DurationHistogram) Total() int {
	n := h.Overflow
	for _, b := range h.Bins {
		n += b.Count
	}
	return n
}

// DayTypePeaks locates the peaks of one day-type's hourly curve.
type DayTypePeaks struct {
	LocalMaxima []int // hours, ascending
	GlobalHour  int   // -1 when the curve is empty
	GlobalCount int
}

// TemporalPatternResult is the output of the temporal pattern model.
type TemporalPatternResult struct {
	Counts                [2][24]int
	DailyAverage          [2][24]float64
	Days                  [2]int // distinct dates observed per day-type
	Peaks                 [2]DayTypePeaks
	Histogram             DurationHistogram
	ShortTripThreshold    time.Duration
	ShortTripRatio        float64
	ShortTripRatioByRider map[RiderType]float64
	Segmentation          map[RiderType][7]int // trips per rider type, indexed by time.Weekday
	Total                 int
}

// InterceptTerm names the constant column of every fit.
const InterceptTerm = "intercept"

// SignificanceTestResult is the output of an OLS fit.
type SignificanceTestResult struct {
	Response     string
	Terms        []string // "intercept" followed by the covariates
	Coefficients []float64
	StdErrors    []float64
	TStats       []float64
	PValues      []float64
	RSquared     float64
	N            int
	DF           int // N - len(covariates) - 1
}

// Coefficient returns the fitted coefficient for a term.
func (r *SignificanceTestResult) Coefficient(term string) (float64, bool) {
	for i, t := range r.Terms {
		if t == term {
			return r.Coefficients[i], true
		}
	}
	return 0, false
}

// Component names one analysis of a report.
type Component string

const (
	ComponentFlow         Component = "imbalance"
	ComponentEconomics    Component = "ue"
	ComponentTemporal     Component = "bimodal"
	ComponentSignificance Component = "regression"
)

// AnalysisReport bundles the results of one analysis run.
type AnalysisReport struct {
	RunID        string
	CreatedAt    time.Time
	Slice        string // e.g. "2026-01", "all"
	Records      int
	Rejected     int
	Flow         *StationFlowResult
	Economics    *UnitEconomicsResult
	Temporal     *TemporalPatternResult
	Significance *SignificanceTestResult
	Failures     map[Component]error
}

// Failed reports whether the component ran and failed.
func (r *AnalysisReport) Failed(c Component) bool {
	_, ok := r.Failures[c]
	return ok
}
