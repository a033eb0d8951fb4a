package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FlowConfig parameterizes the station flow model.
type FlowConfig struct {
	CongestionThreshold int // |net flow| above this is severe
	AnomalyCount        int // stations reported per anomaly side
	AMPeakStart         int // first hour of the morning rush, inclusive
	AMPeakEnd           int // last hour of the morning rush, inclusive

	Tags         TagConfig
	RebalanceNet int // |net flow| above this enters a rebalancing list
}

// TagConfig holds the cutoffs of the station tags.
type TagConfig struct {
	HotQuantile      float64       // outflow quantile above which a station is hot
	ZombieOutflow    int           // outflow below this is a zombie station
	CommuteRatio     float64       // AM peak ratio above this is a commute station
	LeisureRatio     float64       // weekend ratio above this is a leisure station
	ShortTrip        time.Duration // mean departure duration below this is short-trip
	InflowOnlyInflow int           // inflow above this with no outflow is inflow-only
}

// Default station flow parameters.
const (
	DefaultCongestionThreshold = 20
	DefaultAnomalyCount        = 3
	DefaultAMPeakStart         = 7
	DefaultAMPeakEnd           = 9
	DefaultRebalanceNet        = 10
)

// DefaultTagConfig returns the documented tag cutoffs.
func DefaultTagConfig() TagConfig {
	return TagConfig{
		HotQuantile:      0.9,
		ZombieOutflow:    5,
		CommuteRatio:     0.25,
		LeisureRatio:     0.40,
		ShortTrip:        10 * time.Minute,
		InflowOnlyInflow: 10,
	}
}

// DefaultFlowConfig returns the documented defaults.
func DefaultFlowConfig() FlowConfig {
	return FlowConfig{
		CongestionThreshold: DefaultCongestionThreshold,
		AnomalyCount:        DefaultAnomalyCount,
		AMPeakStart:         DefaultAMPeakStart,
		AMPeakEnd:           DefaultAMPeakEnd,
		Tags:                DefaultTagConfig(),
		RebalanceNet:        DefaultRebalanceNet,
	}
}

// TemporalConfig parameterizes the temporal pattern model.
type TemporalConfig struct {
	ShortTripThreshold time.Duration // trips at or under this are short
	HistogramBinWidth  time.Duration
	HistogramMax       time.Duration // durations at or above go to overflow
}

// Default temporal parameters.
const (
	DefaultShortTripThreshold = 10 * time.Minute
	DefaultHistogramBinWidth  = 2 * time.Minute
	DefaultHistogramMax       = 60 * time.Minute
)

// DefaultTemporalConfig returns the documented defaults.
func DefaultTemporalConfig() TemporalConfig {
	return TemporalConfig{
		ShortTripThreshold: DefaultShortTripThreshold,
		HistogramBinWidth:  DefaultHistogramBinWidth,
		HistogramMax:       DefaultHistogramMax,
	}
}

// DefaultUpsellThreshold is the classic trip length beyond which a rider is
// counted as an electric upsell candidate.
const DefaultUpsellThreshold = 15 * time.Minute

// Tariff is the tiered price schedule of one vehicle class.
type Tariff struct {
	UnlockFee           decimal.Decimal
	IncludedMinutes     decimal.Decimal
	RatePerMinuteWithin decimal.Decimal // zero when included minutes are free
	RatePerMinuteAfter  decimal.Decimal
}

// UnitCost is the per-trip cost of one vehicle class.
type UnitCost struct {
	DepreciationPerTrip decimal.Decimal
	SwapCostPerTrip     decimal.Decimal // battery swap/charge, zero for non-electric
}

// PricingConfig maps each vehicle class to its tariff.
type PricingConfig map[VehicleClass]Tariff

// CostConfig maps each vehicle class to its unit cost.
type CostConfig map[VehicleClass]UnitCost
