// Package economics computes revenue, cost and margin per vehicle class.
package economics

import (
	"cmp"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/j-veylop/divvy-insights/internal/logger"
	"github.com/j-veylop/divvy-insights/internal/models"
	"github.com/j-veylop/divvy-insights/internal/trips"
)

// Compute prices every trip under its class tariff and aggregates revenue,
// cost and margin per class. Every class present in rs must have both a
// tariff and a unit cost; this is checked before any aggregation.
func Compute(rs *trips.RecordSet, pricing models.PricingConfig, costs models.CostConfig) (*models.UnitEconomicsResult, error) {
	classes := rs.Classes()
	slices.Sort(classes)

	if err := Validate(classes, pricing, costs); err != nil {
		logger.Warn("unit economics configuration rejected", "error", err)
		return nil, err
	}

	type acc struct {
		trips   int
		revenue decimal.Decimal
		cost    decimal.Decimal
	}
	totals := make(map[models.VehicleClass]*acc, len(classes))
	for _, c := range classes {
		totals[c] = &acc{}
	}

	for i := range rs.Len() {
		rec := rs.At(i)
		a := totals[rec.Class]
		a.trips++
		a.revenue = a.revenue.Add(Revenue(pricing[rec.Class], rec.Minutes()))
		a.cost = a.cost.Add(Cost(costs[rec.Class]))
	}

	result := &models.UnitEconomicsResult{
		Classes:         make(map[models.VehicleClass]models.ClassEconomics, len(classes)),
		Order:           classes,
		Fleet:           Utilization(rs),
		UpsellThreshold: models.DefaultUpsellThreshold,
		UpsellTrips:     UpsellTrips(rs, models.DefaultUpsellThreshold),
	}
	for _, c := range classes {
		a := totals[c]
		n := decimal.NewFromInt(int64(a.trips))
		margin := a.revenue.Sub(a.cost)
		result.Classes[c] = models.ClassEconomics{
			Class:        c,
			TripCount:    a.trips,
			TotalRevenue: a.revenue,
			TotalCost:    a.cost,
			Margin:       margin,
			MarginRate:   marginRate(margin, a.revenue),
			AvgRevenue:   a.revenue.Div(n),
			AvgCost:      a.cost.Div(n),
		}
	}

	return result, nil
}

// Revenue prices one trip of the given length in minutes:
// unlock + min(d, included)*within + max(0, d-included)*after.
func Revenue(t models.Tariff, minutes float64) decimal.Decimal {
	d := decimal.NewFromFloat(minutes)
	within := decimal.Min(d, t.IncludedMinutes)
	after := decimal.Max(decimal.Zero, d.Sub(t.IncludedMinutes))
	return t.UnlockFee.
		Add(within.Mul(t.RatePerMinuteWithin)).
		Add(after.Mul(t.RatePerMinuteAfter))
}

// Cost returns the per-trip cost of a class.
func Cost(c models.UnitCost) decimal.Decimal {
	return c.DepreciationPerTrip.Add(c.SwapCostPerTrip)
}

func marginRate(margin, revenue decimal.Decimal) float64 {
	return models.NaNRatio(margin.InexactFloat64(), revenue.InexactFloat64())
}

// UpsellTrips counts the classic trips longer than threshold, the riders
// most likely to switch to an electric bike.
func UpsellTrips(rs *trips.RecordSet, threshold time.Duration) int {
	n := 0
	for i := range rs.Len() {
		rec := rs.At(i)
		if rec.Class == models.VehicleClassic && rec.Duration > threshold {
			n++
		}
	}
	return n
}

// Validate checks that every class has a tariff and a unit cost and that no
// configured value is negative.
func Validate(classes []models.VehicleClass, pricing models.PricingConfig, costs models.CostConfig) error {
	for _, c := range classes {
		if _, ok := pricing[c]; !ok {
			return &models.ConfigurationError{Class: c, Config: "pricing", Reason: "no tariff configured"}
		}
		if _, ok := costs[c]; !ok {
			return &models.ConfigurationError{Class: c, Config: "cost", Reason: "no unit cost configured"}
		}
	}

	for _, c := range sortedKeys(pricing) {
		t := pricing[c]
		if t.UnlockFee.IsNegative() || t.IncludedMinutes.IsNegative() ||
			t.RatePerMinuteWithin.IsNegative() || t.RatePerMinuteAfter.IsNegative() {
			return &models.ConfigurationError{Class: c, Config: "pricing", Reason: "tariff values must not be negative"}
		}
	}
	for _, c := range sortedKeys(costs) {
		u := costs[c]
		if u.DepreciationPerTrip.IsNegative() || u.SwapCostPerTrip.IsNegative() {
			return &models.ConfigurationError{Class: c, Config: "cost", Reason: "unit cost values must not be negative"}
		}
	}
	return nil
}

func sortedKeys[V any](m map[models.VehicleClass]V) []models.VehicleClass {
	keys := make([]models.VehicleClass, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, cmp.Compare[models.VehicleClass])
	return keys
}
