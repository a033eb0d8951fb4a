// Package flow computes per-station supply and demand balance.
package flow

import (
	"cmp"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/j-veylop/divvy-insights/internal/logger"
	"github.com/j-veylop/divvy-insights/internal/models"
	"github.com/j-veylop/divvy-insights/internal/trips"
)

// DefaultConfig returns the default station flow parameters.
func DefaultConfig() models.FlowConfig {
	return models.DefaultFlowConfig()
}

type counts struct {
	inflow, outflow int
	amPeak, weekend int
	ridden          time.Duration // summed departure durations
}

// Compute groups trips by start and end station and derives each station's
// net flow. Trips missing either station are excluded and counted. The
// result does not depend on record order.
func Compute(rs *trips.RecordSet, cfg models.FlowConfig) (*models.StationFlowResult, error) {
	if cfg.CongestionThreshold < 0 {
		return nil, &models.ConfigurationError{Config: "flow", Reason: "congestion threshold must not be negative"}
	}
	if cfg.AnomalyCount < 0 {
		return nil, &models.ConfigurationError{Config: "flow", Reason: "anomaly count must not be negative"}
	}
	if cfg.Tags.HotQuantile < 0 || cfg.Tags.HotQuantile > 1 {
		return nil, &models.ConfigurationError{Config: "flow", Reason: "hot station quantile must be within [0, 1]"}
	}
	if cfg.RebalanceNet < 0 {
		return nil, &models.ConfigurationError{Config: "flow", Reason: "rebalance net flow must not be negative"}
	}

	result := &models.StationFlowResult{
		Stations:  make(map[string]models.StationFlow),
		Threshold: cfg.CongestionThreshold,
	}

	byStation := make(map[string]*counts)
	get := func(id string) *counts {
		c, ok := byStation[id]
		if !ok {
			c = &counts{}
			byStation[id] = c
		}
		return c
	}

	for i := range rs.Len() {
		rec := rs.At(i)
		if !rec.HasStations() {
			result.ExcludedTrips++
			continue
		}
		result.IncludedTrips++

		start := get(rec.StartStation)
		start.outflow++
		start.ridden += rec.Duration
		if rec.Hour >= cfg.AMPeakStart && rec.Hour <= cfg.AMPeakEnd {
			start.amPeak++
		}
		if rec.DayType == models.Weekend {
			start.weekend++
		}
		get(rec.EndStation).inflow++
	}

	if result.ExcludedTrips > 0 {
		logger.Debug("trips without stations excluded from flow", "excluded", result.ExcludedTrips)
	}

	for id, c := range byStation {
		if id == "" {
			return nil, &models.ValidationError{Field: "station", Reason: "empty station id after exclusion"}
		}
		net := c.inflow - c.outflow
		result.Stations[id] = models.StationFlow{
			Station:        id,
			Inflow:         c.inflow,
			Outflow:        c.outflow,
			NetFlow:        net,
			Status:         classify(net, cfg.CongestionThreshold),
			AMPeakOutflow:  c.amPeak,
			WeekendOutflow: c.weekend,
			AMPeakRatio:    models.SafeRatio(float64(c.amPeak), float64(c.outflow)),
			WeekendRatio:   models.SafeRatio(float64(c.weekend), float64(c.outflow)),
			AvgMinutes:     models.SafeRatio(c.ridden.Minutes(), float64(c.outflow)),
		}
	}

	result.Ordered = make([]models.StationFlow, 0, len(result.Stations))
	for _, s := range result.Stations {
		result.Ordered = append(result.Ordered, s)
	}
	slices.SortFunc(result.Ordered, func(a, b models.StationFlow) int {
		return cmp.Compare(a.Station, b.Station)
	})

	result.HotOutflow = hotOutflow(result.Ordered, cfg.Tags.HotQuantile)
	for i := range result.Ordered {
		s := &result.Ordered[i]
		s.Tags = tag(*s, cfg.Tags, result.HotOutflow)
		result.Stations[s.Station] = *s
	}

	result.Congested = Anomalies(result.Ordered, cfg.AnomalyCount, true)
	result.Short = Anomalies(result.Ordered, cfg.AnomalyCount, false)
	result.Incentive, result.Dispatch = Rebalance(result.Ordered, cfg.RebalanceNet)

	return result, nil
}

// hotOutflow returns the q quantile of station outflow. It is 0 without
// stations or for q of 0, which leaves no station hot.
func hotOutflow(stations []models.StationFlow, q float64) float64 {
	if len(stations) == 0 || q <= 0 {
		return 0
	}
	out := make([]float64, len(stations))
	for i, s := range stations {
		out[i] = float64(s.Outflow)
	}
	slices.Sort(out)
	return stat.Quantile(q, stat.LinInterp, out, nil)
}

// tag derives the profile tags of one station. A station is hot or a
// zombie, never both; hot requires a positive cutoff.
func tag(s models.StationFlow, cfg models.TagConfig, hot float64) models.StationTag {
	var t models.StationTag
	switch {
	case hot > 0 && float64(s.Outflow) > hot:
		t |= models.TagHot
	case s.Outflow < cfg.ZombieOutflow:
		t |= models.TagZombie
	}
	if s.AMPeakRatio > cfg.CommuteRatio {
		t |= models.TagCommute
	}
	if s.WeekendRatio > cfg.LeisureRatio {
		t |= models.TagLeisure
	}
	if s.Outflow > 0 && s.AvgMinutes < cfg.ShortTrip.Minutes() {
		t |= models.TagShortTrip
	}
	if s.Outflow == 0 && s.Inflow > cfg.InflowOnlyInflow {
		t |= models.TagInflowOnly
	}
	return t
}

// Rebalance splits stations into rebalancing lists. Incentive holds hot or
// commute stations with net flow above net, highest first; riders there
// are paid to take bikes away. Dispatch holds stations with net flow below
// -net, lowest first, to be restocked by truck. Ties go by station id.
func Rebalance(stations []models.StationFlow, net int) (incentive, dispatch []models.StationFlow) {
	for _, s := range stations {
		switch {
		case s.NetFlow > net && (s.Tags.Has(models.TagHot) || s.Tags.Has(models.TagCommute)):
			incentive = append(incentive, s)
		case s.NetFlow < -net:
			dispatch = append(dispatch, s)
		}
	}
	incentive = Anomalies(incentive, len(incentive), true)
	dispatch = Anomalies(dispatch, len(dispatch), false)
	return incentive, dispatch
}

func classify(net, threshold int) models.FlowStatus {
	switch {
	case net > threshold:
		return models.FlowSevereCongestion
	case net < -threshold:
		return models.FlowSevereShortage
	default:
		return models.FlowBalanced
	}
}

// Anomalies returns the n stations with the highest net flow (congested) or
// the lowest (short). Ties are broken by station id ascending.
func Anomalies(stations []models.StationFlow, n int, congested bool) []models.StationFlow {
	sorted := slices.Clone(stations)
	slices.SortFunc(sorted, func(a, b models.StationFlow) int {
		var c int
		if congested {
			c = cmp.Compare(b.NetFlow, a.NetFlow)
		} else {
			c = cmp.Compare(a.NetFlow, b.NetFlow)
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.Station, b.Station)
	})
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// NewShortages returns the stations in severe shortage in cur that were not
// in severe shortage in prev. A nil prev reports every shortage.
func NewShortages(prev, cur *models.StationFlowResult) []string {
	if cur == nil {
		return nil
	}
	var out []string
	for _, s := range cur.Ordered {
		if s.Status != models.FlowSevereShortage {
			continue
		}
		if prev != nil {
			if old, ok := prev.Stations[s.Station]; ok && old.Status == models.FlowSevereShortage {
				continue
			}
		}
		out = append(out, s.Station)
	}
	return out
}
