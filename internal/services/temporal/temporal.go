// Package temporal computes hourly demand curves and trip duration
// distributions.
package temporal

import (
	"github.com/j-veylop/divvy-insights/internal/models"
	"github.com/j-veylop/divvy-insights/internal/trips"
)

// DefaultConfig returns the default temporal parameters.
func DefaultConfig() models.TemporalConfig {
	return models.DefaultTemporalConfig()
}

// Compute buckets trips by day-type and start hour, locates the peaks of
// each curve and summarizes trip durations. An empty record set yields an
// all-zero result.
func Compute(rs *trips.RecordSet, cfg models.TemporalConfig) (*models.TemporalPatternResult, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}

	result := &models.TemporalPatternResult{
		ShortTripThreshold:    cfg.ShortTripThreshold,
		ShortTripRatioByRider: make(map[models.RiderType]float64),
		Segmentation:          make(map[models.RiderType][7]int),
		Histogram:             newHistogram(cfg.HistogramBinWidth, cfg.HistogramMax),
	}

	var dates [2]map[string]struct{}
	for i := range dates {
		dates[i] = make(map[string]struct{})
	}
	var short int
	riderTotal := make(map[models.RiderType]int)
	riderShort := make(map[models.RiderType]int)

	for i := range rs.Len() {
		rec := rs.At(i)
		result.Counts[rec.DayType][rec.Hour]++
		dates[rec.DayType][rec.Date()] = struct{}{}
		result.Total++

		riderTotal[rec.Rider]++
		week := result.Segmentation[rec.Rider]
		week[rec.StartedAt.Weekday()]++
		result.Segmentation[rec.Rider] = week
		if rec.Duration <= cfg.ShortTripThreshold {
			short++
			riderShort[rec.Rider]++
		}
		result.Histogram.Add(rec.Duration)
	}

	for _, dt := range models.DayTypes {
		result.Days[dt] = len(dates[dt])
		for h := range 24 {
			result.DailyAverage[dt][h] = models.SafeRatio(float64(result.Counts[dt][h]), float64(result.Days[dt]))
		}
		result.Peaks[dt] = Peaks(result.Counts[dt])
	}

	result.ShortTripRatio = models.SafeRatio(float64(short), float64(result.Total))
	for r, n := range riderTotal {
		result.ShortTripRatioByRider[r] = models.SafeRatio(float64(riderShort[r]), float64(n))
	}

	return result, nil
}

func validate(cfg models.TemporalConfig) error {
	switch {
	case cfg.ShortTripThreshold < 0:
		return &models.ConfigurationError{Config: "temporal", Reason: "short trip threshold must not be negative"}
	case cfg.HistogramBinWidth <= 0:
		return &models.ConfigurationError{Config: "temporal", Reason: "histogram bin width must be positive"}
	case cfg.HistogramMax < cfg.HistogramBinWidth:
		return &models.ConfigurationError{Config: "temporal", Reason: "histogram max must be at least one bin wide"}
	}
	return nil
}

// Peaks finds the local maxima of an hourly curve on the circular 0-23
// ring and its global maximum. An hour is a local maximum when it rises
// above the previous hour and the next differing hour is lower; a flat top
// is reported at its first hour. The global maximum takes the lowest hour
// on ties and is -1 for an empty curve.
func Peaks(c [24]int) models.DayTypePeaks {
	p := models.DayTypePeaks{GlobalHour: -1}

	for h := range 24 {
		if c[h] > p.GlobalCount {
			p.GlobalCount = c[h]
			p.GlobalHour = h
		}

		prev := c[(h+23)%24]
		if c[h] <= prev {
			continue
		}
		for step := 1; step < 24; step++ {
			next := c[(h+step)%24]
			if next == c[h] {
				continue
			}
			if next < c[h] {
				p.LocalMaxima = append(p.LocalMaxima, h)
			}
			break
		}
	}

	return p
}
