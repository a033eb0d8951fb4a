package economics

import (
	"cmp"
	"slices"
	"time"

	"github.com/j-veylop/divvy-insights/internal/models"
	"github.com/j-veylop/divvy-insights/internal/trips"
)

// Utilization reports how each vehicle class shares the slice's trips and
// ride minutes. Classes are returned in ascending order.
func Utilization(rs *trips.RecordSet) []models.ClassUtilization {
	byClass := make(map[models.VehicleClass]*models.ClassUtilization)
	// Durations are summed as integers so the totals do not depend on
	// record order.
	ridden := make(map[models.VehicleClass]time.Duration)
	var totalTrips int
	var total time.Duration

	for i := range rs.Len() {
		rec := rs.At(i)
		u, ok := byClass[rec.Class]
		if !ok {
			u = &models.ClassUtilization{Class: rec.Class}
			byClass[rec.Class] = u
		}
		u.Trips++
		ridden[rec.Class] += rec.Duration
		totalTrips++
		total += rec.Duration
	}

	totalMinutes := total.Minutes()
	out := make([]models.ClassUtilization, 0, len(byClass))
	for c, u := range byClass {
		u.TotalMinutes = ridden[c].Minutes()
		u.TripShare = models.SafeRatio(float64(u.Trips), float64(totalTrips))
		u.MinuteShare = models.SafeRatio(u.TotalMinutes, totalMinutes)
		u.AvgMinutes = models.SafeRatio(u.TotalMinutes, float64(u.Trips))
		out = append(out, *u)
	}
	slices.SortFunc(out, func(a, b models.ClassUtilization) int {
		return cmp.Compare(a.Class, b.Class)
	})
	return out
}
