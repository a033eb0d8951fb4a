package significance

import (
	"slices"

	"github.com/j-veylop/divvy-insights/internal/models"
)

// extractor reads one numeric field of a trip. ok is false when the trip
// does not carry the field.
type extractor func(models.TripRecord) (v float64, ok bool)

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

var tripFields = map[string]extractor{
	"duration_min": func(r models.TripRecord) (float64, bool) {
		return r.Minutes(), true
	},
	"hour": func(r models.TripRecord) (float64, bool) {
		return float64(r.Hour), true
	},
	"is_weekend": func(r models.TripRecord) (float64, bool) {
		return indicator(r.DayType == models.Weekend), true
	},
	"is_electric": func(r models.TripRecord) (float64, bool) {
		return indicator(r.Class == models.VehicleElectric), true
	},
	"is_member": func(r models.TripRecord) (float64, bool) {
		if r.Rider == models.RiderUnknown {
			return 0, false
		}
		return indicator(r.Rider == models.RiderMember), true
	},
	"temperature_c": func(r models.TripRecord) (float64, bool) {
		if r.TemperatureC == nil {
			return 0, false
		}
		return *r.TemperatureC, true
	},
	"promotion": func(r models.TripRecord) (float64, bool) {
		if r.Promotion == nil {
			return 0, false
		}
		return indicator(*r.Promotion), true
	},
}

// Fields returns the trip-level field names usable as response or
// covariate, sorted.
func Fields() []string {
	return sortedNames(tripFields)
}

// DemandFields returns the hourly panel covariates accepted by
// FitHourlyDemand, sorted.
func DemandFields() []string {
	return slices.Clone(demandCovariates)
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
