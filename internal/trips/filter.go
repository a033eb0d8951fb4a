package trips

import (
	"fmt"

	"github.com/j-veylop/divvy-insights/internal/models"
)

// FilterPeriod keeps rows whose start falls in the given year and month.
// A zero year or month leaves that part of the date unfiltered.
func FilterPeriod(raw []models.RawTrip, year, month int) []models.RawTrip {
	if year == 0 && month == 0 {
		return raw
	}
	out := make([]models.RawTrip, 0, len(raw))
	for _, r := range raw {
		if year != 0 && r.StartedAt.Year() != year {
			continue
		}
		if month != 0 && int(r.StartedAt.Month()) != month {
			continue
		}
		out = append(out, r)
	}
	return out
}

// SliceLabel names a time slice, e.g. "2026-01", "2026", "month-01" or "all".
func SliceLabel(year, month int) string {
	switch {
	case year != 0 && month != 0:
		return fmt.Sprintf("%04d-%02d", year, month)
	case year != 0:
		return fmt.Sprintf("%04d", year)
	case month != 0:
		return fmt.Sprintf("month-%02d", month)
	default:
		return "all"
	}
}
