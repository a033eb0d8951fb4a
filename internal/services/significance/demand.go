package significance

import (
	"fmt"
	"slices"
	"strings"

	"github.com/j-veylop/divvy-insights/internal/models"
	"github.com/j-veylop/divvy-insights/internal/trips"
)

// DemandResponse is the response name of hourly demand fits.
const DemandResponse = "demand"

var demandCovariates = []string{"hour", "is_weekend", "promotion", "temperature_c"}

// DefaultDemandCovariates are used by FitHourlyDemand when none are given.
var DefaultDemandCovariates = []string{"temperature_c", "is_weekend"}

// cell aggregates the trips that started in one date and hour.
type cell struct {
	date     string
	hour     int
	weekend  bool
	trips    int
	temps    []float64
	promoSum int
	promoN   int
}

func (c *cell) value(name string) (float64, bool) {
	switch name {
	case "hour":
		return float64(c.hour), true
	case "is_weekend":
		return indicator(c.weekend), true
	case "temperature_c":
		if len(c.temps) == 0 {
			return 0, false
		}
		return meanTemperature(c.temps), true
	case "promotion":
		if c.promoN == 0 {
			return 0, false
		}
		return float64(c.promoSum) / float64(c.promoN), true
	}
	return 0, false
}

// FitHourlyDemand aggregates the slice into a panel of observed date-hour
// cells and regresses the trip count of each cell on panel covariates:
// hour, is_weekend, mean temperature_c and promotion share.
func FitHourlyDemand(rs *trips.RecordSet, covariates []string) (*models.SignificanceTestResult, error) {
	for _, c := range covariates {
		if !slices.Contains(demandCovariates, c) {
			return nil, &models.ConfigurationError{
				Config: "regression",
				Reason: fmt.Sprintf("unknown demand covariate %q (known: %s)", c, strings.Join(demandCovariates, ", ")),
			}
		}
	}

	cells := make(map[string]*cell)
	for i := range rs.Len() {
		rec := rs.At(i)
		key := cellKey(rec.Date(), rec.Hour)
		c, ok := cells[key]
		if !ok {
			c = &cell{date: rec.Date(), hour: rec.Hour, weekend: rec.DayType == models.Weekend}
			cells[key] = c
		}
		c.trips++
		if rec.TemperatureC != nil {
			c.temps = append(c.temps, *rec.TemperatureC)
		}
		if rec.Promotion != nil {
			c.promoN++
			if *rec.Promotion {
				c.promoSum++
			}
		}
	}

	obs := make([]observation, 0, len(cells))
	for key, c := range cells {
		o := observation{key: key, y: float64(c.trips), x: make([]float64, len(covariates))}
		usable := true
		for j, name := range covariates {
			v, ok := c.value(name)
			if !ok {
				usable = false
				break
			}
			o.x[j] = v
		}
		if usable {
			obs = append(obs, o)
		}
	}

	return ols(DemandResponse, covariates, obs)
}

// meanTemperature sorts temps in place so the sum is independent of
// record order.
func meanTemperature(temps []float64) float64 {
	slices.Sort(temps)
	var sum float64
	for _, t := range temps {
		sum += t
	}
	return sum / float64(len(temps))
}

func cellKey(date string, hour int) string {
	return fmt.Sprintf("%sT%02d", date, hour)
}
