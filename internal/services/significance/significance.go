// Package significance fits ordinary least squares regressions of a ride
// metric on covariates and tests each coefficient.
package significance

import (
	"fmt"
	"strings"

	"github.com/j-veylop/divvy-insights/internal/logger"
	"github.com/j-veylop/divvy-insights/internal/models"
	"github.com/j-veylop/divvy-insights/internal/trips"
)

// DefaultResponse is the trip-level field regressed on by default.
const DefaultResponse = "duration_min"

// DefaultCovariates are regressed on when none are requested.
var DefaultCovariates = []string{"temperature_c", "promotion"}

// Fit regresses the response field on the covariate fields over every trip
// that carries all of them. Rows are put in canonical order first, so the
// result does not depend on record order.
func Fit(rs *trips.RecordSet, response string, covariates []string) (*models.SignificanceTestResult, error) {
	getY, getX, err := resolve(response, covariates)
	if err != nil {
		return nil, err
	}

	obs := make([]observation, 0, rs.Len())
	var dropped int
	for i := range rs.Len() {
		rec := rs.At(i)
		o, ok := align(rec, getY, getX)
		if !ok {
			dropped++
			continue
		}
		obs = append(obs, o)
	}
	if dropped > 0 {
		logger.Debug("rows without regression fields dropped", "dropped", dropped, "kept", len(obs))
	}

	return ols(response, covariates, obs)
}

func resolve(response string, covariates []string) (extractor, []extractor, error) {
	getY, ok := tripFields[response]
	if !ok {
		return nil, nil, unknownField(response)
	}
	getX := make([]extractor, len(covariates))
	for i, c := range covariates {
		if c == response {
			return nil, nil, &models.ConfigurationError{Config: "regression", Reason: fmt.Sprintf("%q is both response and covariate", c)}
		}
		f, ok := tripFields[c]
		if !ok {
			return nil, nil, unknownField(c)
		}
		getX[i] = f
	}
	return getY, getX, nil
}

func align(rec models.TripRecord, getY extractor, getX []extractor) (observation, bool) {
	y, ok := getY(rec)
	if !ok {
		return observation{}, false
	}
	o := observation{key: rec.RideID, y: y, x: make([]float64, len(getX))}
	for j, f := range getX {
		v, ok := f(rec)
		if !ok {
			return observation{}, false
		}
		o.x[j] = v
	}
	return o, true
}

func unknownField(name string) error {
	return &models.ConfigurationError{
		Config: "regression",
		Reason: fmt.Sprintf("unknown field %q (known: %s)", name, strings.Join(Fields(), ", ")),
	}
}

// ParseFields splits a comma separated list of field names.
func ParseFields(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
