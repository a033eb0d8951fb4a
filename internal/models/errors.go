package models

import (
	"fmt"
	"strings"
)

// ValidationError describes a record that failed admission to a RecordSet.
// When Count is set the error summarizes a whole batch that fell below the
// minimum viable sample.
type ValidationError struct {
	RideID string
	Field  string
	Reason string
	Count  int
}

func (e *ValidationError) Error() string {
	if e.Count > 0 {
		return fmt.Sprintf("validation failed: %s (%d records rejected)", e.Reason, e.Count)
	}
	if e.RideID == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("ride %s: invalid %s: %s", e.RideID, e.Field, e.Reason)
}

// ConfigurationError reports analysis configuration that cannot serve the
// observed data, such as a vehicle class with no tariff.
type ConfigurationError struct {
	Class  VehicleClass
	Config string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Class == "" {
		return fmt.Sprintf("%s: %s", e.Config, e.Reason)
	}
	return fmt.Sprintf("%s: vehicle class %q: %s", e.Config, e.Class, e.Reason)
}

// InsufficientDataError is returned when a regression has too few usable
// rows for the requested number of covariates.
type InsufficientDataError struct {
	N        int
	Required int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %d usable rows, need more than %d", e.N, e.Required)
}

// CollinearityError is returned when the regression design matrix is rank
// deficient.
type CollinearityError struct {
	Rank    int
	Columns []string
}

func (e *CollinearityError) Error() string {
	return fmt.Sprintf("design matrix is singular: rank %d < %d columns [%s]",
		e.Rank, len(e.Columns), strings.Join(e.Columns, ", "))
}
