package models

import (
	"math"
	"slices"
	"time"
)

// RunSummary is the persisted digest of one AnalysisReport.
type RunSummary struct {
	ID             string
	CreatedAt      time.Time
	Source         string
	Slice          string
	Records        int
	Rejected       int
	Stations       int
	Congested      int
	Short          int
	ShortTripRatio float64 // NaN when the temporal model did not run
	RSquared       float64 // NaN when no regression was fitted
	Failures       []string
}

// Summarize digests a report for the run history.
func Summarize(r *AnalysisReport, source string) RunSummary {
	s := RunSummary{
		ID:             r.RunID,
		CreatedAt:      r.CreatedAt,
		Source:         source,
		Slice:          r.Slice,
		Records:        r.Records,
		Rejected:       r.Rejected,
		ShortTripRatio: math.NaN(),
		RSquared:       math.NaN(),
	}
	if r.Flow != nil {
		s.Stations = len(r.Flow.Stations)
		s.Congested = r.Flow.CountByStatus(FlowSevereCongestion)
		s.Short = r.Flow.CountByStatus(FlowSevereShortage)
	}
	if r.Temporal != nil {
		s.ShortTripRatio = r.Temporal.ShortTripRatio
	}
	if r.Significance != nil {
		s.RSquared = r.Significance.RSquared
	}
	for c := range r.Failures {
		s.Failures = append(s.Failures, string(c))
	}
	slices.Sort(s.Failures)
	return s
}
