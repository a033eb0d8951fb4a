// Package trips builds validated, read-only record sets from ingested rows.
package trips

import (
	"fmt"
	"strings"
	"time"

	"github.com/j-veylop/divvy-insights/internal/logger"
	"github.com/j-veylop/divvy-insights/internal/models"
)

// BuildOptions controls record admission.
type BuildOptions struct {
	MinDuration time.Duration // 0 disables the lower bound
	MaxDuration time.Duration // 0 disables the upper bound
	MinRecords  int           // minimum viable sample
}

// RecordSet is an immutable collection of validated trips for one time
// slice. It is safe for concurrent readers.
type RecordSet struct {
	records  []models.TripRecord
	rejected []*models.ValidationError
}

// NewRecordSet validates raw rows and admits the ones that pass. Rejected
// rows are kept as ValidationErrors for diagnosis; construction only fails
// when fewer than opts.MinRecords rows survive.
func NewRecordSet(raw []models.RawTrip, opts BuildOptions) (*RecordSet, error) {
	rs := &RecordSet{
		records: make([]models.TripRecord, 0, len(raw)),
	}

	seen := make(map[string]struct{}, len(raw))
	for i := range raw {
		rec, verr := admit(&raw[i], opts)
		if verr == nil {
			if _, dup := seen[rec.RideID]; dup {
				verr = &models.ValidationError{RideID: rec.RideID, Field: "ride_id", Reason: "duplicate ride"}
			}
		}
		if verr != nil {
			logger.Debug("trip rejected", "ride_id", verr.RideID, "field", verr.Field, "reason", verr.Reason)
			rs.rejected = append(rs.rejected, verr)
			continue
		}
		seen[rec.RideID] = struct{}{}
		rs.records = append(rs.records, rec)
	}

	if len(rs.records) < opts.MinRecords {
		return nil, &models.ValidationError{
			Field:  "records",
			Reason: fmt.Sprintf("%d usable records, need at least %d", len(rs.records), opts.MinRecords),
			Count:  len(rs.rejected),
		}
	}

	logger.Info("record set built", "admitted", len(rs.records), "rejected", len(rs.rejected))
	return rs, nil
}

func admit(r *models.RawTrip, opts BuildOptions) (models.TripRecord, *models.ValidationError) {
	id := strings.TrimSpace(r.RideID)
	if id == "" {
		return models.TripRecord{}, &models.ValidationError{Field: "ride_id", Reason: "missing ride id"}
	}

	class := models.ParseVehicleClass(r.RideableType)
	if class == "" {
		return models.TripRecord{}, &models.ValidationError{RideID: id, Field: "rideable_type", Reason: "missing vehicle class"}
	}

	if r.StartedAt.IsZero() || r.EndedAt.IsZero() {
		return models.TripRecord{}, &models.ValidationError{RideID: id, Field: "timestamps", Reason: "missing start or end time"}
	}

	d := r.EndedAt.Sub(r.StartedAt)
	switch {
	case d < 0:
		return models.TripRecord{}, &models.ValidationError{RideID: id, Field: "duration", Reason: "ends before it starts"}
	case opts.MinDuration > 0 && d < opts.MinDuration:
		return models.TripRecord{}, &models.ValidationError{RideID: id, Field: "duration",
			Reason: fmt.Sprintf("shorter than %s", opts.MinDuration)}
	case opts.MaxDuration > 0 && d > opts.MaxDuration:
		return models.TripRecord{}, &models.ValidationError{RideID: id, Field: "duration",
			Reason: fmt.Sprintf("longer than %s", opts.MaxDuration)}
	}

	return copyRecord(models.TripRecord{
		RideID:       id,
		Class:        class,
		StartStation: strings.TrimSpace(r.StartStation),
		EndStation:   strings.TrimSpace(r.EndStation),
		StartedAt:    r.StartedAt,
		EndedAt:      r.EndedAt,
		Duration:     d,
		DayType:      models.DayTypeOf(r.StartedAt),
		Hour:         r.StartedAt.Hour(),
		Rider:        models.ParseRiderType(r.Rider),
		TemperatureC: r.TemperatureC,
		Promotion:    r.Promotion,
	}), nil
}

// copyRecord detaches the optional fields so callers cannot mutate a
// record through a shared pointer.
func copyRecord(r models.TripRecord) models.TripRecord {
	if r.TemperatureC != nil {
		v := *r.TemperatureC
		r.TemperatureC = &v
	}
	if r.Promotion != nil {
		v := *r.Promotion
		r.Promotion = &v
	}
	return r
}

// Len returns the number of admitted records.
func (rs *RecordSet) Len() int {
	return len(rs.records)
}

// At returns the i-th record.
func (rs *RecordSet) At(i int) models.TripRecord {
	return copyRecord(rs.records[i])
}

// Records returns a copy of all admitted records.
func (rs *RecordSet) Records() []models.TripRecord {
	out := make([]models.TripRecord, len(rs.records))
	for i, r := range rs.records {
		out[i] = copyRecord(r)
	}
	return out
}

// Rejected returns the validation errors of the rows that were dropped.
func (rs *RecordSet) Rejected() []*models.ValidationError {
	out := make([]*models.ValidationError, len(rs.rejected))
	copy(out, rs.rejected)
	return out
}

// Classes returns the distinct vehicle classes present, in first-seen order.
func (rs *RecordSet) Classes() []models.VehicleClass {
	seen := make(map[models.VehicleClass]struct{})
	var out []models.VehicleClass
	for _, r := range rs.records {
		if _, ok := seen[r.Class]; ok {
			continue
		}
		seen[r.Class] = struct{}{}
		out = append(out, r.Class)
	}
	return out
}
