package trips

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/j-veylop/divvy-insights/internal/logger"
	"github.com/j-veylop/divvy-insights/internal/models"
)

// Timestamp layouts seen in trip exports.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04",
	time.RFC3339Nano,
}

// ReadStats summarizes a CSV read.
type ReadStats struct {
	Rows    int
	Skipped int
}

type columns struct {
	rideID, rideable, started, ended int
	startStation, endStation         int
	rider, temperature, promotion    int
}

// ReadCSV parses a trip export. Timestamps without a zone are interpreted
// in loc; nil means UTC. Rows that cannot be parsed are skipped and counted.
func ReadCSV(r io.Reader, loc *time.Location) ([]models.RawTrip, ReadStats, error) {
	if loc == nil {
		loc = time.UTC
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	headers, err := reader.Read()
	if err != nil {
		return nil, ReadStats{}, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	cols, err := mapColumns(headers)
	if err != nil {
		return nil, ReadStats{}, err
	}

	var (
		out   []models.RawTrip
		stats ReadStats
	)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			stats.Skipped++
			continue
		}
		stats.Rows++

		trip, err := parseRow(row, cols, loc)
		if err != nil {
			logger.Debug("skipping malformed row", "line", stats.Rows+1, "error", err)
			stats.Skipped++
			continue
		}
		out = append(out, trip)
	}

	return out, stats, nil
}

func mapColumns(headers []string) (columns, error) {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	lookup := func(names ...string) int {
		for _, n := range names {
			if i, ok := index[n]; ok {
				return i
			}
		}
		return -1
	}

	cols := columns{
		rideID:       lookup("ride_id"),
		rideable:     lookup("rideable_type"),
		started:      lookup("started_at"),
		ended:        lookup("ended_at"),
		startStation: lookup("start_station_name", "start_station_id"),
		endStation:   lookup("end_station_name", "end_station_id"),
		rider:        lookup("member_casual"),
		temperature:  lookup("temperature_c", "temperature"),
		promotion:    lookup("promotion", "is_promotion"),
	}

	var missing []string
	for name, i := range map[string]int{
		"ride_id": cols.rideID, "rideable_type": cols.rideable,
		"started_at": cols.started, "ended_at": cols.ended,
	} {
		if i < 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return cols, fmt.Errorf("CSV is missing required columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

func parseRow(row []string, cols columns, loc *time.Location) (models.RawTrip, error) {
	field := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	started, err := parseTime(field(cols.started), loc)
	if err != nil {
		return models.RawTrip{}, fmt.Errorf("started_at: %w", err)
	}
	ended, err := parseTime(field(cols.ended), loc)
	if err != nil {
		return models.RawTrip{}, fmt.Errorf("ended_at: %w", err)
	}

	trip := models.RawTrip{
		RideID:       field(cols.rideID),
		RideableType: field(cols.rideable),
		StartStation: field(cols.startStation),
		EndStation:   field(cols.endStation),
		StartedAt:    started,
		EndedAt:      ended,
		Rider:        field(cols.rider),
	}

	if v := field(cols.temperature); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return models.RawTrip{}, fmt.Errorf("temperature: %w", err)
		}
		trip.TemperatureC = &f
	}
	if v := field(cols.promotion); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return models.RawTrip{}, fmt.Errorf("promotion: %w", err)
		}
		trip.Promotion = &b
	}

	return trip, nil
}

func parseTime(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
