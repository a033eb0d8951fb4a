// Package models defines data structures and domain types.
package models

import (
	"strings"
	"time"
)

// VehicleClass identifies the kind of vehicle used for a trip.
// The set is open: feeds occasionally introduce new rideable types.
type VehicleClass string

const (
	VehicleClassic  VehicleClass = "classic"
	VehicleElectric VehicleClass = "electric"
	VehicleDocked   VehicleClass = "docked"
)

// ParseVehicleClass normalizes a feed value such as "classic_bike" or
// "Electric_Bike" into a VehicleClass. Unrecognized values are kept,
// lower-cased, so that downstream configuration checks can name them.
func ParseVehicleClass(s string) VehicleClass {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.TrimSuffix(v, "_bike")
	return VehicleClass(v)
}

// DayType separates commute (weekday) from leisure (weekend) demand.
type DayType int

const (
	Weekday DayType = iota
	Weekend
)

// DayTypes lists every DayType in index order.
var DayTypes = [2]DayType{Weekday, Weekend}

// String returns the string representation of the DayType.
func (d DayType) String() string {
	switch d {
	case Weekday:
		return "weekday"
	case Weekend:
		return "weekend"
	default:
		return "unknown"
	}
}

// DayTypeOf classifies t by its weekday in t's own location.
func DayTypeOf(t time.Time) DayType {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return Weekend
	default:
		return Weekday
	}
}

// RiderType is the membership status reported by the feed.
type RiderType string

const (
	RiderMember  RiderType = "member"
	RiderCasual  RiderType = "casual"
	RiderUnknown RiderType = "unknown"
)

// ParseRiderType maps the feed's member_casual column.
func ParseRiderType(s string) RiderType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "member":
		return RiderMember
	case "casual":
		return RiderCasual
	default:
		return RiderUnknown
	}
}

// RawTrip is one ingested row before validation.
type RawTrip struct {
	RideID       string
	RideableType string
	StartStation string
	EndStation   string
	StartedAt    time.Time
	EndedAt      time.Time
	Rider        string
	TemperatureC *float64
	Promotion    *bool
}

// TripRecord is a validated trip. Records are only created by the
// trips package and are never mutated afterwards.
type TripRecord struct {
	RideID       string
	Class        VehicleClass
	StartStation string // empty when the feed had no start station
	EndStation   string // empty when the feed had no end station
	StartedAt    time.Time
	EndedAt      time.Time
	Duration     time.Duration // EndedAt - StartedAt, never negative
	DayType      DayType
	Hour         int // 0-23, from StartedAt
	Rider        RiderType
	TemperatureC *float64 // nil when unknown
	Promotion    *bool    // nil when unknown
}

// Minutes returns the trip duration in fractional minutes.
func (t TripRecord) Minutes() float64 {
	return t.Duration.Minutes()
}

// HasStations reports whether both ends of the trip are known.
func (t TripRecord) HasStations() bool {
	return t.StartStation != "" && t.EndStation != ""
}

// Date returns the calendar date of the trip start as "2006-01-02".
func (t TripRecord) Date() string {
	return t.StartedAt.Format(time.DateOnly)
}
