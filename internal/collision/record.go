package collision

import (
	"fmt"
	"time"
)

// Column names used by the NYC "Motor Vehicle Collisions - Crashes" export
const (
	ColCrashDate    = "CRASH DATE"
	ColCrashTime    = "CRASH TIME"
	ColBorough      = "BOROUGH"
	ColLatitude     = "LATITUDE"
	ColLongitude    = "LONGITUDE"
	ColInjured      = "NUMBER OF PERSONS INJURED"
	ColKilled       = "NUMBER OF PERSONS KILLED"
	ColVehicleType1 = "VEHICLE TYPE CODE 1"
	ColVehicleType2 = "VEHICLE TYPE CODE 2"
	ColFactor1      = "CONTRIBUTING FACTOR VEHICLE 1"
	ColFactor2      = "CONTRIBUTING FACTOR VEHICLE 2"
)

// Columns lists every column the loader reads, in export order.
var Columns = []string{
	ColCrashDate, ColCrashTime, ColBorough, ColLatitude, ColLongitude,
	ColInjured, ColKilled,
	ColVehicleType1, ColVehicleType2,
	ColFactor1, ColFactor2,
}

// Record is a single crash with the attributes needed for mapping.
type Record struct {
	CrashDate    time.Time
	CrashTime    time.Duration // offset from midnight, valid when HasTime
	HasTime      bool
	Borough      string
	Latitude     float64
	Longitude    float64
	Injured      uint16
	Killed       uint16
	VehicleType1 string
	VehicleType2 string
	Factor1      string
	Factor2      string
}

// Severity classifies the record from its injury and fatality counts.
func (r Record) Severity() Severity {
	return Classify(int(r.Injured), int(r.Killed))
}

// Date returns the crash date as YYYY-MM-DD.
func (r Record) Date() string {
	if r.CrashDate.IsZero() {
		return ""
	}
	return r.CrashDate.Format("2006-01-02")
}

// Time returns the time of day as HH:MM:SS, or "" when the export left it
// blank.
func (r Record) Time() string {
	if !r.HasTime {
		return ""
	}
	d := r.CrashTime
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Hour returns the hour of day the crash happened in.
func (r Record) Hour() (int, bool) {
	if !r.HasTime {
		return 0, false
	}
	return int(r.CrashTime/time.Hour) % 24, true
}
