package dateutil

import (
	"strconv"
	"time"
)

// DayNumber returns the calendar day of t in loc encoded as YYYYMMDD.
func DayNumber(t time.Time, loc *time.Location) int64 {
	if loc != nil {
		t = t.In(loc)
	}

	n, _ := strconv.ParseInt(t.Format("20060102"), 10, 64)
	return n
}

// LoadLocation behaves like time.LoadLocation but falls back to UTC for an
// empty name.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}

	return time.LoadLocation(name)
}
