package worktime

import (
	"fmt"
	"time"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// Dates are carried as time.Time values at UTC midnight so that equality,
// ordering and PostgreSQL DATE scanning agree regardless of the org timezone.

// DateOf returns the calendar date of t as observed in t's location.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NewDate builds a calendar date.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return d, nil
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}

// MonthRange returns the first and last calendar dates of a month.
func MonthRange(year int, month time.Month) (time.Time, time.Time) {
	first := NewDate(year, month, 1)
	return first, first.AddDate(0, 1, -1)
}
