// Package calendar classifies the days of a month and summarizes attendance
// against working days.
package calendar

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusWeekend Status = "weekend"
	StatusHoliday Status = "holiday"
)

// Day is one classified calendar date.
type Day struct {
	Date        time.Time
	IsWeekend   bool
	IsHoliday   bool
	HolidayName string
	Present     bool
	Status      Status
}

// Summary counts working and present days of a month.
type Summary struct {
	WorkingDays    int
	PresentDays    int
	AttendanceRate int
}

// IsWeekend reports whether date falls on Saturday or Sunday.
func IsWeekend(date time.Time) bool {
	wd := date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// StatusFor applies the precedence holiday > weekend > present/absent.
func StatusFor(isHoliday, isWeekend, present bool) Status {
	switch {
	case isHoliday:
		return StatusHoliday
	case isWeekend:
		return StatusWeekend
	case present:
		return StatusPresent
	default:
		return StatusAbsent
	}
}

// Month classifies every date of a month. holidays is keyed by YYYY-MM-DD;
// present reports whether the user clocked in on a date.
func Month(year int, month time.Month, holidays map[string]string, present func(time.Time) bool) []Day {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	days := make([]Day, 0, 31)

	for d := first; d.Month() == month; d = d.AddDate(0, 0, 1) {
		name, isHoliday := holidays[d.Format("2006-01-02")]
		day := Day{
			Date:        d,
			IsWeekend:   IsWeekend(d),
			IsHoliday:   isHoliday,
			HolidayName: name,
			Present:     present != nil && present(d),
		}
		day.Status = StatusFor(day.IsHoliday, day.IsWeekend, day.Present)
		days = append(days, day)
	}

	return days
}

// Summarize counts working days (status present or absent) and present days.
func Summarize(days []Day) Summary {
	var s Summary
	for _, d := range days {
		switch d.Status {
		case StatusPresent:
			s.WorkingDays++
			s.PresentDays++
		case StatusAbsent:
			s.WorkingDays++
		}
	}
	s.AttendanceRate = AttendanceRate(s.PresentDays, s.WorkingDays)
	return s
}

// AttendanceRate is present/working as a whole percentage, rounded half-up.
// It is 0 when there are no working days.
func AttendanceRate(present, working int) int {
	if working == 0 {
		return 0
	}
	rate := decimal.NewFromInt(int64(present)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(working))).
		Round(0)
	return int(rate.IntPart())
}
