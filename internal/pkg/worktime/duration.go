package worktime

import (
	"time"

	"github.com/shopspring/decimal"
)

// Warning marks a data-quality problem found while deriving figures. It never
// fails a read.
type Warning string

const (
	WarningNegativeNet               Warning = "negative_net_duration"
	WarningOpenBreakClosedOnClockOut Warning = "open_break_closed_on_clock_out"
)

// Interval is a break. A nil End means the break is still open.
type Interval struct {
	Start TimeOfDay
	End   *TimeOfDay
}

// Shift is the raw ledger state of one attendance day.
type Shift struct {
	ClockIn  *TimeOfDay
	ClockOut *TimeOfDay
	Breaks   []Interval
}

// Figures are the settled durations of a shift. Open breaks and open shifts
// contribute nothing here; their live elapsed time is computed from instants.
type Figures struct {
	WorkedSeconds int
	BreakSeconds  int
	NetSeconds    int
	Overnight     bool
	Settled       bool
	OpenBreak     bool
	Warnings      []Warning
}

// Span returns the seconds from start to end. An end numerically earlier than
// start falls on the next calendar day.
func Span(start, end TimeOfDay) int {
	d := int(end) - int(start)
	if d < 0 {
		d += SecondsPerDay
	}
	return d
}

// Offset positions t on the shift timeline that begins at origin.
func Offset(origin, t TimeOfDay) int {
	return Span(origin, t)
}

// Calculate derives worked, break and net time for a shift.
func Calculate(s Shift) Figures {
	var f Figures

	for _, b := range s.Breaks {
		if b.End == nil {
			f.OpenBreak = true
			continue
		}
		f.BreakSeconds += Span(b.Start, *b.End)
	}

	if s.ClockIn == nil || s.ClockOut == nil {
		return f
	}

	f.Settled = true
	f.Overnight = *s.ClockOut < *s.ClockIn
	f.WorkedSeconds = Span(*s.ClockIn, *s.ClockOut)

	net := f.WorkedSeconds - f.BreakSeconds
	if net < 0 {
		f.Warnings = append(f.Warnings, WarningNegativeNet)
		net = 0
	}
	f.NetSeconds = net

	return f
}

func (f Figures) WorkedMinutes() int { return f.WorkedSeconds / 60 }
func (f Figures) BreakMinutes() int  { return f.BreakSeconds / 60 }
func (f Figures) NetMinutes() int    { return f.NetSeconds / 60 }

// TotalHours is net time in hours, rounded half-up to one decimal place.
func (f Figures) TotalHours() decimal.Decimal {
	return HoursFromSeconds(f.NetSeconds)
}

// HoursFromSeconds converts seconds to hours rounded half-up to one decimal.
func HoursFromSeconds(seconds int) decimal.Decimal {
	return decimal.NewFromInt(int64(seconds)).Div(decimal.NewFromInt(3600)).Round(1)
}

// IntervalMinutes is the whole-minute length of a closed interval.
func IntervalMinutes(start, end TimeOfDay) int {
	return Span(start, end) / 60
}

// Instant places t on the real timeline of a shift that started on date at
// origin. Times earlier than origin belong to the following calendar day.
func Instant(date time.Time, origin, t TimeOfDay, loc *time.Location) time.Time {
	at := t.On(date, loc)
	if t < origin {
		at = t.On(date.AddDate(0, 0, 1), loc)
	}
	return at
}

// Elapsed is the live time from a shift-relative start until now, never
// negative.
func Elapsed(date time.Time, origin, start TimeOfDay, loc *time.Location, now time.Time) time.Duration {
	d := now.Sub(Instant(date, origin, start, loc))
	if d < 0 {
		return 0
	}
	return d
}
