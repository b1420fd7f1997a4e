package attendance

import (
	"fmt"
	"sort"
	"time"

	"github.com/moyuu-az/attendance-system/internal/pkg/validator"
	"github.com/moyuu-az/attendance-system/internal/pkg/wage"
	"github.com/moyuu-az/attendance-system/internal/pkg/worktime"
	"github.com/shopspring/decimal"
)

// State is the ledger position of a day.
type State string

const (
	StateEmpty      State = "empty"
	StateClockedIn  State = "clocked_in"
	StateOnBreak    State = "on_break"
	StateClockedOut State = "clocked_out"
)

// AttendanceDay is one user's record for one calendar date in the org
// timezone. TotalHours and TotalAmount are derived and rewritten on every
// mutation. HourlyRate is fixed when the day is first settled and kept
// afterwards, so later rate changes leave the day's pay alone.
type AttendanceDay struct {
	ID          string
	UserID      string
	Date        time.Time
	ClockIn     *worktime.TimeOfDay
	ClockOut    *worktime.TimeOfDay
	TotalHours  decimal.Decimal
	TotalAmount decimal.Decimal
	HourlyRate  decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Flags are data-quality warnings raised by ledger operations, such as a
	// break closed implicitly at clock-out.
	Flags []worktime.Warning

	Breaks []BreakInterval
}

// BreakInterval is a break inside a day. End is nil while the break is open.
type BreakInterval struct {
	ID              string
	AttendanceID    string
	Start           worktime.TimeOfDay
	End             *worktime.TimeOfDay
	DurationMinutes int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsOpen reports whether the break has not ended yet.
func (b BreakInterval) IsOpen() bool {
	return b.End == nil
}

// LockKey identifies the (user, date) pair that mutations serialize on.
func LockKey(userID string, date time.Time) string {
	return userID + ":" + worktime.FormatDate(date)
}

// ShiftLockKey identifies the user-wide lock clock-ins serialize on, since
// the one-open-shift rule spans dates.
func ShiftLockKey(userID string) string {
	return userID + ":shift"
}

func (d AttendanceDay) LockKey() string {
	return LockKey(d.UserID, d.Date)
}

func (d AttendanceDay) State() State {
	switch {
	case d.ClockIn == nil:
		return StateEmpty
	case d.ClockOut != nil:
		return StateClockedOut
	case d.OpenBreak() != nil:
		return StateOnBreak
	default:
		return StateClockedIn
	}
}

// IsOpen reports whether the day has a clock-in but no clock-out.
func (d AttendanceDay) IsOpen() bool {
	return d.ClockIn != nil && d.ClockOut == nil
}

// OpenBreak returns the open break, if any.
func (d AttendanceDay) OpenBreak() *BreakInterval {
	for i := range d.Breaks {
		if d.Breaks[i].IsOpen() {
			return &d.Breaks[i]
		}
	}
	return nil
}

// FindBreak returns the break with id, if it belongs to the day.
func (d AttendanceDay) FindBreak(id string) *BreakInterval {
	for i := range d.Breaks {
		if d.Breaks[i].ID == id {
			return &d.Breaks[i]
		}
	}
	return nil
}

// Shift converts the day into calculator input.
func (d AttendanceDay) Shift() worktime.Shift {
	s := worktime.Shift{ClockIn: d.ClockIn, ClockOut: d.ClockOut}
	for _, b := range d.Breaks {
		s.Breaks = append(s.Breaks, worktime.Interval{Start: b.Start, End: b.End})
	}
	return s
}

// Derived holds the figures computed for a day.
type Derived struct {
	Figures     worktime.Figures
	TotalHours  decimal.Decimal
	TotalAmount decimal.Decimal
	HourlyRate  decimal.Decimal
	Warnings    []worktime.Warning

	// Live elapsed time, set only for open shifts and open breaks.
	WorkElapsed  *time.Duration
	BreakElapsed *time.Duration
}

// Settled reports whether the day has both clock-in and clock-out.
func (d AttendanceDay) Settled() bool {
	return d.ClockIn != nil && d.ClockOut != nil
}

// Rate returns the rate the day is paid at: the stored rate once the day is
// settled, otherwise the rate in effect on the day's date.
func (d AttendanceDay) Rate(rates wage.Schedule) decimal.Decimal {
	if d.Settled() && !d.HourlyRate.IsZero() {
		return d.HourlyRate
	}
	return rates.At(d.Date)
}

// Derive computes settled figures and the wage at the day's rate.
func (d AttendanceDay) Derive(rates wage.Schedule) Derived {
	f := worktime.Calculate(d.Shift())
	rate := d.Rate(rates)
	hours := f.TotalHours()

	warnings := append([]worktime.Warning{}, d.Flags...)
	warnings = append(warnings, f.Warnings...)

	return Derived{
		Figures:     f,
		TotalHours:  hours,
		TotalAmount: wage.Amount(hours, rate),
		HourlyRate:  rate,
		Warnings:    warnings,
	}
}

// WithLive adds elapsed time of an open shift or open break as of now.
func (dv Derived) WithLive(d AttendanceDay, loc *time.Location, now time.Time) Derived {
	if !d.IsOpen() {
		return dv
	}
	work := worktime.Elapsed(d.Date, *d.ClockIn, *d.ClockIn, loc, now)
	dv.WorkElapsed = &work
	if b := d.OpenBreak(); b != nil {
		brk := worktime.Elapsed(d.Date, *d.ClockIn, b.Start, loc, now)
		dv.BreakElapsed = &brk
	}
	return dv
}

// AddFlag records a warning once.
func (d *AttendanceDay) AddFlag(w worktime.Warning) {
	for _, f := range d.Flags {
		if f == w {
			return
		}
	}
	d.Flags = append(d.Flags, w)
}

// ApplyTotals stores derived totals on the day and durations on its breaks.
// The rate is stored only on a settled day; reopening the day clears it.
func (d *AttendanceDay) ApplyTotals(dv Derived) {
	d.TotalHours = dv.TotalHours
	d.TotalAmount = dv.TotalAmount
	d.HourlyRate = decimal.Zero
	if d.Settled() {
		d.HourlyRate = dv.HourlyRate
	}
	for i := range d.Breaks {
		b := &d.Breaks[i]
		if b.End != nil {
			b.DurationMinutes = worktime.IntervalMinutes(b.Start, *b.End)
		} else {
			b.DurationMinutes = 0
		}
	}
}

// CheckInvariants validates the ledger rules of a day. Break positions are
// measured on the shift timeline that starts at clock-in, so breaks after
// midnight in an overnight shift are ordered correctly.
func (d AttendanceDay) CheckInvariants() error {
	var errs validator.ValidationErrors

	if d.ClockIn == nil {
		if d.ClockOut != nil {
			errs.Add("clock_out", "clock_out requires clock_in")
		}
		if len(d.Breaks) > 0 {
			errs.Add("break_times", "breaks require clock_in")
		}
		return errs.Err()
	}

	origin := *d.ClockIn
	shiftEnd := -1
	if d.ClockOut != nil {
		shiftEnd = worktime.Offset(origin, *d.ClockOut)
	}

	type span struct {
		idx        int
		start, end int
		open       bool
	}
	spans := make([]span, 0, len(d.Breaks))
	open := 0

	for i, b := range d.Breaks {
		field := fmt.Sprintf("break_times[%d]", i)
		s := span{idx: i, start: worktime.Offset(origin, b.Start), open: b.IsOpen()}

		if s.open {
			open++
			if d.ClockOut != nil {
				errs.Add(field+".end_time", "break must end before clock_out")
			}
		} else {
			s.end = worktime.Offset(origin, *b.End)
			if s.end < s.start {
				errs.Add(field+".end_time", "end_time must not be before start_time")
				continue
			}
		}

		if shiftEnd >= 0 && (s.start > shiftEnd || (!s.open && s.end > shiftEnd)) {
			errs.Add(field, "break must lie within the shift")
			continue
		}
		spans = append(spans, s)
	}

	if open > 1 {
		errs.Add("break_times", "only one break may be open")
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	for i := 1; i < len(spans); i++ {
		prev, cur := spans[i-1], spans[i]
		if prev.open || cur.start < prev.end {
			errs.Add(fmt.Sprintf("break_times[%d]", cur.idx), "breaks must not overlap")
		}
	}

	return errs.Err()
}

// CheckBreaksAt validates the breaks of an open shift against now. Break
// times are placed on the shift timeline, so a time entered before clock-in
// lands on the following day and is rejected as lying in the future.
func (d AttendanceDay) CheckBreaksAt(loc *time.Location, now time.Time) error {
	if !d.IsOpen() {
		return nil
	}

	var errs validator.ValidationErrors
	for i, b := range d.Breaks {
		field := fmt.Sprintf("break_times[%d]", i)
		if worktime.Instant(d.Date, *d.ClockIn, b.Start, loc).After(now) {
			errs.Add(field+".start_time", "break must start after clock_in and not in the future")
			continue
		}
		if b.End != nil && worktime.Instant(d.Date, *d.ClockIn, *b.End, loc).After(now) {
			errs.Add(field+".end_time", "break must not end in the future")
		}
	}
	return errs.Err()
}
