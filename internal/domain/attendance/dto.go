package attendance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/moyuu-az/attendance-system/internal/pkg/validator"
	"github.com/moyuu-az/attendance-system/internal/pkg/worktime"
)

// ========================================
// REQUEST DTOs
// ========================================

// OptionalTime distinguishes an absent field from an explicit null.
type OptionalTime struct {
	Set   bool
	Value *string
}

func (o *OptionalTime) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("time must be a string or null: %w", err)
	}
	o.Value = &s
	return nil
}

func parseOptionalTime(errs *validator.ValidationErrors, field string, s *string) *worktime.TimeOfDay {
	if s == nil || validator.IsEmpty(*s) {
		return nil
	}
	t, ok := validator.IsValidTimeOfDay(*s)
	if !ok {
		errs.Add(field, field+" must be HH:mm or HH:mm:ss")
		return nil
	}
	return &t
}

func parseOptionalDate(errs *validator.ValidationErrors, field string, s *string) *time.Time {
	if s == nil || validator.IsEmpty(*s) {
		return nil
	}
	d, ok := validator.IsValidDate(strings.TrimSpace(*s))
	if !ok {
		errs.Add(field, field+" must be YYYY-MM-DD")
		return nil
	}
	return &d
}

// ClockInRequest records a clock-in. Date and time default to now in the
// organization timezone.
type ClockInRequest struct {
	UserID string  `json:"user_id,omitempty"`
	Date   *string `json:"date,omitempty"`
	Time   *string `json:"time,omitempty"`

	ParsedDate *time.Time          `json:"-"`
	ParsedTime *worktime.TimeOfDay `json:"-"`
}

func (r *ClockInRequest) Validate() error {
	var errs validator.ValidationErrors
	r.ParsedDate = parseOptionalDate(&errs, "date", r.Date)
	r.ParsedTime = parseOptionalTime(&errs, "time", r.Time)
	return errs.Err()
}

// ClockOutRequest records a clock-out. Without a date it targets the user's
// most recent open day.
type ClockOutRequest struct {
	UserID string  `json:"user_id,omitempty"`
	Date   *string `json:"date,omitempty"`
	Time   *string `json:"time,omitempty"`

	ParsedDate *time.Time          `json:"-"`
	ParsedTime *worktime.TimeOfDay `json:"-"`
}

func (r *ClockOutRequest) Validate() error {
	var errs validator.ValidationErrors
	r.ParsedDate = parseOptionalDate(&errs, "date", r.Date)
	r.ParsedTime = parseOptionalTime(&errs, "time", r.Time)
	return errs.Err()
}

type StartBreakRequest struct {
	AttendanceID string  `json:"attendance_id"`
	Time         *string `json:"time,omitempty"`

	ParsedTime *worktime.TimeOfDay `json:"-"`
}

func (r *StartBreakRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.AttendanceID) {
		errs.Add("attendance_id", "attendance_id is required")
	}
	r.ParsedTime = parseOptionalTime(&errs, "time", r.Time)
	return errs.Err()
}

type EndBreakRequest struct {
	BreakID string  `json:"break_id"`
	Time    *string `json:"time,omitempty"`

	ParsedTime *worktime.TimeOfDay `json:"-"`
}

func (r *EndBreakRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.BreakID) {
		errs.Add("break_id", "break_id is required")
	}
	r.ParsedTime = parseOptionalTime(&errs, "time", r.Time)
	return errs.Err()
}

type BreakTimeInput struct {
	StartTime string  `json:"start_time"`
	EndTime   *string `json:"end_time,omitempty"`
}

func parseBreakInputs(errs *validator.ValidationErrors, inputs []BreakTimeInput) []BreakInterval {
	breaks := make([]BreakInterval, 0, len(inputs))
	for i, in := range inputs {
		field := fmt.Sprintf("break_times[%d]", i)
		start, ok := validator.IsValidTimeOfDay(in.StartTime)
		if !ok {
			errs.Add(field+".start_time", "start_time must be HH:mm or HH:mm:ss")
			continue
		}
		end := parseOptionalTime(errs, field+".end_time", in.EndTime)
		breaks = append(breaks, BreakInterval{Start: start, End: end})
	}
	return breaks
}

// CreateAttendanceRequest creates a day manually.
type CreateAttendanceRequest struct {
	UserID     string           `json:"user_id,omitempty"`
	Date       string           `json:"date"`
	ClockIn    *string          `json:"clock_in,omitempty"`
	ClockOut   *string          `json:"clock_out,omitempty"`
	BreakTimes []BreakTimeInput `json:"break_times,omitempty"`

	ParsedDate     time.Time           `json:"-"`
	ParsedClockIn  *worktime.TimeOfDay `json:"-"`
	ParsedClockOut *worktime.TimeOfDay `json:"-"`
	ParsedBreaks   []BreakInterval     `json:"-"`
}

func (r *CreateAttendanceRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Date) {
		errs.Add("date", "date is required")
	} else if d := parseOptionalDate(&errs, "date", &r.Date); d != nil {
		r.ParsedDate = *d
	}
	r.ParsedClockIn = parseOptionalTime(&errs, "clock_in", r.ClockIn)
	r.ParsedClockOut = parseOptionalTime(&errs, "clock_out", r.ClockOut)
	r.ParsedBreaks = parseBreakInputs(&errs, r.BreakTimes)

	return errs.Err()
}

// UpdateAttendanceRequest overrides a day. Absent fields are kept; an explicit
// null clears clock_out. BreakTimes, when present, replaces every break.
type UpdateAttendanceRequest struct {
	ClockIn    OptionalTime      `json:"clock_in"`
	ClockOut   OptionalTime      `json:"clock_out"`
	BreakTimes *[]BreakTimeInput `json:"break_times,omitempty"`

	ParsedClockIn  *worktime.TimeOfDay `json:"-"`
	ParsedClockOut *worktime.TimeOfDay `json:"-"`
	ParsedBreaks   []BreakInterval     `json:"-"`
}

func (r *UpdateAttendanceRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.ClockIn.Set {
		if r.ClockIn.Value == nil {
			errs.Add("clock_in", "clock_in cannot be cleared")
		} else {
			r.ParsedClockIn = parseOptionalTime(&errs, "clock_in", r.ClockIn.Value)
		}
	}
	if r.ClockOut.Set {
		r.ParsedClockOut = parseOptionalTime(&errs, "clock_out", r.ClockOut.Value)
	}
	if r.BreakTimes != nil {
		r.ParsedBreaks = parseBreakInputs(&errs, *r.BreakTimes)
	}

	return errs.Err()
}

// UpdateBreakRequest edits one break. An explicit null end_time reopens it.
type UpdateBreakRequest struct {
	StartTime *string      `json:"start_time,omitempty"`
	EndTime   OptionalTime `json:"end_time"`

	ParsedStart *worktime.TimeOfDay `json:"-"`
	ParsedEnd   *worktime.TimeOfDay `json:"-"`
}

func (r *UpdateBreakRequest) Validate() error {
	var errs validator.ValidationErrors
	r.ParsedStart = parseOptionalTime(&errs, "start_time", r.StartTime)
	if r.EndTime.Set {
		r.ParsedEnd = parseOptionalTime(&errs, "end_time", r.EndTime.Value)
	}
	return errs.Err()
}

// ListFilter selects a user's days, newest first.
type ListFilter struct {
	UserID string
	Year   *int
	Month  *int
	Skip   int
	Limit  int
}

func (f *ListFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Year != nil && !validator.IsValidYear(*f.Year) {
		errs.Add("year", "year must be between 2000 and 2100")
	}
	if f.Month != nil {
		if !validator.IsValidMonth(*f.Month) {
			errs.Add("month", "month must be between 1 and 12")
		}
		if f.Year == nil {
			errs.Add("year", "year is required when month is given")
		}
	}
	if f.Skip < 0 {
		errs.Add("skip", "skip must not be negative")
	}
	if f.Limit == 0 {
		f.Limit = 100
	} else if f.Limit < 0 || f.Limit > 1000 {
		errs.Add("limit", "limit must be between 1 and 1000")
	}

	return errs.Err()
}

// Range returns the date bounds implied by Year and Month, if any.
func (f ListFilter) Range() (from, to *time.Time) {
	if f.Year == nil {
		return nil, nil
	}
	var start, end time.Time
	if f.Month != nil {
		start, end = worktime.MonthRange(*f.Year, time.Month(*f.Month))
	} else {
		start = worktime.NewDate(*f.Year, time.January, 1)
		end = worktime.NewDate(*f.Year, time.December, 31)
	}
	return &start, &end
}

// ========================================
// RESPONSE DTOs
// ========================================

type BreakResponse struct {
	ID             string  `json:"id"`
	AttendanceID   string  `json:"attendance_id"`
	StartTime      string  `json:"start_time"`
	EndTime        *string `json:"end_time"`
	Duration       *int    `json:"duration"`
	ElapsedMinutes *int    `json:"elapsed_minutes,omitempty"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

type InProgressResponse struct {
	WorkElapsedMinutes  int  `json:"work_elapsed_minutes"`
	BreakElapsedMinutes *int `json:"break_elapsed_minutes,omitempty"`
}

type AttendanceResponse struct {
	ID            string              `json:"id"`
	UserID        string              `json:"user_id"`
	Date          string              `json:"date"`
	ClockIn       *string             `json:"clock_in"`
	ClockOut      *string             `json:"clock_out"`
	State         State               `json:"state"`
	TotalHours    float64             `json:"total_hours"`
	TotalAmount   float64             `json:"total_amount"`
	HourlyRate    float64             `json:"hourly_rate"`
	WorkedMinutes int                 `json:"worked_minutes"`
	BreakMinutes  int                 `json:"break_minutes"`
	NetMinutes    int                 `json:"net_minutes"`
	Overnight     bool                `json:"overnight"`
	Warnings      []string            `json:"warnings,omitempty"`
	InProgress    *InProgressResponse `json:"in_progress,omitempty"`
	BreakTimes    []BreakResponse     `json:"break_times"`
	CreatedAt     string              `json:"created_at"`
	UpdatedAt     string              `json:"updated_at"`
}

func timeString(t *worktime.TimeOfDay) *string {
	if t == nil {
		return nil
	}
	s := t.String()
	return &s
}

func ToBreakResponse(b BreakInterval, elapsed *time.Duration) BreakResponse {
	resp := BreakResponse{
		ID:           b.ID,
		AttendanceID: b.AttendanceID,
		StartTime:    b.Start.String(),
		EndTime:      timeString(b.End),
		CreatedAt:    b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    b.UpdatedAt.Format(time.RFC3339),
	}
	if b.End != nil {
		d := worktime.IntervalMinutes(b.Start, *b.End)
		resp.Duration = &d
	} else if elapsed != nil {
		m := int(elapsed.Minutes())
		resp.ElapsedMinutes = &m
	}
	return resp
}

func ToAttendanceResponse(d AttendanceDay, dv Derived) AttendanceResponse {
	resp := AttendanceResponse{
		ID:            d.ID,
		UserID:        d.UserID,
		Date:          worktime.FormatDate(d.Date),
		ClockIn:       timeString(d.ClockIn),
		ClockOut:      timeString(d.ClockOut),
		State:         d.State(),
		TotalHours:    dv.TotalHours.InexactFloat64(),
		TotalAmount:   dv.TotalAmount.InexactFloat64(),
		HourlyRate:    dv.HourlyRate.InexactFloat64(),
		WorkedMinutes: dv.Figures.WorkedMinutes(),
		BreakMinutes:  dv.Figures.BreakMinutes(),
		NetMinutes:    dv.Figures.NetMinutes(),
		Overnight:     dv.Figures.Overnight,
		BreakTimes:    make([]BreakResponse, 0, len(d.Breaks)),
		CreatedAt:     d.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     d.UpdatedAt.Format(time.RFC3339),
	}

	for _, w := range dv.Warnings {
		resp.Warnings = append(resp.Warnings, string(w))
	}

	if dv.WorkElapsed != nil {
		resp.InProgress = &InProgressResponse{WorkElapsedMinutes: int(dv.WorkElapsed.Minutes())}
		if dv.BreakElapsed != nil {
			m := int(dv.BreakElapsed.Minutes())
			resp.InProgress.BreakElapsedMinutes = &m
		}
	}

	for _, b := range d.Breaks {
		var elapsed *time.Duration
		if b.IsOpen() {
			elapsed = dv.BreakElapsed
		}
		resp.BreakTimes = append(resp.BreakTimes, ToBreakResponse(b, elapsed))
	}

	return resp
}
