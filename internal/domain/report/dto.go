package report

import (
	"github.com/moyuu-az/attendance-system/internal/domain/attendance"
	"github.com/moyuu-az/attendance-system/internal/pkg/calendar"
	"github.com/moyuu-az/attendance-system/internal/pkg/validator"
)

// ========================================
// REQUESTS
// ========================================

type MonthlyRequest struct {
	UserID string
	Year   int
	Month  int
}

func (r *MonthlyRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidYear(r.Year) {
		errs.Add("year", "year must be between 2000 and 2100")
	}
	if !validator.IsValidMonth(r.Month) {
		errs.Add("month", "month must be between 1 and 12")
	}

	return errs.Err()
}

type YearlyRequest struct {
	UserID string
	Year   int
}

func (r *YearlyRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidYear(r.Year) {
		errs.Add("year", "year must be between 2000 and 2100")
	}

	return errs.Err()
}

// ========================================
// CALENDAR
// ========================================

type CalendarDay struct {
	Date        string                         `json:"date"`
	Weekday     string                         `json:"weekday"`
	IsWeekend   bool                           `json:"is_weekend"`
	IsHoliday   bool                           `json:"is_holiday"`
	HolidayName string                         `json:"holiday_name,omitempty"`
	Status      calendar.Status                `json:"status"`
	Attendance  *attendance.AttendanceResponse `json:"attendance"`
}

type MonthlyCalendar struct {
	Year             int           `json:"year"`
	Month            int           `json:"month"`
	CalendarDays     []CalendarDay `json:"calendar_days"`
	TotalWorkingDays int           `json:"total_working_days"`
	TotalPresentDays int           `json:"total_present_days"`
	AttendanceRate   int           `json:"attendance_rate"`
	TotalHours       float64       `json:"total_hours"`
	TotalAmount      float64       `json:"total_amount"`

	// HolidaysDegraded is set when the holiday calendar could not be reached
	// and the month was treated as having no holidays.
	HolidaysDegraded bool `json:"holidays_degraded"`
}

// ========================================
// REPORTS
// ========================================

type MonthlyReport struct {
	Year              int                             `json:"year"`
	Month             int                             `json:"month"`
	TotalDays         int                             `json:"total_days"`
	TotalHours        float64                         `json:"total_hours"`
	TotalAmount       float64                         `json:"total_amount"`
	AverageDailyHours float64                         `json:"average_daily_hours"`
	AttendanceList    []attendance.AttendanceResponse `json:"attendance_list"`
}

type MonthlySummary struct {
	Month             int     `json:"month"`
	TotalDays         int     `json:"total_days"`
	TotalHours        float64 `json:"total_hours"`
	TotalAmount       float64 `json:"total_amount"`
	AverageDailyHours float64 `json:"average_daily_hours"`

	// Degraded marks a month that could not be computed and is zero-filled.
	Degraded bool `json:"degraded,omitempty"`
}

type YearlyReport struct {
	Year           int              `json:"year"`
	TotalDays      int              `json:"total_days"`
	TotalHours     float64          `json:"total_hours"`
	TotalAmount    float64          `json:"total_amount"`
	MonthlySummary []MonthlySummary `json:"monthly_summary"`
	Degraded       bool             `json:"degraded,omitempty"`
}
