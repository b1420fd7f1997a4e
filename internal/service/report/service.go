package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/moyuu-az/attendance-system/internal/domain/attendance"
	"github.com/moyuu-az/attendance-system/internal/domain/report"
	"github.com/moyuu-az/attendance-system/internal/domain/user"
	"github.com/moyuu-az/attendance-system/internal/pkg/calendar"
	"github.com/moyuu-az/attendance-system/internal/pkg/wage"
	"github.com/moyuu-az/attendance-system/internal/pkg/worktime"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Config holds report service configuration
type Config struct {
	Location *time.Location // default: UTC
	Now      func() time.Time
}

type ReportServiceImpl struct {
	ledger   report.LedgerReader
	rates    report.RateReader
	holidays report.HolidayCalendar
	logger   *slog.Logger
	config   Config
}

func NewReportService(ledger report.LedgerReader, rates report.RateReader, holidays report.HolidayCalendar, logger *slog.Logger, cfg Config) report.ReportService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ReportServiceImpl{
		ledger:   ledger,
		rates:    rates,
		holidays: holidays,
		logger:   logger,
		config:   cfg,
	}
}

// rollup is the aggregate of a month of ledger days.
type rollup struct {
	days   int
	hours  decimal.Decimal
	amount decimal.Decimal
	list   []attendance.AttendanceResponse
	byDate map[string]*attendance.AttendanceResponse
}

func (r rollup) averageDailyHours() decimal.Decimal {
	if r.days == 0 {
		return decimal.Zero
	}
	return r.hours.Div(decimal.NewFromInt(int64(r.days))).Round(2)
}

func (s *ReportServiceImpl) schedule(ctx context.Context, userID string) (wage.Schedule, error) {
	rates, err := s.rates.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load hourly rates: %w", err)
	}
	return user.Schedule(rates), nil
}

// month loads and aggregates one month of a user's ledger.
func (s *ReportServiceImpl) month(ctx context.Context, userID string, year int, month time.Month, rates wage.Schedule) (rollup, error) {
	from, to := worktime.MonthRange(year, month)
	days, err := s.ledger.ListRange(ctx, userID, from, to)
	if err != nil {
		return rollup{}, err
	}

	now := s.config.Now().In(s.config.Location)
	r := rollup{
		hours:  decimal.Zero,
		amount: decimal.Zero,
		list:   make([]attendance.AttendanceResponse, 0, len(days)),
		byDate: make(map[string]*attendance.AttendanceResponse, len(days)),
	}
	for _, d := range days {
		dv := d.Derive(rates)
		if d.ClockIn != nil {
			r.days++
		}
		r.hours = r.hours.Add(dv.TotalHours)
		r.amount = r.amount.Add(dv.TotalAmount)
		r.list = append(r.list, attendance.ToAttendanceResponse(d, dv.WithLive(d, s.config.Location, now)))
	}
	for i := range r.list {
		r.byDate[r.list[i].Date] = &r.list[i]
	}

	return r, nil
}

// MonthlyCalendar implements report.ReportService.
func (s *ReportServiceImpl) MonthlyCalendar(ctx context.Context, req report.MonthlyRequest) (report.MonthlyCalendar, error) {
	if err := req.Validate(); err != nil {
		return report.MonthlyCalendar{}, err
	}

	rates, err := s.schedule(ctx, req.UserID)
	if err != nil {
		return report.MonthlyCalendar{}, err
	}

	r, err := s.month(ctx, req.UserID, req.Year, time.Month(req.Month), rates)
	if err != nil {
		return report.MonthlyCalendar{}, fmt.Errorf("failed to load attendance: %w", err)
	}

	holidays := s.holidays.Month(ctx, req.Year, time.Month(req.Month))
	if holidays.Degraded {
		s.logger.Warn("calendar rendered without holidays",
			slog.String("user_id", req.UserID),
			slog.Int("year", req.Year),
			slog.Int("month", req.Month),
		)
	}

	days := calendar.Month(req.Year, time.Month(req.Month), holidays.Holidays, func(date time.Time) bool {
		a, ok := r.byDate[worktime.FormatDate(date)]
		return ok && a.ClockIn != nil
	})
	summary := calendar.Summarize(days)

	resp := report.MonthlyCalendar{
		Year:             req.Year,
		Month:            req.Month,
		CalendarDays:     make([]report.CalendarDay, 0, len(days)),
		TotalWorkingDays: summary.WorkingDays,
		TotalPresentDays: summary.PresentDays,
		AttendanceRate:   summary.AttendanceRate,
		TotalHours:       r.hours.InexactFloat64(),
		TotalAmount:      r.amount.InexactFloat64(),
		HolidaysDegraded: holidays.Degraded,
	}
	for _, d := range days {
		key := worktime.FormatDate(d.Date)
		resp.CalendarDays = append(resp.CalendarDays, report.CalendarDay{
			Date:        key,
			Weekday:     d.Date.Weekday().String(),
			IsWeekend:   d.IsWeekend,
			IsHoliday:   d.IsHoliday,
			HolidayName: d.HolidayName,
			Status:      d.Status,
			Attendance:  r.byDate[key],
		})
	}

	return resp, nil
}

// MonthlyReport implements report.ReportService.
func (s *ReportServiceImpl) MonthlyReport(ctx context.Context, req report.MonthlyRequest) (report.MonthlyReport, error) {
	if err := req.Validate(); err != nil {
		return report.MonthlyReport{}, err
	}

	rates, err := s.schedule(ctx, req.UserID)
	if err != nil {
		return report.MonthlyReport{}, err
	}

	r, err := s.month(ctx, req.UserID, req.Year, time.Month(req.Month), rates)
	if err != nil {
		return report.MonthlyReport{}, fmt.Errorf("failed to load attendance: %w", err)
	}

	return report.MonthlyReport{
		Year:              req.Year,
		Month:             req.Month,
		TotalDays:         r.days,
		TotalHours:        r.hours.InexactFloat64(),
		TotalAmount:       r.amount.InexactFloat64(),
		AverageDailyHours: r.averageDailyHours().InexactFloat64(),
		AttendanceList:    r.list,
	}, nil
}

// YearlyReport implements report.ReportService. Months are computed
// concurrently; a month that fails is zero-filled and flagged, and year
// totals are summed from the monthly entries.
func (s *ReportServiceImpl) YearlyReport(ctx context.Context, req report.YearlyRequest) (report.YearlyReport, error) {
	if err := req.Validate(); err != nil {
		return report.YearlyReport{}, err
	}

	rates, err := s.schedule(ctx, req.UserID)
	if err != nil {
		return report.YearlyReport{}, err
	}

	var (
		months   [12]rollup
		degraded [12]bool
	)

	g, gctx := errgroup.WithContext(ctx)
	for m := 1; m <= 12; m++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := s.month(gctx, req.UserID, req.Year, time.Month(m), rates)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				s.logger.Warn("monthly rollup failed, zero-filling",
					slog.String("user_id", req.UserID),
					slog.Int("year", req.Year),
					slog.Int("month", m),
					slog.String("error", err.Error()),
				)
				degraded[m-1] = true
				months[m-1] = rollup{hours: decimal.Zero, amount: decimal.Zero}
				return nil
			}
			months[m-1] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report.YearlyReport{}, err
	}

	resp := report.YearlyReport{
		Year:           req.Year,
		MonthlySummary: make([]report.MonthlySummary, 0, 12),
	}
	totalHours, totalAmount := decimal.Zero, decimal.Zero
	for i, r := range months {
		resp.MonthlySummary = append(resp.MonthlySummary, report.MonthlySummary{
			Month:             i + 1,
			TotalDays:         r.days,
			TotalHours:        r.hours.InexactFloat64(),
			TotalAmount:       r.amount.InexactFloat64(),
			AverageDailyHours: r.averageDailyHours().InexactFloat64(),
			Degraded:          degraded[i],
		})
		resp.TotalDays += r.days
		totalHours = totalHours.Add(r.hours)
		totalAmount = totalAmount.Add(r.amount)
		resp.Degraded = resp.Degraded || degraded[i]
	}
	resp.TotalHours = totalHours.InexactFloat64()
	resp.TotalAmount = totalAmount.InexactFloat64()

	return resp, nil
}
