package report

import (
	"context"
	"time"

	"github.com/moyuu-az/attendance-system/internal/domain/attendance"
	"github.com/moyuu-az/attendance-system/internal/domain/user"
	"github.com/moyuu-az/attendance-system/internal/pkg/holiday"
)

// LedgerReader is the read side of the time ledger that reports roll up.
type LedgerReader interface {
	ListRange(ctx context.Context, userID string, from, to time.Time) ([]attendance.AttendanceDay, error)
}

// RateReader returns a user's hourly rate history.
type RateReader interface {
	ListByUser(ctx context.Context, userID string) ([]user.HourlyRate, error)
}

// HolidayCalendar answers holiday lookups without ever failing; degraded
// answers are flagged on the result.
type HolidayCalendar interface {
	Month(ctx context.Context, year int, month time.Month) holiday.Result
}
