package attendance

import (
	"context"
	"time"
)

// AttendanceRepository defines data access methods for attendance days.
// Days are always returned with their breaks ordered by start time.
type AttendanceRepository interface {
	// Create inserts a day and its breaks. Returns ErrAttendanceAlreadyExists
	// when the user already has a day on that date.
	Create(ctx context.Context, day AttendanceDay) (AttendanceDay, error)

	GetByID(ctx context.Context, id string) (AttendanceDay, error)

	// GetByUserAndDate returns ErrAttendanceNotFound when there is no day.
	GetByUserAndDate(ctx context.Context, userID string, date time.Time) (AttendanceDay, error)

	// GetLatestOpen returns the most recent open day on or before date.
	GetLatestOpen(ctx context.Context, userID string, onOrBefore time.Time) (AttendanceDay, error)

	// GetOpen returns the user's most recent open day on any date.
	GetOpen(ctx context.Context, userID string) (AttendanceDay, error)

	// List returns a page of a user's days, newest first.
	List(ctx context.Context, filter ListFilter) ([]AttendanceDay, error)

	// ListRange returns a user's days in [from, to], oldest first.
	ListRange(ctx context.Context, userID string, from, to time.Time) ([]AttendanceDay, error)

	// ListOpen returns every open day across users.
	ListOpen(ctx context.Context) ([]AttendanceDay, error)

	// Update writes clock times, totals and flags of a day.
	Update(ctx context.Context, day AttendanceDay) (AttendanceDay, error)

	// Delete removes a day and its breaks.
	Delete(ctx context.Context, id string) error
}

type BreakRepository interface {
	Create(ctx context.Context, b BreakInterval) (BreakInterval, error)
	GetByID(ctx context.Context, id string) (BreakInterval, error)
	ListByAttendance(ctx context.Context, attendanceID string) ([]BreakInterval, error)
	Update(ctx context.Context, b BreakInterval) (BreakInterval, error)
	Delete(ctx context.Context, id string) error
	DeleteByAttendance(ctx context.Context, attendanceID string) error
}

// DayLocker takes locks that last until the surrounding transaction ends, so
// replicas sharing the database serialize too. LockDay covers one (user,
// date) pair; LockUser covers every open-shift check of a user.
type DayLocker interface {
	LockDay(ctx context.Context, userID string, date time.Time) error
	LockUser(ctx context.Context, userID string) error
}
