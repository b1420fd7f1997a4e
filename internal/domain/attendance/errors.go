package attendance

import "errors"

// Attendance domain errors
var (
	// Ledger state conflicts
	ErrAlreadyClockedIn        = errors.New("already clocked in")
	ErrNotClockedIn            = errors.New("not clocked in")
	ErrAlreadyClockedOut       = errors.New("already clocked out")
	ErrOpenBreakMustCloseFirst = errors.New("an open break must be ended before clocking out")
	ErrBreakAlreadyOpen        = errors.New("a break is already in progress")
	ErrNoOpenBreak             = errors.New("break has already ended")

	// General errors
	ErrAttendanceNotFound      = errors.New("attendance record not found")
	ErrAttendanceAlreadyExists = errors.New("attendance record already exists for this date")
	ErrBreakNotFound           = errors.New("break not found")
)
