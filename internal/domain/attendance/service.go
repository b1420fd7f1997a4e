package attendance

import (
	"context"
)

// AttendanceService is the time ledger. Every operation is scoped to userID;
// records owned by someone else are reported as not found.
type AttendanceService interface {
	ClockIn(ctx context.Context, userID string, req ClockInRequest) (AttendanceResponse, error)
	ClockOut(ctx context.Context, userID string, req ClockOutRequest) (AttendanceResponse, error)
	StartBreak(ctx context.Context, userID string, req StartBreakRequest) (BreakResponse, error)
	EndBreak(ctx context.Context, userID string, req EndBreakRequest) (BreakResponse, error)

	// Manual maintenance
	Create(ctx context.Context, userID string, req CreateAttendanceRequest) (AttendanceResponse, error)
	Update(ctx context.Context, userID, id string, req UpdateAttendanceRequest) (AttendanceResponse, error)
	Delete(ctx context.Context, userID, id string) error
	UpdateBreak(ctx context.Context, userID, breakID string, req UpdateBreakRequest) (BreakResponse, error)
	DeleteBreak(ctx context.Context, userID, breakID string) error

	// Reads
	Get(ctx context.Context, userID, id string) (AttendanceResponse, error)
	Today(ctx context.Context, userID string) (*AttendanceResponse, error)
	List(ctx context.Context, filter ListFilter) ([]AttendanceResponse, error)
	ListBreaks(ctx context.Context, userID, attendanceID string) ([]BreakResponse, error)

	// DetectStaleOpenShifts reports days still open longer than the
	// configured threshold.
	DetectStaleOpenShifts(ctx context.Context) ([]AttendanceDay, error)
}
