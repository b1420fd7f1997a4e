package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/moyuu-az/attendance-system/internal/domain/attendance"
)

type AttendanceJobs struct {
	attendanceService attendance.AttendanceService
	logger            *slog.Logger
}

func NewAttendanceJobs(attendanceService attendance.AttendanceService, logger *slog.Logger) *AttendanceJobs {
	if logger == nil {
		logger = slog.Default()
	}
	return &AttendanceJobs{
		attendanceService: attendanceService,
		logger:            logger,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("detect_stale_open_shifts", 1*time.Hour, j.DetectStaleOpenShifts)
}

// DetectStaleOpenShifts reports shifts left open too long. The service logs
// and notifies each one; nothing is closed automatically.
func (j *AttendanceJobs) DetectStaleOpenShifts(ctx context.Context) error {
	stale, err := j.attendanceService.DetectStaleOpenShifts(ctx)
	if err != nil {
		return fmt.Errorf("failed to detect stale open shifts: %w", err)
	}

	if len(stale) > 0 {
		j.logger.Info("Cron: stale open shifts found", "count", len(stale))
	}
	return nil
}
