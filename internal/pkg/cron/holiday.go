package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// HolidayRefresher re-fetches a year of holidays into the cache.
type HolidayRefresher interface {
	Refresh(ctx context.Context, year int) error
}

type HolidayJobs struct {
	holidays HolidayRefresher
	location *time.Location
	now      func() time.Time
	logger   *slog.Logger
}

func NewHolidayJobs(holidays HolidayRefresher, loc *time.Location, logger *slog.Logger) *HolidayJobs {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HolidayJobs{
		holidays: holidays,
		location: loc,
		now:      time.Now,
		logger:   logger,
	}
}

func (j *HolidayJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("prefetch_holidays", 12*time.Hour, j.PrefetchHolidays)
}

// PrefetchHolidays warms the cache for the current and the next year so
// calendar requests rarely wait on the provider.
func (j *HolidayJobs) PrefetchHolidays(ctx context.Context) error {
	year := j.now().In(j.location).Year()

	var errs []error
	for _, y := range []int{year, year + 1} {
		if err := j.holidays.Refresh(ctx, y); err != nil {
			errs = append(errs, fmt.Errorf("year %d: %w", y, err))
			continue
		}
		j.logger.Debug("Cron: holidays prefetched", "year", y)
	}
	return errors.Join(errs...)
}
