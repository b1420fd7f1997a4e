package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/moyuu-az/attendance-system/internal/domain/attendance"
	"github.com/moyuu-az/attendance-system/internal/domain/user"
	"github.com/moyuu-az/attendance-system/internal/pkg/database"
	"github.com/moyuu-az/attendance-system/internal/pkg/keylock"
	"github.com/moyuu-az/attendance-system/internal/pkg/metrics"
	"github.com/moyuu-az/attendance-system/internal/pkg/sse"
	"github.com/moyuu-az/attendance-system/internal/pkg/worktime"
)

// Events published to the owning user.
const (
	EventAttendanceChanged = "attendance.changed"
	EventStaleOpenShift    = "attendance.stale_open_shift"
)

// OpenBreakPolicy decides what clock-out does with a break still open.
type OpenBreakPolicy string

const (
	OpenBreakReject OpenBreakPolicy = "reject"
	OpenBreakClose  OpenBreakPolicy = "close"
)

// Publisher delivers events to a user's live streams.
type Publisher interface {
	Publish(userID string, event sse.Event)
}

// Config holds attendance service configuration
type Config struct {
	Location        *time.Location  // default: UTC
	OpenBreakPolicy OpenBreakPolicy // default: reject
	StaleAfter      time.Duration   // default: 16 hours
	Now             func() time.Time
}

type AttendanceServiceImpl struct {
	tx      database.Transactor
	days    attendance.AttendanceRepository
	breaks  attendance.BreakRepository
	rates   user.RateRepository
	locker  attendance.DayLocker
	locks   *keylock.KeyedMutex
	events  Publisher
	metrics metrics.Recorder
	logger  *slog.Logger
	config  Config
}

func NewAttendanceService(
	tx database.Transactor,
	attendanceRepo attendance.AttendanceRepository,
	breakRepo attendance.BreakRepository,
	rateRepo user.RateRepository,
	locker attendance.DayLocker,
	events Publisher,
	rec metrics.Recorder,
	logger *slog.Logger,
	cfg Config,
) attendance.AttendanceService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.OpenBreakPolicy == "" {
		cfg.OpenBreakPolicy = OpenBreakReject
	}
	if cfg.StaleAfter == 0 {
		cfg.StaleAfter = 16 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &AttendanceServiceImpl{
		tx:      tx,
		days:    attendanceRepo,
		breaks:  breakRepo,
		rates:   rateRepo,
		locker:  locker,
		locks:   keylock.New(),
		events:  events,
		metrics: rec,
		logger:  logger,
		config:  cfg,
	}
}

func (a *AttendanceServiceImpl) now() time.Time {
	return a.config.Now().In(a.config.Location)
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// ========================================
// LEDGER OPERATIONS
// ========================================

// ClockIn implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ClockIn(ctx context.Context, userID string, req attendance.ClockInRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	now := a.now()
	date := worktime.DateOf(now)
	if req.ParsedDate != nil {
		date = *req.ParsedDate
	}
	at := worktime.FromTime(now)
	if req.ParsedTime != nil {
		at = *req.ParsedTime
	}

	unlock := a.locks.Lock(attendance.ShiftLockKey(userID))
	defer unlock()

	day, err := a.mutate(ctx, "clock_in", userID, date, func(ctx context.Context) (attendance.AttendanceDay, error) {
		if err := a.locker.LockUser(ctx, userID); err != nil {
			return attendance.AttendanceDay{}, err
		}
		open, err := a.days.GetOpen(ctx, userID)
		if err == nil {
			a.logger.Info("clock-in rejected, shift still open",
				slog.String("user_id", userID), slog.String("open_date", worktime.FormatDate(open.Date)))
			return attendance.AttendanceDay{}, attendance.ErrAlreadyClockedIn
		}
		if !errors.Is(err, attendance.ErrAttendanceNotFound) {
			return attendance.AttendanceDay{}, err
		}

		existing, err := a.days.GetByUserAndDate(ctx, userID, date)
		switch {
		case err == nil:
			if existing.ClockIn != nil {
				return attendance.AttendanceDay{}, attendance.ErrAlreadyClockedIn
			}
			existing.ClockIn = &at
			return a.save(ctx, existing)
		case errors.Is(err, attendance.ErrAttendanceNotFound):
			return a.create(ctx, attendance.AttendanceDay{
				ID:      newID(),
				UserID:  userID,
				Date:    date,
				ClockIn: &at,
			})
		default:
			return attendance.AttendanceDay{}, err
		}
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return a.respond(ctx, day)
}

// ClockOut implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ClockOut(ctx context.Context, userID string, req attendance.ClockOutRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	now := a.now()
	at := worktime.FromTime(now)
	if req.ParsedTime != nil {
		at = *req.ParsedTime
	}

	var date time.Time
	if req.ParsedDate != nil {
		date = *req.ParsedDate
	} else {
		open, err := a.days.GetLatestOpen(ctx, userID, worktime.DateOf(now))
		if err != nil {
			if errors.Is(err, attendance.ErrAttendanceNotFound) {
				a.metrics.RecordLedgerOperation("clock_out", attendance.ErrNotClockedIn)
				return attendance.AttendanceResponse{}, attendance.ErrNotClockedIn
			}
			return attendance.AttendanceResponse{}, fmt.Errorf("failed to find open attendance: %w", err)
		}
		date = open.Date
	}

	day, err := a.mutate(ctx, "clock_out", userID, date, func(ctx context.Context) (attendance.AttendanceDay, error) {
		day, err := a.days.GetByUserAndDate(ctx, userID, date)
		if err != nil {
			if errors.Is(err, attendance.ErrAttendanceNotFound) {
				return attendance.AttendanceDay{}, attendance.ErrNotClockedIn
			}
			return attendance.AttendanceDay{}, err
		}

		switch day.State() {
		case attendance.StateEmpty:
			return attendance.AttendanceDay{}, attendance.ErrNotClockedIn
		case attendance.StateClockedOut:
			return attendance.AttendanceDay{}, attendance.ErrAlreadyClockedOut
		}

		if b := day.OpenBreak(); b != nil {
			if a.config.OpenBreakPolicy != OpenBreakClose {
				return attendance.AttendanceDay{}, attendance.ErrOpenBreakMustCloseFirst
			}
			b.End = &at
			if _, err := a.breaks.Update(ctx, withDuration(*b)); err != nil {
				return attendance.AttendanceDay{}, err
			}
			day.AddFlag(worktime.WarningOpenBreakClosedOnClockOut)
			a.metrics.RecordDataWarning(string(worktime.WarningOpenBreakClosedOnClockOut))
			a.logger.Warn("open break closed at clock-out",
				slog.String("user_id", userID), slog.String("attendance_id", day.ID), slog.String("break_id", b.ID))
		}

		day.ClockOut = &at
		return a.save(ctx, day)
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return a.respond(ctx, day)
}

// StartBreak implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) StartBreak(ctx context.Context, userID string, req attendance.StartBreakRequest) (attendance.BreakResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.BreakResponse{}, err
	}

	target, err := a.ownedDay(ctx, userID, req.AttendanceID)
	if err != nil {
		return attendance.BreakResponse{}, err
	}

	at := worktime.FromTime(a.now())
	if req.ParsedTime != nil {
		at = *req.ParsedTime
	}
	breakID := newID()

	day, err := a.mutate(ctx, "start_break", userID, target.Date, func(ctx context.Context) (attendance.AttendanceDay, error) {
		day, err := a.ownedDay(ctx, userID, req.AttendanceID)
		if err != nil {
			return attendance.AttendanceDay{}, err
		}

		switch day.State() {
		case attendance.StateEmpty, attendance.StateClockedOut:
			return attendance.AttendanceDay{}, attendance.ErrNotClockedIn
		case attendance.StateOnBreak:
			return attendance.AttendanceDay{}, attendance.ErrBreakAlreadyOpen
		}

		b := attendance.BreakInterval{ID: breakID, AttendanceID: day.ID, Start: at}
		day.Breaks = append(day.Breaks, b)
		if err := a.check(day); err != nil {
			return attendance.AttendanceDay{}, err
		}
		if _, err := a.breaks.Create(ctx, b); err != nil {
			return attendance.AttendanceDay{}, err
		}
		return a.save(ctx, day)
	})
	if err != nil {
		return attendance.BreakResponse{}, err
	}

	return a.respondBreak(ctx, day, breakID)
}

// EndBreak implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) EndBreak(ctx context.Context, userID string, req attendance.EndBreakRequest) (attendance.BreakResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.BreakResponse{}, err
	}

	target, err := a.ownedBreakDay(ctx, userID, req.BreakID)
	if err != nil {
		return attendance.BreakResponse{}, err
	}

	at := worktime.FromTime(a.now())
	if req.ParsedTime != nil {
		at = *req.ParsedTime
	}

	day, err := a.mutate(ctx, "end_break", userID, target.Date, func(ctx context.Context) (attendance.AttendanceDay, error) {
		day, err := a.ownedBreakDay(ctx, userID, req.BreakID)
		if err != nil {
			return attendance.AttendanceDay{}, err
		}

		b := day.FindBreak(req.BreakID)
		if b == nil {
			return attendance.AttendanceDay{}, attendance.ErrBreakNotFound
		}
		if !b.IsOpen() {
			return attendance.AttendanceDay{}, attendance.ErrNoOpenBreak
		}

		b.End = &at
		if err := a.check(day); err != nil {
			return attendance.AttendanceDay{}, err
		}
		if _, err := a.breaks.Update(ctx, withDuration(*b)); err != nil {
			return attendance.AttendanceDay{}, err
		}
		return a.save(ctx, day)
	})
	if err != nil {
		return attendance.BreakResponse{}, err
	}

	return a.respondBreak(ctx, day, req.BreakID)
}

// ========================================
// MANUAL MAINTENANCE
// ========================================

// Create implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) Create(ctx context.Context, userID string, req attendance.CreateAttendanceRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	day := attendance.AttendanceDay{
		ID:       newID(),
		UserID:   userID,
		Date:     req.ParsedDate,
		ClockIn:  req.ParsedClockIn,
		ClockOut: req.ParsedClockOut,
	}
	for _, b := range req.ParsedBreaks {
		b.ID = newID()
		b.AttendanceID = day.ID
		day.Breaks = append(day.Breaks, b)
	}

	created, err := a.mutate(ctx, "create", userID, day.Date, func(ctx context.Context) (attendance.AttendanceDay, error) {
		return a.create(ctx, day)
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return a.respond(ctx, created)
}

// Update implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) Update(ctx context.Context, userID, id string, req attendance.UpdateAttendanceRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	target, err := a.ownedDay(ctx, userID, id)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	day, err := a.mutate(ctx, "update", userID, target.Date, func(ctx context.Context) (attendance.AttendanceDay, error) {
		day, err := a.ownedDay(ctx, userID, id)
		if err != nil {
			return attendance.AttendanceDay{}, err
		}

		if req.ClockIn.Set {
			day.ClockIn = req.ParsedClockIn
		}
		if req.ClockOut.Set {
			day.ClockOut = req.ParsedClockOut
		}
		if req.BreakTimes != nil {
			day.Breaks = make([]attendance.BreakInterval, 0, len(req.ParsedBreaks))
			for _, b := range req.ParsedBreaks {
				b.ID = newID()
				b.AttendanceID = day.ID
				day.Breaks = append(day.Breaks, b)
			}
			day.Flags = removeFlag(day.Flags, worktime.WarningOpenBreakClosedOnClockOut)
		}

		if err := a.check(day); err != nil {
			return attendance.AttendanceDay{}, err
		}

		if req.BreakTimes != nil {
			if err := a.breaks.DeleteByAttendance(ctx, day.ID); err != nil {
				return attendance.AttendanceDay{}, err
			}
			for _, b := range day.Breaks {
				if _, err := a.breaks.Create(ctx, withDuration(b)); err != nil {
					return attendance.AttendanceDay{}, err
				}
			}
		}
		return a.save(ctx, day)
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return a.respond(ctx, day)
}

// Delete implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) Delete(ctx context.Context, userID, id string) error {
	target, err := a.ownedDay(ctx, userID, id)
	if err != nil {
		return err
	}

	_, err = a.mutate(ctx, "delete", userID, target.Date, func(ctx context.Context) (attendance.AttendanceDay, error) {
		day, err := a.ownedDay(ctx, userID, id)
		if err != nil {
			return attendance.AttendanceDay{}, err
		}
		if err := a.breaks.DeleteByAttendance(ctx, day.ID); err != nil {
			return attendance.AttendanceDay{}, err
		}
		if err := a.days.Delete(ctx, day.ID); err != nil {
			return attendance.AttendanceDay{}, err
		}
		day.ClockIn, day.ClockOut, day.Breaks = nil, nil, nil
		return day, nil
	})
	return err
}

// UpdateBreak implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) UpdateBreak(ctx context.Context, userID, breakID string, req attendance.UpdateBreakRequest) (attendance.BreakResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.BreakResponse{}, err
	}

	target, err := a.ownedBreakDay(ctx, userID, breakID)
	if err != nil {
		return attendance.BreakResponse{}, err
	}

	day, err := a.mutate(ctx, "update_break", userID, target.Date, func(ctx context.Context) (attendance.AttendanceDay, error) {
		day, err := a.ownedBreakDay(ctx, userID, breakID)
		if err != nil {
			return attendance.AttendanceDay{}, err
		}

		b := day.FindBreak(breakID)
		if b == nil {
			return attendance.AttendanceDay{}, attendance.ErrBreakNotFound
		}
		if req.ParsedStart != nil {
			b.Start = *req.ParsedStart
		}
		if req.EndTime.Set {
			b.End = req.ParsedEnd
		}

		if err := a.check(day); err != nil {
			return attendance.AttendanceDay{}, err
		}
		if _, err := a.breaks.Update(ctx, withDuration(*b)); err != nil {
			return attendance.AttendanceDay{}, err
		}
		return a.save(ctx, day)
	})
	if err != nil {
		return attendance.BreakResponse{}, err
	}

	return a.respondBreak(ctx, day, breakID)
}

// DeleteBreak implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) DeleteBreak(ctx context.Context, userID, breakID string) error {
	target, err := a.ownedBreakDay(ctx, userID, breakID)
	if err != nil {
		return err
	}

	_, err = a.mutate(ctx, "delete_break", userID, target.Date, func(ctx context.Context) (attendance.AttendanceDay, error) {
		day, err := a.ownedBreakDay(ctx, userID, breakID)
		if err != nil {
			return attendance.AttendanceDay{}, err
		}

		kept := day.Breaks[:0]
		for _, b := range day.Breaks {
			if b.ID != breakID {
				kept = append(kept, b)
			}
		}
		day.Breaks = kept

		if err := a.breaks.Delete(ctx, breakID); err != nil {
			return attendance.AttendanceDay{}, err
		}
		return a.save(ctx, day)
	})
	return err
}

// ========================================
// READS
// ========================================

// Get implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) Get(ctx context.Context, userID, id string) (attendance.AttendanceResponse, error) {
	day, err := a.ownedDay(ctx, userID, id)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	return a.respond(ctx, day)
}

// Today implements attendance.AttendanceService. Without a record for the
// current date it falls back to a shift still open from an earlier date, such
// as an overnight shift after midnight.
func (a *AttendanceServiceImpl) Today(ctx context.Context, userID string) (*attendance.AttendanceResponse, error) {
	today := worktime.DateOf(a.now())
	day, err := a.days.GetByUserAndDate(ctx, userID, today)
	if errors.Is(err, attendance.ErrAttendanceNotFound) {
		day, err = a.days.GetLatestOpen(ctx, userID, today)
	}
	if err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return nil, nil
		}
		return nil, err
	}

	resp, err := a.respond(ctx, day)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// List implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) List(ctx context.Context, filter attendance.ListFilter) ([]attendance.AttendanceResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	days, err := a.days.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	rates, err := a.rates.ListByUser(ctx, filter.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load hourly rates: %w", err)
	}
	schedule := user.Schedule(rates)
	now := a.now()

	resp := make([]attendance.AttendanceResponse, 0, len(days))
	for _, d := range days {
		resp = append(resp, attendance.ToAttendanceResponse(d, d.Derive(schedule).WithLive(d, a.config.Location, now)))
	}
	return resp, nil
}

// ListBreaks implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ListBreaks(ctx context.Context, userID, attendanceID string) ([]attendance.BreakResponse, error) {
	day, err := a.ownedDay(ctx, userID, attendanceID)
	if err != nil {
		return nil, err
	}

	dv := attendance.Derived{}.WithLive(day, a.config.Location, a.now())
	resp := make([]attendance.BreakResponse, 0, len(day.Breaks))
	for _, b := range day.Breaks {
		var elapsed *time.Duration
		if b.IsOpen() {
			elapsed = dv.BreakElapsed
		}
		resp = append(resp, attendance.ToBreakResponse(b, elapsed))
	}
	return resp, nil
}

// DetectStaleOpenShifts implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) DetectStaleOpenShifts(ctx context.Context) ([]attendance.AttendanceDay, error) {
	open, err := a.days.ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list open attendance: %w", err)
	}

	now := a.now()
	stale := []attendance.AttendanceDay{}
	for _, d := range open {
		started := worktime.Instant(d.Date, *d.ClockIn, *d.ClockIn, a.config.Location)
		openFor := now.Sub(started)
		if openFor < a.config.StaleAfter {
			continue
		}

		stale = append(stale, d)
		a.logger.Warn("open shift exceeds threshold",
			slog.String("user_id", d.UserID),
			slog.String("attendance_id", d.ID),
			slog.String("date", worktime.FormatDate(d.Date)),
			slog.Duration("open_for", openFor),
		)
		if a.events != nil {
			a.events.Publish(d.UserID, sse.Event{
				UserID: d.UserID,
				Event:  EventStaleOpenShift,
				Data: map[string]interface{}{
					"attendance_id": d.ID,
					"date":          worktime.FormatDate(d.Date),
					"open_minutes":  int(openFor.Minutes()),
				},
			})
		}
	}

	a.metrics.SetStaleOpenShifts(len(stale))
	return stale, nil
}

// ========================================
// HELPERS
// ========================================

// mutate runs fn serialized on (userID, date) inside one transaction, then
// records the outcome and notifies the user's streams.
func (a *AttendanceServiceImpl) mutate(ctx context.Context, op, userID string, date time.Time, fn func(ctx context.Context) (attendance.AttendanceDay, error)) (attendance.AttendanceDay, error) {
	unlock := a.locks.Lock(attendance.LockKey(userID, date))
	defer unlock()

	var saved attendance.AttendanceDay
	err := a.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := a.locker.LockDay(ctx, userID, date); err != nil {
			return err
		}
		day, err := fn(ctx)
		if err != nil {
			return err
		}
		saved = day
		return nil
	})
	a.metrics.RecordLedgerOperation(op, err)
	if err != nil {
		return attendance.AttendanceDay{}, err
	}

	a.logger.Debug("attendance updated",
		slog.String("operation", op),
		slog.String("user_id", userID),
		slog.String("attendance_id", saved.ID),
		slog.String("date", worktime.FormatDate(saved.Date)),
	)

	if a.events != nil {
		a.events.Publish(userID, sse.Event{
			UserID: userID,
			Event:  EventAttendanceChanged,
			Data: map[string]interface{}{
				"operation":     op,
				"attendance_id": saved.ID,
				"date":          worktime.FormatDate(saved.Date),
				"state":         saved.State(),
			},
		})
	}

	return saved, nil
}

// create validates a new day, stores its totals and inserts it with its breaks.
func (a *AttendanceServiceImpl) create(ctx context.Context, day attendance.AttendanceDay) (attendance.AttendanceDay, error) {
	if err := a.check(day); err != nil {
		return attendance.AttendanceDay{}, err
	}
	if err := a.applyTotals(ctx, &day); err != nil {
		return attendance.AttendanceDay{}, err
	}
	return a.days.Create(ctx, day)
}

// save validates the day and rewrites its stored totals.
func (a *AttendanceServiceImpl) save(ctx context.Context, day attendance.AttendanceDay) (attendance.AttendanceDay, error) {
	if err := a.check(day); err != nil {
		return attendance.AttendanceDay{}, err
	}
	if err := a.applyTotals(ctx, &day); err != nil {
		return attendance.AttendanceDay{}, err
	}
	return a.days.Update(ctx, day)
}

func (a *AttendanceServiceImpl) check(day attendance.AttendanceDay) error {
	if err := day.CheckInvariants(); err != nil {
		return err
	}
	return day.CheckBreaksAt(a.config.Location, a.now())
}

func (a *AttendanceServiceImpl) applyTotals(ctx context.Context, day *attendance.AttendanceDay) error {
	rates, err := a.rates.ListByUser(ctx, day.UserID)
	if err != nil {
		return fmt.Errorf("failed to load hourly rates: %w", err)
	}

	dv := day.Derive(user.Schedule(rates))
	for _, w := range dv.Figures.Warnings {
		a.metrics.RecordDataWarning(string(w))
		a.logger.Warn("attendance data warning",
			slog.String("warning", string(w)),
			slog.String("attendance_id", day.ID),
			slog.String("date", worktime.FormatDate(day.Date)),
		)
	}
	day.ApplyTotals(dv)
	return nil
}

func (a *AttendanceServiceImpl) ownedDay(ctx context.Context, userID, id string) (attendance.AttendanceDay, error) {
	day, err := a.days.GetByID(ctx, id)
	if err != nil {
		return attendance.AttendanceDay{}, err
	}
	if day.UserID != userID {
		return attendance.AttendanceDay{}, attendance.ErrAttendanceNotFound
	}
	return day, nil
}

func (a *AttendanceServiceImpl) ownedBreakDay(ctx context.Context, userID, breakID string) (attendance.AttendanceDay, error) {
	b, err := a.breaks.GetByID(ctx, breakID)
	if err != nil {
		return attendance.AttendanceDay{}, err
	}
	day, err := a.ownedDay(ctx, userID, b.AttendanceID)
	if err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return attendance.AttendanceDay{}, attendance.ErrBreakNotFound
		}
		return attendance.AttendanceDay{}, err
	}
	return day, nil
}

func (a *AttendanceServiceImpl) respond(ctx context.Context, day attendance.AttendanceDay) (attendance.AttendanceResponse, error) {
	rates, err := a.rates.ListByUser(ctx, day.UserID)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to load hourly rates: %w", err)
	}
	dv := day.Derive(user.Schedule(rates)).WithLive(day, a.config.Location, a.now())
	return attendance.ToAttendanceResponse(day, dv), nil
}

func (a *AttendanceServiceImpl) respondBreak(ctx context.Context, day attendance.AttendanceDay, breakID string) (attendance.BreakResponse, error) {
	b := day.FindBreak(breakID)
	if b == nil {
		return attendance.BreakResponse{}, attendance.ErrBreakNotFound
	}
	var elapsed *time.Duration
	if b.IsOpen() {
		elapsed = attendance.Derived{}.WithLive(day, a.config.Location, a.now()).BreakElapsed
	}
	return attendance.ToBreakResponse(*b, elapsed), nil
}

func withDuration(b attendance.BreakInterval) attendance.BreakInterval {
	b.DurationMinutes = 0
	if b.End != nil {
		b.DurationMinutes = worktime.IntervalMinutes(b.Start, *b.End)
	}
	return b
}

func removeFlag(flags []worktime.Warning, w worktime.Warning) []worktime.Warning {
	out := make([]worktime.Warning, 0, len(flags))
	for _, f := range flags {
		if f != w {
			out = append(out, f)
		}
	}
	return out
}
