package attendance

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/moyuu-az/attendance-system/internal/domain/attendance"
	"github.com/moyuu-az/attendance-system/internal/domain/user"
	"github.com/moyuu-az/attendance-system/internal/pkg/sse"
	"github.com/moyuu-az/attendance-system/internal/pkg/validator"
	"github.com/moyuu-az/attendance-system/internal/pkg/worktime"
	"github.com/moyuu-az/attendance-system/internal/repository/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jst = time.FixedZone("JST", 9*3600)

type capturedEvents struct {
	mu     sync.Mutex
	events []sse.Event
}

func (c *capturedEvents) Publish(userID string, event sse.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *capturedEvents) names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, e := range c.events {
		out = append(out, e.Event)
	}
	return out
}

type fixture struct {
	svc    attendance.AttendanceService
	store  *memory.Store
	events *capturedEvents
	now    time.Time
}

func newFixture(t *testing.T, policy OpenBreakPolicy) *fixture {
	t.Helper()

	store := memory.NewStore()
	rates := memory.NewRateRepository(store)
	_, err := rates.Upsert(context.Background(), user.HourlyRate{
		ID:            "rate-1",
		UserID:        "u1",
		Rate:          decimal.NewFromInt(1200),
		EffectiveFrom: worktime.NewDate(2024, time.January, 1),
	})
	require.NoError(t, err)

	f := &fixture{
		store:  store,
		events: &capturedEvents{},
		now:    time.Date(2024, time.April, 2, 9, 0, 0, 0, jst),
	}
	f.svc = NewAttendanceService(
		memory.NewTransactor(store),
		memory.NewAttendanceRepository(store),
		memory.NewBreakRepository(store),
		rates,
		memory.NewDayLocker(),
		f.events,
		nil,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config{
			Location:        jst,
			OpenBreakPolicy: policy,
			Now:             func() time.Time { return f.now },
		},
	)
	return f
}

func strp(s string) *string { return &s }

func TestLedger_FullDay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, OpenBreakReject)

	day, err := f.svc.ClockIn(ctx, "u1", attendance.ClockInRequest{})
	require.NoError(t, err)
	assert.Equal(t, "2024-04-02", day.Date)
	assert.Equal(t, "09:00:00", *day.ClockIn)
	assert.Equal(t, attendance.StateClockedIn, day.State)

	f.now = time.Date(2024, time.April, 2, 15, 0, 0, 0, jst)
	brk, err := f.svc.StartBreak(ctx, "u1", attendance.StartBreakRequest{AttendanceID: day.ID, Time: strp("12:00")})
	require.NoError(t, err)
	assert.Nil(t, brk.EndTime)

	brk, err = f.svc.EndBreak(ctx, "u1", attendance.EndBreakRequest{BreakID: brk.ID, Time: strp("12:30")})
	require.NoError(t, err)
	require.NotNil(t, brk.Duration)
	assert.Equal(t, 30, *brk.Duration)

	day, err = f.svc.ClockOut(ctx, "u1", attendance.ClockOutRequest{Time: strp("15:00")})
	require.NoError(t, err)
	assert.Equal(t, attendance.StateClockedOut, day.State)
	assert.Equal(t, 5.5, day.TotalHours)
	assert.Equal(t, float64(6600), day.TotalAmount)
	assert.Equal(t, float64(1200), day.HourlyRate)
	assert.Equal(t, 30, day.BreakMinutes)
	assert.Equal(t, 330, day.NetMinutes)
	assert.Nil(t, day.InProgress)

	assert.Equal(t, []string{
		EventAttendanceChanged, EventAttendanceChanged, EventAttendanceChanged, EventAttendanceChanged,
	}, f.events.names())
}

func TestLedger_StateConflicts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, OpenBreakReject)

	_, err := f.svc.ClockOut(ctx, "u1", attendance.ClockOutRequest{})
	assert.ErrorIs(t, err, attendance.ErrNotClockedIn)

	day, err := f.svc.ClockIn(ctx, "u1", attendance.ClockInRequest{})
	require.NoError(t, err)

	_, err = f.svc.ClockIn(ctx, "u1", attendance.ClockInRequest{})
	assert.ErrorIs(t, err, attendance.ErrAlreadyClockedIn)

	_, err = f.svc.ClockIn(ctx, "u1", attendance.ClockInRequest{Date: strp("2024-04-03")})
	assert.ErrorIs(t, err, attendance.ErrAlreadyClockedIn, "earlier shift is still open")

	f.now = time.Date(2024, time.April, 2, 10, 30, 0, 0, jst)
	brk, err := f.svc.StartBreak(ctx, "u1", attendance.StartBreakRequest{AttendanceID: day.ID, Time: strp("10:00")})
	require.NoError(t, err)

	_, err = f.svc.StartBreak(ctx, "u1", attendance.StartBreakRequest{AttendanceID: day.ID, Time: strp("10:05")})
	assert.ErrorIs(t, err, attendance.ErrBreakAlreadyOpen)

	_, err = f.svc.ClockOut(ctx, "u1", attendance.ClockOutRequest{Time: strp("17:00")})
	assert.ErrorIs(t, err, attendance.ErrOpenBreakMustCloseFirst)

	got, err := f.svc.Get(ctx, "u1", day.ID)
	require.NoError(t, err)
	assert.Equal(t, attendance.StateOnBreak, got.State)

	_, err = f.svc.EndBreak(ctx, "u1", attendance.EndBreakRequest{BreakID: brk.ID, Time: strp("10:15")})
	require.NoError(t, err)
	_, err = f.svc.EndBreak(ctx, "u1", attendance.EndBreakRequest{BreakID: brk.ID, Time: strp("10:20")})
	assert.ErrorIs(t, err, attendance.ErrNoOpenBreak)

	_, err = f.svc.ClockOut(ctx, "u1", attendance.ClockOutRequest{Time: strp("17:00")})
	require.NoError(t, err)
	_, err = f.svc.ClockOut(ctx, "u1", attendance.ClockOutRequest{Date: strp("2024-04-02"), Time: strp("18:00")})
	assert.ErrorIs(t, err, attendance.ErrAlreadyClockedOut)

	_, err = f.svc.StartBreak(ctx, "u1", attendance.StartBreakRequest{AttendanceID: day.ID, Time: strp("16:00")})
	assert.ErrorIs(t, err, attendance.ErrNotClockedIn)
}

func TestLedger_ClockOutClosesOpenBreak(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, OpenBreakClose)

	day, err := f.svc.ClockIn(ctx, "u1", attendance.ClockInRequest{})
	require.NoError(t, err)
	f.now = time.Date(2024, time.April, 2, 12, 0, 0, 0, jst)
	_, err = f.svc.StartBreak(ctx, "u1", attendance.StartBreakRequest{AttendanceID: day.ID, Time: strp("12:00")})
	require.NoError(t, err)

	day, err = f.svc.ClockOut(ctx, "u1", attendance.ClockOutRequest{Time: strp("13:00")})
	require.NoError(t, err)

	assert.Contains(t, day.Warnings, string(worktime.WarningOpenBreakClosedOnClockOut))
	require.Len(t, day.BreakTimes, 1)
	assert.Equal(t, "13:00:00", *day.BreakTimes[0].EndTime)
	assert.Equal(t, 3.0, day.TotalHours)
	assert.Equal(t, float64(3600), day.TotalAmount)

	got, err := f.svc.Get(ctx, "u1", day.ID)
	require.NoError(t, err)
	assert.Contains(t, got.Warnings, string(worktime.WarningOpenBreakClosedOnClockOut), "flag is persisted")
}

func TestLedger_OvernightShift(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, OpenBreakReject)

	_, err := f.svc.ClockIn(ctx, "u1", attendance.ClockInRequest{Date: strp("2024-04-01"), Time: strp("22:00")})
	require.NoError(t, err)

	f.now = time.Date(2024, time.April, 2, 6, 0, 0, 0, jst)
	day, err := f.svc.ClockOut(ctx, "u1", attendance.ClockOutRequest{})
	require.NoError(t, err)

	assert.Equal(t, "2024-04-01", day.Date)
	assert.Equal(t, "06:00:00", *day.ClockOut)
	assert.True(t, day.Overnight)
	assert.Equal(t, 8.0, day.TotalHours)
	assert.Equal(t, float64(9600), day.TotalAmount)
}

func TestLedger_LiveElapsedOnOpenShift(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, OpenBreakReject)

	day, err := f.svc.ClockIn(ctx, "u1", attendance.ClockInRequest{})
	require.NoError(t, err)
	f.now = time.Date(2024, time.April, 2, 12, 0, 0, 0, jst)
	_, err = f.svc.StartBreak(ctx, "u1", attendance.StartBreakRequest{AttendanceID: day.ID, Time: strp("12:00")})
	require.NoError(t, err)

	f.now = time.Date(2024, time.April, 2, 12, 25, 0, 0, jst)
	today, err := f.svc.Today(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, today)
	require.NotNil(t, today.InProgress)
	assert.Equal(t, 205, today.InProgress.WorkElapsedMinutes)
	require.NotNil(t, today.InProgress.BreakElapsedMinutes)
	assert.Equal(t, 25, *today.InProgress.BreakElapsedMinutes)
	assert.Equal(t, 0.0, today.TotalHours, "open shifts carry no settled hours")

	breaks, err := f.svc.ListBreaks(ctx, "u1", day.ID)
	require.NoError(t, err)
	require.Len(t, breaks, 1)
	require.NotNil(t, breaks[0].ElapsedMinutes)
	assert.Equal(t, 25, *breaks[0].ElapsedMinutes)

	none, err := f.svc.Today(ctx, "u2")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestLedger_OwnershipHidesRecords(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, OpenBreakReject)

	day, err := f.svc.ClockIn(ctx, "u1", attendance.ClockInRequest{})
	require.NoError(t, err)
	brk, err := f.svc.StartBreak(ctx, "u1", attendance.StartBreakRequest{AttendanceID: day.ID})
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, "u2", day.ID)
	assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)

	_, err = f.svc.EndBreak(ctx, "u2", attendance.EndBreakRequest{BreakID: brk.ID})
	assert.ErrorIs(t, err, attendance.ErrBreakNotFound)

	_, err = f.svc.EndBreak(ctx, "u1", attendance.EndBreakRequest{BreakID: "missing"})
	assert.ErrorIs(t, err, attendance.ErrBreakNotFound)

	assert.ErrorIs(t, f.svc.Delete(ctx, "u2", day.ID), attendance.ErrAttendanceNotFound)
}

func TestManual_CreateUpdateDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, OpenBreakReject)

	req := attendance.CreateAttendanceRequest{
		Date:     "2024-03-29",
		ClockIn:  strp("09:00"),
		ClockOut: strp("18:00"),
		BreakTimes: []attendance.BreakTimeInput{
			{StartTime: "12:00", EndTime: strp("12:30")},
		},
	}
	day, err := f.svc.Create(ctx, "u1", req)
	require.NoError(t, err)
	assert.Equal(t, 8.5, day.TotalHours)
	assert.Equal(t, float64(10200), day.TotalAmount)

	_, err = f.svc.Create(ctx, "u1", req)
	assert.ErrorIs(t, err, attendance.ErrAttendanceAlreadyExists)

	overlapping := []attendance.BreakTimeInput{
		{StartTime: "12:00", EndTime: strp("13:00")},
		{StartTime: "12:30", EndTime: strp("12:45")},
	}
	_, err = f.svc.Update(ctx, "u1", day.ID, attendance.UpdateAttendanceRequest{BreakTimes: &overlapping})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)

	unchanged, err := f.svc.Get(ctx, "u1", day.ID)
	require.NoError(t, err)
	assert.Equal(t, 8.5, unchanged.TotalHours)
	require.Len(t, unchanged.BreakTimes, 1)

	day, err = f.svc.Update(ctx, "u1", day.ID, attendance.UpdateAttendanceRequest{
		ClockOut: attendance.OptionalTime{Set: true},
	})
	require.NoError(t, err)
	assert.Nil(t, day.ClockOut)
	assert.Equal(t, attendance.StateClockedIn, day.State)

	replacement := []attendance.BreakTimeInput{{StartTime: "13:00", EndTime: strp("14:00")}}
	day, err = f.svc.Update(ctx, "u1", day.ID, attendance.UpdateAttendanceRequest{
		ClockOut:   attendance.OptionalTime{Set: true, Value: strp("17:00")},
		BreakTimes: &replacement,
	})
	require.NoError(t, err)
	assert.Equal(t, 7.0, day.TotalHours)
	require.Len(t, day.BreakTimes, 1)
	assert.Equal(t, "13:00:00", day.BreakTimes[0].StartTime)

	require.NoError(t, f.svc.Delete(ctx, "u1", day.ID))
	_, err = f.svc.Get(ctx, "u1", day.ID)
	assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)

	_, err = f.svc.EndBreak(ctx, "u1", attendance.EndBreakRequest{BreakID: day.BreakTimes[0].ID})
	assert.ErrorIs(t, err, attendance.ErrBreakNotFound)
}

func TestManual_BreakMaintenance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, OpenBreakReject)

	day, err := f.svc.Create(ctx, "u1", attendance.CreateAttendanceRequest{
		Date:     "2024-03-28",
		ClockIn:  strp("09:00"),
		ClockOut: strp("17:00"),
		BreakTimes: []attendance.BreakTimeInput{
			{StartTime: "12:00", EndTime: strp("13:00")},
			{StartTime: "15:00", EndTime: strp("15:15")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 6.8, day.TotalHours)

	first := day.BreakTimes[0]
	updated, err := f.svc.UpdateBreak(ctx, "u1", first.ID, attendance.UpdateBreakRequest{
		EndTime: attendance.OptionalTime{Set: true, Value: strp("12:30")},
	})
	require.NoError(t, err)
	assert.Equal(t, 30, *updated.Duration)

	_, err = f.svc.UpdateBreak(ctx, "u1", first.ID, attendance.UpdateBreakRequest{StartTime: strp("15:10")})
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs, "break would end before it starts")

	require.NoError(t, f.svc.DeleteBreak(ctx, "u1", day.BreakTimes[1].ID))

	got, err := f.svc.Get(ctx, "u1", day.ID)
	require.NoError(t, err)
	require.Len(t, got.BreakTimes, 1)
	assert.Equal(t, 7.5, got.TotalHours)
	assert.Equal(t, float64(9000), got.TotalAmount)
}

func TestLedger_ConcurrentClockInSerializes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, OpenBreakReject)

	const callers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.ClockIn(ctx, "u1", attendance.ClockInRequest{})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, attendance.ErrAlreadyClockedIn):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, callers-1, conflicts)

	year, month := 2024, 4
	days, err := f.svc.List(ctx, attendance.ListFilter{UserID: "u1", Year: &year, Month: &month})
	require.NoError(t, err)
	assert.Len(t, days, 1)
}

func TestDetectStaleOpenShifts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, OpenBreakReject)

	_, err := f.svc.ClockIn(ctx, "u1", attendance.ClockInRequest{Date: strp("2024-04-01"), Time: strp("08:00")})
	require.NoError(t, err)

	f.now = time.Date(2024, time.April, 1, 20, 0, 0, 0, jst)
	stale, err := f.svc.DetectStaleOpenShifts(ctx)
	require.NoError(t, err)
	assert.Empty(t, stale)

	f.now = time.Date(2024, time.April, 2, 1, 0, 0, 0, jst)
	stale, err = f.svc.DetectStaleOpenShifts(ctx)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "2024-04-01", worktime.FormatDate(stale[0].Date))
	assert.Contains(t, f.events.names(), EventStaleOpenShift)

	got, err := f.svc.Get(ctx, "u1", stale[0].ID)
	require.NoError(t, err)
	assert.Nil(t, got.ClockOut, "stale shifts are never closed automatically")
}

func TestLedger_RateChangeLeavesSettledDays(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, OpenBreakReject)

	settled, err := f.svc.Create(ctx, "u1", attendance.CreateAttendanceRequest{
		Date:     "2024-03-29",
		ClockIn:  strp("09:00"),
		ClockOut: strp("17:00"),
	})
	require.NoError(t, err)
	assert.Equal(t, float64(9600), settled.TotalAmount)

	open, err := f.svc.ClockIn(ctx, "u1", attendance.ClockInRequest{})
	require.NoError(t, err)

	_, err = memory.NewRateRepository(f.store).Upsert(ctx, user.HourlyRate{
		ID:            "rate-1",
		UserID:        "u1",
		Rate:          decimal.NewFromInt(2400),
		EffectiveFrom: worktime.NewDate(2024, time.January, 1),
	})
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, "u1", settled.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(1200), got.HourlyRate)
	assert.Equal(t, float64(9600), got.TotalAmount)

	year, month := 2024, 3
	list, err := f.svc.List(ctx, attendance.ListFilter{UserID: "u1", Year: &year, Month: &month})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, float64(9600), list[0].TotalAmount)

	f.now = time.Date(2024, time.April, 2, 17, 0, 0, 0, jst)
	closed, err := f.svc.ClockOut(ctx, "u1", attendance.ClockOutRequest{})
	require.NoError(t, err)
	assert.Equal(t, open.ID, closed.ID)
	assert.Equal(t, float64(2400), closed.HourlyRate, "an open day is priced when it settles")
	assert.Equal(t, float64(19200), closed.TotalAmount)
}

func TestLedger_BreakOnOpenShiftMustNotBeInTheFuture(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, OpenBreakReject)

	day, err := f.svc.ClockIn(ctx, "u1", attendance.ClockInRequest{})
	require.NoError(t, err)

	f.now = time.Date(2024, time.April, 2, 12, 0, 0, 0, jst)
	var verrs validator.ValidationErrors
	_, err = f.svc.StartBreak(ctx, "u1", attendance.StartBreakRequest{AttendanceID: day.ID, Time: strp("08:00")})
	require.ErrorAs(t, err, &verrs, "before clock-in wraps to the next day")
	assert.Contains(t, verrs.ToMap(), "break_times[0].start_time")

	_, err = f.svc.StartBreak(ctx, "u1", attendance.StartBreakRequest{AttendanceID: day.ID, Time: strp("12:30")})
	require.ErrorAs(t, err, &verrs)

	brk, err := f.svc.StartBreak(ctx, "u1", attendance.StartBreakRequest{AttendanceID: day.ID, Time: strp("11:00")})
	require.NoError(t, err)
	_, err = f.svc.EndBreak(ctx, "u1", attendance.EndBreakRequest{BreakID: brk.ID, Time: strp("13:00")})
	require.ErrorAs(t, err, &verrs)
	_, err = f.svc.EndBreak(ctx, "u1", attendance.EndBreakRequest{BreakID: brk.ID, Time: strp("11:30")})
	require.NoError(t, err)

	f.now = time.Date(2024, time.April, 2, 17, 0, 0, 0, jst)
	out, err := f.svc.ClockOut(ctx, "u1", attendance.ClockOutRequest{})
	require.NoError(t, err)
	require.Len(t, out.BreakTimes, 1)
	assert.Equal(t, 7.5, out.TotalHours)
}

func TestLedger_ConcurrentClockInAcrossDates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, OpenBreakReject)

	dates := []string{"2024-03-30", "2024-03-31", "2024-04-01", "2024-04-02"}
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for _, date := range dates {
		wg.Add(1)
		go func(date string) {
			defer wg.Done()
			_, err := f.svc.ClockIn(ctx, "u1", attendance.ClockInRequest{Date: strp(date), Time: strp("08:00")})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, attendance.ErrAlreadyClockedIn):
				conflicts++
			}
		}(date)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, len(dates)-1, conflicts)

	_, err := f.svc.ClockIn(ctx, "u2", attendance.ClockInRequest{Date: strp("2024-04-02")})
	require.NoError(t, err)
	_, err = f.svc.ClockIn(ctx, "u2", attendance.ClockInRequest{Date: strp("2024-04-01")})
	assert.ErrorIs(t, err, attendance.ErrAlreadyClockedIn, "a later open shift also counts")
}

func TestToday_OvernightShiftAfterMidnight(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, OpenBreakReject)

	f.now = time.Date(2024, time.April, 1, 22, 0, 0, 0, jst)
	day, err := f.svc.ClockIn(ctx, "u1", attendance.ClockInRequest{})
	require.NoError(t, err)

	f.now = time.Date(2024, time.April, 2, 1, 30, 0, 0, jst)
	today, err := f.svc.Today(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, today)
	assert.Equal(t, day.ID, today.ID)
	assert.Equal(t, "2024-04-01", today.Date)
	require.NotNil(t, today.InProgress)
	assert.Equal(t, 210, today.InProgress.WorkElapsedMinutes)

	_, err = f.svc.ClockOut(ctx, "u1", attendance.ClockOutRequest{})
	require.NoError(t, err)
	today, err = f.svc.Today(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, today, "a closed shift from yesterday is not today's record")
}
