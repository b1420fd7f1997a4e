package memory

import (
	"context"
	"sort"
	"time"

	"github.com/moyuu-az/attendance-system/internal/domain/attendance"
	"github.com/moyuu-az/attendance-system/internal/pkg/worktime"
)

func cloneTime(t *worktime.TimeOfDay) *worktime.TimeOfDay {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

type attendanceRepository struct {
	store *Store
}

func NewAttendanceRepository(s *Store) attendance.AttendanceRepository {
	return &attendanceRepository{store: s}
}

// withBreaks must be called with the read lock held.
func (s *Store) withBreaks(d attendance.AttendanceDay) attendance.AttendanceDay {
	d = cloneDay(d)
	d.Breaks = s.breaksOf(d.ID)
	return d
}

// breaksOf must be called with the read lock held.
func (s *Store) breaksOf(attendanceID string) []attendance.BreakInterval {
	breaks := []attendance.BreakInterval{}
	for _, b := range s.breaks {
		if b.AttendanceID == attendanceID {
			breaks = append(breaks, cloneBreak(b))
		}
	}
	sort.Slice(breaks, func(i, j int) bool {
		if breaks[i].Start != breaks[j].Start {
			return breaks[i].Start < breaks[j].Start
		}
		return breaks[i].CreatedAt.Before(breaks[j].CreatedAt)
	})
	return breaks
}

// hasOpenBreak must be called with the read lock held.
func (s *Store) hasOpenBreak(attendanceID, exceptID string) bool {
	for _, b := range s.breaks {
		if b.AttendanceID == attendanceID && b.ID != exceptID && b.IsOpen() {
			return true
		}
	}
	return false
}

func (r *attendanceRepository) Create(ctx context.Context, day attendance.AttendanceDay) (attendance.AttendanceDay, error) {
	s := r.store
	defer s.lockWrite(ctx)()

	for _, existing := range s.days {
		if existing.UserID == day.UserID && existing.Date.Equal(day.Date) {
			return attendance.AttendanceDay{}, attendance.ErrAttendanceAlreadyExists
		}
	}

	open := 0
	for _, b := range day.Breaks {
		if b.IsOpen() {
			open++
		}
	}
	if open > 1 {
		return attendance.AttendanceDay{}, attendance.ErrBreakAlreadyOpen
	}

	now := s.now()
	day.CreatedAt, day.UpdatedAt = now, now
	if day.Flags == nil {
		day.Flags = []worktime.Warning{}
	}
	s.days[day.ID] = cloneDay(day)

	for _, b := range day.Breaks {
		b.AttendanceID = day.ID
		b.CreatedAt, b.UpdatedAt = now, now
		s.breaks[b.ID] = cloneBreak(b)
	}

	return s.withBreaks(s.days[day.ID]), nil
}

func (r *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.AttendanceDay, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.days[id]
	if !ok {
		return attendance.AttendanceDay{}, attendance.ErrAttendanceNotFound
	}
	return s.withBreaks(d), nil
}

func (r *attendanceRepository) find(match func(attendance.AttendanceDay) bool) []attendance.AttendanceDay {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	days := []attendance.AttendanceDay{}
	for _, d := range s.days {
		if match(d) {
			days = append(days, s.withBreaks(d))
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return days
}

func (r *attendanceRepository) GetByUserAndDate(ctx context.Context, userID string, date time.Time) (attendance.AttendanceDay, error) {
	days := r.find(func(d attendance.AttendanceDay) bool {
		return d.UserID == userID && d.Date.Equal(date)
	})
	if len(days) == 0 {
		return attendance.AttendanceDay{}, attendance.ErrAttendanceNotFound
	}
	return days[0], nil
}

func (r *attendanceRepository) GetLatestOpen(ctx context.Context, userID string, onOrBefore time.Time) (attendance.AttendanceDay, error) {
	days := r.find(func(d attendance.AttendanceDay) bool {
		return d.UserID == userID && !d.Date.After(onOrBefore) && d.IsOpen()
	})
	if len(days) == 0 {
		return attendance.AttendanceDay{}, attendance.ErrAttendanceNotFound
	}
	return days[len(days)-1], nil
}

func (r *attendanceRepository) GetOpen(ctx context.Context, userID string) (attendance.AttendanceDay, error) {
	days := r.find(func(d attendance.AttendanceDay) bool {
		return d.UserID == userID && d.IsOpen()
	})
	if len(days) == 0 {
		return attendance.AttendanceDay{}, attendance.ErrAttendanceNotFound
	}
	return days[len(days)-1], nil
}

func (r *attendanceRepository) List(ctx context.Context, filter attendance.ListFilter) ([]attendance.AttendanceDay, error) {
	from, to := filter.Range()
	days := r.find(func(d attendance.AttendanceDay) bool {
		if d.UserID != filter.UserID {
			return false
		}
		if from != nil && (d.Date.Before(*from) || d.Date.After(*to)) {
			return false
		}
		return true
	})

	for i, j := 0, len(days)-1; i < j; i, j = i+1, j-1 {
		days[i], days[j] = days[j], days[i]
	}

	if filter.Skip >= len(days) {
		return []attendance.AttendanceDay{}, nil
	}
	days = days[filter.Skip:]
	if filter.Limit > 0 && filter.Limit < len(days) {
		days = days[:filter.Limit]
	}
	return days, nil
}

func (r *attendanceRepository) ListRange(ctx context.Context, userID string, from, to time.Time) ([]attendance.AttendanceDay, error) {
	return r.find(func(d attendance.AttendanceDay) bool {
		return d.UserID == userID && !d.Date.Before(from) && !d.Date.After(to)
	}), nil
}

func (r *attendanceRepository) ListOpen(ctx context.Context) ([]attendance.AttendanceDay, error) {
	return r.find(func(d attendance.AttendanceDay) bool { return d.IsOpen() }), nil
}

func (r *attendanceRepository) Update(ctx context.Context, day attendance.AttendanceDay) (attendance.AttendanceDay, error) {
	s := r.store
	defer s.lockWrite(ctx)()

	existing, ok := s.days[day.ID]
	if !ok {
		return attendance.AttendanceDay{}, attendance.ErrAttendanceNotFound
	}

	existing.ClockIn = day.ClockIn
	existing.ClockOut = day.ClockOut
	existing.TotalHours = day.TotalHours
	existing.TotalAmount = day.TotalAmount
	existing.HourlyRate = day.HourlyRate
	existing.Flags = day.Flags
	if existing.Flags == nil {
		existing.Flags = []worktime.Warning{}
	}
	existing.UpdatedAt = s.now()
	s.days[day.ID] = cloneDay(existing)

	return s.withBreaks(s.days[day.ID]), nil
}

func (r *attendanceRepository) Delete(ctx context.Context, id string) error {
	s := r.store
	defer s.lockWrite(ctx)()

	if _, ok := s.days[id]; !ok {
		return attendance.ErrAttendanceNotFound
	}
	delete(s.days, id)
	for bid, b := range s.breaks {
		if b.AttendanceID == id {
			delete(s.breaks, bid)
		}
	}
	return nil
}
