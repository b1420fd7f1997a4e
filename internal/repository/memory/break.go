package memory

import (
	"context"

	"github.com/moyuu-az/attendance-system/internal/domain/attendance"
)

type breakRepository struct {
	store *Store
}

func NewBreakRepository(s *Store) attendance.BreakRepository {
	return &breakRepository{store: s}
}

func (r *breakRepository) Create(ctx context.Context, b attendance.BreakInterval) (attendance.BreakInterval, error) {
	s := r.store
	defer s.lockWrite(ctx)()

	if _, ok := s.days[b.AttendanceID]; !ok {
		return attendance.BreakInterval{}, attendance.ErrAttendanceNotFound
	}
	if b.IsOpen() && s.hasOpenBreak(b.AttendanceID, b.ID) {
		return attendance.BreakInterval{}, attendance.ErrBreakAlreadyOpen
	}

	now := s.now()
	b.CreatedAt, b.UpdatedAt = now, now
	s.breaks[b.ID] = cloneBreak(b)
	return cloneBreak(b), nil
}

func (r *breakRepository) GetByID(ctx context.Context, id string) (attendance.BreakInterval, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.breaks[id]
	if !ok {
		return attendance.BreakInterval{}, attendance.ErrBreakNotFound
	}
	return cloneBreak(b), nil
}

func (r *breakRepository) ListByAttendance(ctx context.Context, attendanceID string) ([]attendance.BreakInterval, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.breaksOf(attendanceID), nil
}

func (r *breakRepository) Update(ctx context.Context, b attendance.BreakInterval) (attendance.BreakInterval, error) {
	s := r.store
	defer s.lockWrite(ctx)()

	existing, ok := s.breaks[b.ID]
	if !ok {
		return attendance.BreakInterval{}, attendance.ErrBreakNotFound
	}
	if b.IsOpen() && s.hasOpenBreak(existing.AttendanceID, b.ID) {
		return attendance.BreakInterval{}, attendance.ErrBreakAlreadyOpen
	}

	existing.Start = b.Start
	existing.End = cloneTime(b.End)
	existing.DurationMinutes = b.DurationMinutes
	existing.UpdatedAt = s.now()
	s.breaks[b.ID] = existing
	return cloneBreak(existing), nil
}

func (r *breakRepository) Delete(ctx context.Context, id string) error {
	s := r.store
	defer s.lockWrite(ctx)()

	if _, ok := s.breaks[id]; !ok {
		return attendance.ErrBreakNotFound
	}
	delete(s.breaks, id)
	return nil
}

func (r *breakRepository) DeleteByAttendance(ctx context.Context, attendanceID string) error {
	s := r.store
	defer s.lockWrite(ctx)()

	for id, b := range s.breaks {
		if b.AttendanceID == attendanceID {
			delete(s.breaks, id)
		}
	}
	return nil
}
