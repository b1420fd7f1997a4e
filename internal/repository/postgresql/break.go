package postgresql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/moyuu-az/attendance-system/internal/domain/attendance"
	"github.com/moyuu-az/attendance-system/internal/pkg/database"
)

const breakColumns = `id, attendance_id, start_time, end_time, duration, created_at, updated_at`

type breakRepository struct {
	db *database.DB
}

func NewBreakRepository(db *database.DB) attendance.BreakRepository {
	return &breakRepository{db: db}
}

func scanBreak(row pgx.Row) (attendance.BreakInterval, error) {
	var (
		b          attendance.BreakInterval
		start, end pgtype.Time
	)
	if err := row.Scan(&b.ID, &b.AttendanceID, &start, &end, &b.DurationMinutes, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return attendance.BreakInterval{}, err
	}
	if s := timeFromPG(start); s != nil {
		b.Start = *s
	}
	b.End = timeFromPG(end)
	return b, nil
}

func insertBreak(ctx context.Context, q database.Querier, b attendance.BreakInterval) (attendance.BreakInterval, error) {
	query := `
		INSERT INTO break_times (id, attendance_id, start_time, end_time, duration)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + breakColumns

	created, err := scanBreak(q.QueryRow(ctx, query,
		b.ID, b.AttendanceID, timeToPG(&b.Start), timeToPG(b.End), b.DurationMinutes,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return attendance.BreakInterval{}, attendance.ErrBreakAlreadyOpen
		}
		return attendance.BreakInterval{}, fmt.Errorf("failed to create break: %w", err)
	}
	return created, nil
}

// Create implements attendance.BreakRepository.
func (r *breakRepository) Create(ctx context.Context, b attendance.BreakInterval) (attendance.BreakInterval, error) {
	return insertBreak(ctx, GetQuerier(ctx, r.db), b)
}

// GetByID implements attendance.BreakRepository.
func (r *breakRepository) GetByID(ctx context.Context, id string) (attendance.BreakInterval, error) {
	q := GetQuerier(ctx, r.db)

	b, err := scanBreak(q.QueryRow(ctx, `SELECT `+breakColumns+` FROM break_times WHERE id = $1`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return attendance.BreakInterval{}, attendance.ErrBreakNotFound
		}
		return attendance.BreakInterval{}, fmt.Errorf("failed to get break: %w", err)
	}
	return b, nil
}

// ListByAttendance implements attendance.BreakRepository.
func (r *breakRepository) ListByAttendance(ctx context.Context, attendanceID string) ([]attendance.BreakInterval, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT `+breakColumns+`
		FROM break_times
		WHERE attendance_id = $1
		ORDER BY start_time, created_at
	`, attendanceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list breaks: %w", err)
	}
	defer rows.Close()

	breaks := []attendance.BreakInterval{}
	for rows.Next() {
		b, err := scanBreak(rows)
		if err != nil {
			return nil, err
		}
		breaks = append(breaks, b)
	}
	return breaks, rows.Err()
}

// Update implements attendance.BreakRepository.
func (r *breakRepository) Update(ctx context.Context, b attendance.BreakInterval) (attendance.BreakInterval, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE break_times
		SET start_time = $2, end_time = $3, duration = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + breakColumns

	updated, err := scanBreak(q.QueryRow(ctx, query, b.ID, timeToPG(&b.Start), timeToPG(b.End), b.DurationMinutes))
	if err != nil {
		if err == pgx.ErrNoRows {
			return attendance.BreakInterval{}, attendance.ErrBreakNotFound
		}
		if isUniqueViolation(err) {
			return attendance.BreakInterval{}, attendance.ErrBreakAlreadyOpen
		}
		return attendance.BreakInterval{}, fmt.Errorf("failed to update break: %w", err)
	}
	return updated, nil
}

// Delete implements attendance.BreakRepository.
func (r *breakRepository) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, `DELETE FROM break_times WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete break: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return attendance.ErrBreakNotFound
	}
	return nil
}

// DeleteByAttendance implements attendance.BreakRepository.
func (r *breakRepository) DeleteByAttendance(ctx context.Context, attendanceID string) error {
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `DELETE FROM break_times WHERE attendance_id = $1`, attendanceID); err != nil {
		return fmt.Errorf("failed to delete breaks: %w", err)
	}
	return nil
}
