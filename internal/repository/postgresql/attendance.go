package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/moyuu-az/attendance-system/internal/domain/attendance"
	"github.com/moyuu-az/attendance-system/internal/pkg/database"
	"github.com/moyuu-az/attendance-system/internal/pkg/worktime"
	"github.com/shopspring/decimal"
)

const attendanceColumns = `id, user_id, date, clock_in, clock_out,
	total_hours::text, total_amount::text, hourly_rate::text, flags,
	created_at, updated_at`

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

func timeToPG(t *worktime.TimeOfDay) pgtype.Time {
	if t == nil {
		return pgtype.Time{}
	}
	return pgtype.Time{Microseconds: t.Microseconds(), Valid: true}
}

func timeFromPG(t pgtype.Time) *worktime.TimeOfDay {
	if !t.Valid {
		return nil
	}
	v := worktime.FromMicroseconds(t.Microseconds)
	return &v
}

func flagsToPG(flags []worktime.Warning) []string {
	out := make([]string, 0, len(flags))
	for _, f := range flags {
		out = append(out, string(f))
	}
	return out
}

func scanAttendance(row pgx.Row) (attendance.AttendanceDay, error) {
	var (
		d                   attendance.AttendanceDay
		clockIn, clockOut   pgtype.Time
		hours, amount, rate string
		flags               []string
	)
	err := row.Scan(
		&d.ID, &d.UserID, &d.Date, &clockIn, &clockOut,
		&hours, &amount, &rate, &flags,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return attendance.AttendanceDay{}, err
	}

	d.ClockIn = timeFromPG(clockIn)
	d.ClockOut = timeFromPG(clockOut)
	if d.TotalHours, err = decimal.NewFromString(hours); err != nil {
		return attendance.AttendanceDay{}, fmt.Errorf("parse total_hours: %w", err)
	}
	if d.TotalAmount, err = decimal.NewFromString(amount); err != nil {
		return attendance.AttendanceDay{}, fmt.Errorf("parse total_amount: %w", err)
	}
	if d.HourlyRate, err = decimal.NewFromString(rate); err != nil {
		return attendance.AttendanceDay{}, fmt.Errorf("parse hourly_rate: %w", err)
	}
	for _, f := range flags {
		d.Flags = append(d.Flags, worktime.Warning(f))
	}
	d.Breaks = []attendance.BreakInterval{}

	return d, nil
}

func (a *attendanceRepository) queryDays(ctx context.Context, query string, args ...interface{}) ([]attendance.AttendanceDay, error) {
	q := GetQuerier(ctx, a.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	days := []attendance.AttendanceDay{}
	for rows.Next() {
		d, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := a.attachBreaks(ctx, days); err != nil {
		return nil, err
	}
	return days, nil
}

func (a *attendanceRepository) attachBreaks(ctx context.Context, days []attendance.AttendanceDay) error {
	if len(days) == 0 {
		return nil
	}

	ids := make([]string, len(days))
	index := make(map[string]int, len(days))
	for i, d := range days {
		ids[i] = d.ID
		index[d.ID] = i
	}

	q := GetQuerier(ctx, a.db)
	rows, err := q.Query(ctx, `
		SELECT `+breakColumns+`
		FROM break_times
		WHERE attendance_id = ANY($1::text[]::uuid[])
		ORDER BY start_time, created_at
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to load breaks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		b, err := scanBreak(rows)
		if err != nil {
			return err
		}
		i := index[b.AttendanceID]
		days[i].Breaks = append(days[i].Breaks, b)
	}
	return rows.Err()
}

func (a *attendanceRepository) getOne(ctx context.Context, query string, args ...interface{}) (attendance.AttendanceDay, error) {
	days, err := a.queryDays(ctx, query, args...)
	if err != nil {
		return attendance.AttendanceDay{}, err
	}
	if len(days) == 0 {
		return attendance.AttendanceDay{}, attendance.ErrAttendanceNotFound
	}
	return days[0], nil
}

// Create implements attendance.AttendanceRepository.
func (a *attendanceRepository) Create(ctx context.Context, day attendance.AttendanceDay) (attendance.AttendanceDay, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendances (
			id, user_id, date, clock_in, clock_out,
			total_hours, total_amount, hourly_rate, flags
		) VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric, $8::numeric, $9)
		RETURNING ` + attendanceColumns

	created, err := scanAttendance(q.QueryRow(ctx, query,
		day.ID, day.UserID, day.Date, timeToPG(day.ClockIn), timeToPG(day.ClockOut),
		day.TotalHours.String(), day.TotalAmount.String(), day.HourlyRate.String(), flagsToPG(day.Flags),
	))
	if err != nil {
		if isUniqueViolation(err) {
			return attendance.AttendanceDay{}, attendance.ErrAttendanceAlreadyExists
		}
		return attendance.AttendanceDay{}, fmt.Errorf("failed to create attendance: %w", err)
	}

	for _, b := range day.Breaks {
		b.AttendanceID = created.ID
		inserted, err := insertBreak(ctx, q, b)
		if err != nil {
			return attendance.AttendanceDay{}, err
		}
		created.Breaks = append(created.Breaks, inserted)
	}

	return created, nil
}

// GetByID implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.AttendanceDay, error) {
	d, err := a.getOne(ctx, `SELECT `+attendanceColumns+` FROM attendances WHERE id = $1`, id)
	if err != nil && !errors.Is(err, attendance.ErrAttendanceNotFound) {
		return d, fmt.Errorf("failed to get attendance: %w", err)
	}
	return d, err
}

// GetByUserAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByUserAndDate(ctx context.Context, userID string, date time.Time) (attendance.AttendanceDay, error) {
	d, err := a.getOne(ctx, `
		SELECT `+attendanceColumns+`
		FROM attendances
		WHERE user_id = $1 AND date = $2
	`, userID, date)
	if err != nil && !errors.Is(err, attendance.ErrAttendanceNotFound) {
		return d, fmt.Errorf("failed to get attendance by date: %w", err)
	}
	return d, err
}

// GetLatestOpen implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetLatestOpen(ctx context.Context, userID string, onOrBefore time.Time) (attendance.AttendanceDay, error) {
	d, err := a.getOne(ctx, `
		SELECT `+attendanceColumns+`
		FROM attendances
		WHERE user_id = $1
		  AND date <= $2
		  AND clock_in IS NOT NULL
		  AND clock_out IS NULL
		ORDER BY date DESC
		LIMIT 1
	`, userID, onOrBefore)
	if err != nil && !errors.Is(err, attendance.ErrAttendanceNotFound) {
		return d, fmt.Errorf("failed to get open attendance: %w", err)
	}
	return d, err
}

// GetOpen implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetOpen(ctx context.Context, userID string) (attendance.AttendanceDay, error) {
	d, err := a.getOne(ctx, `
		SELECT `+attendanceColumns+`
		FROM attendances
		WHERE user_id = $1
		  AND clock_in IS NOT NULL
		  AND clock_out IS NULL
		ORDER BY date DESC
		LIMIT 1
	`, userID)
	if err != nil && !errors.Is(err, attendance.ErrAttendanceNotFound) {
		return d, fmt.Errorf("failed to get open attendance: %w", err)
	}
	return d, err
}

// List implements attendance.AttendanceRepository.
func (a *attendanceRepository) List(ctx context.Context, filter attendance.ListFilter) ([]attendance.AttendanceDay, error) {
	var (
		conditions = []string{"user_id = $1"}
		args       = []interface{}{filter.UserID}
		argIdx     = 2
	)

	if from, to := filter.Range(); from != nil {
		conditions = append(conditions, fmt.Sprintf("date BETWEEN $%d AND $%d", argIdx, argIdx+1))
		args = append(args, *from, *to)
		argIdx += 2
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM attendances
		WHERE %s
		ORDER BY date DESC
		OFFSET $%d LIMIT $%d
	`, attendanceColumns, strings.Join(conditions, " AND "), argIdx, argIdx+1)
	args = append(args, filter.Skip, filter.Limit)

	days, err := a.queryDays(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return days, nil
}

// ListRange implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListRange(ctx context.Context, userID string, from, to time.Time) ([]attendance.AttendanceDay, error) {
	days, err := a.queryDays(ctx, `
		SELECT `+attendanceColumns+`
		FROM attendances
		WHERE user_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date
	`, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance range: %w", err)
	}
	return days, nil
}

// ListOpen implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListOpen(ctx context.Context) ([]attendance.AttendanceDay, error) {
	days, err := a.queryDays(ctx, `
		SELECT `+attendanceColumns+`
		FROM attendances
		WHERE clock_in IS NOT NULL AND clock_out IS NULL
		ORDER BY date
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list open attendance: %w", err)
	}
	return days, nil
}

// Update implements attendance.AttendanceRepository.
func (a *attendanceRepository) Update(ctx context.Context, day attendance.AttendanceDay) (attendance.AttendanceDay, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendances
		SET clock_in = $2,
			clock_out = $3,
			total_hours = $4::numeric,
			total_amount = $5::numeric,
			hourly_rate = $6::numeric,
			flags = $7,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + attendanceColumns

	updated, err := scanAttendance(q.QueryRow(ctx, query,
		day.ID, timeToPG(day.ClockIn), timeToPG(day.ClockOut),
		day.TotalHours.String(), day.TotalAmount.String(), day.HourlyRate.String(), flagsToPG(day.Flags),
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return attendance.AttendanceDay{}, attendance.ErrAttendanceNotFound
		}
		return attendance.AttendanceDay{}, fmt.Errorf("failed to update attendance: %w", err)
	}

	days := []attendance.AttendanceDay{updated}
	if err := a.attachBreaks(ctx, days); err != nil {
		return attendance.AttendanceDay{}, err
	}
	return days[0], nil
}

// Delete implements attendance.AttendanceRepository. Breaks go with the day
// through ON DELETE CASCADE.
func (a *attendanceRepository) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, a.db)

	commandTag, err := q.Exec(ctx, `DELETE FROM attendances WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete attendance: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return attendance.ErrAttendanceNotFound
	}
	return nil
}

type dayLocker struct {
	db *database.DB
}

// NewDayLocker returns a DayLocker using transaction-scoped advisory locks.
func NewDayLocker(db *database.DB) attendance.DayLocker {
	return &dayLocker{db: db}
}

// LockDay implements attendance.DayLocker.
func (l *dayLocker) LockDay(ctx context.Context, userID string, date time.Time) error {
	q := GetQuerier(ctx, l.db)
	if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, attendance.LockKey(userID, date)); err != nil {
		return fmt.Errorf("failed to lock attendance day: %w", err)
	}
	return nil
}

// LockUser implements attendance.DayLocker.
func (l *dayLocker) LockUser(ctx context.Context, userID string) error {
	q := GetQuerier(ctx, l.db)
	if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, attendance.ShiftLockKey(userID)); err != nil {
		return fmt.Errorf("failed to lock user shifts: %w", err)
	}
	return nil
}
