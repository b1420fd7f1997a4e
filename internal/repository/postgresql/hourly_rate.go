package postgresql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/moyuu-az/attendance-system/internal/domain/user"
	"github.com/moyuu-az/attendance-system/internal/pkg/database"
	"github.com/shopspring/decimal"
)

type rateRepositoryImpl struct {
	db *database.DB
}

func NewRateRepository(db *database.DB) user.RateRepository {
	return &rateRepositoryImpl{db: db}
}

func scanRate(row pgx.Row) (user.HourlyRate, error) {
	var (
		r    user.HourlyRate
		rate string
	)
	if err := row.Scan(&r.ID, &r.UserID, &rate, &r.EffectiveFrom, &r.CreatedAt); err != nil {
		return user.HourlyRate{}, err
	}
	amount, err := decimal.NewFromString(rate)
	if err != nil {
		return user.HourlyRate{}, fmt.Errorf("parse rate: %w", err)
	}
	r.Rate = amount
	return r, nil
}

// Upsert implements user.RateRepository.
func (r *rateRepositoryImpl) Upsert(ctx context.Context, rate user.HourlyRate) (user.HourlyRate, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO hourly_rates (id, user_id, rate, effective_from)
		VALUES ($1, $2, $3::numeric, $4)
		ON CONFLICT (user_id, effective_from)
		DO UPDATE SET rate = EXCLUDED.rate
		RETURNING id, user_id, rate::text, effective_from, created_at
	`

	saved, err := scanRate(q.QueryRow(ctx, query, rate.ID, rate.UserID, rate.Rate.String(), rate.EffectiveFrom))
	if err != nil {
		return user.HourlyRate{}, fmt.Errorf("failed to save hourly rate: %w", err)
	}
	return saved, nil
}

// ListByUser implements user.RateRepository.
func (r *rateRepositoryImpl) ListByUser(ctx context.Context, userID string) ([]user.HourlyRate, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, user_id, rate::text, effective_from, created_at
		FROM hourly_rates
		WHERE user_id = $1
		ORDER BY effective_from
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list hourly rates: %w", err)
	}
	defer rows.Close()

	rates := []user.HourlyRate{}
	for rows.Next() {
		rate, err := scanRate(rows)
		if err != nil {
			return nil, err
		}
		rates = append(rates, rate)
	}
	return rates, rows.Err()
}
