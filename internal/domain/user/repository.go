package user

import (
	"context"
)

type UserRepository interface {
	Create(ctx context.Context, newUser User) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, u User) (User, error)
}

// RateRepository stores the hourly rate history.
type RateRepository interface {
	// Upsert records rate, replacing an existing entry with the same
	// user and effective date.
	Upsert(ctx context.Context, rate HourlyRate) (HourlyRate, error)

	// ListByUser returns the history ordered by effective date.
	ListByUser(ctx context.Context, userID string) ([]HourlyRate, error)
}
