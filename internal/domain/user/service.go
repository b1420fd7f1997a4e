package user

import "context"

type UserService interface {
	Create(ctx context.Context, req CreateUserRequest) (UserResponse, error)
	Get(ctx context.Context, id string) (UserResponse, error)
	List(ctx context.Context) ([]UserResponse, error)
	Update(ctx context.Context, id string, req UpdateUserRequest) (UserResponse, error)

	// UpdateHourlyRate adds a rate effective from the requested date onward.
	UpdateHourlyRate(ctx context.Context, id string, req UpdateHourlyRateRequest) (UserResponse, error)
	ListHourlyRates(ctx context.Context, id string) ([]HourlyRateResponse, error)
}
