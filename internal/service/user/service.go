package user

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/moyuu-az/attendance-system/internal/domain/user"
	"github.com/moyuu-az/attendance-system/internal/pkg/database"
	"github.com/moyuu-az/attendance-system/internal/pkg/wage"
	"github.com/moyuu-az/attendance-system/internal/pkg/worktime"
	"github.com/shopspring/decimal"
)

// Config holds user service configuration
type Config struct {
	DefaultHourlyRate decimal.Decimal // default: wage.DefaultHourlyRate
	Location          *time.Location  // default: UTC
	Now               func() time.Time
}

type UserServiceImpl struct {
	tx     database.Transactor
	users  user.UserRepository
	rates  user.RateRepository
	logger *slog.Logger
	config Config
}

func NewUserService(tx database.Transactor, userRepo user.UserRepository, rateRepo user.RateRepository, logger *slog.Logger, cfg Config) user.UserService {
	if cfg.DefaultHourlyRate.IsZero() {
		cfg.DefaultHourlyRate = wage.DefaultHourlyRate
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &UserServiceImpl{
		tx:     tx,
		users:  userRepo,
		rates:  rateRepo,
		logger: logger,
		config: cfg,
	}
}

func (s *UserServiceImpl) today() time.Time {
	return worktime.DateOf(s.config.Now().In(s.config.Location))
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// withCurrentRate fills HourlyRate with the rate in effect today.
func (s *UserServiceImpl) withCurrentRate(ctx context.Context, u user.User) (user.User, error) {
	rates, err := s.rates.ListByUser(ctx, u.ID)
	if err != nil {
		return user.User{}, fmt.Errorf("failed to load hourly rates: %w", err)
	}
	u.HourlyRate = user.Schedule(rates).At(s.today())
	return u, nil
}

// Create implements user.UserService.
func (s *UserServiceImpl) Create(ctx context.Context, req user.CreateUserRequest) (user.UserResponse, error) {
	if err := req.Validate(); err != nil {
		return user.UserResponse{}, err
	}

	rate := s.config.DefaultHourlyRate
	if req.HourlyRate != nil {
		rate = *req.HourlyRate
	}

	var created user.User
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		u, err := s.users.Create(ctx, user.User{
			ID:      newID(),
			Name:    req.Name,
			Email:   req.Email,
			IsAdmin: req.IsAdmin,
		})
		if err != nil {
			return err
		}

		if _, err := s.rates.Upsert(ctx, user.HourlyRate{
			ID:            newID(),
			UserID:        u.ID,
			Rate:          rate,
			EffectiveFrom: s.today(),
		}); err != nil {
			return err
		}

		created = u
		return nil
	})
	if err != nil {
		return user.UserResponse{}, err
	}

	s.logger.Info("user created", slog.String("user_id", created.ID), slog.Bool("is_admin", created.IsAdmin))

	created.HourlyRate = rate
	return user.ToUserResponse(created), nil
}

// Get implements user.UserService.
func (s *UserServiceImpl) Get(ctx context.Context, id string) (user.UserResponse, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return user.UserResponse{}, err
	}
	if u, err = s.withCurrentRate(ctx, u); err != nil {
		return user.UserResponse{}, err
	}
	return user.ToUserResponse(u), nil
}

// List implements user.UserService.
func (s *UserServiceImpl) List(ctx context.Context) ([]user.UserResponse, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]user.UserResponse, 0, len(users))
	for _, u := range users {
		if u, err = s.withCurrentRate(ctx, u); err != nil {
			return nil, err
		}
		resp = append(resp, user.ToUserResponse(u))
	}
	return resp, nil
}

// Update implements user.UserService.
func (s *UserServiceImpl) Update(ctx context.Context, id string, req user.UpdateUserRequest) (user.UserResponse, error) {
	if err := req.Validate(); err != nil {
		return user.UserResponse{}, err
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return user.UserResponse{}, err
	}
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Email != nil {
		u.Email = *req.Email
	}

	updated, err := s.users.Update(ctx, u)
	if err != nil {
		return user.UserResponse{}, err
	}
	if updated, err = s.withCurrentRate(ctx, updated); err != nil {
		return user.UserResponse{}, err
	}
	return user.ToUserResponse(updated), nil
}

// UpdateHourlyRate implements user.UserService. Past days keep the rate they
// were paid at because a change can only take effect today or later.
func (s *UserServiceImpl) UpdateHourlyRate(ctx context.Context, id string, req user.UpdateHourlyRateRequest) (user.UserResponse, error) {
	if err := req.Validate(); err != nil {
		return user.UserResponse{}, err
	}

	today := s.today()
	effective := today
	if req.EffectiveDate != nil {
		effective = *req.EffectiveDate
	}
	if effective.Before(today) {
		return user.UserResponse{}, user.ErrRateEffectiveInPast
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return user.UserResponse{}, err
	}

	if _, err := s.rates.Upsert(ctx, user.HourlyRate{
		ID:            newID(),
		UserID:        id,
		Rate:          req.Rate,
		EffectiveFrom: effective,
	}); err != nil {
		return user.UserResponse{}, err
	}

	s.logger.Info("hourly rate scheduled",
		slog.String("user_id", id),
		slog.String("rate", req.Rate.String()),
		slog.String("effective_from", worktime.FormatDate(effective)),
	)

	if u, err = s.withCurrentRate(ctx, u); err != nil {
		return user.UserResponse{}, err
	}
	return user.ToUserResponse(u), nil
}

// ListHourlyRates implements user.UserService.
func (s *UserServiceImpl) ListHourlyRates(ctx context.Context, id string) ([]user.HourlyRateResponse, error) {
	if _, err := s.users.GetByID(ctx, id); err != nil {
		return nil, err
	}

	rates, err := s.rates.ListByUser(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := make([]user.HourlyRateResponse, 0, len(rates))
	for _, r := range rates {
		resp = append(resp, user.ToHourlyRateResponse(r))
	}
	return resp, nil
}
