package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/moyuu-az/attendance-system/internal/domain/user"
)

type userRepository struct {
	store *Store
}

func NewUserRepository(s *Store) user.UserRepository {
	return &userRepository{store: s}
}

// emailTaken must be called with the read lock held.
func (s *Store) emailTaken(email, exceptID string) bool {
	for _, u := range s.users {
		if u.ID != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (r *userRepository) Create(ctx context.Context, newUser user.User) (user.User, error) {
	s := r.store
	defer s.lockWrite(ctx)()

	if s.emailTaken(newUser.Email, "") {
		return user.User{}, user.ErrUserEmailExists
	}

	now := s.now()
	newUser.CreatedAt, newUser.UpdatedAt = now, now
	s.users[newUser.ID] = newUser
	return newUser, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (user.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

func (r *userRepository) List(ctx context.Context) ([]user.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]user.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.Before(users[j].CreatedAt)
		}
		return users[i].ID < users[j].ID
	})
	return users, nil
}

func (r *userRepository) Update(ctx context.Context, u user.User) (user.User, error) {
	s := r.store
	defer s.lockWrite(ctx)()

	existing, ok := s.users[u.ID]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	if s.emailTaken(u.Email, u.ID) {
		return user.User{}, user.ErrUserEmailExists
	}

	existing.Name = u.Name
	existing.Email = u.Email
	existing.UpdatedAt = s.now()
	s.users[u.ID] = existing
	return existing, nil
}

type rateRepository struct {
	store *Store
}

func NewRateRepository(s *Store) user.RateRepository {
	return &rateRepository{store: s}
}

func (r *rateRepository) Upsert(ctx context.Context, rate user.HourlyRate) (user.HourlyRate, error) {
	s := r.store
	defer s.lockWrite(ctx)()

	for id, existing := range s.rates {
		if existing.UserID == rate.UserID && existing.EffectiveFrom.Equal(rate.EffectiveFrom) {
			existing.Rate = rate.Rate
			s.rates[id] = existing
			return existing, nil
		}
	}

	rate.CreatedAt = s.now()
	s.rates[rate.ID] = rate
	return rate, nil
}

func (r *rateRepository) ListByUser(ctx context.Context, userID string) ([]user.HourlyRate, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	rates := []user.HourlyRate{}
	for _, rate := range s.rates {
		if rate.UserID == userID {
			rates = append(rates, rate)
		}
	}
	sort.Slice(rates, func(i, j int) bool { return rates[i].EffectiveFrom.Before(rates[j].EffectiveFrom) })
	return rates, nil
}
