package user

import (
	"strings"
	"time"

	"github.com/moyuu-az/attendance-system/internal/pkg/validator"
	"github.com/moyuu-az/attendance-system/internal/pkg/worktime"
	"github.com/shopspring/decimal"
)

// UserResponse represents user data in API responses
type UserResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	IsAdmin    bool    `json:"is_admin"`
	HourlyRate float64 `json:"hourly_rate"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
}

type HourlyRateResponse struct {
	ID            string  `json:"id"`
	UserID        string  `json:"user_id"`
	HourlyRate    float64 `json:"hourly_rate"`
	EffectiveFrom string  `json:"effective_from"`
	CreatedAt     string  `json:"created_at"`
}

func ToUserResponse(u User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		IsAdmin:    u.IsAdmin,
		HourlyRate: u.HourlyRate.InexactFloat64(),
		CreatedAt:  u.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  u.UpdatedAt.Format(time.RFC3339),
	}
}

func ToHourlyRateResponse(r HourlyRate) HourlyRateResponse {
	return HourlyRateResponse{
		ID:            r.ID,
		UserID:        r.UserID,
		HourlyRate:    r.Rate.InexactFloat64(),
		EffectiveFrom: worktime.FormatDate(r.EffectiveFrom),
		CreatedAt:     r.CreatedAt.Format(time.RFC3339),
	}
}

// CreateUserRequest represents request to create a new user
type CreateUserRequest struct {
	Name       string           `json:"name"`
	Email      string           `json:"email"`
	IsAdmin    bool             `json:"is_admin"`
	HourlyRate *decimal.Decimal `json:"hourly_rate,omitempty"`
}

func (r *CreateUserRequest) Validate() error {
	var errs validator.ValidationErrors

	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)

	if validator.IsEmpty(r.Name) {
		errs.Add("name", "name is required")
	} else if len(r.Name) > 100 {
		errs.Add("name", "name must not exceed 100 characters")
	}

	if validator.IsEmpty(r.Email) {
		errs.Add("email", "email is required")
	} else if !validator.IsValidEmail(r.Email) {
		errs.Add("email", "invalid email format")
	}

	if r.HourlyRate != nil && !validator.IsValidHourlyRate(*r.HourlyRate) {
		errs.Add("hourly_rate", "hourly rate must be a non-negative amount with at most two decimals")
	}

	return errs.Err()
}

// UpdateUserRequest changes profile fields; nil fields are left untouched.
type UpdateUserRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

func (r *UpdateUserRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		r.Name = &name
		if validator.IsEmpty(name) {
			errs.Add("name", "name cannot be empty")
		} else if len(name) > 100 {
			errs.Add("name", "name must not exceed 100 characters")
		}
	}

	if r.Email != nil {
		email := strings.TrimSpace(*r.Email)
		r.Email = &email
		if !validator.IsValidEmail(email) {
			errs.Add("email", "invalid email format")
		}
	}

	return errs.Err()
}

// UpdateHourlyRateRequest is read from the query string.
type UpdateHourlyRateRequest struct {
	HourlyRate    string
	EffectiveFrom string

	// Parsed by Validate.
	Rate          decimal.Decimal
	EffectiveDate *time.Time
}

func (r *UpdateHourlyRateRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.HourlyRate) {
		errs.Add("hourly_rate", "hourly_rate is required")
	} else if rate, err := decimal.NewFromString(strings.TrimSpace(r.HourlyRate)); err != nil {
		errs.Add("hourly_rate", "hourly_rate must be a number")
	} else if !validator.IsValidHourlyRate(rate) {
		errs.Add("hourly_rate", "hourly rate must be a non-negative amount with at most two decimals")
	} else {
		r.Rate = rate
	}

	if !validator.IsEmpty(r.EffectiveFrom) {
		if d, ok := validator.IsValidDate(r.EffectiveFrom); ok {
			r.EffectiveDate = &d
		} else {
			errs.Add("effective_from", "effective_from must be YYYY-MM-DD")
		}
	}

	return errs.Err()
}
