package user

import (
	"time"

	"github.com/moyuu-az/attendance-system/internal/pkg/wage"
	"github.com/shopspring/decimal"
)

type User struct {
	ID        string
	Name      string
	Email     string
	IsAdmin   bool
	CreatedAt time.Time
	UpdatedAt time.Time

	// Rate in effect today, filled from the rate history.
	HourlyRate decimal.Decimal
}

// HourlyRate is one entry of a user's effective-dated rate history.
type HourlyRate struct {
	ID            string
	UserID        string
	Rate          decimal.Decimal
	EffectiveFrom time.Time
	CreatedAt     time.Time
}

// Schedule turns a rate history into a wage.Schedule.
func Schedule(rates []HourlyRate) wage.Schedule {
	out := make([]wage.Rate, 0, len(rates))
	for _, r := range rates {
		out = append(out, wage.Rate{Amount: r.Rate, EffectiveFrom: r.EffectiveFrom})
	}
	return wage.NewSchedule(out)
}
