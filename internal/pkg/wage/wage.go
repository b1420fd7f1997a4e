// Package wage converts payable hours into money using effective-dated
// hourly rates.
package wage

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultHourlyRate applies when a user has no rate on record.
var DefaultHourlyRate = decimal.NewFromInt(1000)

// Rate is an hourly rate that applies from EffectiveFrom onwards.
type Rate struct {
	Amount        decimal.Decimal
	EffectiveFrom time.Time
}

// Schedule is a user's rate history ordered by EffectiveFrom.
type Schedule []Rate

// NewSchedule sorts a copy of rates into a Schedule.
func NewSchedule(rates []Rate) Schedule {
	s := make(Schedule, len(rates))
	copy(s, rates)
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].EffectiveFrom.Before(s[j].EffectiveFrom)
	})
	return s
}

// At returns the rate in effect on date: the latest record effective on or
// before it. Dates before the first record use the first record; an empty
// schedule yields DefaultHourlyRate.
func (s Schedule) At(date time.Time) decimal.Decimal {
	if len(s) == 0 {
		return DefaultHourlyRate
	}
	i := sort.Search(len(s), func(i int) bool {
		return s[i].EffectiveFrom.After(date)
	})
	if i == 0 {
		return s[0].Amount
	}
	return s[i-1].Amount
}

// Amount is hours × rate rounded half-up to whole currency units.
func Amount(hours, rate decimal.Decimal) decimal.Decimal {
	return hours.Mul(rate).Round(0)
}
