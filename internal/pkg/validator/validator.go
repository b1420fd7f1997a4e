package validator

import (
	"regexp"
	"strings"
	"time"

	"github.com/moyuu-az/attendance-system/internal/pkg/worktime"
	"github.com/shopspring/decimal"
)

type ValidationError struct {
	Field   string
	Message string
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var msgs []string
	for _, err := range v {
		msgs = append(msgs, err.Field+": "+err.Message)
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) ToMap() map[string]string {
	result := make(map[string]string)
	for _, err := range v {
		result[err.Field] = err.Message
	}
	return result
}

// Add appends an error for field.
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, ValidationError{Field: field, Message: message})
}

// Err returns v as an error, or nil when empty.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// IsEmpty checks if a string is empty after trimming whitespace.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Email validation
func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// UUIDv7 regex: version 7 (the 15th character must be '7'), all lowercase hex digits.
var uuidv7Regex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-7[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// UUIDv7 validation
func IsValidUUID(uuid string) bool {
	return uuidv7Regex.MatchString(strings.ToLower(uuid))
}

// Date validation
func IsValidDate(dateStr string) (time.Time, bool) {
	date, err := worktime.ParseDate(dateStr)
	return date, err == nil
}

// IsValidTimeOfDay accepts HH:mm and HH:mm:ss.
func IsValidTimeOfDay(s string) (worktime.TimeOfDay, bool) {
	t, err := worktime.ParseTimeOfDay(s)
	return t, err == nil
}

// IsValidYear bounds years to a sane reporting window.
func IsValidYear(year int) bool {
	return year >= 2000 && year <= 2100
}

func IsValidMonth(month int) bool {
	return month >= 1 && month <= 12
}

// IsValidHourlyRate accepts non-negative amounts with at most two decimals.
func IsValidHourlyRate(rate decimal.Decimal) bool {
	return !rate.IsNegative() && rate.Equal(rate.Round(2)) && rate.LessThan(decimal.NewFromInt(100_000_000))
}
