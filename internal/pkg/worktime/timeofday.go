package worktime

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SecondsPerDay is the length of a calendar day on the wall clock.
const SecondsPerDay = 24 * 60 * 60

// TimeOfDay is a wall-clock time with second precision, stored as seconds
// since midnight.
type TimeOfDay int

// NewTimeOfDay builds a TimeOfDay from its components.
func NewTimeOfDay(hour, minute, second int) TimeOfDay {
	return TimeOfDay(hour*3600 + minute*60 + second)
}

// FromTime returns the wall-clock time of t in t's location.
func FromTime(t time.Time) TimeOfDay {
	return NewTimeOfDay(t.Hour(), t.Minute(), t.Second())
}

// FromMicroseconds converts a PostgreSQL TIME value (microseconds since midnight).
func FromMicroseconds(us int64) TimeOfDay {
	return TimeOfDay(us / int64(time.Second/time.Microsecond))
}

// ParseTimeOfDay accepts "HH:mm" and "HH:mm:ss". Fractional seconds are
// tolerated and truncated.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid time of day %q: expected HH:mm or HH:mm:ss", s)
	}

	limits := []int{23, 59, 59}
	values := make([]int, 3)
	for i, p := range parts {
		if len(p) != 2 {
			return 0, fmt.Errorf("invalid time of day %q: components must be two digits", s)
		}
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 || v > limits[i] {
			return 0, fmt.Errorf("invalid time of day %q", s)
		}
		values[i] = v
	}

	return NewTimeOfDay(values[0], values[1], values[2]), nil
}

func (t TimeOfDay) Hour() int   { return int(t) / 3600 }
func (t TimeOfDay) Minute() int { return int(t) % 3600 / 60 }
func (t TimeOfDay) Second() int { return int(t) % 60 }

// Microseconds returns the value in the unit PostgreSQL uses for TIME.
func (t TimeOfDay) Microseconds() int64 {
	return int64(t) * int64(time.Second/time.Microsecond)
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second())
}

// On returns the instant at which this wall-clock time occurs on date in loc.
func (t TimeOfDay) On(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc)
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("time of day must be a string: %w", err)
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Ptr returns a pointer to a copy of t.
func (t TimeOfDay) Ptr() *TimeOfDay {
	return &t
}
