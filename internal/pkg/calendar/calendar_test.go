package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor_Precedence(t *testing.T) {
	assert.Equal(t, StatusHoliday, StatusFor(true, true, true))
	assert.Equal(t, StatusHoliday, StatusFor(true, false, false))
	assert.Equal(t, StatusWeekend, StatusFor(false, true, true))
	assert.Equal(t, StatusPresent, StatusFor(false, false, true))
	assert.Equal(t, StatusAbsent, StatusFor(false, false, false))
}

func TestMonth_HolidayOnWeekend(t *testing.T) {
	// 2024-02-11 (National Foundation Day) is a Sunday.
	days := Month(2024, time.February, map[string]string{"2024-02-11": "建国記念の日"}, nil)

	require.Len(t, days, 29)
	d := days[10]
	assert.Equal(t, "2024-02-11", d.Date.Format("2006-01-02"))
	assert.True(t, d.IsWeekend)
	assert.True(t, d.IsHoliday)
	assert.Equal(t, "建国記念の日", d.HolidayName)
	assert.Equal(t, StatusHoliday, d.Status)
}

func TestMonth_PresentAndAbsent(t *testing.T) {
	present := map[int]bool{1: true, 2: true, 3: true}
	days := Month(2024, time.April, nil, func(d time.Time) bool { return present[d.Day()] })

	require.Len(t, days, 30)
	assert.Equal(t, StatusPresent, days[0].Status) // Mon
	assert.Equal(t, StatusAbsent, days[3].Status)  // Thu
	assert.Equal(t, StatusWeekend, days[5].Status) // Sat
}

func TestSummarize(t *testing.T) {
	// April 2024: 22 weekdays; mark 29th (Showa Day) as holiday -> 21 working days.
	holidays := map[string]string{"2024-04-29": "昭和の日"}
	var worked int
	days := Month(2024, time.April, holidays, func(d time.Time) bool {
		if IsWeekend(d) || d.Day() == 29 {
			return false
		}
		worked++
		return worked <= 19
	})

	s := Summarize(days)
	assert.Equal(t, 21, s.WorkingDays)
	assert.Equal(t, 19, s.PresentDays)
	assert.Equal(t, 90, s.AttendanceRate) // 90.47 rounds to 90
}

func TestAttendanceRate(t *testing.T) {
	assert.Equal(t, 90, AttendanceRate(18, 20))
	assert.Equal(t, 0, AttendanceRate(0, 0))
	assert.Equal(t, 100, AttendanceRate(20, 20))
	assert.Equal(t, 67, AttendanceRate(2, 3)) // 66.67
	assert.Equal(t, 50, AttendanceRate(1, 2)) // exact
	assert.Equal(t, 13, AttendanceRate(1, 8)) // 12.5 rounds half-up
}
