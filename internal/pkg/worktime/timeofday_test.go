package worktime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	valid := map[string]string{
		"09:00":           "09:00:00",
		"23:59:59":        "23:59:59",
		"00:00":           "00:00:00",
		" 18:30 ":         "18:30:00",
		"12:34:56.789012": "12:34:56",
	}
	for in, want := range valid {
		got, err := ParseTimeOfDay(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got.String())
	}

	invalid := []string{"", "9:00", "24:00", "12:60", "12:00:60", "noon", "12", "12:00:00:00", "ab:cd"}
	for _, in := range invalid {
		_, err := ParseTimeOfDay(in)
		assert.Error(t, err, in)
	}
}

func TestTimeOfDay_JSON(t *testing.T) {
	var payload struct {
		At  TimeOfDay  `json:"at"`
		Opt *TimeOfDay `json:"opt"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"at":"07:05","opt":null}`), &payload))
	assert.Equal(t, NewTimeOfDay(7, 5, 0), payload.At)
	assert.Nil(t, payload.Opt)

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"at":"07:05:00","opt":null}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"at":705}`), &payload))
}

func TestTimeOfDay_Microseconds(t *testing.T) {
	v := NewTimeOfDay(13, 45, 10)
	assert.Equal(t, v, FromMicroseconds(v.Microseconds()))
}

func TestDateHelpers(t *testing.T) {
	loc := time.FixedZone("JST", 9*3600)
	// 2024-03-01 23:30 UTC is already 2024-03-02 in JST
	instant := time.Date(2024, time.March, 1, 23, 30, 0, 0, time.UTC).In(loc)
	assert.Equal(t, "2024-03-02", FormatDate(DateOf(instant)))

	first, last := MonthRange(2024, time.February)
	assert.Equal(t, "2024-02-01", FormatDate(first))
	assert.Equal(t, "2024-02-29", FormatDate(last))

	_, err := ParseDate("2024-13-01")
	assert.Error(t, err)
}
