package attendance

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateAttendanceRequest_DistinguishesNullFromAbsent(t *testing.T) {
	var req UpdateAttendanceRequest
	require.NoError(t, json.Unmarshal([]byte(`{"clock_out":null}`), &req))
	require.NoError(t, req.Validate())

	assert.False(t, req.ClockIn.Set)
	assert.True(t, req.ClockOut.Set)
	assert.Nil(t, req.ParsedClockOut)
	assert.Nil(t, req.BreakTimes)

	req = UpdateAttendanceRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"clock_in":"08:30","break_times":[{"start_time":"12:00","end_time":"12:45"}]}`), &req))
	require.NoError(t, req.Validate())

	assert.Equal(t, "08:30:00", req.ParsedClockIn.String())
	assert.False(t, req.ClockOut.Set)
	require.Len(t, req.ParsedBreaks, 1)
	assert.Equal(t, "12:45:00", req.ParsedBreaks[0].End.String())
}

func TestUpdateAttendanceRequest_RejectsClearingClockIn(t *testing.T) {
	var req UpdateAttendanceRequest
	require.NoError(t, json.Unmarshal([]byte(`{"clock_in":null}`), &req))
	assert.Error(t, req.Validate())
}

func TestClockInRequest_Validate(t *testing.T) {
	date, tm := "2024-03-01", "9:00"
	req := ClockInRequest{Date: &date, Time: &tm}

	err := req.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "time")

	tm = "09:00"
	require.NoError(t, req.Validate())
	assert.Equal(t, "2024-03-01", req.ParsedDate.Format("2006-01-02"))
	assert.Equal(t, "09:00:00", req.ParsedTime.String())
}

func TestListFilter_Validate(t *testing.T) {
	month := 4
	f := ListFilter{Month: &month}
	assert.Error(t, f.Validate(), "month needs a year")

	year := 2024
	f = ListFilter{Year: &year, Month: &month}
	require.NoError(t, f.Validate())
	assert.Equal(t, 100, f.Limit)

	from, to := f.Range()
	assert.Equal(t, "2024-04-01", from.Format("2006-01-02"))
	assert.Equal(t, "2024-04-30", to.Format("2006-01-02"))

	f = ListFilter{Limit: 5000}
	assert.Error(t, f.Validate())
}
