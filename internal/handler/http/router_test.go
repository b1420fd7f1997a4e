package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/moyuu-az/attendance-system/internal/domain/user"
	"github.com/moyuu-az/attendance-system/internal/handler/http/middleware"
	"github.com/moyuu-az/attendance-system/internal/handler/http/response"
	"github.com/moyuu-az/attendance-system/internal/pkg/holiday"
	"github.com/moyuu-az/attendance-system/internal/pkg/jwt"
	"github.com/moyuu-az/attendance-system/internal/pkg/sse"
	"github.com/moyuu-az/attendance-system/internal/pkg/worktime"
	"github.com/moyuu-az/attendance-system/internal/repository/memory"
	attendanceService "github.com/moyuu-az/attendance-system/internal/service/attendance"
	reportService "github.com/moyuu-az/attendance-system/internal/service/report"
	userService "github.com/moyuu-az/attendance-system/internal/service/user"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var jst = time.FixedZone("JST", 9*3600)

type testServer struct {
	router     http.Handler
	jwtService jwt.Service
	hub        *sse.Hub
	clock      time.Time
}

func newTestServer(t *testing.T, ratePerMinute int) *testServer {
	t.Helper()

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := &testServer{clock: time.Date(2024, time.April, 2, 9, 0, 0, 0, jst)}
	now := func() time.Time { return s.clock }

	store := memory.NewStore()
	tx := memory.NewTransactor(store)
	users := memory.NewUserRepository(store)
	rates := memory.NewRateRepository(store)
	days := memory.NewAttendanceRepository(store)
	breaks := memory.NewBreakRepository(store)

	ctx := context.Background()
	for _, u := range []user.User{
		{ID: "u1", Name: "Aiko", Email: "aiko@example.com"},
		{ID: "u2", Name: "Ben", Email: "ben@example.com"},
		{ID: "admin", Name: "Root", Email: "root@example.com", IsAdmin: true},
	} {
		_, err := users.Create(ctx, u)
		require.NoError(t, err)
		_, err = rates.Upsert(ctx, user.HourlyRate{
			ID:            "rate-" + u.ID,
			UserID:        u.ID,
			Rate:          decimal.NewFromInt(1200),
			EffectiveFrom: worktime.NewDate(2024, time.January, 1),
		})
		require.NoError(t, err)
	}

	jwtService, err := jwt.NewJWTService("test-secret", "1h")
	require.NoError(t, err)
	hub := sse.NewHub()

	attendanceSvc := attendanceService.NewAttendanceService(tx, days, breaks, rates, memory.NewDayLocker(), hub, nil, quiet,
		attendanceService.Config{Location: jst, Now: now})
	userSvc := userService.NewUserService(tx, users, rates, quiet, userService.Config{Location: jst, Now: now})
	holidays := holiday.NewLookup(holiday.None{}, nil, holiday.Options{}, quiet, nil)
	reportSvc := reportService.NewReportService(days, rates, holidays, quiet, reportService.Config{Location: jst, Now: now})

	limiter := middleware.NewRateLimiter(ratePerMinute)
	t.Cleanup(limiter.Stop)

	router := NewRouter(RouterConfig{
		JWTService:         jwtService,
		Logger:             quiet,
		CORSAllowedOrigins: []string{"http://localhost:3000"},
		RateLimiter:        limiter,
		Metrics:            http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) }),
		AttendanceHandler:  NewAttendanceHandler(attendanceSvc),
		BreakHandler:       NewBreakHandler(attendanceSvc),
		ReportHandler:      NewReportHandler(reportSvc),
		UserHandler:        NewUserHandler(userSvc),
		EventHandler:       NewEventHandler(jwtService, hub),
	})

	s.router = router
	s.jwtService = jwtService
	s.hub = hub
	return s
}

func (s *testServer) token(t *testing.T, userID string, isAdmin bool) string {
	t.Helper()
	token, _, err := s.jwtService.GenerateAccessToken(userID, isAdmin)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func errorDetail(t *testing.T, rec *httptest.ResponseRecorder) response.ErrorDetail {
	t.Helper()
	var out response.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out.Detail
}

func TestRouter_RequiresAuthentication(t *testing.T) {
	s := newTestServer(t, 0)

	rec := s.do(t, http.MethodGet, "/api/v1/attendance/today", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", errorDetail(t, rec).Code)

	sseToken, _, err := s.jwtService.GenerateSSEToken("u1")
	require.NoError(t, err)
	rec = s.do(t, http.MethodGet, "/api/v1/attendance/today", sseToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "stream tokens are not access tokens")

	rec = s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "memory", decode(t, rec)["database"])

	rec = s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_LedgerFlow(t *testing.T) {
	s := newTestServer(t, 0)
	token := s.token(t, "u1", false)

	rec := s.do(t, http.MethodGet, "/api/v1/attendance/today", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))

	rec = s.do(t, http.MethodPost, "/api/v1/attendance/clock-in", token, map[string]string{"time": "09:00"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	day := decode(t, rec)
	attendanceID := day["id"].(string)
	assert.Equal(t, "2024-04-02", day["date"])
	assert.Equal(t, "clocked_in", day["state"])

	rec = s.do(t, http.MethodPost, "/api/v1/attendance/clock-in", token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ALREADY_CLOCKED_IN", errorDetail(t, rec).Code)

	s.clock = time.Date(2024, time.April, 2, 15, 0, 0, 0, jst)
	rec = s.do(t, http.MethodPost, "/api/v1/breaks/start", token, map[string]string{"attendance_id": attendanceID, "time": "12:00"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	breakID := decode(t, rec)["id"].(string)

	rec = s.do(t, http.MethodPost, "/api/v1/attendance/clock-out", token, map[string]string{"time": "15:00"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "OPEN_BREAK", errorDetail(t, rec).Code)

	rec = s.do(t, http.MethodPost, "/api/v1/breaks/end", token, map[string]string{"break_id": breakID, "time": "12:30"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, float64(30), decode(t, rec)["duration"])

	rec = s.do(t, http.MethodPost, "/api/v1/attendance/clock-out", token, map[string]string{"time": "15:00"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	day = decode(t, rec)
	assert.Equal(t, 5.5, day["total_hours"])
	assert.Equal(t, float64(6600), day["total_amount"])
	assert.Equal(t, "clocked_out", day["state"])

	rec = s.do(t, http.MethodGet, "/api/v1/attendance?year=2024&month=4", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Len(t, list[0]["break_times"], 1)

	rec = s.do(t, http.MethodGet, "/api/v1/breaks/"+attendanceID, token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/reports/monthly?year=2024&month=4", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	monthly := decode(t, rec)
	assert.Equal(t, float64(1), monthly["total_days"])
	assert.Equal(t, 5.5, monthly["total_hours"])

	rec = s.do(t, http.MethodGet, "/api/v1/attendance/calendar?year=2024&month=4", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode(t, rec)["total_present_days"])

	rec = s.do(t, http.MethodGet, "/api/v1/reports/yearly?year=2024", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5.5, decode(t, rec)["total_hours"])

	rec = s.do(t, http.MethodDelete, "/api/v1/attendance/"+attendanceID, token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/attendance/"+attendanceID, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_ManualMaintenance(t *testing.T) {
	s := newTestServer(t, 0)
	token := s.token(t, "u1", false)

	rec := s.do(t, http.MethodPost, "/api/v1/attendance", token, map[string]interface{}{
		"date":      "2024-04-01",
		"clock_in":  "09:00",
		"clock_out": "18:00",
		"break_times": []map[string]string{
			{"start_time": "12:00", "end_time": "12:30"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	day := decode(t, rec)
	id := day["id"].(string)
	assert.Equal(t, 8.5, day["total_hours"])
	assert.Equal(t, float64(10200), day["total_amount"])

	rec = s.do(t, http.MethodPut, "/api/v1/attendance/"+id, token, map[string]interface{}{"clock_out": "17:00"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 7.5, decode(t, rec)["total_hours"])

	rec = s.do(t, http.MethodPut, "/api/v1/attendance/"+id, token, map[string]interface{}{"clock_out": "25:00"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	detail := errorDetail(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", detail.Code)
	assert.Contains(t, detail.Fields, "clock_out")

	rec = s.do(t, http.MethodPut, "/api/v1/attendance/"+id, token, `{"clock_out":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/attendance?year=nope", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/reports/monthly?year=2024", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "month is required")
}

func TestRouter_SubjectResolution(t *testing.T) {
	s := newTestServer(t, 0)
	u1 := s.token(t, "u1", false)
	admin := s.token(t, "admin", true)

	rec := s.do(t, http.MethodPost, "/api/v1/attendance/clock-in", u1, map[string]string{"user_id": "u2"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", errorDetail(t, rec).Code)

	rec = s.do(t, http.MethodPost, "/api/v1/attendance/clock-in", u1, map[string]string{"user_id": "u1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode(t, rec)["id"].(string)

	rec = s.do(t, http.MethodGet, "/api/v1/attendance/"+id, s.token(t, "u2", false), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "other users' records are hidden")

	rec = s.do(t, http.MethodGet, "/api/v1/attendance/"+id+"?user_id=u1", admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/attendance/clock-in", admin, map[string]string{"user_id": "u2"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "u2", decode(t, rec)["user_id"])
}

func TestRouter_Users(t *testing.T) {
	s := newTestServer(t, 0)
	u1 := s.token(t, "u1", false)
	admin := s.token(t, "admin", true)

	rec := s.do(t, http.MethodGet, "/api/v1/users/me", u1, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode(t, rec)
	assert.Equal(t, "aiko@example.com", me["email"])
	assert.Equal(t, float64(1200), me["hourly_rate"])

	rec = s.do(t, http.MethodPut, "/api/v1/users/me", u1, map[string]string{"name": "Aiko T."})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Aiko T.", decode(t, rec)["name"])

	rec = s.do(t, http.MethodPut, "/api/v1/users/me/hourly-rate?hourly_rate=1500", u1, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, float64(1500), decode(t, rec)["hourly_rate"])

	rec = s.do(t, http.MethodPut, "/api/v1/users/me/hourly-rate?hourly_rate=1500&effective_from=2024-01-01", u1, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, errorDetail(t, rec).Fields, "effective_from")

	rec = s.do(t, http.MethodGet, "/api/v1/users/me/hourly-rates", u1, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rates []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rates))
	assert.Len(t, rates, 2)

	rec = s.do(t, http.MethodGet, "/api/v1/users", u1, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/users", admin, map[string]string{"name": "Chika", "email": "chika@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, float64(1000), decode(t, rec)["hourly_rate"])

	rec = s.do(t, http.MethodPost, "/api/v1/users", admin, map[string]string{"name": "Again", "email": "chika@example.com"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "EMAIL_EXISTS", errorDetail(t, rec).Code)

	rec = s.do(t, http.MethodGet, "/api/v1/users", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var users []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	assert.Len(t, users, 4)
}

func TestRouter_ExportMonthly(t *testing.T) {
	s := newTestServer(t, 0)
	token := s.token(t, "u1", false)

	rec := s.do(t, http.MethodPost, "/api/v1/attendance", token, map[string]interface{}{
		"date": "2024-04-01", "clock_in": "09:00", "clock_out": "17:00",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/v1/reports/monthly/export?year=2024&month=4", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attendance_2024-04.xlsx")

	wb, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer wb.Close()
	v, err := wb.GetCellValue("Attendance", "A2")
	require.NoError(t, err)
	assert.Equal(t, "2024-04-01", v)
}

func TestRouter_RateLimit(t *testing.T) {
	s := newTestServer(t, 2)
	token := s.token(t, "u1", false)

	for i := 0; i < 2; i++ {
		rec := s.do(t, http.MethodGet, "/api/v1/users/me", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := s.do(t, http.MethodGet, "/api/v1/users/me", token, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	rec = s.do(t, http.MethodGet, "/api/v1/users/me", s.token(t, "u2", false), nil)
	assert.Equal(t, http.StatusOK, rec.Code, "limits are per user")
}

func TestRouter_EventStream(t *testing.T) {
	s := newTestServer(t, 0)
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	token := s.token(t, "u1", false)

	rec := s.do(t, http.MethodPost, "/api/v1/events/token", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sseToken := decode(t, rec)["token"].(string)

	rec = s.do(t, http.MethodGet, "/api/v1/events?token="+token, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "access tokens cannot open streams")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/events?token="+sseToken, nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	next := func() string {
		require.True(t, lines.Scan(), "stream ended early")
		return lines.Text()
	}

	assert.Equal(t, "event: connected", next())
	next()
	next()

	require.Eventually(t, func() bool { return s.hub.SubscriberCount("u1") == 1 }, time.Second, 10*time.Millisecond)

	rec = s.do(t, http.MethodPost, "/api/v1/attendance/clock-in", token, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	assert.Equal(t, "event: attendance.changed", next())
	data := strings.TrimPrefix(next(), "data: ")
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(data), &payload))
	assert.Equal(t, "clock_in", payload["operation"])
	assert.Equal(t, "2024-04-02", payload["date"])
}
