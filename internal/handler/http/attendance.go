package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/moyuu-az/attendance-system/internal/domain/attendance"
	"github.com/moyuu-az/attendance-system/internal/handler/http/response"
)

type AttendanceHandler interface {
	ClockIn(w http.ResponseWriter, r *http.Request)
	ClockOut(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Today(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// ClockIn implements AttendanceHandler.
func (h *attendanceHandlerImpl) ClockIn(w http.ResponseWriter, r *http.Request) {
	var req attendance.ClockInRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request format")
		return
	}

	userID, err := subjectOf(r, req.UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.ClockIn(r.Context(), userID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, result)
}

// ClockOut implements AttendanceHandler.
func (h *attendanceHandlerImpl) ClockOut(w http.ResponseWriter, r *http.Request) {
	var req attendance.ClockOutRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request format")
		return
	}

	userID, err := subjectOf(r, req.UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.ClockOut(r.Context(), userID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// List implements AttendanceHandler.
func (h *attendanceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	userID, err := subjectOf(r, r.URL.Query().Get("user_id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	filter := attendance.ListFilter{UserID: userID}
	if filter.Year, err = getIntQueryParam(r, "year"); err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	if filter.Month, err = getIntQueryParam(r, "month"); err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	skip, err := getIntQueryParam(r, "skip")
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	limit, err := getIntQueryParam(r, "limit")
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	filter.Skip, filter.Limit = intOrZero(skip), intOrZero(limit)

	result, err := h.attendanceService.List(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Today implements AttendanceHandler. The body is null when the user has no
// record for today.
func (h *attendanceHandlerImpl) Today(w http.ResponseWriter, r *http.Request) {
	userID, err := subjectOf(r, r.URL.Query().Get("user_id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.Today(r.Context(), userID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Create implements AttendanceHandler.
func (h *attendanceHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req attendance.CreateAttendanceRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request format")
		return
	}

	userID, err := subjectOf(r, req.UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.Create(r.Context(), userID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, result)
}

// Get implements AttendanceHandler.
func (h *attendanceHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := subjectOf(r, r.URL.Query().Get("user_id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Update implements AttendanceHandler.
func (h *attendanceHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	var req attendance.UpdateAttendanceRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request format")
		return
	}

	userID, err := subjectOf(r, r.URL.Query().Get("user_id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.Update(r.Context(), userID, chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Delete implements AttendanceHandler.
func (h *attendanceHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := subjectOf(r, r.URL.Query().Get("user_id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if err := h.attendanceService.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.NoContent(w)
}
