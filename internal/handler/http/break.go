package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/moyuu-az/attendance-system/internal/domain/attendance"
	"github.com/moyuu-az/attendance-system/internal/handler/http/response"
)

type BreakHandler interface {
	Start(w http.ResponseWriter, r *http.Request)
	End(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

type breakHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewBreakHandler(attendanceService attendance.AttendanceService) BreakHandler {
	return &breakHandlerImpl{
		attendanceService: attendanceService,
	}
}

// Start implements BreakHandler.
func (h *breakHandlerImpl) Start(w http.ResponseWriter, r *http.Request) {
	var req attendance.StartBreakRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request format")
		return
	}

	userID, err := subjectOf(r, r.URL.Query().Get("user_id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.StartBreak(r.Context(), userID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, result)
}

// End implements BreakHandler.
func (h *breakHandlerImpl) End(w http.ResponseWriter, r *http.Request) {
	var req attendance.EndBreakRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request format")
		return
	}

	userID, err := subjectOf(r, r.URL.Query().Get("user_id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.EndBreak(r.Context(), userID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// List implements BreakHandler. The path id is the attendance id.
func (h *breakHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	userID, err := subjectOf(r, r.URL.Query().Get("user_id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.ListBreaks(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Update implements BreakHandler.
func (h *breakHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	var req attendance.UpdateBreakRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request format")
		return
	}

	userID, err := subjectOf(r, r.URL.Query().Get("user_id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.UpdateBreak(r.Context(), userID, chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Delete implements BreakHandler.
func (h *breakHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := subjectOf(r, r.URL.Query().Get("user_id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if err := h.attendanceService.DeleteBreak(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.NoContent(w)
}
