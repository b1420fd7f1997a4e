package http

import (
	"net/http"

	"github.com/moyuu-az/attendance-system/internal/domain/user"
	"github.com/moyuu-az/attendance-system/internal/handler/http/response"
)

type UserHandler interface {
	Me(w http.ResponseWriter, r *http.Request)
	UpdateMe(w http.ResponseWriter, r *http.Request)
	UpdateHourlyRate(w http.ResponseWriter, r *http.Request)
	ListHourlyRates(w http.ResponseWriter, r *http.Request)

	// Admin only
	List(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
}

type userHandlerImpl struct {
	userService user.UserService
}

func NewUserHandler(userService user.UserService) UserHandler {
	return &userHandlerImpl{
		userService: userService,
	}
}

// Me handles GET /users/me
func (h *userHandlerImpl) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := subjectOf(r, r.URL.Query().Get("user_id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.userService.Get(r.Context(), userID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// UpdateMe handles PUT /users/me
func (h *userHandlerImpl) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req user.UpdateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request format")
		return
	}

	userID, err := subjectOf(r, r.URL.Query().Get("user_id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.userService.Update(r.Context(), userID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// UpdateHourlyRate handles PUT /users/me/hourly-rate?hourly_rate=&effective_from=
func (h *userHandlerImpl) UpdateHourlyRate(w http.ResponseWriter, r *http.Request) {
	userID, err := subjectOf(r, r.URL.Query().Get("user_id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	req := user.UpdateHourlyRateRequest{
		HourlyRate:    r.URL.Query().Get("hourly_rate"),
		EffectiveFrom: r.URL.Query().Get("effective_from"),
	}

	result, err := h.userService.UpdateHourlyRate(r.Context(), userID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ListHourlyRates handles GET /users/me/hourly-rates
func (h *userHandlerImpl) ListHourlyRates(w http.ResponseWriter, r *http.Request) {
	userID, err := subjectOf(r, r.URL.Query().Get("user_id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.userService.ListHourlyRates(r.Context(), userID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// List handles GET /users
func (h *userHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.userService.List(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Create handles POST /users
func (h *userHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req user.CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request format")
		return
	}

	result, err := h.userService.Create(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, result)
}
