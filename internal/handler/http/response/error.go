package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/moyuu-az/attendance-system/internal/domain/attendance"
	"github.com/moyuu-az/attendance-system/internal/domain/report"
	"github.com/moyuu-az/attendance-system/internal/domain/user"
	"github.com/moyuu-az/attendance-system/internal/pkg/jwt"
	"github.com/moyuu-az/attendance-system/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Ledger state conflicts
	case errors.Is(err, attendance.ErrAlreadyClockedIn):
		Conflict(w, "ALREADY_CLOCKED_IN", err.Error())
	case errors.Is(err, attendance.ErrNotClockedIn):
		Conflict(w, "NOT_CLOCKED_IN", err.Error())
	case errors.Is(err, attendance.ErrAlreadyClockedOut):
		Conflict(w, "ALREADY_CLOCKED_OUT", err.Error())
	case errors.Is(err, attendance.ErrOpenBreakMustCloseFirst):
		Conflict(w, "OPEN_BREAK", err.Error())
	case errors.Is(err, attendance.ErrBreakAlreadyOpen):
		Conflict(w, "BREAK_ALREADY_OPEN", err.Error())
	case errors.Is(err, attendance.ErrNoOpenBreak):
		Conflict(w, "BREAK_ALREADY_ENDED", err.Error())
	case errors.Is(err, attendance.ErrAttendanceAlreadyExists):
		Conflict(w, "ATTENDANCE_EXISTS", err.Error())

	// Not found
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrBreakNotFound):
		NotFound(w, "Break not found")
	case errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "User not found")

	// User domain errors
	case errors.Is(err, user.ErrUserEmailExists):
		Conflict(w, "EMAIL_EXISTS", err.Error())
	case errors.Is(err, user.ErrRateEffectiveInPast):
		ValidationError(w, map[string]string{"effective_from": err.Error()})
	case errors.Is(err, user.ErrForbidden):
		Forbidden(w, err.Error())
	case errors.Is(err, user.ErrAdminPrivilegeRequired):
		Forbidden(w, "Admin privilege required")

	// Auth
	case errors.Is(err, jwt.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")

	// Report export
	case errors.Is(err, report.ErrExportFailed):
		slog.Error("report export failed", "error", err)
		InternalServerError(w, "Failed to build the report file")

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
