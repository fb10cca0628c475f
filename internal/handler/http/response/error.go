package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/uniwork/uniwork-backend-go/internal/domain/attendance"
	"github.com/uniwork/uniwork-backend-go/internal/domain/stats"
	"github.com/uniwork/uniwork-backend-go/internal/domain/user"
	"github.com/uniwork/uniwork-backend-go/internal/pkg/validator"
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
	// User / auth errors
	case errors.Is(err, user.ErrInvalidToken):
		Unauthorized(w, "Invalid or missing access token")
	case errors.Is(err, user.ErrCompanyIDRequired):
		Forbidden(w, "Company membership required")
	case errors.Is(err, user.ErrManagerAccessRequired):
		Forbidden(w, "Manager access required")
	case errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, err.Error())

	// Stats domain errors
	case errors.Is(err, stats.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrAlreadyClockedIn):
		Conflict(w, "You already have an open shift")
	case errors.Is(err, attendance.ErrNotClockedIn):
		Conflict(w, "You have not clocked in yet")
	case errors.Is(err, attendance.ErrBreakInProgress):
		Conflict(w, "A break is already in progress")
	case errors.Is(err, attendance.ErrNoOpenBreak):
		Conflict(w, "No break in progress")
	case errors.Is(err, attendance.ErrShiftInProgress):
		Conflict(w, "Attendance is still in progress")

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
