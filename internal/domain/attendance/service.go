package attendance

import (
	"context"
)

// AttendanceService defines business logic for attendance operations
type AttendanceService interface {
	// ClockIn opens a shift for the authenticated user
	ClockIn(ctx context.Context) (AttendanceResponse, error)

	// ClockOut closes the open shift, ending any open break at the same instant
	ClockOut(ctx context.Context) (AttendanceResponse, error)

	// StartBreak opens a break on the open shift
	StartBreak(ctx context.Context) (AttendanceResponse, error)

	// EndBreak closes the open break
	EndBreak(ctx context.Context) (AttendanceResponse, error)

	// GetMyAttendance retrieves attendance records for authenticated user
	GetMyAttendance(ctx context.Context, filter MyAttendanceFilter) (ListAttendanceResponse, error)

	// ApproveAttendance approves a closed shift (manager/owner)
	ApproveAttendance(ctx context.Context, req ApproveAttendanceRequest) (AttendanceResponse, error)

	// UnapproveAttendance revokes the approval of a shift (manager/owner)
	UnapproveAttendance(ctx context.Context, req ApproveAttendanceRequest) (AttendanceResponse, error)
}
