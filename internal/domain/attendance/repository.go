package attendance

import (
	"context"
	"time"
)

// AttendanceRepository defines data access methods for attendance records.
// All methods include companyID parameter to prevent cross-company data access attacks.
type AttendanceRepository interface {
	// Create inserts a new shift. Returns ErrAlreadyClockedIn when the user already has an open one.
	Create(ctx context.Context, attendance Attendance) (Attendance, error)

	// GetByID retrieves attendance by ID with company isolation, breaks attached
	GetByID(ctx context.Context, id string, companyID string) (Attendance, error)

	// GetOpenSession returns the user's shift without a work end, or ErrAttendanceNotFound
	GetOpenSession(ctx context.Context, userID string, companyID string) (Attendance, error)

	// CloseSession sets work_end on an open shift
	CloseSession(ctx context.Context, id string, companyID string, workEnd time.Time) error

	// SetApproval updates the approval flag and the approver
	SetApproval(ctx context.Context, id string, companyID string, approved bool, approvedBy *string, approvedAt *time.Time) error

	// GetMyAttendance retrieves attendance records for a specific user
	GetMyAttendance(ctx context.Context, userID string, filter MyAttendanceFilter, companyID string) ([]Attendance, int64, error)
}

// BreakRepository defines data access methods for break logs.
type BreakRepository interface {
	Create(ctx context.Context, brk Break) (Break, error)

	// Close sets break_end on an open break
	Close(ctx context.Context, id string, breakEnd time.Time) error

	// CloseOpen ends every open break of the attendance at breakEnd
	CloseOpen(ctx context.Context, attendanceID string, breakEnd time.Time) (int64, error)
}
