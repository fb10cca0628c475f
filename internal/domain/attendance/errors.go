package attendance

import "errors"

// Attendance domain errors
var (
	// Clock errors
	ErrAlreadyClockedIn = errors.New("you already have an open shift")
	ErrNotClockedIn     = errors.New("you have not clocked in yet")
	ErrBreakInProgress  = errors.New("a break is already in progress")
	ErrNoOpenBreak      = errors.New("no break in progress")

	// General errors
	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrShiftInProgress    = errors.New("attendance is still in progress and cannot be approved")
)
