package attendance

import (
	"time"

	"github.com/uniwork/uniwork-backend-go/internal/domain/stats"
)

// Attendance is one shift of a user. WorkEnd is nil while the shift is open.
type Attendance struct {
	ID         string
	UserID     string
	CompanyID  string
	WorkStart  *time.Time
	WorkEnd    *time.Time
	Approved   bool
	ApprovedBy *string
	ApprovedAt *time.Time
	Breaks     []Break
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Break struct {
	ID           string
	AttendanceID string
	BreakStart   *time.Time
	BreakEnd     *time.Time
	CreatedAt    time.Time
}

// OpenBreak returns the break that has started but not ended, if any.
func (a Attendance) OpenBreak() *Break {
	for i := range a.Breaks {
		if a.Breaks[i].BreakStart != nil && a.Breaks[i].BreakEnd == nil {
			return &a.Breaks[i]
		}
	}
	return nil
}

// Record converts the shift into the shape the stats calculator reads.
func (a Attendance) Record() stats.AttendanceRecord {
	logs := make([]stats.BreakLog, 0, len(a.Breaks))
	for _, b := range a.Breaks {
		logs = append(logs, stats.BreakLog{BreakStart: b.BreakStart, BreakEnd: b.BreakEnd})
	}
	return stats.AttendanceRecord{
		ID:        a.ID,
		UserID:    a.UserID,
		WorkStart: a.WorkStart,
		WorkEnd:   a.WorkEnd,
		Approved:  a.Approved,
		BreakLogs: logs,
	}
}
