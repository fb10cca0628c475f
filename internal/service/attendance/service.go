package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/uniwork/uniwork-backend-go/internal/domain/attendance"
	"github.com/uniwork/uniwork-backend-go/internal/domain/user"
	"github.com/uniwork/uniwork-backend-go/internal/pkg/database"
	"github.com/uniwork/uniwork-backend-go/internal/pkg/validator"
	statssvc "github.com/uniwork/uniwork-backend-go/internal/service/stats"
)

type AttendanceServiceImpl struct {
	tx             database.Transactor
	attendanceRepo attendance.AttendanceRepository
	breakRepo      attendance.BreakRepository
	location       *time.Location
	now            func() time.Time
}

func NewAttendanceService(
	tx database.Transactor,
	attendanceRepo attendance.AttendanceRepository,
	breakRepo attendance.BreakRepository,
	location *time.Location,
) attendance.AttendanceService {
	if location == nil {
		location = time.UTC
	}
	return &AttendanceServiceImpl{
		tx:             tx,
		attendanceRepo: attendanceRepo,
		breakRepo:      breakRepo,
		location:       location,
		now:            time.Now,
	}
}

func getClaimsFromContext(ctx context.Context) (companyID, userID string, err error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to extract claims from context: %w", user.ErrInvalidToken)
	}

	companyID, ok := claims["company_id"].(string)
	if !ok || companyID == "" {
		return "", "", user.ErrCompanyIDRequired
	}

	userID, ok = claims["user_id"].(string)
	if !ok || !validator.IsValidUUID(userID) {
		return "", "", fmt.Errorf("user_id claim is missing or invalid: %w", user.ErrInvalidToken)
	}

	return companyID, userID, nil
}

// getOpenSession maps a missing open shift to ErrNotClockedIn.
func (a *AttendanceServiceImpl) getOpenSession(ctx context.Context, userID, companyID string) (attendance.Attendance, error) {
	open, err := a.attendanceRepo.GetOpenSession(ctx, userID, companyID)
	if err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return attendance.Attendance{}, attendance.ErrNotClockedIn
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get open session: %w", err)
	}
	return open, nil
}

// ClockIn implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ClockIn(ctx context.Context) (attendance.AttendanceResponse, error) {
	companyID, userID, err := getClaimsFromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	now := a.now().UTC()
	var created attendance.Attendance

	err = a.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		_, err := a.attendanceRepo.GetOpenSession(ctx, userID, companyID)
		if err == nil {
			return attendance.ErrAlreadyClockedIn
		}
		if !errors.Is(err, attendance.ErrAttendanceNotFound) {
			return fmt.Errorf("failed to get open session: %w", err)
		}

		created, err = a.attendanceRepo.Create(ctx, attendance.Attendance{
			UserID:    userID,
			CompanyID: companyID,
			WorkStart: &now,
		})
		if err != nil {
			if errors.Is(err, attendance.ErrAlreadyClockedIn) {
				return err
			}
			return fmt.Errorf("failed to create attendance: %w", err)
		}
		return nil
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	slog.Info("Clocked in", "user_id", userID, "attendance_id", created.ID)
	return mapAttendanceToResponse(created, a.location), nil
}

// ClockOut implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ClockOut(ctx context.Context) (attendance.AttendanceResponse, error) {
	companyID, userID, err := getClaimsFromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	now := a.now().UTC()
	var closed attendance.Attendance

	err = a.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		open, err := a.getOpenSession(ctx, userID, companyID)
		if err != nil {
			return err
		}

		n, err := a.breakRepo.CloseOpen(ctx, open.ID, now)
		if err != nil {
			return fmt.Errorf("failed to close open breaks: %w", err)
		}
		if n > 0 {
			slog.Info("Open break closed at clock-out", "user_id", userID, "attendance_id", open.ID)
		}

		if err := a.attendanceRepo.CloseSession(ctx, open.ID, companyID, now); err != nil {
			return fmt.Errorf("failed to close attendance: %w", err)
		}

		closed, err = a.attendanceRepo.GetByID(ctx, open.ID, companyID)
		if err != nil {
			return fmt.Errorf("failed to get updated attendance: %w", err)
		}
		return nil
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	slog.Info("Clocked out", "user_id", userID, "attendance_id", closed.ID)
	return mapAttendanceToResponse(closed, a.location), nil
}

// StartBreak implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) StartBreak(ctx context.Context) (attendance.AttendanceResponse, error) {
	companyID, userID, err := getClaimsFromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	now := a.now().UTC()
	var updated attendance.Attendance

	err = a.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		open, err := a.getOpenSession(ctx, userID, companyID)
		if err != nil {
			return err
		}
		if open.OpenBreak() != nil {
			return attendance.ErrBreakInProgress
		}

		if _, err := a.breakRepo.Create(ctx, attendance.Break{AttendanceID: open.ID, BreakStart: &now}); err != nil {
			if errors.Is(err, attendance.ErrBreakInProgress) {
				return err
			}
			return fmt.Errorf("failed to start break: %w", err)
		}

		updated, err = a.attendanceRepo.GetByID(ctx, open.ID, companyID)
		if err != nil {
			return fmt.Errorf("failed to get updated attendance: %w", err)
		}
		return nil
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return mapAttendanceToResponse(updated, a.location), nil
}

// EndBreak implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) EndBreak(ctx context.Context) (attendance.AttendanceResponse, error) {
	companyID, userID, err := getClaimsFromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	now := a.now().UTC()
	var updated attendance.Attendance

	err = a.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		open, err := a.getOpenSession(ctx, userID, companyID)
		if err != nil {
			return err
		}

		brk := open.OpenBreak()
		if brk == nil {
			return attendance.ErrNoOpenBreak
		}

		if err := a.breakRepo.Close(ctx, brk.ID, now); err != nil {
			if errors.Is(err, attendance.ErrNoOpenBreak) {
				return err
			}
			return fmt.Errorf("failed to end break: %w", err)
		}

		updated, err = a.attendanceRepo.GetByID(ctx, open.ID, companyID)
		if err != nil {
			return fmt.Errorf("failed to get updated attendance: %w", err)
		}
		return nil
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return mapAttendanceToResponse(updated, a.location), nil
}

// GetMyAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetMyAttendance(ctx context.Context, filter attendance.MyAttendanceFilter) (attendance.ListAttendanceResponse, error) {
	companyID, userID, err := getClaimsFromContext(ctx)
	if err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	if err := filter.Validate(); err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	// Dates are calendar days in the company timezone; To is exclusive.
	if filter.StartDate != nil && *filter.StartDate != "" {
		from, _ := time.ParseInLocation("2006-01-02", *filter.StartDate, a.location)
		filter.From = &from
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		end, _ := time.ParseInLocation("2006-01-02", *filter.EndDate, a.location)
		to := end.AddDate(0, 0, 1)
		filter.To = &to
	}

	attendances, total, err := a.attendanceRepo.GetMyAttendance(ctx, userID, filter, companyID)
	if err != nil {
		return attendance.ListAttendanceResponse{}, fmt.Errorf("failed to get my attendance: %w", err)
	}

	responses := make([]attendance.AttendanceResponse, 0, len(attendances))
	for _, att := range attendances {
		responses = append(responses, mapAttendanceToResponse(att, a.location))
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	showing := fmt.Sprintf("%d-%d of %d", (filter.Page-1)*filter.Limit+1, min(filter.Page*filter.Limit, int(total)), total)
	if total == 0 {
		showing = "0 of 0"
	}

	return attendance.ListAttendanceResponse{
		TotalCount:  total,
		Page:        filter.Page,
		Limit:       filter.Limit,
		TotalPages:  totalPages,
		Showing:     showing,
		Attendances: responses,
	}, nil
}

// ApproveAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ApproveAttendance(ctx context.Context, req attendance.ApproveAttendanceRequest) (attendance.AttendanceResponse, error) {
	return a.setApproval(ctx, req, true)
}

// UnapproveAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) UnapproveAttendance(ctx context.Context, req attendance.ApproveAttendanceRequest) (attendance.AttendanceResponse, error) {
	return a.setApproval(ctx, req, false)
}

func (a *AttendanceServiceImpl) setApproval(ctx context.Context, req attendance.ApproveAttendanceRequest, approved bool) (attendance.AttendanceResponse, error) {
	companyID, userID, err := getClaimsFromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	var updated attendance.Attendance

	err = a.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		att, err := a.attendanceRepo.GetByID(ctx, req.ID, companyID)
		if err != nil {
			if errors.Is(err, attendance.ErrAttendanceNotFound) {
				return attendance.ErrAttendanceNotFound
			}
			return fmt.Errorf("failed to get attendance: %w", err)
		}

		if approved && att.WorkEnd == nil {
			return attendance.ErrShiftInProgress
		}

		var approvedBy *string
		var approvedAt *time.Time
		if approved {
			now := a.now().UTC()
			approvedBy, approvedAt = &userID, &now
		}

		if err := a.attendanceRepo.SetApproval(ctx, att.ID, companyID, approved, approvedBy, approvedAt); err != nil {
			return fmt.Errorf("failed to update approval: %w", err)
		}

		updated, err = a.attendanceRepo.GetByID(ctx, att.ID, companyID)
		if err != nil {
			return fmt.Errorf("failed to get updated attendance: %w", err)
		}
		return nil
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	slog.Info("Attendance approval changed", "attendance_id", updated.ID, "approved", approved, "by", userID)
	return mapAttendanceToResponse(updated, a.location), nil
}

func formatTime(t *time.Time, loc *time.Location) *string {
	if t == nil {
		return nil
	}
	s := t.In(loc).Format(time.RFC3339)
	return &s
}

func mapAttendanceToResponse(att attendance.Attendance, loc *time.Location) attendance.AttendanceResponse {
	breaks := make([]attendance.BreakResponse, 0, len(att.Breaks))
	for _, b := range att.Breaks {
		breaks = append(breaks, attendance.BreakResponse{
			ID:         b.ID,
			BreakStart: formatTime(b.BreakStart, loc),
			BreakEnd:   formatTime(b.BreakEnd, loc),
		})
	}

	resp := attendance.AttendanceResponse{
		ID:         att.ID,
		UserID:     att.UserID,
		WorkStart:  formatTime(att.WorkStart, loc),
		WorkEnd:    formatTime(att.WorkEnd, loc),
		Approved:   att.Approved,
		ApprovedBy: att.ApprovedBy,
		ApprovedAt: formatTime(att.ApprovedAt, loc),
		Breaks:     breaks,
		CreatedAt:  att.CreatedAt.In(loc).Format(time.RFC3339),
		UpdatedAt:  att.UpdatedAt.In(loc).Format(time.RFC3339),
	}

	if net, ok := statssvc.NetMinutes(att.Record()); ok {
		resp.NetMinutes = &net
	}

	return resp
}
