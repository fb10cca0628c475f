package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uniwork/uniwork-backend-go/internal/domain/attendance"
	"github.com/uniwork/uniwork-backend-go/internal/pkg/database"
)

const uniqueViolation = "23505"

const attendanceColumns = `
	a.id, a.user_id, a.company_id, a.work_start, a.work_end,
	a.approved, a.approved_by, a.approved_at, a.created_at, a.updated_at`

func scanAttendance(row pgx.Row, att *attendance.Attendance) error {
	return row.Scan(
		&att.ID, &att.UserID, &att.CompanyID, &att.WorkStart, &att.WorkEnd,
		&att.Approved, &att.ApprovedBy, &att.ApprovedAt, &att.CreatedAt, &att.UpdatedAt,
	)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

type attendanceRepository struct {
	db *database.DB
}

// Create implements attendance.AttendanceRepository.
func (a *attendanceRepository) Create(ctx context.Context, newAttendance attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	if newAttendance.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return attendance.Attendance{}, fmt.Errorf("failed to generate attendance id: %w", err)
		}
		newAttendance.ID = id.String()
	}

	query := `
		INSERT INTO attendances (id, user_id, company_id, work_start, work_end, approved)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		newAttendance.ID,
		newAttendance.UserID,
		newAttendance.CompanyID,
		newAttendance.WorkStart,
		newAttendance.WorkEnd,
		newAttendance.Approved,
	).Scan(&newAttendance.CreatedAt, &newAttendance.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return attendance.Attendance{}, attendance.ErrAlreadyClockedIn
		}
		return attendance.Attendance{}, fmt.Errorf("failed to create attendance: %w", err)
	}

	return newAttendance, nil
}

// GetByID implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string, companyID string) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + `
		FROM attendances a
		WHERE a.id = $1 AND a.company_id = $2
	`

	var att attendance.Attendance
	if err := scanAttendance(q.QueryRow(ctx, query, id, companyID), &att); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance by id: %w", err)
	}

	if err := attachBreaks(ctx, q, []*attendance.Attendance{&att}); err != nil {
		return attendance.Attendance{}, err
	}

	return att, nil
}

// GetOpenSession implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetOpenSession(ctx context.Context, userID string, companyID string) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + `
		FROM attendances a
		WHERE a.user_id = $1
		  AND a.company_id = $2
		  AND a.work_end IS NULL
		ORDER BY a.work_start DESC
		LIMIT 1
		FOR UPDATE
	`

	var att attendance.Attendance
	if err := scanAttendance(q.QueryRow(ctx, query, userID, companyID), &att); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get open session: %w", err)
	}

	if err := attachBreaks(ctx, q, []*attendance.Attendance{&att}); err != nil {
		return attendance.Attendance{}, err
	}

	return att, nil
}

// CloseSession implements attendance.AttendanceRepository.
func (a *attendanceRepository) CloseSession(ctx context.Context, id string, companyID string, workEnd time.Time) error {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendances
		SET work_end = $1, updated_at = NOW()
		WHERE id = $2 AND company_id = $3 AND work_end IS NULL
	`

	commandTag, err := q.Exec(ctx, query, workEnd, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to close attendance: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return attendance.ErrAttendanceNotFound
	}

	return nil
}

// SetApproval implements attendance.AttendanceRepository.
func (a *attendanceRepository) SetApproval(ctx context.Context, id string, companyID string, approved bool, approvedBy *string, approvedAt *time.Time) error {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendances
		SET approved = $1, approved_by = $2, approved_at = $3, updated_at = NOW()
		WHERE id = $4 AND company_id = $5
	`

	commandTag, err := q.Exec(ctx, query, approved, approvedBy, approvedAt, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to update attendance approval: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return attendance.ErrAttendanceNotFound
	}

	return nil
}

// GetMyAttendance implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetMyAttendance(ctx context.Context, userID string, filter attendance.MyAttendanceFilter, companyID string) ([]attendance.Attendance, int64, error) {
	q := GetQuerier(ctx, a.db)

	// Build WHERE clause
	baseWhere := "a.user_id = $1 AND a.company_id = $2"
	args := []interface{}{userID, companyID}
	argIdx := 3

	if filter.From != nil {
		baseWhere += fmt.Sprintf(" AND a.work_start >= $%d", argIdx)
		args = append(args, *filter.From)
		argIdx++
	}
	if filter.To != nil {
		baseWhere += fmt.Sprintf(" AND a.work_start < $%d", argIdx)
		args = append(args, *filter.To)
		argIdx++
	}
	if filter.Approved != nil {
		baseWhere += fmt.Sprintf(" AND a.approved = $%d", argIdx)
		args = append(args, *filter.Approved)
		argIdx++
	}

	// Count total
	countQuery := "SELECT COUNT(*) FROM attendances a WHERE " + baseWhere
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendances: %w", err)
	}

	sortOrder := "DESC"
	if filter.SortOrder == "asc" {
		sortOrder = "ASC"
	}

	selectQuery := fmt.Sprintf(`
		SELECT %s
		FROM attendances a
		WHERE %s
		ORDER BY a.work_start %s NULLS LAST, a.id
		LIMIT $%d OFFSET $%d
	`, attendanceColumns, baseWhere, sortOrder, argIdx, argIdx+1)

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	page := filter.Page
	if page == 0 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query attendances: %w", err)
	}
	defer rows.Close()

	var attendances []attendance.Attendance
	for rows.Next() {
		var att attendance.Attendance
		if err := scanAttendance(rows, &att); err != nil {
			return nil, 0, fmt.Errorf("failed to scan attendance: %w", err)
		}
		attendances = append(attendances, att)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate attendances: %w", err)
	}

	ptrs := make([]*attendance.Attendance, len(attendances))
	for i := range attendances {
		ptrs[i] = &attendances[i]
	}
	if err := attachBreaks(ctx, q, ptrs); err != nil {
		return nil, 0, err
	}

	return attendances, total, nil
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}
