package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uniwork/uniwork-backend-go/internal/domain/attendance"
	"github.com/uniwork/uniwork-backend-go/internal/pkg/database"
)

// attachBreaks loads break logs for every attendance in one query and
// attaches them in break_start order.
func attachBreaks(ctx context.Context, q database.Querier, atts []*attendance.Attendance) error {
	if len(atts) == 0 {
		return nil
	}

	ids := make([]string, 0, len(atts))
	byID := make(map[string]*attendance.Attendance, len(atts))
	for _, att := range atts {
		ids = append(ids, att.ID)
		byID[att.ID] = att
	}

	query := `
		SELECT id, attendance_id, break_start, break_end, created_at
		FROM break_logs
		WHERE attendance_id = ANY($1)
		ORDER BY break_start ASC NULLS LAST, id
	`

	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to query break logs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var b attendance.Break
		if err := rows.Scan(&b.ID, &b.AttendanceID, &b.BreakStart, &b.BreakEnd, &b.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan break log: %w", err)
		}
		if att, ok := byID[b.AttendanceID]; ok {
			att.Breaks = append(att.Breaks, b)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate break logs: %w", err)
	}

	return nil
}

type breakRepository struct {
	db *database.DB
}

// Create implements attendance.BreakRepository.
func (r *breakRepository) Create(ctx context.Context, brk attendance.Break) (attendance.Break, error) {
	q := GetQuerier(ctx, r.db)

	if brk.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return attendance.Break{}, fmt.Errorf("failed to generate break id: %w", err)
		}
		brk.ID = id.String()
	}

	query := `
		INSERT INTO break_logs (id, attendance_id, break_start, break_end)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`

	err := q.QueryRow(ctx, query, brk.ID, brk.AttendanceID, brk.BreakStart, brk.BreakEnd).Scan(&brk.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return attendance.Break{}, attendance.ErrBreakInProgress
		}
		return attendance.Break{}, fmt.Errorf("failed to create break log: %w", err)
	}

	return brk, nil
}

// Close implements attendance.BreakRepository.
func (r *breakRepository) Close(ctx context.Context, id string, breakEnd time.Time) error {
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx,
		`UPDATE break_logs SET break_end = $1 WHERE id = $2 AND break_end IS NULL`,
		breakEnd, id,
	)
	if err != nil {
		return fmt.Errorf("failed to close break log: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return attendance.ErrNoOpenBreak
	}

	return nil
}

// CloseOpen implements attendance.BreakRepository.
func (r *breakRepository) CloseOpen(ctx context.Context, attendanceID string, breakEnd time.Time) (int64, error) {
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx,
		`UPDATE break_logs SET break_end = $1 WHERE attendance_id = $2 AND break_end IS NULL`,
		breakEnd, attendanceID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to close open break logs: %w", err)
	}

	return commandTag.RowsAffected(), nil
}

func NewBreakRepository(db *database.DB) attendance.BreakRepository {
	return &breakRepository{db: db}
}
