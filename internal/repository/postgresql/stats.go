package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/uniwork/uniwork-backend-go/internal/domain/attendance"
	"github.com/uniwork/uniwork-backend-go/internal/domain/stats"
	"github.com/uniwork/uniwork-backend-go/internal/pkg/database"
)

// DefaultCurrency is reported for employees without a configured currency.
const DefaultCurrency = "JPY"

type statsRepository struct {
	db *database.DB
}

// ListSince implements stats.RecordRepository.
func (s *statsRepository) ListSince(ctx context.Context, userID string, companyID string, since time.Time) ([]stats.AttendanceRecord, error) {
	q := GetQuerier(ctx, s.db)

	query := `SELECT ` + attendanceColumns + `
		FROM attendances a
		WHERE a.user_id = $1
		  AND a.company_id = $2
		  AND a.work_start >= $3
		ORDER BY a.work_start DESC
	`

	rows, err := q.Query(ctx, query, userID, companyID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance records: %w", err)
	}
	defer rows.Close()

	var atts []attendance.Attendance
	for rows.Next() {
		var att attendance.Attendance
		if err := scanAttendance(rows, &att); err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		atts = append(atts, att)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance records: %w", err)
	}

	ptrs := make([]*attendance.Attendance, len(atts))
	for i := range atts {
		ptrs[i] = &atts[i]
	}
	if err := attachBreaks(ctx, q, ptrs); err != nil {
		return nil, err
	}

	records := make([]stats.AttendanceRecord, 0, len(atts))
	for _, att := range atts {
		records = append(records, att.Record())
	}

	return records, nil
}

// GetWageProfile implements stats.ProfileRepository.
func (s *statsRepository) GetWageProfile(ctx context.Context, userID string, companyID string) (stats.WageProfile, error) {
	q := GetQuerier(ctx, s.db)

	query := `
		SELECT user_id, hourly_wage, currency
		FROM employees
		WHERE user_id = $1 AND company_id = $2
	`

	var (
		profile  stats.WageProfile
		wage     decimal.NullDecimal
		currency *string
	)
	err := q.QueryRow(ctx, query, userID, companyID).Scan(&profile.UserID, &wage, &currency)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return stats.WageProfile{}, stats.ErrEmployeeNotFound
		}
		return stats.WageProfile{}, fmt.Errorf("failed to get wage profile: %w", err)
	}

	if wage.Valid {
		profile.HourlyWage = wage.Decimal
	}
	profile.Currency = DefaultCurrency
	if currency != nil && strings.TrimSpace(*currency) != "" {
		profile.Currency = strings.ToUpper(strings.TrimSpace(*currency))
	}

	return profile, nil
}

func NewRecordRepository(db *database.DB) stats.RecordRepository {
	return &statsRepository{db: db}
}

func NewProfileRepository(db *database.DB) stats.ProfileRepository {
	return &statsRepository{db: db}
}
