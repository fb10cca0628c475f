package stats

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// RecordRepository reads attendance records for aggregation.
// All methods include companyID parameter to prevent cross-company data access.
type RecordRepository interface {
	// ListSince returns the user's records with work_start >= since, newest first,
	// with break logs attached in break_start order.
	ListSince(ctx context.Context, userID string, companyID string, since time.Time) ([]AttendanceRecord, error)
}

// ProfileRepository reads the wage configuration of an employee.
type ProfileRepository interface {
	// GetWageProfile returns ErrEmployeeNotFound when the user has no profile in the company.
	GetWageProfile(ctx context.Context, userID string, companyID string) (WageProfile, error)
}

// RateProvider returns how many target units one base unit buys.
type RateProvider interface {
	Rate(ctx context.Context, base string, target string) (decimal.Decimal, error)
}
