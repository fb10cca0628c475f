package stats

import "context"

// StatsService defines business logic for work-time and income statistics
type StatsService interface {
	// GetMyStats computes stats for the authenticated employee
	GetMyStats(ctx context.Context, req GetStatsRequest) (Stats, error)

	// GetEmployeeStats computes stats for an employee of the caller's company (manager/owner)
	GetEmployeeStats(ctx context.Context, req GetStatsRequest) (Stats, error)
}
