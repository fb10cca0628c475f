package stats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/uniwork/uniwork-backend-go/internal/domain/stats"
	"github.com/uniwork/uniwork-backend-go/internal/domain/user"
	"github.com/uniwork/uniwork-backend-go/internal/pkg/validator"
	"golang.org/x/sync/errgroup"
)

type StatsServiceImpl struct {
	recordRepo  stats.RecordRepository
	profileRepo stats.ProfileRepository
	rates       stats.RateProvider
	location    *time.Location
	now         func() time.Time
}

func NewStatsService(
	recordRepo stats.RecordRepository,
	profileRepo stats.ProfileRepository,
	rates stats.RateProvider,
	location *time.Location,
) stats.StatsService {
	if location == nil {
		location = time.UTC
	}
	return &StatsServiceImpl{
		recordRepo:  recordRepo,
		profileRepo: profileRepo,
		rates:       rates,
		location:    location,
		now:         time.Now,
	}
}

func getClaimsFromContext(ctx context.Context) (companyID, userID string, role user.Role, err error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to extract claims from context: %w", user.ErrInvalidToken)
	}

	companyID, ok := claims["company_id"].(string)
	if !ok || companyID == "" {
		return "", "", "", user.ErrCompanyIDRequired
	}

	userID, ok = claims["user_id"].(string)
	if !ok || !validator.IsValidUUID(userID) {
		return "", "", "", fmt.Errorf("user_id claim is missing or invalid: %w", user.ErrInvalidToken)
	}

	roleStr, _ := claims["role"].(string)
	return companyID, userID, user.Role(roleStr), nil
}

// GetMyStats implements stats.StatsService.
func (s *StatsServiceImpl) GetMyStats(ctx context.Context, req stats.GetStatsRequest) (stats.Stats, error) {
	companyID, userID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return stats.Stats{}, err
	}

	if err := req.Validate(false); err != nil {
		return stats.Stats{}, err
	}

	return s.compute(ctx, userID, companyID, req.Currency)
}

// GetEmployeeStats implements stats.StatsService.
func (s *StatsServiceImpl) GetEmployeeStats(ctx context.Context, req stats.GetStatsRequest) (stats.Stats, error) {
	companyID, callerID, role, err := getClaimsFromContext(ctx)
	if err != nil {
		return stats.Stats{}, err
	}

	if err := req.Validate(true); err != nil {
		return stats.Stats{}, err
	}

	if req.UserID != callerID && !user.HasPermission(role, user.PermissionStatsViewAll) {
		return stats.Stats{}, user.ErrManagerAccessRequired
	}

	return s.compute(ctx, req.UserID, companyID, req.Currency)
}

func (s *StatsServiceImpl) compute(ctx context.Context, userID, companyID, displayCurrency string) (stats.Stats, error) {
	ranges := ComputeRanges(s.now().In(s.location))

	var (
		records []stats.AttendanceRecord
		profile stats.WageProfile
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		data, err := s.recordRepo.ListSince(gCtx, userID, companyID, ranges.EarliestStart())
		if err != nil {
			return fmt.Errorf("failed to list attendance records: %w", err)
		}
		records = data
		return nil
	})

	g.Go(func() error {
		data, err := s.profileRepo.GetWageProfile(gCtx, userID, companyID)
		if err != nil {
			if errors.Is(err, stats.ErrEmployeeNotFound) {
				return stats.ErrEmployeeNotFound
			}
			return fmt.Errorf("failed to get wage profile: %w", err)
		}
		profile = data
		return nil
	})

	if err := g.Wait(); err != nil {
		return stats.Stats{}, err
	}

	agg := Aggregate(records, ranges)
	for _, a := range agg.Anomalies {
		slog.Warn("Negative net work minutes", "user_id", userID, "record_id", a.RecordID, "net_minutes", a.NetMinutes)
	}
	if agg.Skipped > 0 {
		slog.Debug("Incomplete attendance records skipped", "user_id", userID, "count", agg.Skipped)
	}

	income := ComputeIncome(agg.Monthly, profile.HourlyWage, profile.Currency)

	result := stats.Stats{
		Weekly:        agg.Weekly,
		LastSevenDays: agg.LastSevenDays,
		Monthly:       agg.Monthly,
		Income:        income,
		Ranges:        ranges,
	}

	if displayCurrency != "" && displayCurrency != profile.Currency && s.rates != nil {
		rate, err := s.rates.Rate(ctx, profile.Currency, displayCurrency)
		if err != nil {
			slog.Warn("Exchange rate unavailable, showing base currency",
				"base", profile.Currency, "target", displayCurrency, "error", err)
		} else {
			result.Display = ConvertIncome(income, displayCurrency, &rate)
		}
	}

	return result, nil
}
