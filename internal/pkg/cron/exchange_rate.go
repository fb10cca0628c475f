package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RateRefresher reloads the cached rate table of a base currency.
type RateRefresher interface {
	Refresh(ctx context.Context, base string) error
}

type ExchangeRateJobs struct {
	refresher RateRefresher
	base      string
	interval  time.Duration
	timeout   time.Duration
}

func NewExchangeRateJobs(refresher RateRefresher, base string, interval, timeout time.Duration) *ExchangeRateJobs {
	return &ExchangeRateJobs{
		refresher: refresher,
		base:      base,
		interval:  interval,
		timeout:   timeout,
	}
}

func (j *ExchangeRateJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob(Job{
		Name:     "refresh_exchange_rates",
		Interval: j.interval,
		Timeout:  j.timeout,
		Fn:       j.RefreshExchangeRates,
	})
}

// RefreshExchangeRates keeps the base currency table warm so stats requests
// rarely wait on the rate API.
func (j *ExchangeRateJobs) RefreshExchangeRates(ctx context.Context) error {
	if err := j.refresher.Refresh(ctx, j.base); err != nil {
		return fmt.Errorf("refresh %s rates: %w", j.base, err)
	}
	slog.Debug("Cron: exchange rates refreshed", "base", j.base)
	return nil
}
