package exchangerate

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uniwork/uniwork-backend-go/internal/domain/stats"
	"golang.org/x/sync/singleflight"
)

// Fetcher returns the full rate table for a base currency.
type Fetcher interface {
	Latest(ctx context.Context, base string) (map[string]decimal.Decimal, error)
}

type table struct {
	rates     map[string]decimal.Decimal
	fetchedAt time.Time
}

// CachedProvider keeps one rate table per base currency. Tables older than
// ttl are refetched on the next lookup. Safe for concurrent use.
type CachedProvider struct {
	fetcher Fetcher
	ttl     time.Duration
	now     func() time.Time

	mu     sync.RWMutex
	tables map[string]table
	group  singleflight.Group
}

func NewCachedProvider(fetcher Fetcher, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		fetcher: fetcher,
		ttl:     ttl,
		now:     time.Now,
		tables:  make(map[string]table),
	}
}

// Rate implements stats.RateProvider. Errors wrap stats.ErrRateUnavailable.
func (p *CachedProvider) Rate(ctx context.Context, base string, target string) (decimal.Decimal, error) {
	base, target = strings.ToUpper(base), strings.ToUpper(target)
	if base == target {
		return decimal.NewFromInt(1), nil
	}

	t, ok := p.fresh(base)
	if !ok {
		var err error
		if t, err = p.refresh(ctx, base); err != nil {
			return decimal.Decimal{}, fmt.Errorf("%w: %w", stats.ErrRateUnavailable, err)
		}
	}

	rate, ok := t.rates[target]
	if !ok || !rate.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("%w: no %s rate for %s", stats.ErrRateUnavailable, target, base)
	}

	return rate, nil
}

// Refresh fetches the table for base and replaces the cached one.
func (p *CachedProvider) Refresh(ctx context.Context, base string) error {
	_, err := p.refresh(ctx, strings.ToUpper(base))
	return err
}

func (p *CachedProvider) fresh(base string) (table, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	t, ok := p.tables[base]
	if !ok || p.now().Sub(t.fetchedAt) > p.ttl {
		return table{}, false
	}
	return t, true
}

// refresh collapses concurrent fetches of the same base into one call. The
// shared fetch runs detached from any single caller so one cancelled request
// cannot fail the others; it stays bounded by the fetcher's own timeout. Each
// caller still stops waiting when its ctx is done.
func (p *CachedProvider) refresh(ctx context.Context, base string) (table, error) {
	fetchCtx := context.WithoutCancel(ctx)
	ch := p.group.DoChan(base, func() (interface{}, error) {
		rates, err := p.fetcher.Latest(fetchCtx, base)
		if err != nil {
			return table{}, err
		}

		t := table{rates: rates, fetchedAt: p.now()}
		p.mu.Lock()
		p.tables[base] = t
		p.mu.Unlock()
		return t, nil
	})

	select {
	case <-ctx.Done():
		return table{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return table{}, res.Err
		}
		return res.Val.(table), nil
	}
}
