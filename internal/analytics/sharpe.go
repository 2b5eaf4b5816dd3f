package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/fintrackit/portfolio-analytics/internal/models"
)

// SharpeStaleAfter is how long a cached Sharpe entry stays fresh.
const SharpeStaleAfter = 7 * 24 * time.Hour

// SharpeStore persists one derived-analytics entry per symbol.
// Get returns (nil, nil) when no entry exists.
type SharpeStore interface {
	Get(ctx context.Context, symbol string) (*models.SharpeCacheEntry, error)
	Upsert(ctx context.Context, entry models.SharpeCacheEntry) error
}

// SharpeCache serves annualized return, volatility, and Sharpe ratio per
// symbol, recomputing from a 3-year price history when the stored entry is
// older than SharpeStaleAfter. The TTL check and the upsert are not
// synchronized across concurrent callers: two requests may recompute the same
// entry, and both write the same values.
type SharpeCache struct {
	prices    *PriceSeriesCache
	store     SharpeStore
	publisher EventPublisher
	now       func() time.Time
	log       zerolog.Logger
}

// SharpeOption configures the cache.
type SharpeOption func(*SharpeCache)

// WithSharpeClock overrides the wall clock, for tests.
func WithSharpeClock(now func() time.Time) SharpeOption {
	return func(c *SharpeCache) {
		c.now = now
	}
}

// WithSharpePublisher sets the publisher notified after a recomputation.
func WithSharpePublisher(p EventPublisher) SharpeOption {
	return func(c *SharpeCache) {
		c.publisher = p
	}
}

// NewSharpeCache creates a Sharpe ratio cache over the given price series
// cache and derived-cache store.
func NewSharpeCache(prices *PriceSeriesCache, store SharpeStore, log zerolog.Logger, opts ...SharpeOption) *SharpeCache {
	c := &SharpeCache{
		prices: prices,
		store:  store,
		now:    time.Now,
		log:    log.With().Str("component", "sharpe_cache").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrCompute returns the cached entry for symbol when it is younger than
// SharpeStaleAfter, otherwise recomputes it from a 3-year history ending
// today and replaces the stored entry wholesale.
func (c *SharpeCache) GetOrCompute(ctx context.Context, symbol string) (models.SharpeCacheEntry, error) {
	now := c.now()

	cached, err := c.store.Get(ctx, symbol)
	if err != nil {
		return models.SharpeCacheEntry{}, fmt.Errorf("failed to read sharpe cache for %s: %w", symbol, err)
	}
	if cached != nil && now.Sub(cached.LastUpdated) < SharpeStaleAfter {
		return *cached, nil
	}

	end := Day(now)
	start := end.AddDate(0, 0, -historyYears*365)
	bars, err := c.prices.GetPrices(ctx, symbol, start, end)
	if err != nil {
		return models.SharpeCacheEntry{}, err
	}

	returns := DailyReturns(closingPrices(bars))
	if err := RequireSamples(returns, MinSamples); err != nil {
		return models.SharpeCacheEntry{}, fmt.Errorf("sharpe for %s: %w", symbol, err)
	}

	annualReturn, annualVol := Annualize(returns)
	entry := models.SharpeCacheEntry{
		Symbol:           symbol,
		SharpeRatio:      round4(SharpeRatio(annualReturn, annualVol)),
		AvgAnnualReturn:  round4(annualReturn),
		AnnualVolatility: round4(annualVol),
		LastUpdated:      now,
	}

	if err := c.store.Upsert(ctx, entry); err != nil {
		return models.SharpeCacheEntry{}, fmt.Errorf("failed to update sharpe cache for %s: %w", symbol, err)
	}
	c.log.Debug().Str("symbol", symbol).Float64("sharpe", entry.SharpeRatio).Msg("sharpe entry refreshed")

	if c.publisher != nil {
		if err := c.publisher.PublishSharpeRefreshed(ctx, entry); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("failed to publish sharpe refreshed event")
		}
	}

	return entry, nil
}
