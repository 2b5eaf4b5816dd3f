package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/fintrackit/portfolio-analytics/internal/models"
)

// PriceStore is the persisted side of the price cache. Writes must be
// idempotent on (symbol, trading date): concurrent requests for the same gap
// may both fetch and both write, and the bars they write are identical.
type PriceStore interface {
	GetBarsInRange(ctx context.Context, symbol string, from, to time.Time) ([]models.PriceBar, error)
	GetExistingDates(ctx context.Context, symbol string) (map[time.Time]bool, error)
	PutBarsIfAbsent(ctx context.Context, bars []models.PriceBar) error
}

// PriceSource fetches historical daily bars from the external market data
// provider. Implementations signal throttling via an error exposing
// RateLimited() bool.
type PriceSource interface {
	FetchHistory(ctx context.Context, symbol string, from, to time.Time) ([]models.SourceBar, error)
}

// EventPublisher receives best-effort notifications about cache activity.
type EventPublisher interface {
	PublishSeriesCached(ctx context.Context, symbol string, bars int) error
	PublishSharpeRefreshed(ctx context.Context, entry models.SharpeCacheEntry) error
}

// PriceSeriesCache serves gap-free ordered daily price series, filling cache
// misses from the external source and persisting what it fetched.
type PriceSeriesCache struct {
	store     PriceStore
	source    PriceSource
	publisher EventPublisher
	normalize func(string) string
	log       zerolog.Logger
}

// PriceSeriesOption configures the cache.
type PriceSeriesOption func(*PriceSeriesCache)

// WithSymbolNormalizer sets the boundary normalization applied to every
// requested symbol, e.g. appending a market suffix.
func WithSymbolNormalizer(fn func(string) string) PriceSeriesOption {
	return func(c *PriceSeriesCache) {
		c.normalize = fn
	}
}

// WithSeriesPublisher sets the publisher notified after a source fetch
// extends the cache.
func WithSeriesPublisher(p EventPublisher) PriceSeriesOption {
	return func(c *PriceSeriesCache) {
		c.publisher = p
	}
}

// NewPriceSeriesCache creates a price series cache over the given store and
// source.
func NewPriceSeriesCache(store PriceStore, source PriceSource, log zerolog.Logger, opts ...PriceSeriesOption) *PriceSeriesCache {
	c := &PriceSeriesCache{
		store:     store,
		source:    source,
		normalize: func(s string) string { return s },
		log:       log.With().Str("component", "price_series_cache").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetPrices returns the daily bars for symbol in [start, end], ascending by
// date. When the store already covers every expected weekday the source is
// not consulted; otherwise the full range is fetched, missing dates are
// persisted, and the stored range is re-read.
func (c *PriceSeriesCache) GetPrices(ctx context.Context, symbol string, start, end time.Time) ([]models.PriceBar, error) {
	start, end = Day(start), Day(end)
	if start.After(end) {
		return nil, fmt.Errorf("%w: start %s after end %s", ErrInvalidDateRange,
			start.Format(dateLayout), end.Format(dateLayout))
	}
	symbol = c.normalize(symbol)

	expected := TradingDays(start, end)

	cached, err := c.store.GetBarsInRange(ctx, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query cached bars for %s: %w", symbol, err)
	}
	if coversAll(cached, expected) {
		sortBars(cached)
		return cached, nil
	}

	// The source treats its end bound as exclusive, so widen by one day and
	// trim the results back to the requested range.
	raw, err := c.source.FetchHistory(ctx, symbol, start, end.AddDate(0, 0, 1))
	if err != nil {
		if isRateLimited(err) {
			return nil, fmt.Errorf("%w: %s: %v", ErrRateLimited, symbol, err)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, symbol, err)
	}

	existing, err := c.store.GetExistingDates(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing dates for %s: %w", symbol, err)
	}

	var fresh []models.PriceBar
	for _, bar := range raw {
		date := Day(bar.Date)
		if date.Before(start) || date.After(end) || existing[date] {
			continue
		}
		fresh = append(fresh, models.PriceBar{
			Symbol:          symbol,
			TradingDate:     date,
			ClosingPrice:    bar.ClosingPrice,
			VolumeThousands: bar.VolumeThousands,
		})
	}
	if len(fresh) > 0 {
		if err := c.store.PutBarsIfAbsent(ctx, fresh); err != nil {
			return nil, fmt.Errorf("failed to persist fetched bars for %s: %w", symbol, err)
		}
		c.log.Debug().Str("symbol", symbol).Int("bars", len(fresh)).Msg("cached bars from source")
		if c.publisher != nil {
			if err := c.publisher.PublishSeriesCached(ctx, symbol, len(fresh)); err != nil {
				c.log.Warn().Err(err).Str("symbol", symbol).Msg("failed to publish series cached event")
			}
		}
	}

	bars, err := c.store.GetBarsInRange(ctx, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to re-query bars for %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s in %s_%s", ErrNoData, symbol,
			start.Format(dateLayout), end.Format(dateLayout))
	}

	sortBars(bars)
	return bars, nil
}

// GetPricesRange is GetPrices for the underscore-joined range encoding used
// at the service boundary ("2024-01-02_2024-03-04").
func (c *PriceSeriesCache) GetPricesRange(ctx context.Context, symbol, dateRange string) ([]models.PriceBar, error) {
	start, end, err := ParseDateRange(dateRange)
	if err != nil {
		return nil, err
	}
	return c.GetPrices(ctx, symbol, start, end)
}

func coversAll(bars []models.PriceBar, expected map[time.Time]bool) bool {
	have := make(map[time.Time]bool, len(bars))
	for _, b := range bars {
		have[Day(b.TradingDate)] = true
	}
	for d := range expected {
		if !have[d] {
			return false
		}
	}
	return true
}

func sortBars(bars []models.PriceBar) {
	sort.Slice(bars, func(i, j int) bool {
		return bars[i].TradingDate.Before(bars[j].TradingDate)
	})
}
