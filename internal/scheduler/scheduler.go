// Package scheduler runs the periodic refresh and alert sweep jobs.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/fintrackit/portfolio-analytics/internal/analytics"
	"github.com/fintrackit/portfolio-analytics/internal/models"
)

// Look back a week when resolving the latest price so sweeps keep working
// across weekends and market holidays.
const alertLookbackDays = 7

// WatchlistSource lists symbols enabled for background refreshes.
type WatchlistSource interface {
	GetEnabledWatchlistSymbols(ctx context.Context) ([]string, error)
}

// AlertStore provides the active alerts due in a given hour and records
// sweep outcomes.
type AlertStore interface {
	GetActiveAlertsForHour(ctx context.Context, hour int) ([]*models.PriceAlert, error)
	MarkAlertChecked(ctx context.Context, id int, checkedAt time.Time) error
	MarkAlertTriggered(ctx context.Context, id int, triggeredAt time.Time, deactivate bool) error
}

// AlertPublisher emits an event for each triggered alert.
type AlertPublisher interface {
	PublishAlertTriggered(ctx context.Context, alert models.PriceAlert, currentPrice int64) error
}

// Scheduler wires the cron runner to the analytics engine.
type Scheduler struct {
	cron      *cron.Cron
	watchlist WatchlistSource
	alerts    AlertStore
	sharpe    *analytics.SharpeCache
	prices    *analytics.PriceSeriesCache
	publisher AlertPublisher
	logger    zerolog.Logger
}

// New creates a scheduler; jobs are registered via Register before Start.
func New(
	watchlist WatchlistSource,
	alerts AlertStore,
	sharpe *analytics.SharpeCache,
	prices *analytics.PriceSeriesCache,
	publisher AlertPublisher,
	logger zerolog.Logger,
) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		watchlist: watchlist,
		alerts:    alerts,
		sharpe:    sharpe,
		prices:    prices,
		publisher: publisher,
		logger:    logger.With().Str("component", "scheduler").Logger(),
	}
}

// Register adds the Sharpe refresh and alert sweep jobs with the given
// cron expressions.
func (s *Scheduler) Register(sharpeRefreshSpec, alertSweepSpec string) error {
	if _, err := s.cron.AddFunc(sharpeRefreshSpec, func() { s.RefreshSharpe(context.Background()) }); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(alertSweepSpec, func() { s.SweepAlerts(context.Background()) }); err != nil {
		return err
	}
	return nil
}

// Start launches the cron runner in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().Msg("scheduler started")
}

// Stop halts the cron runner and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info().Msg("scheduler stopped")
}

// RefreshSharpe recomputes the Sharpe entry for every enabled watchlist
// symbol. A failing symbol is logged and skipped so one bad ticker cannot
// stall the rest of the list.
func (s *Scheduler) RefreshSharpe(ctx context.Context) {
	symbols, err := s.watchlist.GetEnabledWatchlistSymbols(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load watchlist for sharpe refresh")
		return
	}

	refreshed := 0
	for _, symbol := range symbols {
		if _, err := s.sharpe.GetOrCompute(ctx, symbol); err != nil {
			s.logger.Warn().Err(err).Str("symbol", symbol).Msg("sharpe refresh failed")
			continue
		}
		refreshed++
	}
	s.logger.Info().Int("symbols", len(symbols)).Int("refreshed", refreshed).Msg("sharpe refresh complete")
}

// SweepAlerts evaluates the active alerts scheduled for the current UTC
// hour against the latest cached price.
func (s *Scheduler) SweepAlerts(ctx context.Context) {
	now := time.Now().UTC()
	alerts, err := s.alerts.GetActiveAlertsForHour(ctx, now.Hour())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load alerts for sweep")
		return
	}

	triggered := 0
	for _, alert := range alerts {
		price, err := s.latestPrice(ctx, alert.Symbol, now)
		if err != nil {
			s.logger.Warn().Err(err).Str("symbol", alert.Symbol).Msg("no price available for alert")
			continue
		}

		if err := s.alerts.MarkAlertChecked(ctx, alert.ID, now); err != nil {
			s.logger.Warn().Err(err).Int("alert_id", alert.ID).Msg("failed to mark alert checked")
		}

		if !alertConditionMet(*alert, price) {
			continue
		}

		if err := s.publisher.PublishAlertTriggered(ctx, *alert, price); err != nil {
			s.logger.Warn().Err(err).Int("alert_id", alert.ID).Msg("failed to publish alert event")
		}
		if err := s.alerts.MarkAlertTriggered(ctx, alert.ID, now, !alert.IsRepeating); err != nil {
			s.logger.Warn().Err(err).Int("alert_id", alert.ID).Msg("failed to mark alert triggered")
		}
		triggered++
	}
	s.logger.Info().Int("alerts", len(alerts)).Int("triggered", triggered).Msg("alert sweep complete")
}

func (s *Scheduler) latestPrice(ctx context.Context, symbol string, now time.Time) (int64, error) {
	bars, err := s.prices.GetPrices(ctx, symbol, now.AddDate(0, 0, -alertLookbackDays), now)
	if err != nil {
		return 0, err
	}
	if len(bars) == 0 {
		return 0, analytics.ErrNoRecentPrice
	}
	return bars[len(bars)-1].ClosingPrice, nil
}

func alertConditionMet(alert models.PriceAlert, price int64) bool {
	switch alert.TriggerType {
	case models.TriggerTypeAbove:
		return price >= alert.TriggerPrice
	case models.TriggerTypeBelow:
		return price <= alert.TriggerPrice
	default:
		return false
	}
}
