package main

import (
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/fintrackit/portfolio-analytics/internal/analytics"
	"github.com/fintrackit/portfolio-analytics/internal/cache"
	"github.com/fintrackit/portfolio-analytics/internal/config"
	"github.com/fintrackit/portfolio-analytics/internal/database"
	"github.com/fintrackit/portfolio-analytics/internal/events"
	"github.com/fintrackit/portfolio-analytics/internal/marketdata"
	"github.com/fintrackit/portfolio-analytics/internal/scheduler"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	logger.Info().Msg("analyticsd starting")

	cfg := config.Load()

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	sharpeStore := cache.NewSharpeStore(redisClient)

	producer := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer producer.Close()

	source := marketdata.NewClient(cfg.MarketData.APIKey,
		marketdata.WithBaseURL(cfg.MarketData.BaseURL),
		marketdata.WithHTTPClient(&http.Client{Timeout: cfg.MarketData.Timeout}),
		marketdata.WithRateLimit(cfg.MarketData.RateLimit),
		marketdata.WithLogger(logger),
	)

	prices := analytics.NewPriceSeriesCache(db, source, logger,
		analytics.WithSymbolNormalizer(marketSuffixNormalizer(cfg.Analytics.MarketSuffix)),
		analytics.WithSeriesPublisher(producer),
	)
	sharpe := analytics.NewSharpeCache(prices, sharpeStore, logger,
		analytics.WithSharpePublisher(producer),
	)

	sched := scheduler.New(db, db, sharpe, prices, producer, logger)
	if err := sched.Register(cfg.Scheduler.SharpeRefreshCron, cfg.Scheduler.AlertSweepCron); err != nil {
		logger.Fatal().Err(err).Msg("failed to register scheduled jobs")
	}
	sched.Start()
	defer sched.Stop()

	logger.Info().
		Str("sharpe_refresh", cfg.Scheduler.SharpeRefreshCron).
		Str("alert_sweep", cfg.Scheduler.AlertSweepCron).
		Msg("analyticsd running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("shutdown signal received, stopping")
}

// marketSuffixNormalizer uppercases symbols and appends the exchange
// suffix when missing, so "bbca" and "BBCA.JK" name the same series.
func marketSuffixNormalizer(suffix string) func(string) string {
	return func(symbol string) string {
		s := strings.ToUpper(strings.TrimSpace(symbol))
		if suffix != "" && !strings.HasSuffix(s, strings.ToUpper(suffix)) {
			s += strings.ToUpper(suffix)
		}
		return s
	}
}
