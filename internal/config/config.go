package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	MarketData MarketDataConfig
	Analytics  AnalyticsConfig
	Scheduler  SchedulerConfig
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// MarketDataConfig holds upstream price provider configuration
type MarketDataConfig struct {
	BaseURL   string
	APIKey    string
	RateLimit float64
	Timeout   time.Duration
}

// AnalyticsConfig holds analytics engine configuration
type AnalyticsConfig struct {
	MarketSuffix string
}

// SchedulerConfig holds cron expressions for background jobs
type SchedulerConfig struct {
	SharpeRefreshCron string
	AlertSweepCron    string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "portfolioanalytics"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			Topic:   getEnv("KAFKA_TOPIC", "analytics-events"),
		},
		MarketData: MarketDataConfig{
			BaseURL:   getEnv("MARKETDATA_BASE_URL", "https://eodhd.com/api"),
			APIKey:    getEnv("MARKETDATA_API_KEY", ""),
			RateLimit: getEnvFloat("MARKETDATA_RATE_LIMIT", 5),
			Timeout:   getEnvDuration("MARKETDATA_TIMEOUT", 30*time.Second),
		},
		Analytics: AnalyticsConfig{
			MarketSuffix: getEnv("MARKET_SUFFIX", ".JK"),
		},
		Scheduler: SchedulerConfig{
			SharpeRefreshCron: getEnv("SHARPE_REFRESH_CRON", "0 2 * * *"),
			AlertSweepCron:    getEnv("ALERT_SWEEP_CRON", "0 * * * *"),
		},
	}
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.DBName + "?sslmode=" + d.SSLMode
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
