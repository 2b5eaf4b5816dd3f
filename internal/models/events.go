package models

import (
	"time"
)

// Analytics event type constants
const (
	EventPriceSeriesCached = "PRICE_SERIES_CACHED"
	EventSharpeRefreshed   = "SHARPE_REFRESHED"
	EventAlertTriggered    = "ALERT_TRIGGERED"
)

// AnalyticsEvent is the message published to Kafka when the engine caches a
// price series, refreshes a Sharpe entry, or trips a price alert.
type AnalyticsEvent struct {
	EventType    string            `json:"event_type"`
	Symbol       string            `json:"symbol"`
	BarsCached   int               `json:"bars_cached,omitempty"`
	Sharpe       *SharpeCacheEntry `json:"sharpe,omitempty"`
	Alert        *PriceAlert       `json:"alert,omitempty"`
	CurrentPrice int64             `json:"current_price,omitempty"`
	Timestamp    time.Time         `json:"timestamp"`
}
