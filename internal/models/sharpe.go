package models

import (
	"time"
)

// SharpeCacheEntry holds the cached annualized statistics for one symbol.
// One entry exists per symbol and is replaced wholesale on recomputation;
// an entry older than the refresh window is considered stale.
type SharpeCacheEntry struct {
	Symbol           string    `json:"symbol"`
	SharpeRatio      float64   `json:"sharpe_ratio"`
	AvgAnnualReturn  float64   `json:"avg_annual_return"`
	AnnualVolatility float64   `json:"annual_volatility"`
	LastUpdated      time.Time `json:"last_updated"`
}
