package models

import (
	"time"
)

// PriceBar represents one daily closing bar for a symbol. Closing prices are
// stored as integers in the smallest reportable currency unit. A bar is
// uniquely keyed by (symbol, trading date) and is immutable once written.
type PriceBar struct {
	Symbol          string    `json:"symbol"`
	TradingDate     time.Time `json:"trading_date"`
	ClosingPrice    int64     `json:"closing_price"`
	VolumeThousands int64     `json:"volume_thousands"`
	CreatedAt       time.Time `json:"created_at"`
}

// SourceBar is a raw daily bar as returned by the external price source,
// already converted to integer currency units at the client boundary.
type SourceBar struct {
	Date            time.Time `json:"date"`
	ClosingPrice    int64     `json:"closing_price"`
	VolumeThousands int64     `json:"volume_thousands"`
}
