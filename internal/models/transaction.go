package models

import (
	"time"
)

// Transaction type constants
const (
	TransactionTypeBuy  = "buy"
	TransactionTypeSell = "sell"
)

// Transaction is a single buy or sell recorded against a stock. Transactions
// are owned by the external ledger; the analytics engine treats them as
// read-only input. Monetary fields are integers in the smallest currency unit.
type Transaction struct {
	StockCode       string    `json:"stock_code"`
	Type            string    `json:"transaction_type"`
	Quantity        int64     `json:"quantity"`
	PricePerShare   int64     `json:"price_per_share"`
	TotalValue      int64     `json:"total_value"`
	TransactionDate time.Time `json:"transaction_date"`
}
