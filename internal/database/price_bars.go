package database

import (
	"context"
	"fmt"
	"time"

	"github.com/fintrackit/portfolio-analytics/internal/models"
)

// GetBarsInRange retrieves the daily bars for a symbol within [from, to],
// ordered by trading date ascending.
func (db *DB) GetBarsInRange(ctx context.Context, symbol string, from, to time.Time) ([]models.PriceBar, error) {
	query := `
		SELECT symbol, trading_date, closing_price, volume_thousands, created_at
		FROM price_bars
		WHERE symbol = $1 AND trading_date >= $2 AND trading_date <= $3
		ORDER BY trading_date ASC
	`
	rows, err := db.conn.QueryContext(ctx, query, symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get price bars: %w", err)
	}
	defer rows.Close()

	var bars []models.PriceBar
	for rows.Next() {
		var b models.PriceBar
		if err := rows.Scan(&b.Symbol, &b.TradingDate, &b.ClosingPrice, &b.VolumeThousands, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan price bar: %w", err)
		}
		b.TradingDate = b.TradingDate.UTC()
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate price bars: %w", err)
	}

	return bars, nil
}

// GetExistingDates returns every trading date already stored for a symbol,
// used to avoid writing duplicate bars after a source fetch.
func (db *DB) GetExistingDates(ctx context.Context, symbol string) (map[time.Time]bool, error) {
	query := `SELECT trading_date FROM price_bars WHERE symbol = $1`
	rows, err := db.conn.QueryContext(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to get existing dates: %w", err)
	}
	defer rows.Close()

	dates := make(map[time.Time]bool)
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan trading date: %w", err)
		}
		y, m, day := d.UTC().Date()
		dates[time.Date(y, m, day, 0, 0, 0, 0, time.UTC)] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trading dates: %w", err)
	}

	return dates, nil
}

// PutBarsIfAbsent inserts the given bars, silently skipping any
// (symbol, trading_date) that already exists. Bars are immutable once
// stored, so losing a concurrent race is harmless.
func (db *DB) PutBarsIfAbsent(ctx context.Context, bars []models.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO price_bars (symbol, trading_date, closing_price, volume_thousands, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (symbol, trading_date) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx, b.Symbol, b.TradingDate, b.ClosingPrice, b.VolumeThousands, now); err != nil {
			return fmt.Errorf("failed to insert price bar for %s on %s: %w",
				b.Symbol, b.TradingDate.Format("2006-01-02"), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
