package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fintrackit/portfolio-analytics/internal/models"
)

// UpsertWatchlistEntry adds a symbol to the watchlist or updates its flags.
func (db *DB) UpsertWatchlistEntry(ctx context.Context, w *models.WatchlistEntry) error {
	query := `
		INSERT INTO watchlist (symbol, enabled, notes, added_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (symbol) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			notes = EXCLUDED.notes,
			updated_at = EXCLUDED.updated_at
	`
	now := time.Now()
	_, err := db.conn.ExecContext(ctx, query, w.Symbol, w.Enabled, w.Notes, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert watchlist entry: %w", err)
	}
	w.AddedAt = now
	w.UpdatedAt = now
	return nil
}

// GetWatchlistEntry retrieves a watchlist entry by symbol.
func (db *DB) GetWatchlistEntry(ctx context.Context, symbol string) (*models.WatchlistEntry, error) {
	query := `
		SELECT symbol, enabled, notes, added_at, updated_at
		FROM watchlist
		WHERE symbol = $1
	`
	var w models.WatchlistEntry
	var notes sql.NullString

	err := db.conn.QueryRowContext(ctx, query, symbol).Scan(
		&w.Symbol, &w.Enabled, &notes, &w.AddedAt, &w.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("watchlist entry not found: %s", symbol)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get watchlist entry: %w", err)
	}

	if notes.Valid {
		w.Notes = notes.String
	}
	return &w, nil
}

// GetEnabledWatchlistSymbols returns the symbols the scheduler keeps warm.
func (db *DB) GetEnabledWatchlistSymbols(ctx context.Context) ([]string, error) {
	query := `
		SELECT symbol
		FROM watchlist
		WHERE enabled = true
		ORDER BY symbol ASC
	`
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get watchlist symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, symbol)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate watchlist symbols: %w", err)
	}

	return symbols, nil
}

// SetWatchlistEnabled toggles a watchlist entry.
func (db *DB) SetWatchlistEnabled(ctx context.Context, symbol string, enabled bool) error {
	query := `UPDATE watchlist SET enabled = $2, updated_at = $3 WHERE symbol = $1`
	result, err := db.conn.ExecContext(ctx, query, symbol, enabled, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update watchlist entry: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("watchlist entry not found: %s", symbol)
	}
	return nil
}

// DeleteWatchlistEntry removes a symbol from the watchlist.
func (db *DB) DeleteWatchlistEntry(ctx context.Context, symbol string) error {
	query := `DELETE FROM watchlist WHERE symbol = $1`
	result, err := db.conn.ExecContext(ctx, query, symbol)
	if err != nil {
		return fmt.Errorf("failed to delete watchlist entry: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("watchlist entry not found: %s", symbol)
	}
	return nil
}
