package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fintrackit/portfolio-analytics/internal/models"
)

// CreatePriceAlert inserts a new price alert.
func (db *DB) CreatePriceAlert(ctx context.Context, a *models.PriceAlert) error {
	query := `
		INSERT INTO price_alerts (
			symbol, trigger_type, trigger_price, notification_hour,
			is_active, is_repeating, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	now := time.Now()
	err := db.conn.QueryRowContext(ctx, query,
		a.Symbol, a.TriggerType, a.TriggerPrice, a.NotificationHour,
		a.IsActive, a.IsRepeating, now,
	).Scan(&a.ID)

	if err != nil {
		return fmt.Errorf("failed to create price alert: %w", err)
	}
	a.CreatedAt = now
	return nil
}

// GetPriceAlertByID retrieves a price alert by ID.
func (db *DB) GetPriceAlertByID(ctx context.Context, id int) (*models.PriceAlert, error) {
	query := `
		SELECT id, symbol, trigger_type, trigger_price, notification_hour,
		       is_active, is_repeating, last_checked, last_notified, created_at
		FROM price_alerts
		WHERE id = $1
	`
	a, err := scanPriceAlert(db.conn.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("price alert not found: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get price alert: %w", err)
	}
	return a, nil
}

// GetActiveAlertsForHour retrieves active alerts scheduled for the given
// UTC notification hour.
func (db *DB) GetActiveAlertsForHour(ctx context.Context, hour int) ([]*models.PriceAlert, error) {
	query := `
		SELECT id, symbol, trigger_type, trigger_price, notification_hour,
		       is_active, is_repeating, last_checked, last_notified, created_at
		FROM price_alerts
		WHERE is_active = true AND notification_hour = $1
		ORDER BY symbol ASC, id ASC
	`
	return db.scanPriceAlerts(db.conn.QueryContext(ctx, query, hour))
}

// GetPriceAlertsBySymbol retrieves all alerts for a symbol.
func (db *DB) GetPriceAlertsBySymbol(ctx context.Context, symbol string) ([]*models.PriceAlert, error) {
	query := `
		SELECT id, symbol, trigger_type, trigger_price, notification_hour,
		       is_active, is_repeating, last_checked, last_notified, created_at
		FROM price_alerts
		WHERE symbol = $1
		ORDER BY id ASC
	`
	return db.scanPriceAlerts(db.conn.QueryContext(ctx, query, symbol))
}

// MarkAlertChecked records an evaluation that did not trigger.
func (db *DB) MarkAlertChecked(ctx context.Context, id int, checkedAt time.Time) error {
	query := `UPDATE price_alerts SET last_checked = $2 WHERE id = $1`
	result, err := db.conn.ExecContext(ctx, query, id, checkedAt)
	if err != nil {
		return fmt.Errorf("failed to mark alert checked: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("price alert not found: %d", id)
	}
	return nil
}

// MarkAlertTriggered records a trigger; one-shot alerts are deactivated.
func (db *DB) MarkAlertTriggered(ctx context.Context, id int, triggeredAt time.Time, deactivate bool) error {
	query := `
		UPDATE price_alerts
		SET last_checked = $2, last_notified = $2, is_active = (NOT $3 AND is_active)
		WHERE id = $1
	`
	result, err := db.conn.ExecContext(ctx, query, id, triggeredAt, deactivate)
	if err != nil {
		return fmt.Errorf("failed to mark alert triggered: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("price alert not found: %d", id)
	}
	return nil
}

// DeletePriceAlert removes a price alert.
func (db *DB) DeletePriceAlert(ctx context.Context, id int) error {
	query := `DELETE FROM price_alerts WHERE id = $1`
	result, err := db.conn.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete price alert: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("price alert not found: %d", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPriceAlert(row rowScanner) (*models.PriceAlert, error) {
	var a models.PriceAlert
	var lastChecked, lastNotified sql.NullTime

	err := row.Scan(
		&a.ID, &a.Symbol, &a.TriggerType, &a.TriggerPrice, &a.NotificationHour,
		&a.IsActive, &a.IsRepeating, &lastChecked, &lastNotified, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastChecked.Valid {
		a.LastChecked = &lastChecked.Time
	}
	if lastNotified.Valid {
		a.LastNotified = &lastNotified.Time
	}
	return &a, nil
}

func (db *DB) scanPriceAlerts(rows *sql.Rows, err error) ([]*models.PriceAlert, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query price alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*models.PriceAlert
	for rows.Next() {
		a, err := scanPriceAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate price alerts: %w", err)
	}

	return alerts, nil
}
