package models

import (
	"time"
)

// Alert trigger type constants
const (
	TriggerTypeAbove = "above"
	TriggerTypeBelow = "below"
)

// PriceAlert is a price threshold watched on behalf of a user. Alerts are
// evaluated once per hour against the latest cached closing price; delivery
// of the resulting event is not this service's concern.
type PriceAlert struct {
	ID               int        `json:"id"`
	Symbol           string     `json:"symbol"`
	TriggerType      string     `json:"trigger_type"`
	TriggerPrice     int64      `json:"trigger_price"`
	NotificationHour int        `json:"notification_hour"`
	IsActive         bool       `json:"is_active"`
	IsRepeating      bool       `json:"is_repeating"`
	LastChecked      *time.Time `json:"last_checked,omitempty"`
	LastNotified     *time.Time `json:"last_notified,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}
