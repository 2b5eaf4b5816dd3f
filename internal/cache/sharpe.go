// Package cache implements the derived-analytics store on Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/fintrackit/portfolio-analytics/internal/models"
)

const sharpeKeyPrefix = "sharpe:"

// SharpeStore persists one SharpeCacheEntry per symbol as a JSON value.
// Entries carry their own last-updated timestamp; staleness is an
// application rule, so no Redis TTL is set and an old entry stays readable.
type SharpeStore struct {
	client *redis.Client
}

// NewSharpeStore creates a store over the given Redis client.
func NewSharpeStore(client *redis.Client) *SharpeStore {
	return &SharpeStore{client: client}
}

// Get returns the cached entry for symbol, or nil when none exists.
func (s *SharpeStore) Get(ctx context.Context, symbol string) (*models.SharpeCacheEntry, error) {
	val, err := s.client.Get(ctx, sharpeKeyPrefix+symbol).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sharpe entry for %s: %w", symbol, err)
	}

	var entry models.SharpeCacheEntry
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		return nil, fmt.Errorf("failed to decode sharpe entry for %s: %w", symbol, err)
	}
	return &entry, nil
}

// Upsert replaces the entry for its symbol wholesale.
func (s *SharpeStore) Upsert(ctx context.Context, entry models.SharpeCacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode sharpe entry for %s: %w", entry.Symbol, err)
	}
	if err := s.client.Set(ctx, sharpeKeyPrefix+entry.Symbol, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store sharpe entry for %s: %w", entry.Symbol, err)
	}
	return nil
}
