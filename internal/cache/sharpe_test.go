package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/fintrackit/portfolio-analytics/internal/models"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Errorf("failed to terminate container: %v", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("failed to get redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestSharpeStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	client := setupTestRedis(t)
	store := NewSharpeStore(client)
	ctx := context.Background()

	t.Run("Get returns nil for a missing symbol", func(t *testing.T) {
		entry, err := store.Get(ctx, "MISSING.JK")
		require.NoError(t, err)
		assert.Nil(t, entry)
	})

	t.Run("Upsert then Get round-trips the entry", func(t *testing.T) {
		updated := time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)
		in := models.SharpeCacheEntry{
			Symbol:           "BBCA.JK",
			SharpeRatio:      0.8421,
			AvgAnnualReturn:  0.2235,
			AnnualVolatility: 0.2001,
			LastUpdated:      updated,
		}
		require.NoError(t, store.Upsert(ctx, in))

		out, err := store.Get(ctx, "BBCA.JK")
		require.NoError(t, err)
		require.NotNil(t, out)
		assert.Equal(t, in.Symbol, out.Symbol)
		assert.Equal(t, in.SharpeRatio, out.SharpeRatio)
		assert.Equal(t, in.AvgAnnualReturn, out.AvgAnnualReturn)
		assert.Equal(t, in.AnnualVolatility, out.AnnualVolatility)
		assert.True(t, updated.Equal(out.LastUpdated))
	})

	t.Run("Upsert replaces the previous entry wholesale", func(t *testing.T) {
		first := models.SharpeCacheEntry{Symbol: "TLKM.JK", SharpeRatio: 0.5, LastUpdated: time.Now().UTC()}
		require.NoError(t, store.Upsert(ctx, first))

		second := models.SharpeCacheEntry{Symbol: "TLKM.JK", SharpeRatio: -0.1, LastUpdated: time.Now().UTC()}
		require.NoError(t, store.Upsert(ctx, second))

		out, err := store.Get(ctx, "TLKM.JK")
		require.NoError(t, err)
		require.NotNil(t, out)
		assert.Equal(t, -0.1, out.SharpeRatio)
	})

	t.Run("entries are isolated per symbol", func(t *testing.T) {
		require.NoError(t, store.Upsert(ctx, models.SharpeCacheEntry{Symbol: "ASII.JK", SharpeRatio: 1.0}))
		require.NoError(t, store.Upsert(ctx, models.SharpeCacheEntry{Symbol: "BMRI.JK", SharpeRatio: 2.0}))

		a, err := store.Get(ctx, "ASII.JK")
		require.NoError(t, err)
		b, err := store.Get(ctx, "BMRI.JK")
		require.NoError(t, err)
		assert.Equal(t, 1.0, a.SharpeRatio)
		assert.Equal(t, 2.0, b.SharpeRatio)
	})
}
