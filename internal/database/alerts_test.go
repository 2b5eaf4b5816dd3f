package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintrackit/portfolio-analytics/internal/models"
)

func TestPriceAlertsRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)
	ctx := context.Background()

	newAlert := func(symbol string, hour int) *models.PriceAlert {
		return &models.PriceAlert{
			Symbol:           symbol,
			TriggerType:      models.TriggerTypeAbove,
			TriggerPrice:     1000000,
			NotificationHour: hour,
			IsActive:         true,
		}
	}

	t.Run("CreatePriceAlert assigns id", func(t *testing.T) {
		testDB.TruncateAll(t)

		alert := newAlert("BBCA.JK", 9)
		err := testDB.CreatePriceAlert(ctx, alert)
		require.NoError(t, err)
		assert.NotZero(t, alert.ID)

		retrieved, err := testDB.GetPriceAlertByID(ctx, alert.ID)
		require.NoError(t, err)
		assert.Equal(t, "BBCA.JK", retrieved.Symbol)
		assert.Equal(t, models.TriggerTypeAbove, retrieved.TriggerType)
		assert.Equal(t, int64(1000000), retrieved.TriggerPrice)
		assert.Nil(t, retrieved.LastChecked)
		assert.Nil(t, retrieved.LastNotified)
	})

	t.Run("GetPriceAlertByID returns error when missing", func(t *testing.T) {
		testDB.TruncateAll(t)

		_, err := testDB.GetPriceAlertByID(ctx, 9999)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("GetActiveAlertsForHour filters by hour and active flag", func(t *testing.T) {
		testDB.TruncateAll(t)

		a1 := newAlert("BBCA.JK", 9)
		a2 := newAlert("TLKM.JK", 9)
		a3 := newAlert("ASII.JK", 15)
		inactive := newAlert("BMRI.JK", 9)
		inactive.IsActive = false

		for _, a := range []*models.PriceAlert{a1, a2, a3, inactive} {
			require.NoError(t, testDB.CreatePriceAlert(ctx, a))
		}

		alerts, err := testDB.GetActiveAlertsForHour(ctx, 9)
		require.NoError(t, err)
		require.Len(t, alerts, 2)
		assert.Equal(t, "BBCA.JK", alerts[0].Symbol)
		assert.Equal(t, "TLKM.JK", alerts[1].Symbol)
	})

	t.Run("GetPriceAlertsBySymbol returns all alerts for symbol", func(t *testing.T) {
		testDB.TruncateAll(t)

		require.NoError(t, testDB.CreatePriceAlert(ctx, newAlert("BBCA.JK", 9)))
		below := newAlert("BBCA.JK", 15)
		below.TriggerType = models.TriggerTypeBelow
		require.NoError(t, testDB.CreatePriceAlert(ctx, below))
		require.NoError(t, testDB.CreatePriceAlert(ctx, newAlert("TLKM.JK", 9)))

		alerts, err := testDB.GetPriceAlertsBySymbol(ctx, "BBCA.JK")
		require.NoError(t, err)
		assert.Len(t, alerts, 2)
	})

	t.Run("MarkAlertChecked records timestamp only", func(t *testing.T) {
		testDB.TruncateAll(t)

		alert := newAlert("BBCA.JK", 9)
		require.NoError(t, testDB.CreatePriceAlert(ctx, alert))

		checkedAt := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
		require.NoError(t, testDB.MarkAlertChecked(ctx, alert.ID, checkedAt))

		retrieved, err := testDB.GetPriceAlertByID(ctx, alert.ID)
		require.NoError(t, err)
		require.NotNil(t, retrieved.LastChecked)
		assert.Nil(t, retrieved.LastNotified)
		assert.True(t, retrieved.IsActive)
	})

	t.Run("MarkAlertTriggered deactivates one-shot alerts", func(t *testing.T) {
		testDB.TruncateAll(t)

		alert := newAlert("BBCA.JK", 9)
		require.NoError(t, testDB.CreatePriceAlert(ctx, alert))

		triggeredAt := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
		require.NoError(t, testDB.MarkAlertTriggered(ctx, alert.ID, triggeredAt, true))

		retrieved, err := testDB.GetPriceAlertByID(ctx, alert.ID)
		require.NoError(t, err)
		require.NotNil(t, retrieved.LastNotified)
		require.NotNil(t, retrieved.LastChecked)
		assert.False(t, retrieved.IsActive)
	})

	t.Run("MarkAlertTriggered keeps repeating alerts active", func(t *testing.T) {
		testDB.TruncateAll(t)

		alert := newAlert("BBCA.JK", 9)
		alert.IsRepeating = true
		require.NoError(t, testDB.CreatePriceAlert(ctx, alert))

		triggeredAt := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
		require.NoError(t, testDB.MarkAlertTriggered(ctx, alert.ID, triggeredAt, false))

		retrieved, err := testDB.GetPriceAlertByID(ctx, alert.ID)
		require.NoError(t, err)
		require.NotNil(t, retrieved.LastNotified)
		assert.True(t, retrieved.IsActive)
	})

	t.Run("DeletePriceAlert removes alert", func(t *testing.T) {
		testDB.TruncateAll(t)

		alert := newAlert("BBCA.JK", 9)
		require.NoError(t, testDB.CreatePriceAlert(ctx, alert))
		require.NoError(t, testDB.DeletePriceAlert(ctx, alert.ID))

		_, err := testDB.GetPriceAlertByID(ctx, alert.ID)
		require.Error(t, err)
	})
}
