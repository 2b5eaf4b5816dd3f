package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDailyReturns(t *testing.T) {
	t.Run("produces n-1 returns", func(t *testing.T) {
		returns := DailyReturns([]int64{1000, 1100, 1045})
		assert.Len(t, returns, 2)
		assert.InDelta(t, 0.10, returns[0], 1e-9)
		assert.InDelta(t, -0.05, returns[1], 1e-9)
	})

	t.Run("fewer than two prices yields nothing", func(t *testing.T) {
		assert.Empty(t, DailyReturns(nil))
		assert.Empty(t, DailyReturns([]int64{1000}))
	})

	t.Run("flat prices give zero returns", func(t *testing.T) {
		for _, r := range DailyReturns([]int64{500, 500, 500, 500}) {
			assert.Zero(t, r)
		}
	})
}

func TestRequireSamples(t *testing.T) {
	exactly := make([]float64, MinSamples)
	assert.NoError(t, RequireSamples(exactly, MinSamples))

	short := make([]float64, MinSamples-1)
	err := RequireSamples(short, MinSamples)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestRound4(t *testing.T) {
	assert.InDelta(t, 0.1235, round4(0.123456), 1e-12)
	assert.InDelta(t, -0.1235, round4(-0.123456), 1e-12)
	assert.InDelta(t, 0.1, round4(0.1), 1e-12)
	assert.InDelta(t, 0.0, round4(0.000049), 1e-12)
}
