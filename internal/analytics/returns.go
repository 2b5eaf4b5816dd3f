package analytics

import (
	"fmt"
	"math"
)

// MinSamples is the minimum number of daily returns (one trading year)
// required wherever annualized statistics are produced.
const MinSamples = 252

// DailyReturns converts an ordered closing-price series into simple daily
// returns: r[i] = p[i+1]/p[i] - 1. A series of fewer than two prices yields
// an empty slice.
func DailyReturns(closes []int64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	returns := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		returns[i-1] = float64(closes[i])/float64(closes[i-1]) - 1
	}
	return returns
}

// RequireSamples fails with ErrInsufficientData when fewer than min daily
// returns are available. Series are never silently truncated.
func RequireSamples(returns []float64, min int) error {
	if len(returns) < min {
		return fmt.Errorf("%w: have %d daily returns, need %d", ErrInsufficientData, len(returns), min)
	}
	return nil
}

// round4 rounds to 4 decimal places. Applied only when assembling results;
// intermediate computation keeps full precision.
func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
