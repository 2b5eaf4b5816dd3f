package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/fintrackit/portfolio-analytics/internal/models"
)

// RangeCalculator derives the feasible return and volatility intervals for an
// asset universe by solving the two corner portfolios.
type RangeCalculator struct {
	prices *PriceSeriesCache
	now    func() time.Time
	log    zerolog.Logger
}

// NewRangeCalculator creates a feasible-range calculator over the given
// price cache.
func NewRangeCalculator(prices *PriceSeriesCache, log zerolog.Logger) *RangeCalculator {
	return &RangeCalculator{
		prices: prices,
		now:    time.Now,
		log:    log.With().Str("component", "range_calculator").Logger(),
	}
}

// Ranges computes the achievable return and volatility intervals for 2-5
// symbols. The lower corner is the global-minimum-volatility portfolio; the
// maximum return is the best single asset (the corner of return maximization
// on the no-short simplex); the upper volatility is that of the
// return-maximizing portfolio.
func (r *RangeCalculator) Ranges(ctx context.Context, symbols []string) (models.FeasibleRanges, error) {
	var zero models.FeasibleRanges

	if len(symbols) < MinUniverseSize || len(symbols) > MaxUniverseSize {
		return zero, fmt.Errorf("%w: need %d-%d symbols, got %d",
			ErrInvalidRequest, MinUniverseSize, MaxUniverseSize, len(symbols))
	}

	mu, sigma, err := assetStatistics(ctx, r.prices, symbols, r.now())
	if err != nil {
		return zero, err
	}

	minVolWeights, err := solveWeights(len(symbols), func(w []float64) float64 {
		return portfolioVolatility(sigma, w)
	})
	if err != nil {
		return zero, fmt.Errorf("%w: minimum volatility portfolio: %v", ErrRangeComputationFailed, err)
	}
	minVolatility := portfolioVolatility(sigma, minVolWeights)
	minReturn := portfolioReturn(mu, minVolWeights)

	maxReturn := mu[0]
	for _, m := range mu[1:] {
		if m > maxReturn {
			maxReturn = m
		}
	}

	maxRetWeights, err := solveWeights(len(symbols), func(w []float64) float64 {
		return -portfolioReturn(mu, w)
	})
	if err != nil {
		return zero, fmt.Errorf("%w: maximum return portfolio: %v", ErrRangeComputationFailed, err)
	}
	maxVolatility := portfolioVolatility(sigma, maxRetWeights)
	if maxVolatility < minVolatility {
		// The return maximizer can land on a lower-variance corner when mean
		// returns are nearly equal; the interval must stay well formed.
		maxVolatility = minVolatility
	}

	return models.FeasibleRanges{
		ReturnRange: models.RangeValues{
			Min: round4(minReturn),
			Max: round4(maxReturn),
		},
		VolatilityRange: models.RangeValues{
			Min: round4(minVolatility),
			Max: round4(maxVolatility),
		},
	}, nil
}
