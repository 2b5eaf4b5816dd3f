package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/fintrackit/portfolio-analytics/internal/models"
)

// RiskFreeRate is the fixed annual risk-free rate used in Sharpe ratios.
const RiskFreeRate = 0.055

// tradingDaysPerYear is the annualization factor for daily statistics.
const tradingDaysPerYear = 252

// historyYears is the lookback window for annualized statistics.
const historyYears = 3

// Annualize converts daily simple returns into an annualized mean return and
// annualized volatility: (1+mean)^252 - 1 and stdev*sqrt(252).
func Annualize(daily []float64) (avgAnnualReturn, annualVolatility float64) {
	mean := stat.Mean(daily, nil)
	avgAnnualReturn = math.Pow(1+mean, tradingDaysPerYear) - 1
	annualVolatility = stat.PopStdDev(daily, nil) * math.Sqrt(tradingDaysPerYear)
	return avgAnnualReturn, annualVolatility
}

// SharpeRatio computes the excess return per unit of volatility against the
// fixed risk-free rate. Zero volatility yields zero rather than an error.
func SharpeRatio(avgAnnualReturn, annualVolatility float64) float64 {
	if annualVolatility == 0 {
		return 0
	}
	return (avgAnnualReturn - RiskFreeRate) / annualVolatility
}

// MeanCovariance aligns the given daily-return series to a common length,
// trimming from the oldest end so all series share the most recent dates,
// then returns the annualized mean-return vector and the 252-scaled sample
// covariance matrix in the order given by symbols. Fails with
// ErrInsufficientData when the common length is below MinSamples.
func MeanCovariance(symbols []string, series map[string][]float64) ([]float64, *mat.SymDense, error) {
	n := len(symbols)
	minLen := -1
	for _, sym := range symbols {
		if minLen < 0 || len(series[sym]) < minLen {
			minLen = len(series[sym])
		}
	}
	if minLen < MinSamples {
		return nil, nil, fmt.Errorf("%w: common trimmed length %d, need %d", ErrInsufficientData, minLen, MinSamples)
	}

	// Observations in rows, assets in columns.
	data := mat.NewDense(minLen, n, nil)
	mu := make([]float64, n)
	for j, sym := range symbols {
		r := series[sym]
		trimmed := r[len(r)-minLen:]
		for i, v := range trimmed {
			data.Set(i, j, v)
		}
		mu[j] = math.Pow(1+stat.Mean(trimmed, nil), tradingDaysPerYear) - 1
	}

	cov := mat.NewSymDense(n, nil)
	stat.CovarianceMatrix(cov, data, nil)

	scaled := mat.NewSymDense(n, nil)
	scaled.ScaleSym(tradingDaysPerYear, cov)

	return mu, scaled, nil
}

// assetStatistics fetches a 3-year daily history ending at now for every
// symbol and reduces it to the annualized mean vector and covariance matrix
// shared by the optimizer and the feasible-range calculator.
func assetStatistics(ctx context.Context, prices *PriceSeriesCache, symbols []string, now time.Time) ([]float64, *mat.SymDense, error) {
	end := Day(now)
	start := end.AddDate(0, 0, -historyYears*365)

	series := make(map[string][]float64, len(symbols))
	for _, sym := range symbols {
		bars, err := prices.GetPrices(ctx, sym, start, end)
		if err != nil {
			return nil, nil, err
		}
		series[sym] = DailyReturns(closingPrices(bars))
	}

	return MeanCovariance(symbols, series)
}

func closingPrices(bars []models.PriceBar) []int64 {
	closes := make([]int64, len(bars))
	for i, b := range bars {
		closes[i] = b.ClosingPrice
	}
	return closes
}
