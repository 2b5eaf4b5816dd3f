package analytics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/fintrackit/portfolio-analytics/internal/models"
)

// attributionLookbackDays is how far back the engine searches for the latest
// closing price, tolerating weekends and short holiday runs.
const attributionLookbackDays = 7

// IRR solver parameters and the sanity clamp on the solved rate.
const (
	irrMaxIterations = 100
	irrTolerance     = 1e-6
	irrFloor         = -0.99
	irrCeiling       = 10.0
)

type cashFlow struct {
	amount float64
	date   time.Time
}

// AttributionEngine computes time-weighted and money-weighted returns for a
// transaction history, marking open positions at the latest cached price.
type AttributionEngine struct {
	prices *PriceSeriesCache
	now    func() time.Time
	log    zerolog.Logger
}

// NewAttributionEngine creates a return attribution engine over the given
// price cache.
func NewAttributionEngine(prices *PriceSeriesCache, log zerolog.Logger) *AttributionEngine {
	return &AttributionEngine{
		prices: prices,
		now:    time.Now,
		log:    log.With().Str("component", "attribution").Logger(),
	}
}

// Compute returns portfolio-level TWR and MWR plus a per-symbol breakdown.
// Portfolio TWR is the buy-value-weighted average of per-symbol TWRs;
// portfolio MWR is a single IRR over the union of all cash flows.
func (e *AttributionEngine) Compute(ctx context.Context, txs []models.Transaction) (models.AttributionResult, error) {
	var zero models.AttributionResult

	if len(txs) == 0 {
		return zero, fmt.Errorf("%w: no transactions provided", ErrInvalidRequest)
	}

	bySymbol := make(map[string][]models.Transaction)
	var symbols []string
	for _, tx := range txs {
		if _, seen := bySymbol[tx.StockCode]; !seen {
			symbols = append(symbols, tx.StockCode)
		}
		bySymbol[tx.StockCode] = append(bySymbol[tx.StockCode], tx)
	}
	sort.Strings(symbols)

	end := Day(e.now())
	start := end.AddDate(0, 0, -attributionLookbackDays)

	latestBars := make(map[string]models.PriceBar, len(symbols))
	for _, sym := range symbols {
		bars, err := e.prices.GetPrices(ctx, sym, start, end)
		if err != nil {
			if errors.Is(err, ErrNoData) {
				return zero, fmt.Errorf("%w: %s", ErrNoRecentPrice, sym)
			}
			return zero, err
		}
		latestBars[sym] = bars[len(bars)-1]
	}

	var (
		totalInvestment float64
		weightedTWR     float64
		portfolioFlows  []cashFlow
		breakdown       = make(map[string]models.SymbolReturn, len(symbols))
		startDate       time.Time
		endDate         time.Time
	)

	for _, sym := range symbols {
		symTxs := bySymbol[sym]
		latest := latestBars[sym]

		var buyValue float64
		for _, tx := range symTxs {
			if tx.Type == models.TransactionTypeBuy {
				buyValue += float64(tx.TotalValue)
			}
		}
		totalInvestment += buyValue

		twr := timeWeightedReturn(symTxs, latest.ClosingPrice)
		weightedTWR += twr * buyValue

		flows := symbolCashFlows(symTxs, latest)
		mwr := internalRateOfReturn(flows)
		breakdown[sym] = models.SymbolReturn{TWR: round4(twr), MWR: round4(mwr)}

		portfolioFlows = append(portfolioFlows, flows...)

		if startDate.IsZero() || flows[0].date.Before(startDate) {
			startDate = flows[0].date
		}
		if latest.TradingDate.After(endDate) {
			endDate = latest.TradingDate
		}
	}

	portfolioTWR := 0.0
	if totalInvestment > 0 {
		portfolioTWR = weightedTWR / totalInvestment
	}
	portfolioMWR := internalRateOfReturn(portfolioFlows)

	return models.AttributionResult{
		PortfolioTWR:    round4(portfolioTWR),
		PortfolioMWR:    round4(portfolioMWR),
		StartDate:       startDate,
		EndDate:         endDate,
		CalculationDate: e.now(),
		BySymbol:        breakdown,
	}, nil
}

// timeWeightedReturn geometrically links holding-period returns between dated
// checkpoints. Same-day transactions merge into one checkpoint whose price is
// the value-weighted average over the day's closing share count; a final
// period marks any open position at the latest market price. A symbol that
// never held shares returns 0.
func timeWeightedReturn(txs []models.Transaction, latestPrice int64) float64 {
	if len(txs) == 0 {
		return 0
	}

	sorted := make([]models.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TransactionDate.Before(sorted[j].TransactionDate)
	})

	var factors []float64
	var shares int64
	var lastPrice float64
	havePrice := false

	for i := 0; i < len(sorted); {
		day := Day(sorted[i].TransactionDate)
		j := i
		for j < len(sorted) && Day(sorted[j].TransactionDate).Equal(day) {
			j++
		}
		group := sorted[i:j]

		dayShares := shares
		dayValue := 0.0
		if havePrice {
			dayValue = float64(dayShares) * lastPrice
		}
		for _, tx := range group {
			if tx.Type == models.TransactionTypeBuy {
				dayValue += float64(tx.TotalValue)
				dayShares += tx.Quantity
			} else {
				dayValue -= float64(tx.TotalValue)
				dayShares -= tx.Quantity
			}
		}

		var dayPrice float64
		if dayShares > 0 {
			dayPrice = dayValue / float64(dayShares)
		} else {
			dayPrice = float64(group[len(group)-1].PricePerShare)
		}

		if shares > 0 && havePrice {
			factors = append(factors, dayPrice/lastPrice)
		}

		shares = dayShares
		lastPrice = dayPrice
		havePrice = true
		i = j
	}

	if shares > 0 && havePrice {
		factors = append(factors, float64(latestPrice)/lastPrice)
	}

	if len(factors) == 0 {
		return 0
	}
	product := 1.0
	for _, f := range factors {
		product *= f
	}
	return product - 1
}

// symbolCashFlows builds the dated cash-flow series for one symbol: buys are
// outflows, sells inflows, and an open position contributes a synthetic final
// inflow at the latest price date.
func symbolCashFlows(txs []models.Transaction, latest models.PriceBar) []cashFlow {
	sorted := make([]models.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TransactionDate.Before(sorted[j].TransactionDate)
	})

	flows := make([]cashFlow, 0, len(sorted)+1)
	var shares int64
	for _, tx := range sorted {
		amount := float64(tx.TotalValue)
		if tx.Type == models.TransactionTypeBuy {
			amount = -amount
			shares += tx.Quantity
		} else {
			shares -= tx.Quantity
		}
		flows = append(flows, cashFlow{amount: amount, date: tx.TransactionDate})
	}

	if shares > 0 {
		flows = append(flows, cashFlow{
			amount: float64(shares * latest.ClosingPrice),
			date:   latest.TradingDate,
		})
	}
	return flows
}

// internalRateOfReturn solves NPV(r) = 0 over dated cash flows with secant
// iteration, discounting by elapsed year-fractions from the first flow. The
// result is clamped to [irrFloor, irrCeiling]; fewer than two flows yield 0.
func internalRateOfReturn(flows []cashFlow) float64 {
	if len(flows) < 2 {
		return 0
	}

	sorted := make([]cashFlow, len(flows))
	copy(sorted, flows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].date.Before(sorted[j].date)
	})

	t0 := sorted[0].date
	years := make([]float64, len(sorted))
	for i, f := range sorted {
		years[i] = f.date.Sub(t0).Seconds() / (365.25 * 24 * 3600)
	}

	npv := func(rate float64) float64 {
		var sum float64
		for i, f := range sorted {
			sum += f.amount / math.Pow(1+rate, years[i])
		}
		return sum
	}

	x0, x1 := 0.0, 0.1
	for i := 0; i < irrMaxIterations; i++ {
		f0, f1 := npv(x0), npv(x1)
		if math.Abs(f1) < irrTolerance {
			break
		}
		if f0 == f1 {
			break
		}
		next := x1 - f1*(x1-x0)/(f1-f0)
		x0, x1 = x1, next
	}

	if math.IsNaN(x1) || math.IsInf(x1, 0) {
		return 0
	}
	return math.Max(math.Min(x1, irrCeiling), irrFloor)
}
