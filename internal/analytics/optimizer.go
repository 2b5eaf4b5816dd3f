package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/fintrackit/portfolio-analytics/internal/models"
)

// Universe size limits for optimization requests.
const (
	MinUniverseSize = 2
	MaxUniverseSize = 5
)

// penaltyWeight scales the quadratic constraint penalties added to the
// solver objective.
const penaltyWeight = 1000.0

// feasTol is the tolerance used when verifying the solved portfolio against
// the requested target.
const feasTol = 1e-3

// objective selects which constrained problem the optimizer solves. The
// variant is dispatched once at the start of Optimize.
type objective int

const (
	// minVolatilityGivenReturnFloor minimizes sqrt(w'Σw) subject to μ'w ≥ target.
	minVolatilityGivenReturnFloor objective = iota
	// maxReturnGivenVolatilityCeiling maximizes μ'w subject to sqrt(w'Σw) ≤ target.
	maxReturnGivenVolatilityCeiling
)

// OptimizeRequest asks for optimal weights over 2-5 symbols. Exactly one of
// TargetReturn and TargetVolatility must be set.
type OptimizeRequest struct {
	Symbols          []string `json:"stock_codes"`
	TargetReturn     *float64 `json:"target_return,omitempty"`
	TargetVolatility *float64 `json:"target_volatility,omitempty"`
}

// Optimizer solves constrained mean-variance problems over a small asset
// universe: no short selling, no leverage, weights summing to one.
type Optimizer struct {
	prices *PriceSeriesCache
	now    func() time.Time
	log    zerolog.Logger
}

// NewOptimizer creates a portfolio optimizer over the given price cache.
func NewOptimizer(prices *PriceSeriesCache, log zerolog.Logger) *Optimizer {
	return &Optimizer{
		prices: prices,
		now:    time.Now,
		log:    log.With().Str("component", "optimizer").Logger(),
	}
}

// Optimize solves the requested constrained problem over a 3-year return
// history and reports the optimal weights with their portfolio statistics.
func (o *Optimizer) Optimize(ctx context.Context, req OptimizeRequest) (models.OptimizationResult, error) {
	var zero models.OptimizationResult

	if len(req.Symbols) < MinUniverseSize || len(req.Symbols) > MaxUniverseSize {
		return zero, fmt.Errorf("%w: need %d-%d symbols, got %d",
			ErrInvalidRequest, MinUniverseSize, MaxUniverseSize, len(req.Symbols))
	}
	if req.TargetReturn == nil && req.TargetVolatility == nil {
		return zero, fmt.Errorf("%w: must specify either target_return or target_volatility", ErrInvalidRequest)
	}
	if req.TargetReturn != nil && req.TargetVolatility != nil {
		return zero, fmt.Errorf("%w: cannot specify both target_return and target_volatility", ErrInvalidRequest)
	}

	mu, sigma, err := assetStatistics(ctx, o.prices, req.Symbols, o.now())
	if err != nil {
		return zero, err
	}

	var (
		obj    objective
		target float64
	)
	if req.TargetReturn != nil {
		obj, target = minVolatilityGivenReturnFloor, *req.TargetReturn
	} else {
		obj, target = maxReturnGivenVolatilityCeiling, *req.TargetVolatility
	}

	weights, err := solveWeights(len(req.Symbols), func(w []float64) float64 {
		switch obj {
		case minVolatilityGivenReturnFloor:
			shortfall := math.Max(0, target-portfolioReturn(mu, w))
			return portfolioVolatility(sigma, w) + penaltyWeight*shortfall*shortfall
		default:
			excess := math.Max(0, portfolioVolatility(sigma, w)-target)
			return -portfolioReturn(mu, w) + penaltyWeight*excess*excess
		}
	})
	if err != nil {
		return zero, fmt.Errorf("%w: %v", ErrInfeasibleTarget, err)
	}

	ret := portfolioReturn(mu, weights)
	vol := portfolioVolatility(sigma, weights)

	switch obj {
	case minVolatilityGivenReturnFloor:
		if ret < target-feasTol {
			return zero, fmt.Errorf("%w: best achievable return %.4f below target %.4f", ErrInfeasibleTarget, ret, target)
		}
	default:
		if vol > target+feasTol {
			return zero, fmt.Errorf("%w: best achievable volatility %.4f above target %.4f", ErrInfeasibleTarget, vol, target)
		}
	}

	result := models.OptimizationResult{
		Allocations:        make([]models.PortfolioAllocation, len(req.Symbols)),
		ExpectedReturn:     round4(ret),
		ExpectedVolatility: round4(vol),
		SharpeRatio:        round4(SharpeRatio(ret, vol)),
		RiskFreeRate:       round4(RiskFreeRate),
		Criterion:          models.CriterionReturn,
		TargetValue:        round4(target),
	}
	if obj == maxReturnGivenVolatilityCeiling {
		result.Criterion = models.CriterionVolatility
	}
	for i, sym := range req.Symbols {
		result.Allocations[i] = models.PortfolioAllocation{Symbol: sym, Weight: round4(weights[i])}
	}
	return result, nil
}

// solveWeights minimizes the penalized objective over the weight simplex:
// each candidate is projected into [0,1] bounds, a quadratic penalty holds
// the weights near sum one, and the final solution is projected and
// renormalized so the simplex constraints hold exactly.
func solveWeights(n int, penalized func(w []float64) float64) ([]float64, error) {
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			w := projectToBounds(x)
			sum := 0.0
			for _, v := range w {
				sum += v
			}
			return penalized(w) + penaltyWeight*(sum-1)*(sum-1)
		},
	}

	initial := make([]float64, n)
	for i := range initial {
		initial[i] = 1 / float64(n)
	}

	result, err := optimize.Minimize(problem, initial, nil, &optimize.NelderMead{})
	if err != nil || !solverConverged(result.Status) {
		// Retry with a quasi-Newton method before giving up.
		result, err = optimize.Minimize(problem, initial, nil, &optimize.BFGS{})
		if err != nil {
			return nil, fmt.Errorf("solver failed: %w", err)
		}
		if !solverConverged(result.Status) {
			return nil, fmt.Errorf("solver did not converge: status %v", result.Status)
		}
	}

	w := projectToBounds(result.X)
	sum := 0.0
	for _, v := range w {
		sum += v
	}
	if sum <= 0 {
		return nil, fmt.Errorf("solver produced degenerate weights")
	}
	for i := range w {
		w[i] /= sum
	}
	return w, nil
}

func solverConverged(s optimize.Status) bool {
	switch s {
	case optimize.Success, optimize.FunctionConvergence, optimize.GradientThreshold:
		return true
	}
	return false
}

func projectToBounds(x []float64) []float64 {
	w := make([]float64, len(x))
	for i, v := range x {
		w[i] = math.Max(0, math.Min(1, v))
	}
	return w
}

func portfolioReturn(mu []float64, w []float64) float64 {
	var r float64
	for i := range w {
		r += mu[i] * w[i]
	}
	return r
}

func portfolioVolatility(sigma *mat.SymDense, w []float64) float64 {
	var variance float64
	for i := range w {
		for j := range w {
			variance += w[i] * w[j] * sigma.At(i, j)
		}
	}
	return math.Sqrt(math.Max(variance, 0))
}
