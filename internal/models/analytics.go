package models

import (
	"time"
)

// Optimization criterion constants
const (
	CriterionReturn     = "return"
	CriterionVolatility = "volatility"
)

// RangeValues is an inclusive [min, max] interval.
type RangeValues struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// FeasibleRanges describes the achievable return and volatility intervals
// for a given asset universe under no-short, fully-invested constraints.
type FeasibleRanges struct {
	ReturnRange     RangeValues `json:"return_range"`
	VolatilityRange RangeValues `json:"volatility_range"`
}

// PortfolioAllocation is the optimized weight assigned to one symbol.
type PortfolioAllocation struct {
	Symbol string  `json:"stock_code"`
	Weight float64 `json:"weight"`
}

// OptimizationResult is the outcome of a constrained mean-variance
// optimization. Allocations preserve the request's symbol order and the
// weights sum to one.
type OptimizationResult struct {
	Allocations        []PortfolioAllocation `json:"allocations"`
	ExpectedReturn     float64               `json:"expected_return"`
	ExpectedVolatility float64               `json:"expected_volatility"`
	SharpeRatio        float64               `json:"sharpe_ratio"`
	RiskFreeRate       float64               `json:"risk_free_rate"`
	Criterion          string                `json:"optimization_criteria"`
	TargetValue        float64               `json:"target_value"`
}

// SymbolReturn is the per-holding return breakdown.
type SymbolReturn struct {
	TWR float64 `json:"twr"`
	MWR float64 `json:"mwr"`
}

// AttributionResult holds time-weighted and money-weighted portfolio returns
// computed from a transaction history.
type AttributionResult struct {
	PortfolioTWR    float64                 `json:"portfolio_twr"`
	PortfolioMWR    float64                 `json:"portfolio_mwr"`
	StartDate       time.Time               `json:"start_date"`
	EndDate         time.Time               `json:"end_date"`
	CalculationDate time.Time               `json:"calculation_date"`
	BySymbol        map[string]SymbolReturn `json:"stock_breakdown"`
}
