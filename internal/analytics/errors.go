package analytics

import (
	"errors"
)

// Sentinel errors forming the engine's failure taxonomy. Callers match with
// errors.Is; wrapped detail carries the underlying cause.
var (
	// ErrInvalidRequest reports malformed input: cardinality violations,
	// conflicting parameters, or an empty transaction list.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidDateRange reports a malformed or inverted date range.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrNoData reports that no bars exist for a symbol and range even after
	// consulting the price source.
	ErrNoData = errors.New("no price data")

	// ErrNoRecentPrice reports that no closing price exists within the
	// attribution lookback window.
	ErrNoRecentPrice = errors.New("no recent price")

	// ErrRateLimited reports that the price source rejected the fetch due to
	// throttling. The engine never retries; callers may back off.
	ErrRateLimited = errors.New("price source rate limited")

	// ErrSourceUnavailable reports a transient price source failure.
	ErrSourceUnavailable = errors.New("price source unavailable")

	// ErrInsufficientData reports that fewer daily returns are available than
	// the annualization minimum.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrInfeasibleTarget reports that the optimizer could not satisfy the
	// requested return or volatility target.
	ErrInfeasibleTarget = errors.New("infeasible optimization target")

	// ErrRangeComputationFailed reports that a feasible-range sub-problem did
	// not converge.
	ErrRangeComputationFailed = errors.New("range computation failed")
)

// rateLimited is implemented by price source errors that signal throttling,
// so the engine can distinguish them without depending on a concrete client.
type rateLimited interface {
	RateLimited() bool
}

// isRateLimited reports whether err carries a throttling signal.
func isRateLimited(err error) bool {
	var rl rateLimited
	return errors.As(err, &rl) && rl.RateLimited()
}
