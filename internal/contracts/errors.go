package contracts

import "errors"

// Error taxonomy. Per-ticker data gaps are not errors: they degrade the
// dataset with a logged warning and the computation produces a best-effort
// result. Only whole-computation failures surface to callers.
// A statistic computed over too small a sample is not an error either: the
// corresponding metric field is nil.
var (
	// ErrAllFetchesFailed: every requested series was unavailable. The
	// computation cannot produce a meaningful result.
	ErrAllFetchesFailed = errors.New("all price history fetches failed")

	// ErrMissingBenchmark: settings carry no benchmark ticker.
	ErrMissingBenchmark = errors.New("benchmark ticker not configured")

	// ErrMissingRiskFreeRate: settings carry no usable (non-negative)
	// risk-free rate.
	ErrMissingRiskFreeRate = errors.New("risk-free rate not configured")

	// ErrNotFound: a requested record does not exist.
	ErrNotFound = errors.New("record not found")
)
