package engine

import "math"

// tradingDaysPerYear is the annualization factor base for daily statistics.
const tradingDaysPerYear = 252

// RiskMetrics holds the computed risk statistics. A nil field means the
// statistic is unavailable for the given inputs (insufficient sample,
// degenerate benchmark). Fields are never NaN or Inf.
type RiskMetrics struct {
	// Volatility is the annualized population standard deviation of
	// daily returns, in percent.
	Volatility *float64 `json:"volatility,omitempty"`

	// Beta is the sensitivity of portfolio returns to benchmark returns.
	Beta *float64 `json:"beta,omitempty"`

	// SharpeRatio is the annualized excess return per unit of volatility.
	SharpeRatio *float64 `json:"sharpe_ratio,omitempty"`

	// MaxDrawdown is the largest peak-to-trough decline of the value
	// series, as a positive fraction of the peak (0.20 means -20%).
	MaxDrawdown *float64 `json:"max_drawdown,omitempty"`

	SampleSize int `json:"sample_size"`
}

// ComputeRisk derives volatility, beta, Sharpe ratio and max drawdown from
// a portfolio value series, its daily returns, the benchmark daily returns
// and the annual risk-free rate (a fraction, e.g. 0.05). Each statistic
// degrades to nil independently.
func ComputeRisk(values ValueSeries, portfolioReturns, benchmarkReturns ReturnSeries, riskFreeRate float64) RiskMetrics {
	metrics := RiskMetrics{SampleSize: len(portfolioReturns)}

	returns := portfolioReturns.Values()

	if vol, ok := annualizedVolatility(returns); ok {
		metrics.Volatility = &vol
	}
	if beta, ok := computeBeta(returns, benchmarkReturns.Values()); ok {
		metrics.Beta = &beta
	}
	if sharpe, ok := sharpeRatio(returns, riskFreeRate); ok {
		metrics.SharpeRatio = &sharpe
	}
	if dd, ok := maxDrawdown(values); ok {
		metrics.MaxDrawdown = &dd
	}

	return metrics
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// popStdDev is the population standard deviation (divisor n, not n-1).
func popStdDev(xs []float64) float64 {
	m := mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}

// annualizedVolatility needs at least two observations.
func annualizedVolatility(returns []float64) (float64, bool) {
	if len(returns) < 2 {
		return 0, false
	}
	return popStdDev(returns) * math.Sqrt(tradingDaysPerYear) * 100, true
}

// computeBeta pairs the two return series index-by-index, truncating to the
// shorter one. Unavailable when fewer than two pairs exist or the benchmark
// variance is zero.
func computeBeta(portfolio, benchmark []float64) (float64, bool) {
	n := len(portfolio)
	if len(benchmark) < n {
		n = len(benchmark)
	}
	if n < 2 {
		return 0, false
	}

	p := portfolio[:n]
	b := benchmark[:n]
	meanP := mean(p)
	meanB := mean(b)

	var cov, varB float64
	for i := 0; i < n; i++ {
		cov += (p[i] - meanP) * (b[i] - meanB)
		varB += (b[i] - meanB) * (b[i] - meanB)
	}
	cov /= float64(n)
	varB /= float64(n)

	if varB == 0 {
		return 0, false
	}
	return cov / varB, true
}

// sharpeRatio annualizes the mean daily excess return over the daily
// risk-free rate. Unavailable when the return standard deviation is zero
// or the sample is too small.
func sharpeRatio(returns []float64, riskFreeRate float64) (float64, bool) {
	if len(returns) < 2 {
		return 0, false
	}
	sd := popStdDev(returns)
	if sd == 0 {
		return 0, false
	}
	dailyRF := riskFreeRate / tradingDaysPerYear
	return (mean(returns) - dailyRF) / sd * math.Sqrt(tradingDaysPerYear), true
}

// maxDrawdown walks the value series tracking the running peak. Zero-valued
// peaks are skipped so a leading empty valuation cannot divide by zero.
func maxDrawdown(values ValueSeries) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}

	peak := values[0].Value
	worst := 0.0
	for _, p := range values[1:] {
		if p.Value > peak {
			peak = p.Value
			continue
		}
		if peak > 0 {
			dd := (peak - p.Value) / peak
			if dd > worst {
				worst = dd
			}
		}
	}
	return worst, true
}
