package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/folioscope/folioscope/internal/contracts"
)

// Window is a named reporting period ending today.
type Window string

const (
	Window1D  Window = "1D"
	Window1W  Window = "1W"
	Window1M  Window = "1M"
	Window3M  Window = "3M"
	Window6M  Window = "6M"
	Window1Y  Window = "1Y"
	WindowYTD Window = "YTD"
	WindowMax Window = "MAX"
)

// Windows lists every supported reporting window.
var Windows = []Window{Window1D, Window1W, Window1M, Window3M, Window6M, Window1Y, WindowYTD, WindowMax}

// ParseWindow validates a window label.
func ParseWindow(s string) (Window, error) {
	for _, w := range Windows {
		if string(w) == s {
			return w, nil
		}
	}
	return "", fmt.Errorf("unknown reporting window %q", s)
}

// Start resolves the window's opening date relative to today. WindowMax
// returns the zero time, meaning "from the earliest available record".
func (w Window) Start(today time.Time) time.Time {
	today = Day(today)
	switch w {
	case Window1D:
		return today.AddDate(0, 0, -1)
	case Window1W:
		return today.AddDate(0, 0, -7)
	case Window1M:
		return today.AddDate(0, -1, 0)
	case Window3M:
		return today.AddDate(0, -3, 0)
	case Window6M:
		return today.AddDate(0, -6, 0)
	case Window1Y:
		return today.AddDate(-1, 0, 0)
	case WindowYTD:
		return time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Time{}
	}
}

// PerformancePoint is one day of the comparative performance series. Both
// values are percent change since the first day of the window.
type PerformancePoint struct {
	Date      time.Time `json:"date"`
	Portfolio float64   `json:"portfolio"`
	Benchmark float64   `json:"benchmark"`
}

// ComputePerformance normalizes the portfolio and benchmark value series to
// percent change from their respective first values. Dates where either
// series is missing are skipped, and a series whose base value is not
// positive reports zero throughout.
func ComputePerformance(portfolio, benchmark ValueSeries) []PerformancePoint {
	benchByDate := make(map[time.Time]float64, len(benchmark))
	for _, p := range benchmark {
		benchByDate[p.Date] = p.Value
	}

	var portfolioBase, benchmarkBase float64
	if len(portfolio) > 0 {
		portfolioBase = portfolio[0].Value
	}
	if len(benchmark) > 0 {
		benchmarkBase = benchmark[0].Value
	}

	series := make([]PerformancePoint, 0, len(portfolio))
	for _, p := range portfolio {
		benchValue, ok := benchByDate[p.Date]
		if !ok {
			continue
		}
		point := PerformancePoint{Date: p.Date}
		if portfolioBase > 0 {
			point.Portfolio = (p.Value/portfolioBase - 1) * 100
		}
		if benchmarkBase > 0 {
			point.Benchmark = (benchValue/benchmarkBase - 1) * 100
		}
		series = append(series, point)
	}
	return series
}

// TopMover is one position's performance over a reporting window.
type TopMover struct {
	Ticker          string  `json:"ticker"`
	CompanyName     string  `json:"companyName"`
	GainLossPercent float64 `json:"gainLossPercent"`
	GainLossAmount  float64 `json:"gainLossAmount"`
	// Contribution is the position's gain as a percentage of total
	// portfolio value.
	Contribution float64 `json:"contribution"`
}

// Movers pairs the best and worst performers of a window.
type Movers struct {
	Gainers []TopMover `json:"gainers"`
	Losers  []TopMover `json:"losers"`
}

// ComputeTopMovers ranks positions by percent change over the window ending
// today. The start price for each position is its last recorded price on or
// before the window start; a position with no record that early falls back
// to its purchase price. Gainers sort descending and losers ascending by
// percent change, each sliced to topN regardless of sign.
func ComputeTopMovers(positions []contracts.Position, histories map[string][]contracts.PricePoint, windowStart time.Time, topN int) Movers {
	totalValue := contracts.TotalMarketValue(positions)
	windowStart = Day(windowStart)

	movers := make([]TopMover, 0, len(positions))
	for _, pos := range positions {
		startPrice := priceOnOrBefore(histories[contracts.CanonicalTicker(pos.Ticker)], windowStart)
		if startPrice <= 0 {
			startPrice = pos.PurchasePrice
		}
		if startPrice <= 0 {
			continue
		}

		gainAmount := pos.MarketValue - startPrice*pos.Shares
		mover := TopMover{
			Ticker:          pos.Ticker,
			CompanyName:     pos.CompanyName,
			GainLossPercent: (pos.CurrentPrice/startPrice - 1) * 100,
			GainLossAmount:  gainAmount,
		}
		if totalValue > 0 {
			mover.Contribution = gainAmount / totalValue * 100
		}
		movers = append(movers, mover)
	}

	gainers := make([]TopMover, len(movers))
	copy(gainers, movers)
	sort.SliceStable(gainers, func(i, j int) bool {
		return gainers[i].GainLossPercent > gainers[j].GainLossPercent
	})

	losers := make([]TopMover, len(movers))
	copy(losers, movers)
	sort.SliceStable(losers, func(i, j int) bool {
		return losers[i].GainLossPercent < losers[j].GainLossPercent
	})

	if len(gainers) > topN {
		gainers = gainers[:topN]
	}
	if len(losers) > topN {
		losers = losers[:topN]
	}

	return Movers{Gainers: gainers, Losers: losers}
}

// priceOnOrBefore returns the close of the latest record dated on or before
// the cutoff, or zero when none exists.
func priceOnOrBefore(history []contracts.PricePoint, cutoff time.Time) float64 {
	best := time.Time{}
	price := 0.0
	for _, record := range history {
		date := Day(record.Date)
		if date.After(cutoff) {
			continue
		}
		if best.IsZero() || date.After(best) {
			best = date
			price = record.Close
		}
	}
	return price
}
