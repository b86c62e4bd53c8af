package engine

import (
	"time"

	"github.com/folioscope/folioscope/internal/contracts"
)

// PortfolioValues computes the daily portfolio value series over the
// aligned axis: for each date, the sum of shares*close over positions
// whose ticker resolves on that date. Unresolved combinations contribute
// zero under FillDrop.
func PortfolioValues(aligned *Aligned, positions []contracts.Position) ValueSeries {
	series := make(ValueSeries, 0, len(aligned.Dates))
	for _, date := range aligned.Dates {
		total := 0.0
		for _, pos := range positions {
			if price, ok := aligned.Price(pos.Ticker, date); ok {
				total += pos.Shares * price
			}
		}
		series = append(series, Point{Date: date, Value: total})
	}
	return series
}

// BenchmarkValues projects a benchmark price history onto the aligned axis.
// Dates where the benchmark has no record are skipped, so the result may be
// shorter than the axis.
func BenchmarkValues(aligned *Aligned, history []contracts.PricePoint) ValueSeries {
	byDate := make(map[time.Time]float64, len(history))
	for _, record := range history {
		byDate[Day(record.Date)] = record.Close
	}

	series := make(ValueSeries, 0, len(aligned.Dates))
	for _, date := range aligned.Dates {
		if price, ok := byDate[date]; ok {
			series = append(series, Point{Date: date, Value: price})
		}
	}
	return series
}
