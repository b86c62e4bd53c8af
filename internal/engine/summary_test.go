package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folioscope/folioscope/internal/contracts"
)

func TestWindowStart(t *testing.T) {
	today := day(2026, 8, 14)

	tests := []struct {
		window Window
		want   time.Time
	}{
		{Window1D, day(2026, 8, 13)},
		{Window1W, day(2026, 8, 7)},
		{Window1M, day(2026, 7, 14)},
		{Window3M, day(2026, 5, 14)},
		{Window6M, day(2026, 2, 14)},
		{Window1Y, day(2025, 8, 14)},
		{WindowYTD, day(2026, 1, 1)},
		{WindowMax, time.Time{}},
	}

	for _, tt := range tests {
		if got := tt.window.Start(today); !got.Equal(tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.window, tt.want, got)
		}
	}
}

func TestParseWindow(t *testing.T) {
	w, err := ParseWindow("YTD")
	require.NoError(t, err)
	assert.Equal(t, WindowYTD, w)

	_, err = ParseWindow("2W")
	assert.Error(t, err)
}

func TestComputePerformanceNormalization(t *testing.T) {
	dates := []time.Time{day(2026, 3, 2), day(2026, 3, 3), day(2026, 3, 4)}
	portfolio := valueSeries(dates, []float64{1000, 1100, 1050})
	benchmark := valueSeries(dates, []float64{500, 505, 495})

	series := ComputePerformance(portfolio, benchmark)
	require.Len(t, series, 3)

	assert.Equal(t, 0.0, series[0].Portfolio)
	assert.Equal(t, 0.0, series[0].Benchmark)
	assert.InDelta(t, 10.0, series[1].Portfolio, 1e-9)
	assert.InDelta(t, 1.0, series[1].Benchmark, 1e-9)
	assert.InDelta(t, 5.0, series[2].Portfolio, 1e-9)
	assert.InDelta(t, -1.0, series[2].Benchmark, 1e-9)
}

func TestComputePerformanceSkipsMissingBenchmarkDates(t *testing.T) {
	portfolio := valueSeries(
		[]time.Time{day(2026, 3, 2), day(2026, 3, 3), day(2026, 3, 4)},
		[]float64{1000, 1100, 1050})
	benchmark := valueSeries(
		[]time.Time{day(2026, 3, 2), day(2026, 3, 4)},
		[]float64{500, 495})

	series := ComputePerformance(portfolio, benchmark)
	require.Len(t, series, 2)
	assert.Equal(t, day(2026, 3, 4), series[1].Date)
}

func TestComputePerformanceZeroBase(t *testing.T) {
	dates := []time.Time{day(2026, 3, 2), day(2026, 3, 3)}
	portfolio := valueSeries(dates, []float64{0, 1100})
	benchmark := valueSeries(dates, []float64{500, 505})

	series := ComputePerformance(portfolio, benchmark)
	require.Len(t, series, 2)
	assert.Equal(t, 0.0, series[1].Portfolio, "non-positive base reports zero throughout")
	assert.InDelta(t, 1.0, series[1].Benchmark, 1e-9)
}

func moverPosition(ticker string, purchase, current float64) contracts.Position {
	return contracts.Position{
		Ticker:        ticker,
		CompanyName:   ticker + " Inc.",
		Shares:        10,
		PurchasePrice: purchase,
		CurrentPrice:  current,
		MarketValue:   current * 10,
	}
}

func TestComputeTopMoversRanking(t *testing.T) {
	positions := []contracts.Position{
		moverPosition("AAA", 100, 105), // +5%
		moverPosition("BBB", 100, 97),  // -3%
		moverPosition("CCC", 100, 110), // +10%
		moverPosition("DDD", 100, 92),  // -8%
	}

	movers := ComputeTopMovers(positions, nil, day(2026, 3, 2), 2)

	require.Len(t, movers.Gainers, 2)
	assert.Equal(t, "CCC", movers.Gainers[0].Ticker)
	assert.Equal(t, "AAA", movers.Gainers[1].Ticker)

	require.Len(t, movers.Losers, 2)
	assert.Equal(t, "DDD", movers.Losers[0].Ticker)
	assert.Equal(t, "BBB", movers.Losers[1].Ticker)
}

func TestComputeTopMoversSlicesRegardlessOfSign(t *testing.T) {
	// Every position gained: the "losers" list is just the worst
	// performers, still sliced to N.
	positions := []contracts.Position{
		moverPosition("AAA", 100, 105),
		moverPosition("BBB", 100, 102),
		moverPosition("CCC", 100, 110),
	}

	movers := ComputeTopMovers(positions, nil, day(2026, 3, 2), 2)

	require.Len(t, movers.Losers, 2)
	assert.Equal(t, "BBB", movers.Losers[0].Ticker)
	assert.True(t, movers.Losers[0].GainLossPercent > 0)
}

func TestComputeTopMoversWindowStartPrice(t *testing.T) {
	positions := []contracts.Position{
		moverPosition("AAA", 80, 110),
	}
	histories := map[string][]contracts.PricePoint{
		"AAA": {
			pricePoint("AAA", day(2026, 2, 25), 100),
			pricePoint("AAA", day(2026, 3, 10), 108),
		},
	}

	// The last record on or before the window start is the 2/25 close.
	movers := ComputeTopMovers(positions, histories, day(2026, 3, 2), 5)
	require.Len(t, movers.Gainers, 1)
	assert.InDelta(t, 10.0, movers.Gainers[0].GainLossPercent, 1e-9)
	assert.InDelta(t, 100.0, movers.Gainers[0].GainLossAmount, 1e-9)
}

func TestComputeTopMoversPurchasePriceFallback(t *testing.T) {
	positions := []contracts.Position{
		moverPosition("AAA", 100, 110),
	}

	// No history at all: the start price falls back to the purchase price.
	movers := ComputeTopMovers(positions, map[string][]contracts.PricePoint{}, day(2026, 3, 2), 5)
	require.Len(t, movers.Gainers, 1)
	assert.InDelta(t, 10.0, movers.Gainers[0].GainLossPercent, 1e-9)
	// Sole position: contribution is its gain over total value.
	assert.InDelta(t, 100.0/1100.0*100, movers.Gainers[0].Contribution, 1e-9)
}

func TestPortfolioValuesMissingTickerContributesZero(t *testing.T) {
	positions := []contracts.Position{
		{Ticker: "AAPL", Shares: 10},
		{Ticker: "GONE", Shares: 5},
	}
	histories := map[string][]contracts.PricePoint{
		"AAPL": {
			pricePoint("AAPL", day(2026, 3, 2), 100),
			pricePoint("AAPL", day(2026, 3, 3), 110),
		},
		"GONE": nil,
	}

	aligned, _ := Align(histories, day(2026, 3, 1), day(2026, 3, 31), Options{})
	values := PortfolioValues(aligned, positions)

	require.Len(t, values, 2)
	assert.Equal(t, 1000.0, values[0].Value)
	assert.Equal(t, 1100.0, values[1].Value)
}

func TestPortfolioValuesEmptyPositions(t *testing.T) {
	aligned, _ := Align(map[string][]contracts.PricePoint{
		"SPY": {pricePoint("SPY", day(2026, 3, 2), 500)},
	}, day(2026, 3, 1), day(2026, 3, 31), Options{})

	values := PortfolioValues(aligned, nil)
	require.Len(t, values, 1)
	assert.Equal(t, 0.0, values[0].Value)
}

func TestBenchmarkValuesProjection(t *testing.T) {
	aligned, _ := Align(map[string][]contracts.PricePoint{
		"AAPL": {
			pricePoint("AAPL", day(2026, 3, 2), 100),
			pricePoint("AAPL", day(2026, 3, 3), 101),
			pricePoint("AAPL", day(2026, 3, 4), 102),
		},
	}, day(2026, 3, 1), day(2026, 3, 31), Options{})

	history := []contracts.PricePoint{
		pricePoint("SPY", day(2026, 3, 2), 500),
		pricePoint("SPY", day(2026, 3, 4), 510),
	}

	values := BenchmarkValues(aligned, history)
	require.Len(t, values, 2)
	assert.Equal(t, day(2026, 3, 2), values[0].Date)
	assert.Equal(t, 510.0, values[1].Value)
}

func TestDailyReturnsSkipsZeroPrior(t *testing.T) {
	dates := []time.Time{day(2026, 3, 2), day(2026, 3, 3), day(2026, 3, 4)}
	values := valueSeries(dates, []float64{0, 1000, 1100})

	returns := DailyReturns(values)
	require.Len(t, returns, 1, "step off a zero prior is dropped, not recorded as a spike")
	assert.InDelta(t, 0.10, returns[0].Value, 1e-12)
}
