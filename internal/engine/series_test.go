package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folioscope/folioscope/internal/contracts"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func pricePoint(ticker string, date time.Time, close float64) contracts.PricePoint {
	return contracts.PricePoint{Ticker: ticker, Date: date, Close: close}
}

func TestAlignUnionOfDates(t *testing.T) {
	histories := map[string][]contracts.PricePoint{
		"AAPL": {
			pricePoint("AAPL", day(2026, 3, 2), 100),
			pricePoint("AAPL", day(2026, 3, 3), 101),
		},
		"MSFT": {
			pricePoint("MSFT", day(2026, 3, 3), 400),
			pricePoint("MSFT", day(2026, 3, 4), 402),
		},
	}

	aligned, warnings := Align(histories, day(2026, 3, 1), day(2026, 3, 31), Options{})
	require.Empty(t, warnings)

	// Axis is the sorted union across both tickers.
	require.Equal(t, []time.Time{day(2026, 3, 2), day(2026, 3, 3), day(2026, 3, 4)}, aligned.Dates)

	_, ok := aligned.Price("MSFT", day(2026, 3, 2))
	assert.False(t, ok, "MSFT has no record on a union-only date")

	price, ok := aligned.Price("AAPL", day(2026, 3, 3))
	require.True(t, ok)
	assert.Equal(t, 101.0, price)
}

func TestAlignNormalizesDatesAndTickers(t *testing.T) {
	histories := map[string][]contracts.PricePoint{
		"aapl": {
			// Intraday timestamp in a non-UTC zone collapses onto its
			// UTC calendar date.
			pricePoint("aapl", time.Date(2026, 3, 2, 15, 30, 0, 0, time.UTC), 100),
		},
	}

	aligned, _ := Align(histories, day(2026, 3, 1), day(2026, 3, 31), Options{})

	price, ok := aligned.Price("AAPL", day(2026, 3, 2))
	require.True(t, ok)
	assert.Equal(t, 100.0, price)
}

func TestAlignDuplicateLastWriteWins(t *testing.T) {
	histories := map[string][]contracts.PricePoint{
		"AAPL": {
			pricePoint("AAPL", day(2026, 3, 2), 100),
			pricePoint("AAPL", day(2026, 3, 2), 105),
		},
	}

	aligned, warnings := Align(histories, day(2026, 3, 1), day(2026, 3, 31), Options{})

	require.Len(t, warnings, 1)
	assert.Equal(t, "AAPL", warnings[0].Ticker)

	price, ok := aligned.Price("AAPL", day(2026, 3, 2))
	require.True(t, ok)
	assert.Equal(t, 105.0, price)
}

func TestAlignRangeFilter(t *testing.T) {
	histories := map[string][]contracts.PricePoint{
		"AAPL": {
			pricePoint("AAPL", day(2026, 2, 27), 99),
			pricePoint("AAPL", day(2026, 3, 2), 100),
			pricePoint("AAPL", day(2026, 4, 1), 120),
		},
	}

	aligned, _ := Align(histories, day(2026, 3, 1), day(2026, 3, 31), Options{})
	assert.Equal(t, []time.Time{day(2026, 3, 2)}, aligned.Dates)
}

func TestAlignFillLastKnown(t *testing.T) {
	histories := map[string][]contracts.PricePoint{
		"AAPL": {
			pricePoint("AAPL", day(2026, 3, 2), 100),
			pricePoint("AAPL", day(2026, 3, 4), 104),
		},
		"MSFT": {
			pricePoint("MSFT", day(2026, 3, 3), 400),
		},
	}

	aligned, _ := Align(histories, day(2026, 3, 1), day(2026, 3, 31), Options{FillPolicy: FillLastKnown})

	// AAPL gap on 3/3 carries the 3/2 close forward.
	price, ok := aligned.Price("AAPL", day(2026, 3, 3))
	require.True(t, ok)
	assert.Equal(t, 100.0, price)

	// Fill never reaches before a ticker's first record.
	_, ok = aligned.Price("MSFT", day(2026, 3, 2))
	assert.False(t, ok)

	price, ok = aligned.Price("MSFT", day(2026, 3, 4))
	require.True(t, ok)
	assert.Equal(t, 400.0, price)
}
