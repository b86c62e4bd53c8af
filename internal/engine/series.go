package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/folioscope/folioscope/internal/contracts"
)

// FillPolicy controls how a missing ticker/date combination is resolved
// during alignment.
type FillPolicy int

const (
	// FillDrop leaves the combination unresolved: the instrument
	// contributes zero to that day's valuation. Default, matches the
	// behavior of both production call sites.
	FillDrop FillPolicy = iota

	// FillLastKnown carries the last known price forward within the
	// requested range. Opt-in.
	FillLastKnown
)

// Options configures engine behavior. The zero value is the production
// default.
type Options struct {
	FillPolicy FillPolicy
}

// Warning is a non-fatal data quality finding surfaced to the caller for
// logging. Warnings never fail a computation.
type Warning struct {
	Ticker  string
	Date    time.Time
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s %s: %s", w.Ticker, w.Date.Format("2006-01-02"), w.Message)
}

// Point is one dated observation of a derived series.
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// ValueSeries is an ordered sequence of (date, value) pairs with strictly
// increasing dates.
type ValueSeries []Point

// ReturnSeries is an ordered sequence of (date, simple return) pairs.
type ReturnSeries []Point

// Values extracts the raw return values in order.
func (r ReturnSeries) Values() []float64 {
	out := make([]float64, len(r))
	for i, p := range r {
		out[i] = p.Value
	}
	return out
}

// Day truncates a timestamp to its UTC calendar date. All alignment keys
// use this normal form.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Aligned holds per-ticker prices resolved onto a single sorted date axis.
type Aligned struct {
	Dates  []time.Time
	prices map[string]map[time.Time]float64
}

// Price resolves the price for a ticker on a date of the axis. The second
// return reports whether the combination resolved; under FillDrop an
// unresolved combination contributes zero to valuation.
func (a *Aligned) Price(ticker string, date time.Time) (float64, bool) {
	byDate, ok := a.prices[contracts.CanonicalTicker(ticker)]
	if !ok {
		return 0, false
	}
	price, ok := byDate[date]
	return price, ok
}

// Tickers returns the tickers present in the aligned set.
func (a *Aligned) Tickers() []string {
	out := make([]string, 0, len(a.prices))
	for t := range a.prices {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Align merges per-ticker daily price histories onto the sorted union of
// all dates present in any input series within [from, to]. Duplicate
// records for the same ticker/date resolve last-write-wins and surface a
// warning. An empty history means the ticker resolves on no date at all.
func Align(histories map[string][]contracts.PricePoint, from, to time.Time, opts Options) (*Aligned, []Warning) {
	from = Day(from)
	to = Day(to)

	var warnings []Warning
	prices := make(map[string]map[time.Time]float64, len(histories))
	dateSet := make(map[time.Time]bool)

	for ticker, history := range histories {
		canonical := contracts.CanonicalTicker(ticker)
		byDate, ok := prices[canonical]
		if !ok {
			byDate = make(map[time.Time]float64, len(history))
			prices[canonical] = byDate
		}

		for _, record := range history {
			date := Day(record.Date)
			if date.Before(from) || date.After(to) {
				continue
			}
			if _, exists := byDate[date]; exists {
				warnings = append(warnings, Warning{
					Ticker:  canonical,
					Date:    date,
					Message: "duplicate price record, keeping last",
				})
			}
			byDate[date] = record.Close
			dateSet[date] = true
		}
	}

	dates := make([]time.Time, 0, len(dateSet))
	for date := range dateSet {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	if opts.FillPolicy == FillLastKnown {
		for _, byDate := range prices {
			last := 0.0
			seen := false
			for _, date := range dates {
				if price, ok := byDate[date]; ok {
					last = price
					seen = true
				} else if seen {
					byDate[date] = last
				}
			}
		}
	}

	return &Aligned{Dates: dates, prices: prices}, warnings
}
