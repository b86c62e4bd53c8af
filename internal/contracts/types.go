package contracts

import (
	"strings"
	"time"
)

// Position is a snapshot of a single holding. The engine treats position
// snapshots as read-only inputs; only the collector mutates the cached
// price/value/weight columns.
type Position struct {
	ID            string    `json:"id"`
	Ticker        string    `json:"ticker"`
	CompanyName   string    `json:"company_name"`
	Shares        float64   `json:"shares"`
	PurchasePrice float64   `json:"purchase_price"`
	PurchaseDate  time.Time `json:"purchase_date"`
	CostBasis     float64   `json:"cost_basis"`
	Sector        string    `json:"sector"`

	// Cached valuation columns, refreshed by the collector after each
	// price update. Weight is a percentage of total portfolio value.
	CurrentPrice float64 `json:"current_price"`
	MarketValue  float64 `json:"market_value"`
	Weight       float64 `json:"weight"`
}

// PricePoint is one daily price record for an instrument. Immutable once
// recorded.
type PricePoint struct {
	Ticker string    `json:"ticker"`
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Settings is the single-row application settings record.
type Settings struct {
	BenchmarkTicker      string     `json:"benchmark_ticker"`
	RiskFreeRate         float64    `json:"risk_free_rate"` // annual fraction, e.g. 0.05
	ReportDay            int        `json:"report_day"`     // day of month for report generation
	LastPriceUpdate      *time.Time `json:"last_price_update,omitempty"`
	LastReportGeneration *time.Time `json:"last_report_generation,omitempty"`
}

// Report is a persisted report row. The numeric summary is stored alongside
// the rendered document URL; document rendering happens outside this service.
type Report struct {
	ID             string    `json:"id"`
	Date           time.Time `json:"date"`
	FileURL        string    `json:"file_url"`
	PortfolioValue float64   `json:"portfolio_value"`
	BenchmarkValue float64   `json:"benchmark_value"`
	TopGainers     []byte    `json:"-"` // JSON payloads as stored
	TopLosers      []byte    `json:"-"`
	Commentary     string    `json:"commentary"`
}

// CanonicalTicker normalizes a ticker to its canonical uppercase form.
func CanonicalTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// TotalMarketValue returns the sum of cached market values over a position
// snapshot.
func TotalMarketValue(positions []Position) float64 {
	total := 0.0
	for _, p := range positions {
		total += p.MarketValue
	}
	return total
}

// TotalWeight returns the sum of cached weight percentages.
func TotalWeight(positions []Position) float64 {
	total := 0.0
	for _, p := range positions {
		total += p.Weight
	}
	return total
}

// WeightsStale reports whether the cached weights of a non-empty position
// set have drifted from the 100% invariant beyond tolerance. A position
// with market value but no weight, typically one created after the last
// collect, is always stale.
func WeightsStale(positions []Position, tolerance float64) bool {
	if len(positions) == 0 {
		return false
	}
	for _, p := range positions {
		if p.Weight == 0 && p.MarketValue > 0 {
			return true
		}
	}
	diff := TotalWeight(positions) - 100.0
	if diff < 0 {
		diff = -diff
	}
	return diff > tolerance
}
