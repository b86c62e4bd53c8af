package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/folioscope/folioscope/internal/contracts"
	"github.com/folioscope/folioscope/internal/engine"
	"github.com/folioscope/folioscope/pkg/logger"
)

// PeriodPerformance pairs portfolio and benchmark percent change over one
// period.
type PeriodPerformance struct {
	Portfolio float64 `json:"portfolio"`
	Benchmark float64 `json:"benchmark"`
}

// Data is the numeric payload of one generated report.
type Data struct {
	Date               time.Time                 `json:"date"`
	PortfolioValue     float64                   `json:"portfolio_value"`
	BenchmarkValue     float64                   `json:"benchmark_value"`
	MonthlyPerformance PeriodPerformance         `json:"monthly_performance"`
	YTDPerformance     PeriodPerformance         `json:"ytd_performance"`
	TopGainers         []engine.TopMover         `json:"top_gainers"`
	TopLosers          []engine.TopMover         `json:"top_losers"`
	SectorAllocation   []engine.SectorAllocation `json:"sector_allocation"`
	RiskMetrics        engine.RiskMetrics        `json:"risk_metrics"`
}

// Narrator produces the written commentary for a report. Implementations
// must not fail: an unavailable narrator returns a fallback string.
type Narrator interface {
	Narrate(ctx context.Context, data *Data) string
}

// Generator builds monthly reports from stored data and persists them.
type Generator struct {
	positions contracts.PositionRepository
	prices    contracts.PriceRepository
	settings  contracts.SettingsRepository
	reports   contracts.ReportRepository
	narrator  Narrator
	logger    *logger.Logger

	fileURLBase string
	topN        int
}

// NewGenerator creates a report generator. fileURLBase is where rendered
// report documents are expected to live.
func NewGenerator(
	positions contracts.PositionRepository,
	prices contracts.PriceRepository,
	settings contracts.SettingsRepository,
	reports contracts.ReportRepository,
	narrator Narrator,
	log *logger.Logger,
	fileURLBase string,
) *Generator {
	return &Generator{
		positions:   positions,
		prices:      prices,
		settings:    settings,
		reports:     reports,
		narrator:    narrator,
		logger:      log.WithField("module", "report"),
		fileURLBase: fileURLBase,
		topN:        5,
	}
}

// Generate builds the report for today, generates commentary and persists
// the result.
func (g *Generator) Generate(ctx context.Context) (*Data, error) {
	positions, err := g.positions.List(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := g.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if settings.BenchmarkTicker == "" {
		return nil, contracts.ErrMissingBenchmark
	}
	if settings.RiskFreeRate < 0 {
		return nil, contracts.ErrMissingRiskFreeRate
	}

	today := engine.Day(time.Now().UTC())
	yearAgo := today.AddDate(-1, 0, 0)

	histories := make(map[string][]contracts.PricePoint, len(positions))
	attempted := make(map[string]bool, len(positions))
	failures := 0
	for _, pos := range positions {
		ticker := contracts.CanonicalTicker(pos.Ticker)
		if attempted[ticker] {
			continue
		}
		attempted[ticker] = true
		history, err := g.prices.GetHistory(ctx, ticker, yearAgo, today)
		if err != nil {
			g.logger.WithError(err).WithField("ticker", ticker).Warn("Failed to load history for report")
			failures++
			continue
		}
		histories[ticker] = history
	}
	if len(attempted) > 0 && failures == len(attempted) {
		return nil, contracts.ErrAllFetchesFailed
	}

	benchmarkHistory, err := g.prices.GetBenchmarkHistory(ctx, settings.BenchmarkTicker, yearAgo, today)
	if err != nil {
		return nil, fmt.Errorf("failed to load benchmark history: %w", err)
	}

	data := g.build(positions, histories, benchmarkHistory, settings, today)

	commentary := g.narrator.Narrate(ctx, data)

	gainersJSON, err := json.Marshal(data.TopGainers)
	if err != nil {
		return nil, fmt.Errorf("failed to encode gainers: %w", err)
	}
	losersJSON, err := json.Marshal(data.TopLosers)
	if err != nil {
		return nil, fmt.Errorf("failed to encode losers: %w", err)
	}

	record := &contracts.Report{
		Date:           today,
		FileURL:        fmt.Sprintf("%s/report-%s.pdf", g.fileURLBase, today.Format("2006-01-02")),
		PortfolioValue: data.PortfolioValue,
		BenchmarkValue: data.BenchmarkValue,
		TopGainers:     gainersJSON,
		TopLosers:      losersJSON,
		Commentary:     commentary,
	}
	if err := g.reports.Insert(ctx, record); err != nil {
		return nil, err
	}

	if err := g.settings.TouchReportGeneration(ctx, time.Now().UTC()); err != nil {
		g.logger.WithError(err).Warn("Failed to stamp report generation time")
	}

	g.logger.WithFields(map[string]interface{}{
		"report_id":       record.ID,
		"portfolio_value": data.PortfolioValue,
	}).Info("Report generated")

	return data, nil
}

// build assembles the numeric report payload. Pure over its inputs.
func (g *Generator) build(
	positions []contracts.Position,
	histories map[string][]contracts.PricePoint,
	benchmarkHistory []contracts.PricePoint,
	settings *contracts.Settings,
	today time.Time,
) *Data {
	aligned, warnings := engine.Align(histories, today.AddDate(-1, 0, 0), today, engine.Options{})
	for _, w := range warnings {
		g.logger.WithField("ticker", w.Ticker).Warn(w.Message)
	}

	values := engine.PortfolioValues(aligned, positions)
	benchmarkValues := engine.BenchmarkValues(aligned, benchmarkHistory)
	portfolioReturns := engine.DailyReturns(values)
	benchmarkReturns := engine.DailyReturns(benchmarkValues)

	monthStart := engine.Window1M.Start(today)
	ytdStart := engine.WindowYTD.Start(today)

	movers := engine.ComputeTopMovers(positions, histories, monthStart, g.topN)

	benchmarkValue := 0.0
	if len(benchmarkValues) > 0 {
		benchmarkValue = benchmarkValues[len(benchmarkValues)-1].Value
	}

	return &Data{
		Date:           today,
		PortfolioValue: contracts.TotalMarketValue(positions),
		BenchmarkValue: benchmarkValue,
		MonthlyPerformance: PeriodPerformance{
			Portfolio: periodChange(values, monthStart),
			Benchmark: periodChange(benchmarkValues, monthStart),
		},
		YTDPerformance: PeriodPerformance{
			Portfolio: periodChange(values, ytdStart),
			Benchmark: periodChange(benchmarkValues, ytdStart),
		},
		TopGainers:       movers.Gainers,
		TopLosers:        movers.Losers,
		SectorAllocation: engine.ComputeSectorAllocation(positions, nil),
		RiskMetrics:      engine.ComputeRisk(values, portfolioReturns, benchmarkReturns, settings.RiskFreeRate),
	}
}

// periodChange is the percent change from the first point at or after the
// period start to the final point, zero when the period has no usable base.
func periodChange(values engine.ValueSeries, start time.Time) float64 {
	var windowed engine.ValueSeries
	for _, p := range values {
		if p.Date.Before(start) {
			continue
		}
		windowed = append(windowed, p)
	}
	if len(windowed) < 2 || windowed[0].Value <= 0 {
		return 0
	}
	return (windowed[len(windowed)-1].Value/windowed[0].Value - 1) * 100
}
