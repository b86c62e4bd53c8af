package portfolio

import (
	"context"
	"sync"
	"time"

	"github.com/folioscope/folioscope/internal/contracts"
	"github.com/folioscope/folioscope/internal/engine"
	"github.com/folioscope/folioscope/pkg/logger"
)

// weightTolerance is the allowed drift of the cached weight sum from 100%
// before a read path forces a refresh.
const weightTolerance = 0.5

// Service assembles input snapshots from the repositories and runs the
// analytics engine over them. The engine itself is pure; all I/O and
// concurrency live here.
type Service struct {
	positions contracts.PositionRepository
	prices    contracts.PriceRepository
	settings  contracts.SettingsRepository
	logger    *logger.Logger

	loadTimeout time.Duration
	opts        engine.Options
}

// Config holds service configuration.
type Config struct {
	// Per-ticker history load timeout. Zero disables the per-load cap.
	LoadTimeout time.Duration

	// FillLastKnown carries prices forward over gaps instead of dropping
	// the missing day's contribution.
	FillLastKnown bool
}

// New creates a portfolio service.
func New(
	positions contracts.PositionRepository,
	prices contracts.PriceRepository,
	settings contracts.SettingsRepository,
	log *logger.Logger,
	cfg Config,
) *Service {
	opts := engine.Options{}
	if cfg.FillLastKnown {
		opts.FillPolicy = engine.FillLastKnown
	}
	return &Service{
		positions:   positions,
		prices:      prices,
		settings:    settings,
		logger:      log.WithField("module", "portfolio"),
		loadTimeout: cfg.LoadTimeout,
		opts:        opts,
	}
}

// snapshot is the immutable input set for one computation.
type snapshot struct {
	positions []contracts.Position
	settings  *contracts.Settings
	histories map[string][]contracts.PricePoint
	benchmark []contracts.PricePoint
	from, to  time.Time
}

// loadSnapshot gathers positions, settings and per-ticker histories for a
// window. Histories load concurrently with a join barrier; a per-ticker
// failure degrades that ticker with a logged warning, and only the loss of
// every series is a hard error.
func (s *Service) loadSnapshot(ctx context.Context, window engine.Window) (*snapshot, error) {
	positions, err := s.positions.List(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if settings.BenchmarkTicker == "" {
		return nil, contracts.ErrMissingBenchmark
	}

	to := engine.Day(time.Now().UTC())
	from := window.Start(to)
	if from.IsZero() {
		from = inceptionStart(positions, to)
	}

	tickers := make([]string, 0, len(positions))
	seen := make(map[string]bool, len(positions))
	for _, pos := range positions {
		ticker := contracts.CanonicalTicker(pos.Ticker)
		if !seen[ticker] {
			seen[ticker] = true
			tickers = append(tickers, ticker)
		}
	}

	type loadResult struct {
		ticker    string
		history   []contracts.PricePoint
		benchmark bool
		err       error
	}

	resultCh := make(chan loadResult, len(tickers)+1)
	var wg sync.WaitGroup

	load := func(ticker string, benchmark bool) {
		defer wg.Done()

		loadCtx := ctx
		if s.loadTimeout > 0 {
			var cancel context.CancelFunc
			loadCtx, cancel = context.WithTimeout(ctx, s.loadTimeout)
			defer cancel()
		}

		var history []contracts.PricePoint
		var err error
		if benchmark {
			history, err = s.prices.GetBenchmarkHistory(loadCtx, ticker, from, to)
		} else {
			history, err = s.prices.GetHistory(loadCtx, ticker, from, to)
		}
		resultCh <- loadResult{ticker: ticker, history: history, benchmark: benchmark, err: err}
	}

	for _, ticker := range tickers {
		wg.Add(1)
		go load(ticker, false)
	}
	wg.Add(1)
	go load(contracts.CanonicalTicker(settings.BenchmarkTicker), true)

	wg.Wait()
	close(resultCh)

	snap := &snapshot{
		positions: positions,
		settings:  settings,
		histories: make(map[string][]contracts.PricePoint, len(tickers)),
		from:      from,
		to:        to,
	}

	failures := 0
	total := 0
	for result := range resultCh {
		total++
		if result.err != nil {
			failures++
			s.logger.WithError(result.err).WithField("ticker", result.ticker).Warn("Failed to load price history")
			continue
		}
		if result.benchmark {
			snap.benchmark = result.history
		} else {
			snap.histories[result.ticker] = result.history
		}
	}

	if total > 0 && failures == total {
		return nil, contracts.ErrAllFetchesFailed
	}

	return snap, nil
}

// inceptionStart resolves the open-ended window to the earliest purchase
// date, or five years back when no position records one.
func inceptionStart(positions []contracts.Position, today time.Time) time.Time {
	earliest := time.Time{}
	for _, pos := range positions {
		if pos.PurchaseDate.IsZero() {
			continue
		}
		if earliest.IsZero() || pos.PurchaseDate.Before(earliest) {
			earliest = engine.Day(pos.PurchaseDate)
		}
	}
	if earliest.IsZero() {
		return today.AddDate(-5, 0, 0)
	}
	return earliest
}

// Performance computes the normalized portfolio-vs-benchmark series for a
// window.
func (s *Service) Performance(ctx context.Context, window engine.Window) ([]engine.PerformancePoint, error) {
	snap, err := s.loadSnapshot(ctx, window)
	if err != nil {
		return nil, err
	}

	aligned, warnings := engine.Align(snap.histories, snap.from, snap.to, s.opts)
	s.logWarnings(warnings)

	portfolio := engine.PortfolioValues(aligned, snap.positions)
	benchmark := engine.BenchmarkValues(aligned, snap.benchmark)

	return engine.ComputePerformance(portfolio, benchmark), nil
}

// Risk computes the risk statistics over a window.
func (s *Service) Risk(ctx context.Context, window engine.Window) (*engine.RiskMetrics, error) {
	snap, err := s.loadSnapshot(ctx, window)
	if err != nil {
		return nil, err
	}
	if snap.settings.RiskFreeRate < 0 {
		return nil, contracts.ErrMissingRiskFreeRate
	}

	aligned, warnings := engine.Align(snap.histories, snap.from, snap.to, s.opts)
	s.logWarnings(warnings)

	values := engine.PortfolioValues(aligned, snap.positions)
	portfolioReturns := engine.DailyReturns(values)
	benchmarkReturns := engine.DailyReturns(engine.BenchmarkValues(aligned, snap.benchmark))

	metrics := engine.ComputeRisk(values, portfolioReturns, benchmarkReturns, snap.settings.RiskFreeRate)
	return &metrics, nil
}

// Allocation computes the sector allocation from the current position
// snapshot. Stale cached weights are refreshed first, so a position created
// between collector runs cannot skew the sector mix.
func (s *Service) Allocation(ctx context.Context) ([]engine.SectorAllocation, error) {
	positions, err := s.RefreshWeights(ctx, weightTolerance)
	if err != nil {
		return nil, err
	}
	return engine.ComputeSectorAllocation(positions, nil), nil
}

// Movers computes the top gainers and losers for a window.
func (s *Service) Movers(ctx context.Context, window engine.Window, topN int) (*engine.Movers, error) {
	snap, err := s.loadSnapshot(ctx, window)
	if err != nil {
		return nil, err
	}

	movers := engine.ComputeTopMovers(snap.positions, snap.histories, snap.from, topN)
	return &movers, nil
}

// Summary is the dashboard headline: totals plus percent change over the
// standard display windows.
type Summary struct {
	TotalValue      float64    `json:"total_value"`
	TotalCostBasis  float64    `json:"total_cost_basis"`
	PositionCount   int        `json:"position_count"`
	DayChange       *float64   `json:"day_change,omitempty"`
	YTDChange       *float64   `json:"ytd_change,omitempty"`
	InceptionChange *float64   `json:"inception_change,omitempty"`
	LastPriceUpdate *time.Time `json:"last_price_update,omitempty"`
}

// GetSummary computes the dashboard summary. Each change figure degrades to
// nil independently when its window has too little data.
func (s *Service) GetSummary(ctx context.Context) (*Summary, error) {
	snap, err := s.loadSnapshot(ctx, engine.WindowMax)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		TotalValue:      contracts.TotalMarketValue(snap.positions),
		PositionCount:   len(snap.positions),
		LastPriceUpdate: snap.settings.LastPriceUpdate,
	}
	for _, pos := range snap.positions {
		summary.TotalCostBasis += pos.CostBasis
	}

	aligned, warnings := engine.Align(snap.histories, snap.from, snap.to, s.opts)
	s.logWarnings(warnings)
	values := engine.PortfolioValues(aligned, snap.positions)

	summary.DayChange = windowChange(values, engine.Window1D.Start(snap.to))
	summary.YTDChange = windowChange(values, engine.WindowYTD.Start(snap.to))
	summary.InceptionChange = windowChange(values, time.Time{})

	return summary, nil
}

// windowChange is the percent change from the first value at or after the
// window start to the final value. Nil when fewer than two usable points
// exist or the base is not positive.
func windowChange(values engine.ValueSeries, start time.Time) *float64 {
	var windowed engine.ValueSeries
	for _, p := range values {
		if !start.IsZero() && p.Date.Before(start) {
			continue
		}
		windowed = append(windowed, p)
	}
	if len(windowed) < 2 || windowed[0].Value <= 0 {
		return nil
	}
	change := (windowed[len(windowed)-1].Value/windowed[0].Value - 1) * 100
	return &change
}

func (s *Service) logWarnings(warnings []engine.Warning) {
	for _, w := range warnings {
		s.logger.WithFields(map[string]interface{}{
			"ticker": w.Ticker,
			"date":   w.Date.Format("2006-01-02"),
		}).Warn(w.Message)
	}
}

// RefreshWeights lists the positions and recomputes the cached weight
// columns when they have drifted from the 100% invariant, returning a
// consistent snapshot either way.
func (s *Service) RefreshWeights(ctx context.Context, tolerance float64) ([]contracts.Position, error) {
	positions, err := s.positions.List(ctx)
	if err != nil {
		return nil, err
	}
	if !contracts.WeightsStale(positions, tolerance) {
		return positions, nil
	}

	total := contracts.TotalMarketValue(positions)
	if total <= 0 {
		return positions, nil
	}

	s.logger.WithField("total_weight", contracts.TotalWeight(positions)).Info("Refreshing stale position weights")
	for i := range positions {
		weight := positions[i].MarketValue / total * 100
		if err := s.positions.UpdateValuation(ctx, positions[i].ID, positions[i].CurrentPrice, positions[i].MarketValue, weight); err != nil {
			return nil, err
		}
		positions[i].Weight = weight
	}
	return positions, nil
}
