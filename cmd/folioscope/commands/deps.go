package commands

import (
	"fmt"

	"github.com/folioscope/folioscope/internal/collector"
	"github.com/folioscope/folioscope/internal/marketdata"
	"github.com/folioscope/folioscope/internal/portfolio"
	"github.com/folioscope/folioscope/internal/report"
	"github.com/folioscope/folioscope/internal/store"
	"github.com/folioscope/folioscope/pkg/config"
	"github.com/folioscope/folioscope/pkg/database"
	"github.com/folioscope/folioscope/pkg/logger"
	"github.com/folioscope/folioscope/pkg/redis"
)

// deps wires the shared application components. Each command builds this
// once and closes it on exit.
type deps struct {
	cfg    *config.Config
	log    *logger.Logger
	db     *database.DB
	redis  *redis.Client
	cache  *redis.Cache
	stores struct {
		positions *store.PositionRepository
		prices    *store.PriceRepository
		settings  *store.SettingsRepository
		reports   *store.ReportRepository
	}
	provider     *marketdata.Client
	collector    *collector.Collector
	collectorCfg collector.Config
	portfolio    *portfolio.Service
	generator    *report.Generator
}

func buildDeps() (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	d := &deps{cfg: cfg}
	d.log = logger.New(cfg)

	d.db, err = database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	d.log.Info("Connected to database")

	d.redis, err = redis.New(cfg)
	if err != nil {
		d.log.WithError(err).Warn("Redis unavailable, caching disabled")
	}
	if d.redis != nil && d.redis.Enabled() {
		d.cache = redis.NewCache(d.redis, "folioscope")
	}

	d.stores.positions = store.NewPositionRepository(d.db.Pool)
	d.stores.prices = store.NewPriceRepository(d.db.Pool)
	d.stores.settings = store.NewSettingsRepository(d.db.Pool)
	d.stores.reports = store.NewReportRepository(d.db.Pool)

	d.provider = marketdata.NewClient(cfg.MarketData, d.log, d.cache)
	d.collector = collector.New(d.provider, d.stores.positions, d.stores.prices, d.stores.settings, d.log)
	d.collectorCfg = collector.Config{
		Workers:      4,
		FetchTimeout: cfg.MarketData.FetchTimeout,
	}

	d.portfolio = portfolio.New(
		d.stores.positions, d.stores.prices, d.stores.settings, d.log,
		portfolio.Config{
			LoadTimeout:   cfg.Analytics.LoadTimeout,
			FillLastKnown: cfg.Analytics.FillLastKnown,
		},
	)

	narrator := report.NewOpenAINarrator(cfg.OpenAI, d.log)
	d.generator = report.NewGenerator(
		d.stores.positions, d.stores.prices, d.stores.settings, d.stores.reports,
		narrator, d.log, "https://storage.folioscope.io/reports",
	)

	return d, nil
}

func (d *deps) close() {
	if d.redis != nil {
		_ = d.redis.Close()
	}
	if d.db != nil {
		d.db.Close()
	}
}
