package jobs

import (
	"context"

	"github.com/folioscope/folioscope/internal/collector"
	"github.com/folioscope/folioscope/pkg/logger"
)

// PriceUpdateJob runs the daily price update after US market close.
type PriceUpdateJob struct {
	collector *collector.Collector
	cfg       collector.Config
	logger    *logger.Logger
}

// NewPriceUpdateJob creates the daily price update job.
func NewPriceUpdateJob(c *collector.Collector, cfg collector.Config, log *logger.Logger) *PriceUpdateJob {
	return &PriceUpdateJob{
		collector: c,
		cfg:       cfg,
		logger:    log.WithField("job", "price_update"),
	}
}

// Name returns the job name.
func (j *PriceUpdateJob) Name() string {
	return "price_update"
}

// Schedule runs weekdays at 21:30 UTC, after the US close.
func (j *PriceUpdateJob) Schedule() string {
	return "0 30 21 * * 1-5"
}

// Run executes the price update.
func (j *PriceUpdateJob) Run(ctx context.Context) error {
	results, err := j.collector.UpdatePrices(ctx, j.cfg)
	if err != nil {
		return err
	}

	j.logger.WithField("results", len(results)).Info("Price update job finished")
	return nil
}
