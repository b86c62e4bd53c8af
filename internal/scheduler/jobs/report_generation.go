package jobs

import (
	"context"
	"time"

	"github.com/folioscope/folioscope/internal/contracts"
	"github.com/folioscope/folioscope/internal/report"
	"github.com/folioscope/folioscope/pkg/logger"
)

// ReportGenerationJob generates the monthly report. The job fires daily
// and checks the configured report day, so a changed setting takes effect
// without rescheduling.
type ReportGenerationJob struct {
	generator *report.Generator
	settings  contracts.SettingsRepository
	logger    *logger.Logger
}

// NewReportGenerationJob creates the report generation job.
func NewReportGenerationJob(g *report.Generator, settings contracts.SettingsRepository, log *logger.Logger) *ReportGenerationJob {
	return &ReportGenerationJob{
		generator: g,
		settings:  settings,
		logger:    log.WithField("job", "report_generation"),
	}
}

// Name returns the job name.
func (j *ReportGenerationJob) Name() string {
	return "report_generation"
}

// Schedule runs daily at 22:00 UTC, after the price update.
func (j *ReportGenerationJob) Schedule() string {
	return "0 0 22 * * *"
}

// Run generates a report when today matches the configured report day and
// none was generated yet this month.
func (j *ReportGenerationJob) Run(ctx context.Context) error {
	settings, err := j.settings.Get(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if !reportDue(settings, now) {
		j.logger.WithFields(map[string]interface{}{
			"today":      now.Day(),
			"report_day": settings.ReportDay,
		}).Debug("Report not due, skipping")
		return nil
	}

	_, err = j.generator.Generate(ctx)
	return err
}

// reportDue reports whether a monthly report should be generated at now.
func reportDue(settings *contracts.Settings, now time.Time) bool {
	if now.Day() != settings.ReportDay {
		return false
	}
	if last := settings.LastReportGeneration; last != nil {
		if last.Year() == now.Year() && last.Month() == now.Month() {
			return false
		}
	}
	return true
}
