package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/folioscope/folioscope/internal/scheduler"
	"github.com/folioscope/folioscope/internal/scheduler/jobs"
)

// schedulerCmd runs the background job scheduler.
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the background job scheduler",
	Long: `Run the background job scheduler.

Jobs:
  price_update       - weekdays 21:30 UTC, after US close
  report_generation  - daily 22:00 UTC, fires on the configured report day

Example:
  go run ./cmd/folioscope scheduler
  go run ./cmd/folioscope scheduler --run price_update`,
	RunE: runScheduler,
}

var schedulerRunNow string

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.Flags().StringVar(&schedulerRunNow, "run", "", "run the named job immediately on startup")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.close()

	sched := scheduler.New(d.log)

	if err := sched.AddJob(jobs.NewPriceUpdateJob(d.collector, d.collectorCfg, d.log)); err != nil {
		return err
	}
	if err := sched.AddJob(jobs.NewReportGenerationJob(d.generator, d.stores.settings, d.log)); err != nil {
		return err
	}

	sched.Start()
	defer sched.Stop()

	if schedulerRunNow != "" {
		if err := sched.RunJob(schedulerRunNow); err != nil {
			return err
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	for _, name := range sched.Jobs() {
		history, err := sched.History(name)
		if err != nil {
			continue
		}
		d.log.WithFields(map[string]interface{}{
			"job":          name,
			"runs":         len(history.Results),
			"success_rate": history.SuccessRate(),
		}).Info("Job history")
	}

	return nil
}
