package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/folioscope/folioscope/internal/api"
	"github.com/folioscope/folioscope/internal/api/handlers"
)

// apiCmd starts the REST API server.
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the REST API server",
	Long: `Start the REST API server.

Endpoints:
  GET  /health                      - Health check
  GET  /api/portfolio/positions     - All holdings
  GET  /api/portfolio/summary       - Dashboard summary
  GET  /api/portfolio/performance   - Portfolio vs benchmark series
  GET  /api/portfolio/risk          - Risk statistics
  GET  /api/portfolio/allocation    - Sector allocation
  GET  /api/portfolio/movers        - Top gainers and losers
  GET  /api/reports                 - Generated reports
  POST /api/admin/collect           - Trigger price update (admin)
  POST /api/admin/backfill          - Seed price history (admin)
  POST /api/admin/reports           - Trigger report generation (admin)
  POST /api/admin/positions         - Create position (admin)
  PUT  /api/admin/positions/{id}    - Update position (admin)
  DEL  /api/admin/positions/{id}    - Delete position (admin)

Example:
  go run ./cmd/folioscope api
  go run ./cmd/folioscope api --port 8080`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.close()

	if apiPort != "" {
		d.cfg.Port = apiPort
	}

	portfolioHandler := handlers.NewPortfolioHandler(d.portfolio, d.stores.positions, d.stores.reports, d.log)
	adminHandler := handlers.NewAdminHandler(d.collector, d.collectorCfg, d.generator, d.stores.positions, d.log)
	healthHandler := handlers.NewHealthHandler(d.db, d.redis)

	router := api.NewRouter(portfolioHandler, adminHandler, healthHandler, d.cfg.AdminToken, d.log)
	server := api.New(d.cfg, d.log, router)

	go func() {
		if err := server.Start(); err != nil {
			d.log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("Server running on http://localhost:%s\n", d.cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	d.log.Info("Server stopped")
	return nil
}
