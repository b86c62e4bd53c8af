package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/folioscope/folioscope/internal/contracts"
	"github.com/folioscope/folioscope/internal/engine"
	"github.com/folioscope/folioscope/internal/portfolio"
	"github.com/folioscope/folioscope/pkg/logger"
)

const defaultTopN = 5

// PortfolioHandler serves the read-only portfolio endpoints.
type PortfolioHandler struct {
	service   *portfolio.Service
	positions contracts.PositionRepository
	reports   contracts.ReportRepository
	logger    *logger.Logger
}

// NewPortfolioHandler creates a new portfolio handler.
func NewPortfolioHandler(
	service *portfolio.Service,
	positions contracts.PositionRepository,
	reports contracts.ReportRepository,
	log *logger.Logger,
) *PortfolioHandler {
	return &PortfolioHandler{
		service:   service,
		positions: positions,
		reports:   reports,
		logger:    log,
	}
}

// GetPositions returns all holdings.
// GET /api/portfolio/positions
func (h *PortfolioHandler) GetPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.positions.List(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list positions")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve positions")
		return
	}
	if positions == nil {
		positions = []contracts.Position{}
	}

	respondJSON(w, http.StatusOK, positions)
}

// GetSummary returns the dashboard summary.
// GET /api/portfolio/summary
func (h *PortfolioHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GetSummary(r.Context())
	if err != nil {
		h.respondServiceError(w, err, "Failed to compute summary")
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// GetPerformance returns the portfolio-vs-benchmark series for a window.
// GET /api/portfolio/performance?window=1M
func (h *PortfolioHandler) GetPerformance(w http.ResponseWriter, r *http.Request) {
	window, ok := h.parseWindow(w, r)
	if !ok {
		return
	}

	series, err := h.service.Performance(r.Context(), window)
	if err != nil {
		h.respondServiceError(w, err, "Failed to compute performance")
		return
	}
	if series == nil {
		series = []engine.PerformancePoint{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"window": window,
		"series": series,
	})
}

// GetRisk returns the risk statistics for a window.
// GET /api/portfolio/risk?window=1Y
func (h *PortfolioHandler) GetRisk(w http.ResponseWriter, r *http.Request) {
	window := engine.Window1Y
	if raw := r.URL.Query().Get("window"); raw != "" {
		var err error
		window, err = engine.ParseWindow(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	metrics, err := h.service.Risk(r.Context(), window)
	if err != nil {
		h.respondServiceError(w, err, "Failed to compute risk metrics")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"window":  window,
		"metrics": metrics,
	})
}

// GetAllocation returns the sector allocation.
// GET /api/portfolio/allocation
func (h *PortfolioHandler) GetAllocation(w http.ResponseWriter, r *http.Request) {
	allocation, err := h.service.Allocation(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute allocation")
		respondError(w, http.StatusInternalServerError, "Failed to compute allocation")
		return
	}

	respondJSON(w, http.StatusOK, allocation)
}

// GetMovers returns the top gainers and losers for a window.
// GET /api/portfolio/movers?window=1M&n=5
func (h *PortfolioHandler) GetMovers(w http.ResponseWriter, r *http.Request) {
	window, ok := h.parseWindow(w, r)
	if !ok {
		return
	}

	topN := defaultTopN
	if raw := r.URL.Query().Get("n"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "Invalid 'n' parameter")
			return
		}
		topN = n
	}

	movers, err := h.service.Movers(r.Context(), window, topN)
	if err != nil {
		h.respondServiceError(w, err, "Failed to compute movers")
		return
	}

	respondJSON(w, http.StatusOK, movers)
}

// GetReports returns the most recent generated reports.
// GET /api/reports?limit=12
func (h *PortfolioHandler) GetReports(w http.ResponseWriter, r *http.Request) {
	limit := 12
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			respondError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
		limit = n
	}

	reports, err := h.reports.List(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list reports")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve reports")
		return
	}
	if reports == nil {
		reports = []contracts.Report{}
	}

	respondJSON(w, http.StatusOK, reports)
}

func (h *PortfolioHandler) parseWindow(w http.ResponseWriter, r *http.Request) (engine.Window, bool) {
	raw := r.URL.Query().Get("window")
	if raw == "" {
		return engine.Window1M, true
	}
	window, err := engine.ParseWindow(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return window, true
}

func (h *PortfolioHandler) respondServiceError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, contracts.ErrAllFetchesFailed):
		h.logger.WithError(err).Error(message)
		respondError(w, http.StatusServiceUnavailable, "Price data unavailable")
	case errors.Is(err, contracts.ErrMissingBenchmark):
		respondError(w, http.StatusPreconditionFailed, "Benchmark ticker not configured")
	case errors.Is(err, contracts.ErrMissingRiskFreeRate):
		respondError(w, http.StatusPreconditionFailed, "Risk-free rate not configured")
	case errors.Is(err, contracts.ErrNotFound):
		respondError(w, http.StatusNotFound, "Not found")
	default:
		h.logger.WithError(err).Error(message)
		respondError(w, http.StatusInternalServerError, message)
	}
}
