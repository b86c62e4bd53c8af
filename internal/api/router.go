package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/folioscope/folioscope/internal/api/handlers"
	"github.com/folioscope/folioscope/pkg/logger"
)

// NewRouter creates and configures the HTTP router. All routing lives here.
func NewRouter(
	portfolioHandler *handlers.PortfolioHandler,
	adminHandler *handlers.AdminHandler,
	healthHandler *handlers.HealthHandler,
	adminToken string,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", healthHandler.Check).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Read-only portfolio endpoints
	api.HandleFunc("/portfolio/positions", portfolioHandler.GetPositions).Methods("GET")
	api.HandleFunc("/portfolio/summary", portfolioHandler.GetSummary).Methods("GET")
	api.HandleFunc("/portfolio/performance", portfolioHandler.GetPerformance).Methods("GET")
	api.HandleFunc("/portfolio/risk", portfolioHandler.GetRisk).Methods("GET")
	api.HandleFunc("/portfolio/allocation", portfolioHandler.GetAllocation).Methods("GET")
	api.HandleFunc("/portfolio/movers", portfolioHandler.GetMovers).Methods("GET")
	api.HandleFunc("/reports", portfolioHandler.GetReports).Methods("GET")

	// Admin endpoints behind the shared token
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(adminAuthMiddleware(adminToken, log))
	admin.HandleFunc("/collect", adminHandler.Collect).Methods("POST")
	admin.HandleFunc("/backfill", adminHandler.Backfill).Methods("POST")
	admin.HandleFunc("/reports", adminHandler.GenerateReport).Methods("POST")
	admin.HandleFunc("/positions", adminHandler.CreatePosition).Methods("POST")
	admin.HandleFunc("/positions/{id}", adminHandler.UpdatePosition).Methods("PUT")
	admin.HandleFunc("/positions/{id}", adminHandler.DeletePosition).Methods("DELETE")

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// adminAuthMiddleware gates admin routes on the X-Admin-Token header.
func adminAuthMiddleware(token string, log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				log.Warn("Admin endpoint called but ADMIN_TOKEN is not configured")
				writeJSONError(w, http.StatusForbidden, "Admin access not configured")
				return
			}

			provided := r.Header.Get("X-Admin-Token")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
				writeJSONError(w, http.StatusUnauthorized, "Invalid admin token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// loggingMiddleware logs HTTP requests.
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics.
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					writeJSONError(w, http.StatusInternalServerError, "Internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
