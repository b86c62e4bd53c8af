package handlers

import (
	"net/http"

	"github.com/folioscope/folioscope/pkg/database"
	"github.com/folioscope/folioscope/pkg/redis"
)

// HealthHandler serves the health check endpoint.
type HealthHandler struct {
	db    *database.DB
	redis *redis.Client
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db *database.DB, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient}
}

// Check reports service and database health.
// GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	dbHealth, _ := h.db.HealthCheck(r.Context())

	status := http.StatusOK
	statusText := "ok"
	if !dbHealth.Healthy {
		status = http.StatusServiceUnavailable
		statusText = "degraded"
	}

	respondJSON(w, status, map[string]interface{}{
		"status":   statusText,
		"service":  "folioscope-api",
		"database": dbHealth,
		"redis":    h.redis.Enabled(),
	})
}
