package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dmitrijs2005/workloadtracker/internal/server/database"
)

type healthResponse struct {
	Status    string          `json:"status"`
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
	Uptime    float64         `json:"uptime"`
	Database  database.Health `json:"database"`
	// Revocation is the redis breaker state: closed, half-open or open.
	Revocation string `json:"revocation,omitempty"`
}

// handleHealth reports 200 while the database answers and 503 otherwise.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbHealth := h.health.HealthCheck(r.Context())

	resp := healthResponse{
		Status:    "OK",
		Message:   "Workload Management API is running",
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.started).Seconds(),
		Database:  dbHealth,
	}
	if h.opts.Revocation != nil {
		resp.Revocation = h.opts.Revocation.State().String()
	}
	status := http.StatusOK
	if !dbHealth.Healthy() {
		resp.Status = "ERROR"
		resp.Message = "Database connection failed"
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
