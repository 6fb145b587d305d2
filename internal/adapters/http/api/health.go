package api

import (
	"net/http"
	"time"

	"github.com/okian/planner/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type healthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// HealthHandler handles liveness and metrics requests.
type HealthHandler struct {
	started time.Time
	metrics http.Handler
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{
		started: time.Now(),
		metrics: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

// HandleHealth handles GET /healthz.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		Uptime: time.Since(h.started).Truncate(time.Second).String(),
	})
}

// HandleMetrics serves the planner registry in Prometheus text format.
func (h *HealthHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}
