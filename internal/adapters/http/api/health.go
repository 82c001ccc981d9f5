package api

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/parkrank/pkg/metrics"
)

// ReadinessChecker reports whether backing stores are reachable.
type ReadinessChecker interface {
	Ready(ctx context.Context) error
}

// HealthHandler handles health, readiness and metrics requests.
type HealthHandler struct {
	ready   ReadinessChecker
	metrics http.Handler
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(ready ReadinessChecker) *HealthHandler {
	return &HealthHandler{
		ready:   ready,
		metrics: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

// HandleHealth serves Prometheus metrics from the custom registry.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}

type readyResponse struct {
	Status string `json:"status"`
}

// HandleReady handles GET /readyz.
func (h *HealthHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	if err := h.ready.Ready(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, readyResponse{Status: "ready"})
}
