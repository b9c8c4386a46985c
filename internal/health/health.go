// Package health provides liveness and readiness endpoints for the exporter.
package health

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gnuowned/intersight-exporter/internal/poller"
)

// HealthCheck tracks poll outcomes to answer readiness probes. The exporter is
// ready once at least one cycle has completed successfully.
type HealthCheck struct {
	logger *zap.Logger

	mu          sync.RWMutex
	ready       bool
	lastCycle   time.Time
	lastSuccess time.Time
	lastError   string
	lastStep    poller.Step
}

// NewHealthCheck creates a new HealthCheck instance.
func NewHealthCheck(logger *zap.Logger) *HealthCheck {
	return &HealthCheck{logger: logger}
}

// LivenessResponse represents the response for the liveness check.
type LivenessResponse struct {
	Status string `json:"status"`
}

// ReadinessResponse represents the response for the readiness check.
type ReadinessResponse struct {
	Status      string `json:"status"`
	LastCycle   string `json:"last_cycle,omitempty"`
	LastSuccess string `json:"last_success,omitempty"`
	LastStep    string `json:"last_step,omitempty"`
	Error       string `json:"error,omitempty"`
}

// ReportCycle records a poll result.
func (hc *HealthCheck) ReportCycle(result poller.CycleResult) {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	wasReady := hc.ready
	hc.lastCycle = result.Started.Add(result.Duration)
	hc.lastStep = result.Step
	if result.OK() {
		hc.ready = true
		hc.lastSuccess = hc.lastCycle
		hc.lastError = ""
	} else {
		hc.lastError = result.Err.Error()
	}

	if !wasReady && hc.ready {
		hc.logger.Info("exporter is ready")
	}
}

// LivenessHandler handles GET /health requests.
// Returns 200 OK while the process is running.
func (hc *HealthCheck) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LivenessResponse{Status: "healthy"})
}

// ReadinessHandler handles GET /ready requests.
// Returns 200 OK once a poll cycle has succeeded, 503 before that.
func (hc *HealthCheck) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	hc.mu.RLock()
	resp := ReadinessResponse{
		Status:   "not_ready",
		LastStep: string(hc.lastStep),
		Error:    hc.lastError,
	}
	if !hc.lastCycle.IsZero() {
		resp.LastCycle = hc.lastCycle.UTC().Format(time.RFC3339)
	}
	if !hc.lastSuccess.IsZero() {
		resp.LastSuccess = hc.lastSuccess.UTC().Format(time.RFC3339)
	}
	ready := hc.ready
	hc.mu.RUnlock()

	if ready {
		resp.Status = "ready"
		writeJSON(w, http.StatusOK, resp)
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, resp)
}

// IsReady returns the current readiness status.
func (hc *HealthCheck) IsReady() bool {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return hc.ready
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
