package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/benvon/taskcloud/internal/models"
	"github.com/gorilla/mux"
)

// checkTimeout bounds each dependency check
const checkTimeout = 5 * time.Second

// CheckFunc reports whether one dependency is reachable
type CheckFunc func(ctx context.Context) error

type namedCheck struct {
	name  string
	check CheckFunc
}

// HealthChecker handles health check requests
type HealthChecker struct {
	checks []namedCheck
}

// HealthOption adds a dependency check
type HealthOption func(*HealthChecker)

// WithCheck registers a dependency reported by extended health checks
func WithCheck(name string, check CheckFunc) HealthOption {
	return func(h *HealthChecker) {
		if check != nil {
			h.checks = append(h.checks, namedCheck{name: name, check: check})
		}
	}
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(opts ...HealthOption) *HealthChecker {
	h := &HealthChecker{}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HealthResponse is the data of an extended health check
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// RegisterRoutes registers the health endpoints on the root router
func (h *HealthChecker) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
}

// Health handles /api/health: the server is up
func (h *HealthChecker) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, "ok", nil)
}

// HealthCheck handles the /healthz endpoint. mode=extended runs every registered check.
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if r.URL.Query().Get("mode") != "extended" {
		respondJSON(w, http.StatusOK, response.Status, response)
		return
	}

	response.Checks = make(map[string]string, len(h.checks))
	for _, c := range h.checks {
		if err := runCheck(r.Context(), c.check); err != nil {
			response.Status = "unhealthy"
			response.Checks[c.name] = "unhealthy: " + err.Error()
			continue
		}
		response.Checks[c.name] = "healthy"
	}

	if response.Status == "unhealthy" {
		writeEnvelope(w, http.StatusServiceUnavailable, models.Envelope{Code: http.StatusServiceUnavailable, Msg: response.Status, Data: response})
		return
	}
	respondJSON(w, http.StatusOK, response.Status, response)
}

func runCheck(ctx context.Context, check CheckFunc) error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	return check(ctx)
}
