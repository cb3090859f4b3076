package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// readyTimeout bounds all readiness checks together.
const readyTimeout = 5 * time.Second

// Check states reported in HealthResponse.Checks.
const (
	checkOK            = "ok"
	checkError         = "error"
	checkDegraded      = "degraded"
	checkNotConfigured = "not_configured"
)

// HealthChecker defines the interface for components that can be health checked.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandlers provides liveness and readiness endpoints.
type HealthHandlers struct {
	dbChecker      HealthChecker
	redisChecker   HealthChecker
	breakerChecker HealthChecker
}

// HealthHandlersConfig configures the health check handlers.
// Nil checkers are reported as not configured.
type HealthHandlersConfig struct {
	// DBChecker guards the profile store. Failure makes the service unready.
	DBChecker HealthChecker

	// RedisChecker guards the cache backend. Feeds are served uncached
	// without it, so failure only degrades.
	RedisChecker HealthChecker

	// BreakerChecker reports the ranking oracle breaker. Failure only degrades.
	BreakerChecker HealthChecker
}

// NewHealthHandlers creates the health handlers.
func NewHealthHandlers(config HealthHandlersConfig) *HealthHandlers {
	return &HealthHandlers{
		dbChecker:      config.DBChecker,
		redisChecker:   config.RedisChecker,
		breakerChecker: config.BreakerChecker,
	}
}

// HealthResponse represents the JSON response for health checks.
type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp string            `json:"timestamp"`
}

// Health handles GET /health (liveness probe).
func (h *HealthHandlers) Health(w http.ResponseWriter, r *http.Request) {
	if methodNotAllowed(w, r, http.MethodGet) {
		return
	}

	writeJSON(w, r, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Checks:    map[string]string{"runtime": checkOK},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /ready (readiness probe).
// Returns 503 when the database is unreachable. Cache and oracle problems
// are reported as degraded with status 200.
func (h *HealthHandlers) Ready(w http.ResponseWriter, r *http.Request) {
	if methodNotAllowed(w, r, http.MethodGet) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	checks := make(map[string]string, 3)
	healthy := true
	degraded := false

	checks["database"] = runCheck(ctx, "database", h.dbChecker)
	if checks["database"] == checkError {
		healthy = false
	}

	for name, checker := range map[string]HealthChecker{
		"redis":   h.redisChecker,
		"ranking": h.breakerChecker,
	} {
		state := runCheck(ctx, name, checker)
		if state == checkError {
			state = checkDegraded
			degraded = true
		}
		checks[name] = state
	}

	status := "healthy"
	statusCode := http.StatusOK
	switch {
	case !healthy:
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	case degraded:
		status = "degraded"
	}

	writeJSON(w, r, statusCode, HealthResponse{
		Status:    status,
		Checks:    checks,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func runCheck(ctx context.Context, name string, checker HealthChecker) string {
	if checker == nil {
		return checkNotConfigured
	}
	if err := checker.HealthCheck(ctx); err != nil {
		slog.WarnContext(ctx, "health check failed", "check", name, "error", err)
		return checkError
	}
	return checkOK
}
