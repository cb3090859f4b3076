package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// mockHealthChecker is a mock implementation of HealthChecker for testing.
type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) HealthCheck(ctx context.Context) error {
	return m.err
}

var failing = &mockHealthChecker{err: errors.New("health check failed")}

func decodeHealth(t *testing.T, w *httptest.ResponseRecorder) HealthResponse {
	t.Helper()
	var response HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return response
}

func TestHealth_Success(t *testing.T) {
	handlers := NewHealthHandlers(HealthHandlersConfig{DBChecker: failing})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	handlers.Health(w, req)

	// Liveness never depends on dependencies.
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("expected JSON content type, got %q", ct)
	}
	response := decodeHealth(t, w)
	if response.Status != "healthy" {
		t.Errorf("expected status 'healthy', got %s", response.Status)
	}
	if response.Checks["runtime"] != "ok" {
		t.Errorf("expected runtime check to be 'ok', got %s", response.Checks["runtime"])
	}
	if response.Timestamp == "" {
		t.Error("expected timestamp to be set")
	}
}

func TestReady(t *testing.T) {
	ok := &mockHealthChecker{}

	tests := []struct {
		name       string
		config     HealthHandlersConfig
		wantCode   int
		wantStatus string
		wantChecks map[string]string
	}{
		{
			name:       "all healthy",
			config:     HealthHandlersConfig{DBChecker: ok, RedisChecker: ok, BreakerChecker: ok},
			wantCode:   http.StatusOK,
			wantStatus: "healthy",
			wantChecks: map[string]string{"database": "ok", "redis": "ok", "ranking": "ok"},
		},
		{
			name:       "database down",
			config:     HealthHandlersConfig{DBChecker: failing, RedisChecker: ok, BreakerChecker: ok},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "unhealthy",
			wantChecks: map[string]string{"database": "error", "redis": "ok", "ranking": "ok"},
		},
		{
			name:       "redis down degrades",
			config:     HealthHandlersConfig{DBChecker: ok, RedisChecker: failing, BreakerChecker: ok},
			wantCode:   http.StatusOK,
			wantStatus: "degraded",
			wantChecks: map[string]string{"database": "ok", "redis": "degraded", "ranking": "ok"},
		},
		{
			name:       "breaker open degrades",
			config:     HealthHandlersConfig{DBChecker: ok, RedisChecker: ok, BreakerChecker: failing},
			wantCode:   http.StatusOK,
			wantStatus: "degraded",
			wantChecks: map[string]string{"database": "ok", "redis": "ok", "ranking": "degraded"},
		},
		{
			name:       "database down wins over degraded",
			config:     HealthHandlersConfig{DBChecker: failing, RedisChecker: failing},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "unhealthy",
			wantChecks: map[string]string{"database": "error", "redis": "degraded", "ranking": "not_configured"},
		},
		{
			name:       "nothing configured",
			config:     HealthHandlersConfig{},
			wantCode:   http.StatusOK,
			wantStatus: "healthy",
			wantChecks: map[string]string{"database": "not_configured", "redis": "not_configured", "ranking": "not_configured"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlers := NewHealthHandlers(tt.config)
			req := httptest.NewRequest(http.MethodGet, "/ready", nil)
			w := httptest.NewRecorder()
			handlers.Ready(w, req)

			if w.Code != tt.wantCode {
				t.Errorf("expected status %d, got %d", tt.wantCode, w.Code)
			}
			response := decodeHealth(t, w)
			if response.Status != tt.wantStatus {
				t.Errorf("expected status %q, got %q", tt.wantStatus, response.Status)
			}
			for name, want := range tt.wantChecks {
				if got := response.Checks[name]; got != want {
					t.Errorf("check %q = %q, want %q", name, got, want)
				}
			}
			if len(response.Checks) != len(tt.wantChecks) {
				t.Errorf("expected %d checks, got %v", len(tt.wantChecks), response.Checks)
			}
		})
	}
}

func TestReady_CheckerSeesDeadline(t *testing.T) {
	var hadDeadline bool
	checker := checkerFunc(func(ctx context.Context) error {
		_, hadDeadline = ctx.Deadline()
		return nil
	})

	handlers := NewHealthHandlers(HealthHandlersConfig{DBChecker: checker})
	handlers.Ready(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ready", nil))

	if !hadDeadline {
		t.Error("expected readiness checks to run under a deadline")
	}
}

func TestHealthEndpoints_MethodNotAllowed(t *testing.T) {
	handlers := NewHealthHandlers(HealthHandlersConfig{})

	for name, handler := range map[string]http.HandlerFunc{
		"/health": handlers.Health,
		"/ready":  handlers.Ready,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, name, nil)
			w := httptest.NewRecorder()
			handler(w, req)

			if w.Code != http.StatusMethodNotAllowed {
				t.Errorf("expected status 405, got %d", w.Code)
			}
			if allow := w.Header().Get("Allow"); allow != http.MethodGet {
				t.Errorf("expected Allow: GET, got %q", allow)
			}
		})
	}
}

type checkerFunc func(ctx context.Context) error

func (f checkerFunc) HealthCheck(ctx context.Context) error { return f(ctx) }
