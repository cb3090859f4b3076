package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORS_DisabledWhenNoOrigins(t *testing.T) {
	handler := CORS(CORSConfig{})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/feed/mentors", nil)
	req.Header.Set("Origin", "http://example.com")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if origin := rr.Header().Get("Access-Control-Allow-Origin"); origin != "" {
		t.Errorf("expected no CORS headers when disabled, got %s", origin)
	}
}

func TestCORS_Requests(t *testing.T) {
	handler := CORS(CORSConfig{
		AllowedOrigins:   []string{" https://app.example.com ", ""},
		AllowCredentials: true,
		MaxAge:           600,
	})(okHandler())

	tests := []struct {
		name       string
		method     string
		origin     string
		wantStatus int
		wantOrigin string
	}{
		{"same origin", http.MethodGet, "", http.StatusOK, ""},
		{"allowed origin", http.MethodGet, "https://app.example.com", http.StatusOK, "https://app.example.com"},
		{"unknown origin", http.MethodGet, "https://evil.example.com", http.StatusForbidden, ""},
		{"preflight", http.MethodOptions, "https://app.example.com", http.StatusNoContent, "https://app.example.com"},
		{"preflight unknown origin", http.MethodOptions, "https://evil.example.com", http.StatusForbidden, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/feed/users", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("expected Access-Control-Allow-Origin %q, got %q", tt.wantOrigin, got)
			}
		})
	}
}

func TestCORS_PreflightDefaults(t *testing.T) {
	handler := CORS(CORSConfig{AllowedOrigins: []string{"https://app.example.com"}, MaxAge: 600})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/feed/mentors", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Methods"); got != "GET, OPTIONS" {
		t.Errorf("unexpected default methods %q", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Headers"); got != "Authorization, X-Request-ID" {
		t.Errorf("unexpected default headers %q", got)
	}
	if got := rr.Header().Get("Access-Control-Max-Age"); got != "600" {
		t.Errorf("expected max age 600, got %q", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Credentials"); got != "" {
		t.Errorf("expected no credentials header, got %q", got)
	}
}

func TestCORS_ExposesRateLimitHeaders(t *testing.T) {
	handler := CORS(CORSConfig{AllowedOrigins: []string{"https://app.example.com"}})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/feed/mentors", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	exposed := rr.Header().Get("Access-Control-Expose-Headers")
	for _, h := range []string{"X-Request-ID", "X-RateLimit-Remaining", "Retry-After"} {
		if !strings.Contains(exposed, h) {
			t.Errorf("expected %s to be exposed, got %q", h, exposed)
		}
	}
	if rr.Header().Get("Vary") != "Origin" {
		t.Errorf("expected Vary: Origin, got %q", rr.Header().Get("Vary"))
	}
}
