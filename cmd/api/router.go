package main

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/onnwee/mentorfeed/internal/api"
	"github.com/onnwee/mentorfeed/internal/middleware"
)

// serviceName names the server in traces.
const serviceName = "mentorfeed-api"

// routerDeps holds everything the HTTP surface needs.
type routerDeps struct {
	feeds     *api.FeedHandlers
	health    *api.HealthHandlers
	validator middleware.TokenValidator
	logger    *slog.Logger

	// rateStore is nil when rate limiting is disabled.
	rateStore middleware.RateLimitStore
	rateLimit middleware.RateLimitConfig

	httpMetrics *middleware.Metrics
	registry    *prometheus.Registry
	cors        middleware.CORSConfig
}

// newRouter builds the routes and the middleware chain:
// RequestID -> Tracing -> Logging -> HTTPMetrics -> CORS -> Authenticate -> mux.
func newRouter(d routerDeps) http.Handler {
	mux := http.NewServeMux()

	limit := func(h http.HandlerFunc) http.Handler {
		if d.rateStore == nil {
			return h
		}
		return middleware.RateLimiter(d.rateStore, d.rateLimit, middleware.ViewerKeyFunc(), d.httpMetrics)(h)
	}

	mux.Handle("/feed/mentors", limit(d.feeds.MentorFeed))
	mux.Handle("/feed/users", limit(d.feeds.UserFeed))
	mux.HandleFunc("/health", d.health.Health)
	mux.HandleFunc("/ready", d.health.Ready)
	if d.registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{}))
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		ctx := middleware.SetErrorCode(r.Context(), api.ErrCodeNotFound)
		api.WriteError(w, ctx, http.StatusNotFound, api.ErrCodeNotFound, "The requested resource was not found")
	})

	var handler http.Handler = mux
	if d.validator != nil {
		handler = middleware.Authenticate(d.validator, d.logger)(handler)
	}
	handler = middleware.CORS(d.cors)(handler)
	handler = middleware.HTTPMetrics(d.httpMetrics)(handler)
	handler = middleware.Logging(d.logger)(handler)
	handler = middleware.Tracing(serviceName)(handler)
	return middleware.RequestID(handler)
}
