package feed

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names.
const (
	MetricFeedRequests        = "feed_requests_total"
	MetricFeedRequestDuration = "feed_request_duration_seconds"
	MetricFeedCandidates      = "feed_candidates"
)

// Outcome labels for feed_requests_total.
const (
	OutcomeUnranked = "unranked"  // anonymous or descriptionless viewer
	OutcomeCacheHit = "cache_hit" // ranked page served from cache
	OutcomeRanked   = "ranked"    // oracle ordering applied and cached
	OutcomeDegraded = "degraded"  // oracle failed, original order, not cached
	OutcomeError    = "error"     // profile store failure
)

// Metrics contains Prometheus metrics for feed assembly.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	requests   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	candidates *prometheus.HistogramVec
}

// NewMetrics creates feed metrics. Call Register to expose them.
func NewMetrics() *Metrics {
	return &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricFeedRequests,
				Help: "Total number of feed requests by audience and outcome",
			},
			[]string{"audience", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricFeedRequestDuration,
				Help:    "Feed assembly latency in seconds",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"audience", "outcome"},
		),
		candidates: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricFeedCandidates,
				Help:    "Number of candidates considered per feed request",
				Buckets: []float64{0, 10, 50, 100, 250, 500, 1000},
			},
			[]string{"audience"},
		),
	}
}

// Register registers all metrics with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns all collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.requests, m.duration, m.candidates}
}

func (m *Metrics) observeRequest(audience, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(audience, outcome).Inc()
	m.duration.WithLabelValues(audience, outcome).Observe(seconds)
}

func (m *Metrics) observeCandidates(audience string, n int) {
	if m == nil {
		return
	}
	m.candidates.WithLabelValues(audience).Observe(float64(n))
}
