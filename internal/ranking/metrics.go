package ranking

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names.
const (
	MetricOracleRequests     = "ranking_oracle_requests_total"
	MetricOracleDuration     = "ranking_oracle_duration_seconds"
	MetricBreakerState       = "ranking_breaker_state"
	MetricBreakerTransitions = "ranking_breaker_transitions_total"
)

// Result labels for ranking_oracle_requests_total.
const (
	ResultSuccess     = "success"
	ResultError       = "error"
	ResultUnparseable = "unparseable"
	ResultRejected    = "rejected"
)

// Metrics contains Prometheus metrics for the ranking oracle.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	requests    *prometheus.CounterVec
	duration    prometheus.Histogram
	state       prometheus.Gauge
	transitions *prometheus.CounterVec
}

// NewMetrics creates ranking metrics. Call Register to expose them.
func NewMetrics() *Metrics {
	return &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricOracleRequests,
				Help: "Total number of ranking oracle calls by result",
			},
			[]string{"result"},
		),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricOracleDuration,
			Help:    "Ranking oracle call latency in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		}),
		state: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricBreakerState,
			Help: "Ranking circuit breaker state (0=closed, 1=half-open, 2=open)",
		}),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricBreakerTransitions,
				Help: "Total number of ranking circuit breaker state transitions",
			},
			[]string{"from", "to"},
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
	return []prometheus.Collector{m.requests, m.duration, m.state, m.transitions}
}

func (m *Metrics) observeCall(result string, seconds float64) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(result).Inc()
	if result != ResultRejected {
		m.duration.Observe(seconds)
	}
}

func (m *Metrics) observeTransition(from, to string, state float64) {
	if m == nil {
		return
	}
	m.state.Set(state)
	m.transitions.WithLabelValues(from, to).Inc()
}
