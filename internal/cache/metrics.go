package cache

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names.
const (
	MetricCacheLookups    = "feed_cache_lookups_total"
	MetricCacheErrors     = "feed_cache_errors_total"
	MetricCacheWriteBytes = "feed_cache_write_bytes"
)

// op labels for feed_cache_errors_total.
const (
	opGet    = "get"
	opSet    = "set"
	opEncode = "encode"
	opDecode = "decode"
)

// Metrics contains Prometheus metrics for the feed cache.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	lookups    *prometheus.CounterVec
	errors     *prometheus.CounterVec
	writeBytes prometheus.Histogram
}

// NewMetrics creates cache metrics. Call Register to expose them.
func NewMetrics() *Metrics {
	return &Metrics{
		lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricCacheLookups,
				Help: "Total number of feed cache lookups by result (hit, miss)",
			},
			[]string{"result"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricCacheErrors,
				Help: "Total number of feed cache failures by operation",
			},
			[]string{"op"},
		),
		writeBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricCacheWriteBytes,
			Help:    "Size of encoded feed pages written to the cache",
			Buckets: prometheus.ExponentialBuckets(256, 4, 7),
		}),
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
	return []prometheus.Collector{m.lookups, m.errors, m.writeBytes}
}

func (m *Metrics) observeLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.lookups.WithLabelValues(result).Inc()
}

func (m *Metrics) observeError(op string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(op).Inc()
}

func (m *Metrics) observeWrite(size int) {
	if m == nil {
		return
	}
	m.writeBytes.Observe(float64(size))
}
