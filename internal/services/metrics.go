package services

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics for the application.
// All recording methods are nil-safe so tests can run without a registry.
type Metrics struct {
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	warmupRuns      *prometheus.CounterVec
	webhookEvents   *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
}

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// InitMetrics initializes the Prometheus metrics. Safe to call more than
// once; the default registry only ever sees one registration.
func InitMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			cacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "memopilot_memory_cache_hits_total",
				Help: "Memory cache hits by cache",
			}, []string{"cache"}),

			cacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "memopilot_memory_cache_misses_total",
				Help: "Memory cache misses by cache",
			}, []string{"cache"}),

			warmupRuns: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "memopilot_memory_warmup_total",
				Help: "Cache warmup runs by outcome",
			}, []string{"status"}),

			webhookEvents: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "memopilot_memory_webhook_events_total",
				Help: "Memory service webhook deliveries by outcome",
			}, []string{"outcome"}),

			upstreamLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "memopilot_memory_upstream_duration_seconds",
				Help:    "Memory service request latency by operation",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			}, []string{"operation"}),
		}
	})

	return globalMetrics
}

// CacheHit records a hit on the named cache
func (m *Metrics) CacheHit(cacheName string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(cacheName).Inc()
}

// CacheMiss records a miss on the named cache
func (m *Metrics) CacheMiss(cacheName string) {
	if m == nil {
		return
	}
	m.cacheMisses.WithLabelValues(cacheName).Inc()
}

// WarmupRun records a warmup outcome
func (m *Metrics) WarmupRun(status string) {
	if m == nil {
		return
	}
	m.warmupRuns.WithLabelValues(status).Inc()
}

// WebhookEvent records a webhook delivery outcome
func (m *Metrics) WebhookEvent(outcome string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(outcome).Inc()
}

// ObserveUpstream records the latency of one memory service request
func (m *Metrics) ObserveUpstream(operation string, duration time.Duration) {
	if m == nil {
		return
	}
	m.upstreamLatency.WithLabelValues(operation).Observe(duration.Seconds())
}
