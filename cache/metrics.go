/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package cache

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/acronis/go-respcache/backend"
	"github.com/acronis/go-respcache/internal/libinfo"
)

const metricsLabelBackend = "backend"

// MetricsCollector represents a collector of metrics to analyze how (effectively or not) cache backends are used.
type MetricsCollector interface {
	// SetAmount sets the total number of tracked entries in the backend.
	SetAmount(b backend.Backend, amount int)

	// IncHits increments the total number of successfully found keys in the backend.
	IncHits(b backend.Backend)

	// IncMisses increments the total number of not found or expired keys in the backend.
	IncMisses(b backend.Backend)

	// AddEvictions increments the total number of evicted entries.
	AddEvictions(b backend.Backend, n int)

	// IncWriteFailures increments the total number of writes rejected by the backend storage.
	IncWriteFailures(b backend.Backend)
}

// PrometheusMetricsOpts represents options for PrometheusMetrics.
type PrometheusMetricsOpts struct {
	// Namespace is a namespace for metrics. It will be prepended to all metric names.
	Namespace string

	// ConstLabels is a set of labels that will be applied to all metrics.
	ConstLabels prometheus.Labels
}

// PrometheusMetrics represents Prometheus metrics for the cache.
type PrometheusMetrics struct {
	EntriesAmount      *prometheus.GaugeVec
	HitsTotal          *prometheus.CounterVec
	MissesTotal        *prometheus.CounterVec
	EvictionsTotal     *prometheus.CounterVec
	WriteFailuresTotal *prometheus.CounterVec
}

var _ MetricsCollector = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics creates a new instance of PrometheusMetrics with default options.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWithOpts(PrometheusMetricsOpts{})
}

// NewPrometheusMetricsWithOpts creates a new instance of PrometheusMetrics with the provided options.
func NewPrometheusMetricsWithOpts(opts PrometheusMetricsOpts) *PrometheusMetrics {
	constLabels := libinfo.AddPrometheusLibVersionLabel(opts.ConstLabels)
	labelNames := []string{metricsLabelBackend}

	return &PrometheusMetrics{
		EntriesAmount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   opts.Namespace,
			Name:        "respcache_entries_amount",
			Help:        "Total number of tracked entries in the cache backend.",
			ConstLabels: constLabels,
		}, labelNames),
		HitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "respcache_hits_total",
			Help:        "Number of successfully found keys in the cache backend.",
			ConstLabels: constLabels,
		}, labelNames),
		MissesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "respcache_misses_total",
			Help:        "Number of not found or expired keys in the cache backend.",
			ConstLabels: constLabels,
		}, labelNames),
		EvictionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "respcache_evictions_total",
			Help:        "Number of entries evicted from the cache backend.",
			ConstLabels: constLabels,
		}, labelNames),
		WriteFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "respcache_write_failures_total",
			Help:        "Number of writes rejected by the cache backend storage.",
			ConstLabels: constLabels,
		}, labelNames),
	}
}

// MustRegister does registration of metrics collector in Prometheus and panics if any error occurs.
func (pm *PrometheusMetrics) MustRegister() {
	prometheus.MustRegister(
		pm.EntriesAmount,
		pm.HitsTotal,
		pm.MissesTotal,
		pm.EvictionsTotal,
		pm.WriteFailuresTotal,
	)
}

// Unregister cancels registration of metrics collector in Prometheus.
func (pm *PrometheusMetrics) Unregister() {
	prometheus.Unregister(pm.EntriesAmount)
	prometheus.Unregister(pm.HitsTotal)
	prometheus.Unregister(pm.MissesTotal)
	prometheus.Unregister(pm.EvictionsTotal)
	prometheus.Unregister(pm.WriteFailuresTotal)
}

// SetAmount sets the total number of tracked entries in the backend.
func (pm *PrometheusMetrics) SetAmount(b backend.Backend, amount int) {
	pm.EntriesAmount.WithLabelValues(string(b)).Set(float64(amount))
}

// IncHits increments the total number of successfully found keys in the backend.
func (pm *PrometheusMetrics) IncHits(b backend.Backend) {
	pm.HitsTotal.WithLabelValues(string(b)).Inc()
}

// IncMisses increments the total number of not found or expired keys in the backend.
func (pm *PrometheusMetrics) IncMisses(b backend.Backend) {
	pm.MissesTotal.WithLabelValues(string(b)).Inc()
}

// AddEvictions increments the total number of evicted entries.
func (pm *PrometheusMetrics) AddEvictions(b backend.Backend, n int) {
	pm.EvictionsTotal.WithLabelValues(string(b)).Add(float64(n))
}

// IncWriteFailures increments the total number of writes rejected by the backend storage.
func (pm *PrometheusMetrics) IncWriteFailures(b backend.Backend) {
	pm.WriteFailuresTotal.WithLabelValues(string(b)).Inc()
}

type disabledMetrics struct{}

func (disabledMetrics) SetAmount(backend.Backend, int)    {}
func (disabledMetrics) IncHits(backend.Backend)           {}
func (disabledMetrics) IncMisses(backend.Backend)         {}
func (disabledMetrics) AddEvictions(backend.Backend, int) {}
func (disabledMetrics) IncWriteFailures(backend.Backend)  {}
