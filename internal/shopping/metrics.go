// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package shopping

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the search client.
// All methods are safe on a nil receiver.
type Metrics struct {
	Registry          *prometheus.Registry
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   prometheus.Histogram
	ItemsFetchedTotal prometheus.Counter
	ErrorsTotal       *prometheus.CounterVec
	CacheHitsTotal    prometheus.Counter
	RetriesTotal      prometheus.Counter
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shoprank_api_requests_total",
			Help: "Total shopping API requests by outcome.",
		},
		[]string{"outcome"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shoprank_api_request_duration_seconds",
			Help:    "Shopping API request latency, excluding the pacing delay.",
			Buckets: prometheus.DefBuckets,
		},
	)
	itemsFetched := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shoprank_items_fetched_total",
			Help: "Total number of listings returned by the shopping API.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shoprank_api_errors_total",
			Help: "Total number of failed page fetches by type.",
		},
		[]string{"error_type"},
	)
	cacheHits := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shoprank_page_cache_hits_total",
			Help: "Total number of pages served from the page cache.",
		},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shoprank_api_retries_total",
			Help: "Total number of retries after HTTP 429.",
		},
	)

	registry.MustRegister(requests, requestDuration, itemsFetched, errorsTotal, cacheHits, retries)

	return &Metrics{
		Registry:          registry,
		RequestsTotal:     requests,
		RequestDuration:   requestDuration,
		ItemsFetchedTotal: itemsFetched,
		ErrorsTotal:       errorsTotal,
		CacheHitsTotal:    cacheHits,
		RetriesTotal:      retries,
	}
}

// ObserveRequest records one API call and its latency.
func (m *Metrics) ObserveRequest(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(outcome).Inc()
	m.RequestDuration.Observe(d.Seconds())
}

// AddItems increments the fetched listings counter.
func (m *Metrics) AddItems(n int) {
	if m == nil {
		return
	}
	m.ItemsFetchedTotal.Add(float64(n))
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// IncCacheHit increments the cache hit counter.
func (m *Metrics) IncCacheHit() {
	if m == nil {
		return
	}
	m.CacheHitsTotal.Inc()
}

// IncRetries increments the retries counter.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// WriteTextfile writes the current metric values in the text exposition
// format, suitable for the node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
