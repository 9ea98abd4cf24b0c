// Package metrics provides Prometheus metrics for the asset library engine
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the engine.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Store metrics
	StoreWritesTotal   *prometheus.CounterVec
	StoreWriteDuration prometheus.Histogram
	StoreReadsTotal    *prometheus.CounterVec
	StoreDocumentBytes prometheus.Gauge

	// Search metrics
	SearchesTotal      *prometheus.CounterVec
	SearchDuration     prometheus.Histogram
	SearchResultsTotal prometheus.Counter

	// Sync metrics
	SyncsTotal          *prometheus.CounterVec
	SyncDuration        prometheus.Histogram
	SyncItemsCrawled    prometheus.Counter
	SyncEntriesPruned   prometheus.Counter
	LibraryEntriesTotal *prometheus.GaugeVec
}

// NewMetrics creates all metrics and registers them with reg.
// Passing nil registers with the default Prometheus registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	m := &Metrics{}

	// Store metrics
	m.StoreWritesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assetlib_store_writes_total",
			Help: "Total number of atomic document writes",
		},
		[]string{"status"},
	)

	m.StoreWriteDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "assetlib_store_write_duration_seconds",
			Help:    "Duration of atomic document writes in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)

	m.StoreReadsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assetlib_store_reads_total",
			Help: "Total number of document reads",
		},
		[]string{"source"},
	)

	m.StoreDocumentBytes = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "assetlib_store_document_bytes",
			Help: "Size in bytes of the last document written",
		},
	)

	// Search metrics
	m.SearchesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assetlib_searches_total",
			Help: "Total number of library searches",
		},
		[]string{"library"},
	)

	m.SearchDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "assetlib_search_duration_seconds",
			Help:    "Duration of library searches in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	m.SearchResultsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "assetlib_search_results_total",
			Help: "Total number of items returned by searches",
		},
	)

	// Sync metrics
	m.SyncsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assetlib_syncs_total",
			Help: "Total number of library syncs",
		},
		[]string{"library", "status"},
	)

	m.SyncDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "assetlib_sync_duration_seconds",
			Help:    "Duration of library syncs in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	m.SyncItemsCrawled = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "assetlib_sync_items_crawled_total",
			Help: "Total number of items found on disk by sync crawls",
		},
	)

	m.SyncEntriesPruned = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "assetlib_sync_entries_pruned_total",
			Help: "Total number of stale document entries dropped by sync",
		},
	)

	m.LibraryEntriesTotal = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "assetlib_library_entries",
			Help: "Number of entries in the library document after the last sync",
		},
		[]string{"library"},
	)

	return m
}

// RecordStoreWrite records an atomic write with its status (ok, locked, error)
func (m *Metrics) RecordStoreWrite(status string, size int, duration time.Duration) {
	if m == nil {
		return
	}
	m.StoreWritesTotal.WithLabelValues(status).Inc()
	m.StoreWriteDuration.Observe(duration.Seconds())
	if status == "ok" {
		m.StoreDocumentBytes.Set(float64(size))
	}
}

// RecordStoreRead records a read served from the given source (file, backup, missing)
func (m *Metrics) RecordStoreRead(source string) {
	if m == nil {
		return
	}
	m.StoreReadsTotal.WithLabelValues(source).Inc()
}

// RecordSearch records a completed search
func (m *Metrics) RecordSearch(library string, results int, duration time.Duration) {
	if m == nil {
		return
	}
	m.SearchesTotal.WithLabelValues(library).Inc()
	m.SearchDuration.Observe(duration.Seconds())
	m.SearchResultsTotal.Add(float64(results))
}

// RecordSync records a sync run
func (m *Metrics) RecordSync(library, status string, crawled, pruned, total int, duration time.Duration) {
	if m == nil {
		return
	}
	m.SyncsTotal.WithLabelValues(library, status).Inc()
	m.SyncDuration.Observe(duration.Seconds())
	m.SyncItemsCrawled.Add(float64(crawled))
	m.SyncEntriesPruned.Add(float64(pruned))
	if status == "ok" {
		m.LibraryEntriesTotal.WithLabelValues(library).Set(float64(total))
	}
}
