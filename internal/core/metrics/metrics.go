package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the Prometheus collectors for scrape runs.
type Metrics struct {
	Registry           *prometheus.Registry
	RunsTotal          *prometheus.CounterVec
	OrdersFoundTotal   prometheus.Counter
	OrdersScrapedTotal prometheus.Counter
	OrderErrorsTotal   *prometheus.CounterVec
	ExtractDuration    prometheus.Histogram
	SessionConnected   prometheus.Gauge
}

// New constructs and registers all metrics on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_scrape_runs_total",
			Help: "Total scrape runs by result.",
		},
		[]string{"result"},
	)
	found := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "order_scrape_references_found_total",
			Help: "Total order references collected from listing pages.",
		},
	)
	scraped := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "order_scrape_records_extracted_total",
			Help: "Total order records extracted from detail pages.",
		},
	)
	orderErrors := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_scrape_item_errors_total",
			Help: "Total skipped order references by failure reason.",
		},
		[]string{"reason"},
	)
	extractDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "order_scrape_extract_duration_seconds",
			Help:    "Time spent navigating to and extracting a single order.",
			Buckets: prometheus.DefBuckets,
		},
	)
	connected := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "order_scrape_browser_session_connected",
			Help: "1 while a browser session is attached.",
		},
	)

	registry.MustRegister(runs, found, scraped, orderErrors, extractDuration, connected)

	return &Metrics{
		Registry:           registry,
		RunsTotal:          runs,
		OrdersFoundTotal:   found,
		OrdersScrapedTotal: scraped,
		OrderErrorsTotal:   orderErrors,
		ExtractDuration:    extractDuration,
		SessionConnected:   connected,
	}
}

// IncRun counts a finished run with its result label.
func (m *Metrics) IncRun(result string) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(result).Inc()
}

// AddFound adds collected references.
func (m *Metrics) AddFound(n int) {
	if m == nil {
		return
	}
	m.OrdersFoundTotal.Add(float64(n))
}

// IncExtracted counts one extracted record.
func (m *Metrics) IncExtracted() {
	if m == nil {
		return
	}
	m.OrdersScrapedTotal.Inc()
}

// IncItemError counts one skipped reference.
func (m *Metrics) IncItemError(reason string) {
	if m == nil {
		return
	}
	m.OrderErrorsTotal.WithLabelValues(reason).Inc()
}

// ObserveExtract records the duration of one extraction.
func (m *Metrics) ObserveExtract(d time.Duration) {
	if m == nil {
		return
	}
	m.ExtractDuration.Observe(d.Seconds())
}

// SetConnected flips the session gauge.
func (m *Metrics) SetConnected(connected bool) {
	if m == nil {
		return
	}
	if connected {
		m.SessionConnected.Set(1)
		return
	}
	m.SessionConnected.Set(0)
}
