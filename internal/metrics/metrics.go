// internal/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the scraping pipeline.
type Metrics struct {
	Registry        *prometheus.Registry
	ScrapesTotal    *prometheus.CounterVec
	ScrapeDuration  prometheus.Histogram
	ErrorsTotal     *prometheus.CounterVec
	BatchesTotal    prometheus.Counter
	OutcomesPersist prometheus.Counter
}

// New constructs and registers all metrics on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	scrapes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricewatch_scrapes_total",
			Help: "Total marketplace scrape attempts by status.",
		},
		[]string{"status"},
	)
	duration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pricewatch_scrape_duration_seconds",
			Help:    "Wall-clock duration of a single marketplace scrape.",
			Buckets: prometheus.DefBuckets,
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricewatch_scrape_errors_total",
			Help: "Total scrape errors by type.",
		},
		[]string{"error_type"},
	)
	batches := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pricewatch_batches_total",
			Help: "Total orchestrated scrape batches.",
		},
	)
	persisted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pricewatch_outcomes_persisted_total",
			Help: "Total scrape outcomes written to storage.",
		},
	)

	registry.MustRegister(scrapes, duration, errorsTotal, batches, persisted)

	return &Metrics{
		Registry:        registry,
		ScrapesTotal:    scrapes,
		ScrapeDuration:  duration,
		ErrorsTotal:     errorsTotal,
		BatchesTotal:    batches,
		OutcomesPersist: persisted,
	}
}

// IncScrape increments the scrape counter for a status label.
func (m *Metrics) IncScrape(status string) {
	if m == nil {
		return
	}
	m.ScrapesTotal.WithLabelValues(status).Inc()
}

// ObserveDuration records a scrape duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.ScrapeDuration.Observe(d.Seconds())
}

// IncError increments the error counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// IncBatch increments the batch counter.
func (m *Metrics) IncBatch() {
	if m == nil {
		return
	}
	m.BatchesTotal.Inc()
}

// IncPersisted increments the persisted outcome counter.
func (m *Metrics) IncPersisted() {
	if m == nil {
		return
	}
	m.OutcomesPersist.Inc()
}
