// Package metrics holds the prometheus collectors of the quote service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is safe to use through a nil pointer, which records nothing.
type Metrics struct {
	quotes          *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	fieldReads      *prometheus.CounterVec
	staleDropped    prometheus.Counter
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		quotes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_quotes_total",
				Help: "Total number of validated quotes by trade kind and outcome",
			},
			[]string{"kind", "result"},
		),
		refreshDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "storefront_snapshot_refresh_seconds",
				Help:    "Duration of a full market snapshot refresh",
				Buckets: prometheus.DefBuckets,
			},
		),
		fieldReads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_field_reads_total",
				Help: "Total number of snapshot field reads by field and state",
			},
			[]string{"field", "state"},
		),
		staleDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "storefront_stale_reads_dropped_total",
				Help: "Reads that completed after their account or token was superseded",
			},
		),
	}
	reg.MustRegister(m.quotes, m.refreshDuration, m.fieldReads, m.staleDropped)
	return m
}

// Quote records one validation; result is "ok" or an error code.
func (m *Metrics) Quote(kind, result string) {
	if m == nil {
		return
	}
	m.quotes.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) Refresh(d time.Duration) {
	if m == nil {
		return
	}
	m.refreshDuration.Observe(d.Seconds())
}

func (m *Metrics) FieldRead(field, state string) {
	if m == nil {
		return
	}
	m.fieldReads.WithLabelValues(field, state).Inc()
}

func (m *Metrics) StaleDropped() {
	if m == nil {
		return
	}
	m.staleDropped.Inc()
}
