// Package observability provides Prometheus metrics for scrape runs.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Page outcomes. Not-found and empty pages both contribute zero rows but are
// counted separately so a template change (container gone, status 200) is
// visible apart from acts the site simply does not have.
const (
	OutcomeParsed   = "parsed"
	OutcomeNotFound = "not_found"
	OutcomeEmpty    = "empty"
	OutcomeFailed   = "failed"
)

// Metrics holds the counters for one process. Each instance owns its registry.
type Metrics struct {
	Registry *prometheus.Registry

	PagesTotal    *prometheus.CounterVec
	RowsTotal     prometheus.Counter
	ActsWritten   prometheus.Counter
	FetchDuration prometheus.Histogram
}

// NewMetrics creates and registers all metrics.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		PagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "valstats_pages_total",
			Help: "Leaderboard pages processed, by outcome.",
		}, []string{"outcome"}),
		RowsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "valstats_rows_total",
			Help: "Agent rows extracted.",
		}),
		ActsWritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "valstats_acts_written_total",
			Help: "Non-empty act tables handed to sinks.",
		}),
		FetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "valstats_fetch_duration_seconds",
			Help:    "Time spent fetching one leaderboard page.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}
}

// Page records one page outcome. Safe on a nil receiver.
func (m *Metrics) Page(outcome string, rows int) {
	if m == nil {
		return
	}
	m.PagesTotal.WithLabelValues(outcome).Inc()
	if rows > 0 {
		m.RowsTotal.Add(float64(rows))
	}
}

// ObserveFetch records a fetch duration in seconds. Safe on a nil receiver.
func (m *Metrics) ObserveFetch(seconds float64) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(seconds)
}

// ActWritten counts one persisted act table. Safe on a nil receiver.
func (m *Metrics) ActWritten() {
	if m == nil {
		return
	}
	m.ActsWritten.Inc()
}

// WriteTextfile writes the current values in the text exposition format,
// suitable for the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
