// Package observability holds the Prometheus metrics of the query service.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "nitromap"

// Query outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeInvalid  = "invalid"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Metrics holds the Prometheus counters and gauges for queries and dataset loading.
type Metrics struct {
	Queries       *prometheus.CounterVec // labels: endpoint, outcome={ok,invalid,not_found,error}
	BudgetLookups *prometheus.CounterVec // labels: result={hit,miss}
	DatasetRows   *prometheus.GaugeVec   // labels: dataset
	DatasetLoad   *prometheus.GaugeVec   // labels: dataset

	handler http.Handler
}

func newMetrics() *Metrics {
	return &Metrics{
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Query requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		BudgetLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "budget_lookups_total",
			Help:      "Budget lookups by result.",
		}, []string{"result"}),
		DatasetRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      "Rows, entries or features loaded per dataset.",
		}, []string{"dataset"}),
		DatasetLoad: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_load_duration_seconds",
			Help:      "Time taken to load each dataset at startup.",
		}, []string{"dataset"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.Queries, m.BudgetLookups, m.DatasetRows, m.DatasetLoad}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	m.handler = promhttp.Handler()
	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	reg := prometheus.NewRegistry()
	reg.MustRegister(m.collectors()...)
	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	return m
}

// Handler serves the registry the metrics were registered with.
func (m *Metrics) Handler() http.Handler {
	return m.handler
}

// ObserveQuery counts one query.
func (m *Metrics) ObserveQuery(endpoint, outcome string) {
	m.Queries.WithLabelValues(endpoint, outcome).Inc()
}

// ObserveBudgetLookup counts one budget lookup.
func (m *Metrics) ObserveBudgetLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.BudgetLookups.WithLabelValues(result).Inc()
}

// ObserveDataset records the size and load time of a dataset.
func (m *Metrics) ObserveDataset(dataset string, rows int, elapsed time.Duration) {
	m.DatasetRows.WithLabelValues(dataset).Set(float64(rows))
	m.DatasetLoad.WithLabelValues(dataset).Set(elapsed.Seconds())
}
