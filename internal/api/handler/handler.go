// Package handler provides HTTP handlers for the nitromap API.
package handler

import (
	"net/http"

	"github.com/nitromap/nitromap/internal/api/response"
	"github.com/nitromap/nitromap/internal/dataset"
	"github.com/nitromap/nitromap/internal/observability"
)

// Endpoint labels used in query metrics.
const (
	EndpointChartData = "chart_data"
	EndpointTotals    = "totals"
	EndpointBudget    = "full_n_chart_data"
	EndpointDeltas    = "all_delta_n"
	EndpointGeoJSON   = "geojson"
)

// queryBase is embedded by the handlers that read the loaded datasets.
type queryBase struct {
	datasets *dataset.Holder
	metrics  *observability.Metrics
}

// store returns the attached dataset store, writing a 503 when loading has
// not finished.
func (b queryBase) store(w http.ResponseWriter, r *http.Request) *dataset.Store {
	s := b.datasets.Get()
	if s == nil {
		response.ServiceUnavailable(w, r, "datasets are still loading")
	}
	return s
}

func (b queryBase) observe(endpoint, outcome string) {
	if b.metrics != nil {
		b.metrics.ObserveQuery(endpoint, outcome)
	}
}

func (b queryBase) observeLookup(hit bool) {
	if b.metrics != nil {
		b.metrics.ObserveBudgetLookup(hit)
	}
}

// badRequest writes the parameter error and counts the query as invalid.
func (b queryBase) badRequest(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	b.observe(endpoint, observability.OutcomeInvalid)
	response.Param(w, r, err)
}
