package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/nitromap/nitromap/internal/api/response"
	"github.com/nitromap/nitromap/internal/dataset"
	"github.com/nitromap/nitromap/internal/emissions"
	"github.com/nitromap/nitromap/internal/observability"
	"github.com/nitromap/nitromap/internal/query"
)

// EmissionsHandler serves yearly series and per-unit totals.
type EmissionsHandler struct {
	queryBase
	log zerolog.Logger
}

// NewEmissionsHandler creates a new EmissionsHandler.
func NewEmissionsHandler(datasets *dataset.Holder, metrics *observability.Metrics, log zerolog.Logger) *EmissionsHandler {
	return &EmissionsHandler{
		queryBase: queryBase{datasets: datasets, metrics: metrics},
		log:       log,
	}
}

// ChartData handles GET /chart-data.
func (h *EmissionsHandler) ChartData(w http.ResponseWriter, r *http.Request) {
	q, err := query.ChartData(r.URL.Query())
	if err != nil {
		h.badRequest(w, r, EndpointChartData, err)
		return
	}
	store := h.store(w, r)
	if store == nil {
		return
	}

	series, err := store.Emissions.Timeseries(r.Context(), q)
	if err != nil {
		h.fail(w, r, EndpointChartData, err)
		return
	}
	h.observe(EndpointChartData, observability.OutcomeOK)
	response.JSON(w, r, http.StatusOK, series)
}

// Totals handles GET /totals.
func (h *EmissionsHandler) Totals(w http.ResponseWriter, r *http.Request) {
	q, err := query.Totals(r.URL.Query())
	if err != nil {
		h.badRequest(w, r, EndpointTotals, err)
		return
	}
	store := h.store(w, r)
	if store == nil {
		return
	}

	totals, err := store.Emissions.LevelTotals(r.Context(), q)
	if err != nil {
		h.fail(w, r, EndpointTotals, err)
		return
	}
	h.observe(EndpointTotals, observability.OutcomeOK)
	response.JSON(w, r, http.StatusOK, totals)
}

func (h *EmissionsHandler) fail(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	if errors.Is(err, emissions.ErrNameRequired) {
		h.badRequest(w, r, endpoint, &query.ParamError{
			Field:   query.ParamName,
			Kind:    query.ErrMissingParameter,
			Message: err.Error(),
		})
		return
	}
	h.log.Error().Err(err).Str("endpoint", endpoint).Msg("aggregation failed")
	h.observe(endpoint, observability.OutcomeError)
	response.InternalError(w, r, "aggregation failed")
}
