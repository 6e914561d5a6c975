package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/nitromap/nitromap/internal/api/response"
	"github.com/nitromap/nitromap/internal/budget"
	"github.com/nitromap/nitromap/internal/dataset"
	"github.com/nitromap/nitromap/internal/observability"
	"github.com/nitromap/nitromap/internal/query"
)

// BudgetHandler serves the precomputed nitrogen budgets.
type BudgetHandler struct {
	queryBase
	log zerolog.Logger
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(datasets *dataset.Holder, metrics *observability.Metrics, log zerolog.Logger) *BudgetHandler {
	return &BudgetHandler{
		queryBase: queryBase{datasets: datasets, metrics: metrics},
		log:       log,
	}
}

// FullChartData handles GET /full-n-chart-data.
func (h *BudgetHandler) FullChartData(w http.ResponseWriter, r *http.Request) {
	q, err := query.BudgetLookup(r.URL.Query())
	if err != nil {
		h.badRequest(w, r, EndpointBudget, err)
		return
	}
	store := h.store(w, r)
	if store == nil {
		return
	}

	flows, err := store.Budget.Lookup(r.Context(), q.Level, q.Name, q.Landuse)
	switch {
	case errors.Is(err, budget.ErrNotFound):
		h.observeLookup(false)
		h.observe(EndpointBudget, observability.OutcomeNotFound)
		response.NotFound(w, r, fmt.Sprintf("no nitrogen budget for %s", budget.NewKey(q.Level, q.Name, q.Landuse)))
		return
	case err != nil:
		h.log.Error().Err(err).Msg("budget lookup failed")
		h.observe(EndpointBudget, observability.OutcomeError)
		response.InternalError(w, r, "budget lookup failed")
		return
	}

	h.observeLookup(true)
	h.observe(EndpointBudget, observability.OutcomeOK)
	response.JSON(w, r, http.StatusOK, flows)
}

// AllDeltas handles GET /all_delta_n.
func (h *BudgetHandler) AllDeltas(w http.ResponseWriter, r *http.Request) {
	q, err := query.DeltaMap(r.URL.Query())
	if err != nil {
		h.badRequest(w, r, EndpointDeltas, err)
		return
	}
	store := h.store(w, r)
	if store == nil {
		return
	}

	h.observe(EndpointDeltas, observability.OutcomeOK)
	response.JSON(w, r, http.StatusOK, store.Budget.Deltas(r.Context(), q.Level, q.Landuse))
}
