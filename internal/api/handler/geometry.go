package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nitromap/nitromap/internal/api/response"
	"github.com/nitromap/nitromap/internal/dataset"
	"github.com/nitromap/nitromap/internal/observability"
	"github.com/nitromap/nitromap/internal/query"
)

// GeometryHandler serves the boundary layers.
type GeometryHandler struct {
	queryBase
}

// NewGeometryHandler creates a new GeometryHandler.
func NewGeometryHandler(datasets *dataset.Holder, metrics *observability.Metrics) *GeometryHandler {
	return &GeometryHandler{queryBase: queryBase{datasets: datasets, metrics: metrics}}
}

// Layer handles GET /geojson/{level}. The body is encoded once at load time.
func (h *GeometryHandler) Layer(w http.ResponseWriter, r *http.Request) {
	level, err := query.GeometryLevel(chi.URLParam(r, "level"))
	if err != nil {
		h.badRequest(w, r, EndpointGeoJSON, err)
		return
	}
	store := h.store(w, r)
	if store == nil {
		return
	}

	layer, ok := store.Geometry.Layer(level)
	if !ok {
		h.observe(EndpointGeoJSON, observability.OutcomeNotFound)
		response.NotFound(w, r, "no boundary layer loaded for "+string(level))
		return
	}
	h.observe(EndpointGeoJSON, observability.OutcomeOK)
	response.Raw(w, r, http.StatusOK, response.ContentTypeGeoJSON, layer.JSON())
}
