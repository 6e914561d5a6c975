package handler

import (
	"net/http"
	"time"

	"github.com/nitromap/nitromap/internal/api/models"
	"github.com/nitromap/nitromap/internal/api/response"
	"github.com/nitromap/nitromap/internal/dataset"
)

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	datasets  *dataset.Holder
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(version, buildTime string, datasets *dataset.Holder) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		datasets:  datasets,
	}
}

// HealthCheck handles GET /ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status:    models.HealthStatusOK,
		Time:      models.Timestamp(time.Now()),
		Version:   h.version,
		BuildTime: h.buildTime,
	})
}

// ReadinessCheck handles GET /ops/ready. It reports 503 until every dataset
// has been loaded.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	store := h.datasets.Get()
	if store == nil {
		w.Header().Set("Retry-After", "5")
		response.JSON(w, r, http.StatusServiceUnavailable, models.Readiness{
			Status: models.HealthStatusFail,
			Time:   models.Timestamp(time.Now()),
		})
		return
	}
	response.JSON(w, r, http.StatusOK, models.Readiness{
		Status:   models.HealthStatusOK,
		Time:     models.Timestamp(time.Now()),
		Datasets: store.Summary(),
	})
}
