package handlers

import (
	"net/http"

	"github.com/pkg/errors"
)

// GetDashboardMetrics godoc
// @Summary Dashboard totals
// @Description Product and user counts plus the newest product.
// @Tags stats
// @Produce json
// @Security BearerAuth
// @Success 200 {object} repo.Metrics
// @Failure 401 {object} respond.ErrorResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /api/stats/dashboard [get]
func (a *ProductAPI) GetDashboardMetrics(w http.ResponseWriter, r *http.Request) {
	m, err := a.Metrics.GetDashboardMetrics(r.Context())
	if err != nil {
		writeError(w, r, errors.Wrap(err, "dashboard metrics"))
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// Health godoc
// @Summary Liveness probe
// @Tags ops
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}
