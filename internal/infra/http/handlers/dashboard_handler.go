package handlers

import (
	"net/http"

	"github.com/wavelead/crm-engine/internal/usecase"
)

type DashboardHandler struct {
	Dashboard *usecase.Dashboard
}

func NewDashboardHandler(dashboard *usecase.Dashboard) *DashboardHandler {
	return &DashboardHandler{Dashboard: dashboard}
}

// Actionable (GET /api/metrics/actionable) serves the dashboard card:
// contactable leads, running campaigns, reply count and percentage, last sync.
func (h *DashboardHandler) Actionable(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.Dashboard.Actionable(r.Context(), userIDFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}
