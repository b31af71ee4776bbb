package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wavelead/crm-engine/internal/entity"
	"github.com/wavelead/crm-engine/internal/usecase"
)

type CampaignHandler struct {
	Service  *usecase.CampaignService
	Exporter *usecase.Exporter
}

func NewCampaignHandler(service *usecase.CampaignService, exporter *usecase.Exporter) *CampaignHandler {
	return &CampaignHandler{Service: service, Exporter: exporter}
}

type campaignView struct {
	*entity.Campaign
	Rates usecase.CampaignRates `json:"rates"`
}

func (h *CampaignHandler) List(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.Service.List(r.Context(), userIDFrom(r), intParam(r, "limit", 50))
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]campaignView, 0, len(campaigns))
	for _, c := range campaigns {
		views = append(views, campaignView{Campaign: c, Rates: h.Service.Rates(c)})
	}
	writeJSON(w, http.StatusOK, views)
}

// Create returns 201 even when leads_count or the webhook failed; those show
// up as warnings in the response body instead.
func (h *CampaignHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input usecase.CreateCampaignInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	out, err := h.Service.CreateCampaign(r.Context(), userIDFrom(r), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

type campaignDetail struct {
	campaignView
	Groups   []*entity.WhatsAppGroup `json:"groups,omitempty"`
	Averages *usecase.UserAverages   `json:"user_averages,omitempty"`
}

func (h *CampaignHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	campaign, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	detail := campaignDetail{campaignView: campaignView{Campaign: campaign, Rates: h.Service.Rates(campaign)}}
	if groups, err := h.Service.GroupsForCampaign(r.Context(), id); err == nil {
		detail.Groups = groups
	}
	if avg, err := h.Service.Averages(r.Context(), campaign.UserID, id); err == nil {
		detail.Averages = avg
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *CampaignHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Export (GET /api/campaigns/{id}/export) re-runs the campaign's targeting
// predicate and streams the wasender CSV as a download.
func (h *CampaignHandler) Export(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	campaign, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	groups, err := h.Service.GroupsForCampaign(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	groupIDs := make([]string, 0, len(groups))
	for _, g := range groups {
		groupIDs = append(groupIDs, g.ID)
	}

	leads, err := h.Service.SelectEligibleLeads(r.Context(), campaign.UserID, campaign.TargetSegment, campaign.ContactFilter, groupIDs)
	if err != nil {
		writeError(w, err)
		return
	}

	filename := usecase.ExportFilename(campaign.CampaignName, time.Now())
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(h.Exporter.ExportCSV(leads)))
}
