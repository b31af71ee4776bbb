package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wavelead/crm-engine/internal/entity"
	"github.com/wavelead/crm-engine/internal/infra/queue"
	"github.com/wavelead/crm-engine/internal/usecase"
)

type LeadHandler struct {
	Leads    usecase.LeadRepositoryInterface
	Producer usecase.RescoreProducerInterface
}

func NewLeadHandler(leads usecase.LeadRepositoryInterface, producer usecase.RescoreProducerInterface) *LeadHandler {
	return &LeadHandler{Leads: leads, Producer: producer}
}

type leadListResponse struct {
	Leads    []*entity.Lead `json:"leads"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// List (GET /api/leads) serves the dashboard table, hottest first.
// Query params: page, page_size, search, segment, status, activity.
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	q := usecase.LeadQuery{
		UserID:         userIDFrom(r),
		Page:           intParam(r, "page", 1),
		PageSize:       intParam(r, "page_size", 50),
		SearchTerm:     r.URL.Query().Get("search"),
		SegmentFilter:  r.URL.Query().Get("segment"),
		StatusFilter:   r.URL.Query().Get("status"),
		ActivityFilter: r.URL.Query().Get("activity"),
	}

	leads, total, err := h.Leads.List(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}
	if leads == nil {
		leads = []*entity.Lead{}
	}
	writeJSON(w, http.StatusOK, leadListResponse{Leads: leads, Total: total, Page: q.Page, PageSize: q.PageSize})
}

func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	lead, err := h.Leads.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

// Metrics (GET /api/leads/metrics) returns the dashboard headline numbers.
func (h *LeadHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.Leads.PipelineMetrics(r.Context(), userIDFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

// Segments (GET /api/leads/segments) returns the active-lead distribution.
func (h *LeadHandler) Segments(w http.ResponseWriter, r *http.Request) {
	shares, err := h.Leads.SegmentDistribution(r.Context(), userIDFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shares)
}

// Rescore (POST /api/leads/rescore) queues a full batch rescore. Scoring never
// runs inline with the request.
func (h *LeadHandler) Rescore(w http.ResponseWriter, r *http.Request) {
	job := queue.RescoreJob{UserID: userIDFrom(r), Reason: "manual"}
	if err := h.Producer.PublishRescore(r.Context(), job); err != nil {
		writeError(w, &usecase.ExternalServiceError{Service: "rescore-queue", Message: "could not queue rescore", Err: err})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

// RescoreOne (POST /api/leads/{id}/rescore) queues a rescore for one lead's
// user. The worker runs the full pass; per-lead jobs exist so the dashboard
// can refresh a single row without waiting for an upload.
func (h *LeadHandler) RescoreOne(w http.ResponseWriter, r *http.Request) {
	lead, err := h.Leads.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	job := queue.RescoreJob{UserID: lead.UserID, LeadID: lead.ID, Reason: "manual"}
	if err := h.Producer.PublishRescore(r.Context(), job); err != nil {
		writeError(w, &usecase.ExternalServiceError{Service: "rescore-queue", Message: "could not queue rescore", Err: err})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func intParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return fallback
	}
	return v
}
