package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wavelead/crm-engine/internal/infra/database"
	"github.com/wavelead/crm-engine/internal/usecase"
)

type GroupHandler struct {
	Registry *usecase.GroupRegistry
	Repo     *database.GroupRepository
}

func NewGroupHandler(registry *usecase.GroupRegistry, repo *database.GroupRepository) *GroupHandler {
	return &GroupHandler{Registry: registry, Repo: repo}
}

// List (GET /api/groups) includes per-group lead counts for the registry page.
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	groups, err := h.Repo.ListWithLeadCounts(r.Context(), userIDFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input usecase.CreateGroupInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	group, err := h.Registry.Create(r.Context(), userIDFrom(r), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, group)
}

func (h *GroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var input usecase.UpdateGroupInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	group, err := h.Registry.Update(r.Context(), id, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Registry.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *GroupHandler) Reset(w http.ResponseWriter, r *http.Request) {
	groups, err := h.Registry.ResetToDefault(r.Context(), userIDFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}
