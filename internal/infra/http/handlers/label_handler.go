package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wavelead/crm-engine/internal/usecase"
)

type LabelHandler struct {
	Registry *usecase.LabelRegistry
}

func NewLabelHandler(registry *usecase.LabelRegistry) *LabelHandler {
	return &LabelHandler{Registry: registry}
}

func (h *LabelHandler) List(w http.ResponseWriter, r *http.Request) {
	mappings, err := h.Registry.ListWithLeadCounts(r.Context(), userIDFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mappings)
}

func (h *LabelHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input usecase.CreateLabelInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	mapping, err := h.Registry.Create(r.Context(), userIDFrom(r), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapping)
}

func (h *LabelHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input usecase.UpdateLabelInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	out, err := h.Registry.Update(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Delete returns 409 with code LABEL_IN_USE when leads still match the
// mapping; the client should offer archiving instead.
func (h *LabelHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Registry.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *LabelHandler) Archive(w http.ResponseWriter, r *http.Request) {
	if err := h.Registry.Archive(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"archived": true})
}

func (h *LabelHandler) Reactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.Registry.Reactivate(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"archived": false})
}
