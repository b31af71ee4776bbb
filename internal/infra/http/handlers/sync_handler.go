package handlers

import (
	"net/http"

	"github.com/wavelead/crm-engine/internal/usecase"
)

type SyncHandler struct {
	Syncs usecase.SyncEventRepositoryInterface
}

func NewSyncHandler(syncs usecase.SyncEventRepositoryInterface) *SyncHandler {
	return &SyncHandler{Syncs: syncs}
}

// Latest (GET /api/sync/latest) powers the "last synced" widget. A user with
// no ingestion history gets an explicit null, not an error.
func (h *SyncHandler) Latest(w http.ResponseWriter, r *http.Request) {
	ev, err := h.Syncs.Latest(r.Context(), userIDFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if ev == nil {
		writeJSON(w, http.StatusOK, map[string]any{"latest": nil})
		return
	}
	writeJSON(w, http.StatusOK, ev)
}
