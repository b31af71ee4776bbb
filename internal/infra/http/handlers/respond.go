package handlers

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/wavelead/crm-engine/internal/entity"
	"github.com/wavelead/crm-engine/internal/usecase"
)

// Single-operator deployment: requests may carry X-User-ID, everything else
// falls back to the configured default account.
const fallbackUserID = "00000000-0000-0000-0000-000000000001"

func userIDFrom(r *http.Request) string {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	if id := os.Getenv("DEFAULT_USER_ID"); id != "" {
		return id
	}
	return fallbackUserID
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError maps the error taxonomy onto HTTP statuses: validation 400,
// conflicts 409, missing rows 404, external services 502, the rest 500.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case usecase.IsValidationError(err):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case usecase.IsConflictError(err):
		ce := err.(*usecase.ConflictError)
		writeJSON(w, http.StatusConflict, errorResponse{Error: ce.Message, Code: ce.Code})
	case isNotFound(err):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case usecase.IsExternalServiceError(err):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

func isNotFound(err error) bool {
	switch err {
	case entity.ErrGroupNotFound, entity.ErrLabelNotFound, entity.ErrRuleNotFound,
		entity.ErrLeadNotFound, entity.ErrCampaignNotFound:
		return true
	}
	return false
}
