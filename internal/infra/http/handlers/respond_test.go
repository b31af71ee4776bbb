package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wavelead/crm-engine/internal/entity"
	"github.com/wavelead/crm-engine/internal/usecase"
)

func TestWriteErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", usecase.ValidationErrors{{Field: "score_value", Message: "too big"}}, http.StatusBadRequest},
		{"conflict", &usecase.ConflictError{Code: "LABEL_IN_USE", Message: "in use"}, http.StatusConflict},
		{"not found", entity.ErrCampaignNotFound, http.StatusNotFound},
		{"external", &usecase.ExternalServiceError{Service: "n8n", Message: "timeout"}, http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, c := range cases {
		rec := httptest.NewRecorder()
		writeError(rec, c.err)
		assert.Equal(t, c.status, rec.Code, c.name)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"), c.name)
	}
}

func TestWriteErrorConflictCarriesCode(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, &usecase.ConflictError{Code: "DUPLICATE_LABEL", Message: "already mapped"})

	var body errorResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "DUPLICATE_LABEL", body.Code)
	assert.Equal(t, "already mapped", body.Error)
}

func TestUserIDFromHeaderAndFallback(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/leads", nil)
	r.Header.Set("X-User-ID", "abc-123")
	assert.Equal(t, "abc-123", userIDFrom(r))

	r = httptest.NewRequest(http.MethodGet, "/api/leads", nil)
	t.Setenv("DEFAULT_USER_ID", "")
	assert.Equal(t, fallbackUserID, userIDFrom(r))
}
