package handlers

import (
	"net/http"

	"github.com/wavelead/crm-engine/internal/usecase"
)

// 10 MB is plenty for the CSVs the scraper and the bulk sender produce.
const maxUploadSize = 10 << 20

type UploadHandler struct {
	Ingest *usecase.IngestService
}

func NewUploadHandler(ingest *usecase.IngestService) *UploadHandler {
	return &UploadHandler{Ingest: ingest}
}

// Handle (POST /api/uploads) accepts a multipart form with a "file" part and
// an "upload_type" field: labels, results (requires campaign_id) or
// new_scrapes (optional source).
func (h *UploadHandler) Handle(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file part is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	userID := userIDFrom(r)
	uploadType := r.FormValue("upload_type")

	var summary *usecase.IngestSummary
	switch uploadType {
	case usecase.UploadTypeLabels:
		summary, err = h.Ingest.IngestLabels(r.Context(), userID, file)
	case usecase.UploadTypeResults:
		campaignID := r.FormValue("campaign_id")
		if campaignID == "" {
			http.Error(w, "campaign_id is required for results uploads", http.StatusBadRequest)
			return
		}
		summary, err = h.Ingest.IngestResults(r.Context(), userID, campaignID, file)
	case usecase.UploadTypeNewScrapes:
		summary, err = h.Ingest.IngestNewScrapes(r.Context(), userID, r.FormValue("source"), file)
	default:
		http.Error(w, "upload_type must be labels, results or new_scrapes", http.StatusBadRequest)
		return
	}

	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
