package usecase

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/wavelead/crm-engine/internal/entity"
	"github.com/wavelead/crm-engine/internal/infra/http/middleware"
	"github.com/wavelead/crm-engine/internal/infra/queue"
)

const (
	UploadTypeResults    = "results"
	UploadTypeNewScrapes = "new_scrapes"
	UploadTypeLabels     = "labels"
)

type IngestSummary struct {
	UploadType     string         `json:"upload_type"`
	ProcessedCount int            `json:"processed_count"`
	SkippedCount   int            `json:"skipped_count"`
	Breakdown      map[string]int `json:"segment_breakdown,omitempty"`
}

// IngestService owns the three upload pipelines the legacy system delegated
// to an external workflow. Row effects are written so that re-running the
// same file after an ambiguous timeout converges to the same state.
type IngestService struct {
	Leads     LeadRepositoryInterface
	Labels    LabelRepositoryInterface
	Campaigns CampaignRepositoryInterface
	Syncs     SyncEventRepositoryInterface
	Producer  RescoreProducerInterface
	Notifier  OperatorNotifier // optional

	Now func() time.Time
}

func NewIngestService(
	leads LeadRepositoryInterface,
	labels LabelRepositoryInterface,
	campaigns CampaignRepositoryInterface,
	syncs SyncEventRepositoryInterface,
	producer RescoreProducerInterface,
	notifier OperatorNotifier,
) *IngestService {
	return &IngestService{
		Leads:     leads,
		Labels:    labels,
		Campaigns: campaigns,
		Syncs:     syncs,
		Producer:  producer,
		Notifier:  notifier,
		Now:       time.Now,
	}
}

// IngestLabels expects rows of (phone, label). Each label is matched
// case-sensitively against the user's active mappings; matches write the
// mapping's triple onto the lead. Unknown labels and unknown phones are
// skipped, not fatal.
func (s *IngestService) IngestLabels(ctx context.Context, userID string, r io.Reader) (*IngestSummary, error) {
	rows, err := readRows(r, 2)
	if err != nil {
		return nil, s.fail(ctx, userID, UploadTypeLabels, err)
	}

	summary := &IngestSummary{UploadType: UploadTypeLabels}
	for _, row := range rows {
		phone := entity.NormalizePhone(row[0])
		label := strings.TrimSpace(row[1])
		if phone == "" || label == "" {
			summary.SkippedCount++
			continue
		}

		mapping, err := s.Labels.FindActiveByLabel(ctx, userID, label)
		if err != nil || mapping == nil {
			summary.SkippedCount++
			continue
		}

		lead, err := s.Leads.FindByPhone(ctx, userID, phone)
		if err != nil {
			summary.SkippedCount++
			continue
		}

		if err := s.Leads.ApplyLabelTriple(ctx, lead.ID, mapping.Segment, mapping.Status, mapping.EngagementLevel); err != nil {
			return nil, s.fail(ctx, userID, UploadTypeLabels, fmt.Errorf("apply label %q to lead %s: %w", label, lead.ID, err))
		}
		summary.ProcessedCount++
	}

	return summary, s.finish(ctx, userID, summary)
}

// IngestResults expects rows of (phone, status[, timestamp]) where status is
// sent, failed or replied. Campaign metrics are recomputed from the file and
// stored absolutely, so a re-upload overwrites rather than accumulates.
func (s *IngestService) IngestResults(ctx context.Context, userID, campaignID string, r io.Reader) (*IngestSummary, error) {
	campaign, err := s.Campaigns.FindByID(ctx, campaignID)
	if err != nil {
		return nil, s.fail(ctx, userID, UploadTypeResults, err)
	}

	rows, err := readRows(r, 2)
	if err != nil {
		return nil, s.fail(ctx, userID, UploadTypeResults, err)
	}

	summary := &IngestSummary{UploadType: UploadTypeResults}
	var metrics entity.CampaignMetrics

	for _, row := range rows {
		phone := entity.NormalizePhone(row[0])
		status := strings.ToLower(strings.TrimSpace(row[1]))
		at := s.Now()
		if len(row) > 2 {
			if parsed, perr := time.Parse(time.RFC3339, strings.TrimSpace(row[2])); perr == nil {
				at = parsed
			}
		}

		switch status {
		case "sent":
			metrics.SentCount++
		case "failed":
			metrics.FailedCount++
		case "replied":
			metrics.SentCount++
			metrics.RepliedCount++
		default:
			summary.SkippedCount++
			continue
		}

		lead, err := s.Leads.FindByPhone(ctx, userID, phone)
		if err != nil {
			summary.SkippedCount++
			continue
		}

		if status != "failed" {
			if err := s.Leads.MarkContacted(ctx, lead.ID, at); err != nil {
				return nil, s.fail(ctx, userID, UploadTypeResults, err)
			}
		}
		if status == "replied" {
			if err := s.Leads.MarkReplied(ctx, lead.ID, at); err != nil {
				return nil, s.fail(ctx, userID, UploadTypeResults, err)
			}
		}
		summary.ProcessedCount++
	}

	if err := s.Campaigns.UpdateMetrics(ctx, campaign.ID, metrics, s.Now()); err != nil {
		return nil, s.fail(ctx, userID, UploadTypeResults, err)
	}

	return summary, s.finish(ctx, userID, summary)
}

// IngestNewScrapes upserts leads keyed by (user, phone digits). Rows are
// (phone, first_name, last_name[, groups]) with groups separated by ";".
func (s *IngestService) IngestNewScrapes(ctx context.Context, userID, source string, r io.Reader) (*IngestSummary, error) {
	rows, err := readRows(r, 1)
	if err != nil {
		return nil, s.fail(ctx, userID, UploadTypeNewScrapes, err)
	}

	summary := &IngestSummary{UploadType: UploadTypeNewScrapes, Breakdown: map[string]int{}}
	for _, row := range rows {
		phone := entity.NormalizePhone(row[0])
		if phone == "" {
			summary.SkippedCount++
			continue
		}

		lead := entity.NewLead(userID, phone)
		lead.Source = source
		if len(row) > 1 {
			lead.FirstName = strings.TrimSpace(row[1])
		}
		if len(row) > 2 {
			lead.LastName = strings.TrimSpace(row[2])
		}
		if len(row) > 3 && strings.TrimSpace(row[3]) != "" {
			for _, g := range strings.Split(row[3], ";") {
				if g = strings.TrimSpace(g); g != "" {
					lead.WhatsAppGroupsRaw = append(lead.WhatsAppGroupsRaw, g)
					lead.PositiveSignalGroups = append(lead.PositiveSignalGroups, g)
				}
			}
			lead.TotalGroupsCount = len(lead.WhatsAppGroupsRaw)
		}

		if err := s.Leads.Upsert(ctx, lead); err != nil {
			return nil, s.fail(ctx, userID, UploadTypeNewScrapes, fmt.Errorf("upsert lead %s: %w", phone, err))
		}
		summary.ProcessedCount++
		summary.Breakdown[string(lead.Segment)]++
	}

	return summary, s.finish(ctx, userID, summary)
}

// finish appends the sync event and queues a batch rescore. Every successful
// ingestion triggers rescoring; it never runs inline with the upload.
func (s *IngestService) finish(ctx context.Context, userID string, summary *IngestSummary) error {
	status := entity.SyncSuccess
	if summary.SkippedCount > 0 {
		status = entity.SyncPartial
	}

	ev := entity.NewSyncEvent(userID, summary.UploadType, status, summary.ProcessedCount, summary.Breakdown)
	if err := s.Syncs.Append(ctx, ev); err != nil {
		// The ingestion itself succeeded; a missing sync event is an
		// observability gap, not a reason to make the caller retry.
		middleware.RecordInconsistency("sync_event")
		log.Printf("⚠️ failed to append sync event: %v", err)
	}

	middleware.RecordIngest(summary.UploadType, summary.ProcessedCount)

	job := queue.RescoreJob{UserID: userID, Reason: summary.UploadType}
	if err := s.Producer.PublishRescore(ctx, job); err != nil {
		return &ExternalServiceError{Service: "rescore-queue", Message: "ingestion stored but rescore could not be queued", Err: err}
	}
	return nil
}

func (s *IngestService) fail(ctx context.Context, userID, uploadType string, cause error) error {
	middleware.RecordIngestFailure(uploadType)

	ev := entity.NewSyncEvent(userID, uploadType, entity.SyncFailed, 0, nil)
	if err := s.Syncs.Append(ctx, ev); err != nil {
		log.Printf("⚠️ failed to append failed-sync event: %v", err)
	}

	if s.Notifier != nil {
		if err := s.Notifier.NotifyIngestFailure(userID, uploadType, cause); err != nil {
			log.Printf("⚠️ operator notification failed: %v", err)
		}
	}
	return cause
}

// readRows parses the CSV, skipping an optional header (detected by a
// non-numeric first column) and rows shorter than minCols.
func readRows(r io.Reader, minCols int) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	all, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	rows := make([][]string, 0, len(all))
	for i, row := range all {
		if len(row) < minCols {
			continue
		}
		if i == 0 && entity.NormalizePhone(row[0]) == "" {
			continue // header
		}
		rows = append(rows, row)
	}
	return rows, nil
}
