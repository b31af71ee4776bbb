package usecase

import (
	"context"
	"time"

	"github.com/wavelead/crm-engine/internal/entity"
	"github.com/wavelead/crm-engine/internal/infra/integration/n8n"
	"github.com/wavelead/crm-engine/internal/infra/queue"
)

type GroupRepositoryInterface interface {
	ListByUser(ctx context.Context, userID string) ([]*entity.WhatsAppGroup, error)
	FindByID(ctx context.Context, id string) (*entity.WhatsAppGroup, error)
	// SumPositiveScores aggregates positive score values for the user,
	// optionally excluding the row being edited.
	SumPositiveScores(ctx context.Context, userID, excludeID string) (int, error)
	Create(ctx context.Context, g *entity.WhatsAppGroup) error
	Update(ctx context.Context, g *entity.WhatsAppGroup) error
	Delete(ctx context.Context, id string) error
	// ReplaceAll atomically deletes every group of the user and inserts the
	// given set in a single transaction.
	ReplaceAll(ctx context.Context, userID string, groups []*entity.WhatsAppGroup) error
}

type LabelRepositoryInterface interface {
	ListByUser(ctx context.Context, userID string) ([]*entity.LabelMapping, error)
	FindByID(ctx context.Context, id string) (*entity.LabelMapping, error)
	FindActiveByLabel(ctx context.Context, userID, label string) (*entity.LabelMapping, error)
	Create(ctx context.Context, m *entity.LabelMapping) error
	Update(ctx context.Context, m *entity.LabelMapping) error
	Delete(ctx context.Context, id string) error
	SetActive(ctx context.Context, id string, active bool) error
}

type RuleRepositoryInterface interface {
	ListByUser(ctx context.Context, userID string) ([]*entity.EngagementRule, error)
	FindByID(ctx context.Context, id string) (*entity.EngagementRule, error)
	Create(ctx context.Context, r *entity.EngagementRule) error
	Update(ctx context.Context, r *entity.EngagementRule) error
	Delete(ctx context.Context, id string) error
	ReplaceAll(ctx context.Context, userID string, rules []*entity.EngagementRule) error
}

// LeadQuery drives the paginated dashboard listing.
type LeadQuery struct {
	UserID         string
	Page           int
	PageSize       int
	SearchTerm     string
	SegmentFilter  string
	StatusFilter   string
	ActivityFilter string // "", "never_contacted", "contacted", "replied"
}

// EligibilityQuery is the campaign targeting predicate.
type EligibilityQuery struct {
	UserID     string
	Segment    entity.Segment
	Filter     entity.ContactFilter
	GroupNames []string
	Now        time.Time
}

type PipelineMetrics struct {
	TotalLeads       int     `json:"total_leads"`
	TotalActiveLeads int     `json:"total_active_leads"`
	HotLeads         int     `json:"hot_leads"`
	ReplyRate        float64 `json:"reply_rate"`
	AverageScore     float64 `json:"average_score"`
}

// ActionableCounts are the lead-side inputs of the dashboard actionable
// card. Contactable is every lead not flagged do_not_contact, regardless of
// segment or status.
type ActionableCounts struct {
	Contactable int
	Replied     int
}

type SegmentShare struct {
	Segment    entity.Segment `json:"segment"`
	Count      int            `json:"count"`
	Percentage float64        `json:"percentage"`
}

type LeadRepositoryInterface interface {
	FindByID(ctx context.Context, id string) (*entity.Lead, error)
	FindByPhone(ctx context.Context, userID, phoneDigits string) (*entity.Lead, error)
	List(ctx context.Context, q LeadQuery) ([]*entity.Lead, int, error)
	ListChunk(ctx context.Context, userID string, offset, limit int) ([]*entity.Lead, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	Upsert(ctx context.Context, lead *entity.Lead) error
	UpdateScore(ctx context.Context, id string, score int, segment entity.Segment) error
	ApplyLabelTriple(ctx context.Context, id string, segment *entity.Segment, status *entity.LeadStatus, engagement *entity.EngagementLevel) error
	// MarkContacted bumps contact_count only when the contact timestamp
	// actually moves, so re-applying the same result file is a no-op.
	MarkContacted(ctx context.Context, id string, at time.Time) error
	MarkReplied(ctx context.Context, id string, at time.Time) error
	SelectEligible(ctx context.Context, q EligibilityQuery) ([]*entity.Lead, error)
	CountEligible(ctx context.Context, q EligibilityQuery) (int, error)
	CountMatchingTriple(ctx context.Context, userID string, segment *entity.Segment, status *entity.LeadStatus, engagement *entity.EngagementLevel) (int, error)
	CountByGroupName(ctx context.Context, userID, groupName string) (int, error)
	PipelineMetrics(ctx context.Context, userID string) (*PipelineMetrics, error)
	SegmentDistribution(ctx context.Context, userID string) ([]SegmentShare, error)
	ActionableCounts(ctx context.Context, userID string) (ActionableCounts, error)
}

type UserAverages struct {
	AvgReplyRate      float64 `json:"avg_reply_rate"`
	AvgConversionRate float64 `json:"avg_conversion_rate"`
	CampaignCount     int     `json:"campaign_count"`
}

type CampaignRepositoryInterface interface {
	List(ctx context.Context, userID string, limit int) ([]*entity.Campaign, error)
	FindByID(ctx context.Context, id string) (*entity.Campaign, error)
	Create(ctx context.Context, c *entity.Campaign) error
	UpdateLeadsCount(ctx context.Context, id string, count int) error
	UpdateWebhookStatus(ctx context.Context, id string, status entity.WebhookStatus) error
	UpdateMetrics(ctx context.Context, id string, m entity.CampaignMetrics, syncedAt time.Time) error
	Delete(ctx context.Context, id string) error
	AttachGroups(ctx context.Context, campaignID string, groupIDs []string) error
	GroupsForCampaign(ctx context.Context, campaignID string) ([]*entity.WhatsAppGroup, error)
	Averages(ctx context.Context, userID, excludeCampaignID string) (*UserAverages, error)
	ListStale(ctx context.Context, olderThan time.Time) ([]*entity.Campaign, error)
	CountActive(ctx context.Context, userID string) (int, error)
}

type SyncEventRepositoryInterface interface {
	Append(ctx context.Context, ev *entity.SyncEvent) error
	Latest(ctx context.Context, userID string) (*entity.SyncEvent, error)
}

type RescoreProducerInterface interface {
	PublishRescore(ctx context.Context, job queue.RescoreJob) error
}

// OperatorNotifier delivers the "always notify the operator" rule for
// failures that happen outside a request/response cycle.
type OperatorNotifier interface {
	NotifyIngestFailure(userID, uploadType string, cause error) error
	NotifySyncReminder(c *entity.Campaign) error
}

type CampaignWebhookInterface interface {
	NotifyCampaignCreated(ctx context.Context, payload n8n.CampaignPayload) (*n8n.CampaignResponse, error)
}
