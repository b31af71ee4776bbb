package usecase

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/wavelead/crm-engine/internal/entity"
	"github.com/wavelead/crm-engine/internal/infra/integration/n8n"
	"github.com/wavelead/crm-engine/internal/infra/queue"
)

// MockGroupRepository
type MockGroupRepository struct {
	mock.Mock
}

func (m *MockGroupRepository) ListByUser(ctx context.Context, userID string) ([]*entity.WhatsAppGroup, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.WhatsAppGroup), args.Error(1)
}

func (m *MockGroupRepository) FindByID(ctx context.Context, id string) (*entity.WhatsAppGroup, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.WhatsAppGroup), args.Error(1)
}

func (m *MockGroupRepository) SumPositiveScores(ctx context.Context, userID, excludeID string) (int, error) {
	args := m.Called(ctx, userID, excludeID)
	return args.Int(0), args.Error(1)
}

func (m *MockGroupRepository) Create(ctx context.Context, g *entity.WhatsAppGroup) error {
	args := m.Called(ctx, g)
	return args.Error(0)
}

func (m *MockGroupRepository) Update(ctx context.Context, g *entity.WhatsAppGroup) error {
	args := m.Called(ctx, g)
	return args.Error(0)
}

func (m *MockGroupRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockGroupRepository) ReplaceAll(ctx context.Context, userID string, groups []*entity.WhatsAppGroup) error {
	args := m.Called(ctx, userID, groups)
	return args.Error(0)
}

// MockLabelRepository
type MockLabelRepository struct {
	mock.Mock
}

func (m *MockLabelRepository) ListByUser(ctx context.Context, userID string) ([]*entity.LabelMapping, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.LabelMapping), args.Error(1)
}

func (m *MockLabelRepository) FindByID(ctx context.Context, id string) (*entity.LabelMapping, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.LabelMapping), args.Error(1)
}

func (m *MockLabelRepository) FindActiveByLabel(ctx context.Context, userID, label string) (*entity.LabelMapping, error) {
	args := m.Called(ctx, userID, label)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.LabelMapping), args.Error(1)
}

func (m *MockLabelRepository) Create(ctx context.Context, mapping *entity.LabelMapping) error {
	args := m.Called(ctx, mapping)
	return args.Error(0)
}

func (m *MockLabelRepository) Update(ctx context.Context, mapping *entity.LabelMapping) error {
	args := m.Called(ctx, mapping)
	return args.Error(0)
}

func (m *MockLabelRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockLabelRepository) SetActive(ctx context.Context, id string, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

// MockRuleRepository
type MockRuleRepository struct {
	mock.Mock
}

func (m *MockRuleRepository) ListByUser(ctx context.Context, userID string) ([]*entity.EngagementRule, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.EngagementRule), args.Error(1)
}

func (m *MockRuleRepository) FindByID(ctx context.Context, id string) (*entity.EngagementRule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.EngagementRule), args.Error(1)
}

func (m *MockRuleRepository) Create(ctx context.Context, rule *entity.EngagementRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *MockRuleRepository) Update(ctx context.Context, rule *entity.EngagementRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *MockRuleRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRuleRepository) ReplaceAll(ctx context.Context, userID string, rules []*entity.EngagementRule) error {
	args := m.Called(ctx, userID, rules)
	return args.Error(0)
}

// MockLeadRepository
type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) FindByPhone(ctx context.Context, userID, phoneDigits string) (*entity.Lead, error) {
	args := m.Called(ctx, userID, phoneDigits)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) List(ctx context.Context, q LeadQuery) ([]*entity.Lead, int, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*entity.Lead), args.Int(1), args.Error(2)
}

func (m *MockLeadRepository) ListChunk(ctx context.Context, userID string, offset, limit int) ([]*entity.Lead, error) {
	args := m.Called(ctx, userID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockLeadRepository) Upsert(ctx context.Context, lead *entity.Lead) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

func (m *MockLeadRepository) UpdateScore(ctx context.Context, id string, score int, segment entity.Segment) error {
	args := m.Called(ctx, id, score, segment)
	return args.Error(0)
}

func (m *MockLeadRepository) ApplyLabelTriple(ctx context.Context, id string, segment *entity.Segment, status *entity.LeadStatus, engagement *entity.EngagementLevel) error {
	args := m.Called(ctx, id, segment, status, engagement)
	return args.Error(0)
}

func (m *MockLeadRepository) MarkContacted(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockLeadRepository) MarkReplied(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockLeadRepository) SelectEligible(ctx context.Context, q EligibilityQuery) ([]*entity.Lead, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) CountEligible(ctx context.Context, q EligibilityQuery) (int, error) {
	args := m.Called(ctx, q)
	return args.Int(0), args.Error(1)
}

func (m *MockLeadRepository) CountMatchingTriple(ctx context.Context, userID string, segment *entity.Segment, status *entity.LeadStatus, engagement *entity.EngagementLevel) (int, error) {
	args := m.Called(ctx, userID, segment, status, engagement)
	return args.Int(0), args.Error(1)
}

func (m *MockLeadRepository) CountByGroupName(ctx context.Context, userID, groupName string) (int, error) {
	args := m.Called(ctx, userID, groupName)
	return args.Int(0), args.Error(1)
}

func (m *MockLeadRepository) PipelineMetrics(ctx context.Context, userID string) (*PipelineMetrics, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PipelineMetrics), args.Error(1)
}

func (m *MockLeadRepository) SegmentDistribution(ctx context.Context, userID string) ([]SegmentShare, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]SegmentShare), args.Error(1)
}

func (m *MockLeadRepository) ActionableCounts(ctx context.Context, userID string) (ActionableCounts, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(ActionableCounts), args.Error(1)
}

// MockCampaignRepository
type MockCampaignRepository struct {
	mock.Mock
}

func (m *MockCampaignRepository) List(ctx context.Context, userID string, limit int) ([]*entity.Campaign, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Campaign), args.Error(1)
}

func (m *MockCampaignRepository) FindByID(ctx context.Context, id string) (*entity.Campaign, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Campaign), args.Error(1)
}

func (m *MockCampaignRepository) Create(ctx context.Context, c *entity.Campaign) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCampaignRepository) UpdateLeadsCount(ctx context.Context, id string, count int) error {
	args := m.Called(ctx, id, count)
	return args.Error(0)
}

func (m *MockCampaignRepository) UpdateWebhookStatus(ctx context.Context, id string, status entity.WebhookStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockCampaignRepository) UpdateMetrics(ctx context.Context, id string, metrics entity.CampaignMetrics, syncedAt time.Time) error {
	args := m.Called(ctx, id, metrics, syncedAt)
	return args.Error(0)
}

func (m *MockCampaignRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCampaignRepository) AttachGroups(ctx context.Context, campaignID string, groupIDs []string) error {
	args := m.Called(ctx, campaignID, groupIDs)
	return args.Error(0)
}

func (m *MockCampaignRepository) GroupsForCampaign(ctx context.Context, campaignID string) ([]*entity.WhatsAppGroup, error) {
	args := m.Called(ctx, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.WhatsAppGroup), args.Error(1)
}

func (m *MockCampaignRepository) Averages(ctx context.Context, userID, excludeCampaignID string) (*UserAverages, error) {
	args := m.Called(ctx, userID, excludeCampaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*UserAverages), args.Error(1)
}

func (m *MockCampaignRepository) ListStale(ctx context.Context, olderThan time.Time) ([]*entity.Campaign, error) {
	args := m.Called(ctx, olderThan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Campaign), args.Error(1)
}

func (m *MockCampaignRepository) CountActive(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

// MockSyncEventRepository
type MockSyncEventRepository struct {
	mock.Mock
}

func (m *MockSyncEventRepository) Append(ctx context.Context, ev *entity.SyncEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func (m *MockSyncEventRepository) Latest(ctx context.Context, userID string) (*entity.SyncEvent, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.SyncEvent), args.Error(1)
}

// MockRescoreProducer
type MockRescoreProducer struct {
	mock.Mock
}

func (m *MockRescoreProducer) PublishRescore(ctx context.Context, job queue.RescoreJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

// MockCampaignWebhook
type MockCampaignWebhook struct {
	mock.Mock
}

func (m *MockCampaignWebhook) NotifyCampaignCreated(ctx context.Context, payload n8n.CampaignPayload) (*n8n.CampaignResponse, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*n8n.CampaignResponse), args.Error(1)
}
