package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/wavelead/crm-engine/internal/entity"
	"github.com/wavelead/crm-engine/internal/infra/queue"
)

var ingestNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

type ingestMocks struct {
	leads     *MockLeadRepository
	labels    *MockLabelRepository
	campaigns *MockCampaignRepository
	syncs     *MockSyncEventRepository
	producer  *MockRescoreProducer
}

func newIngestService(m *ingestMocks) *IngestService {
	s := NewIngestService(m.leads, m.labels, m.campaigns, m.syncs, m.producer, nil)
	s.Now = func() time.Time { return ingestNow }
	return s
}

func defaultIngestMocks() *ingestMocks {
	return &ingestMocks{
		leads:     new(MockLeadRepository),
		labels:    new(MockLabelRepository),
		campaigns: new(MockCampaignRepository),
		syncs:     new(MockSyncEventRepository),
		producer:  new(MockRescoreProducer),
	}
}

func TestIngestLabelsAppliesTriple(t *testing.T) {
	ctx := context.Background()
	m := defaultIngestMocks()

	mapping := entity.NewLabelMapping("user-1", "VIP Client", segPtr(entity.SegmentHot), statusPtr(entity.StatusActive), nil)
	m.labels.On("FindActiveByLabel", ctx, "user-1", "VIP Client").Return(mapping, nil)
	m.leads.On("FindByPhone", ctx, "user-1", "851234567").Return(&entity.Lead{ID: "l-1"}, nil)
	m.leads.On("ApplyLabelTriple", ctx, "l-1", mapping.Segment, mapping.Status, mapping.EngagementLevel).Return(nil)
	m.syncs.On("Append", ctx, mock.MatchedBy(func(ev *entity.SyncEvent) bool {
		return ev.Status == entity.SyncSuccess && ev.UploadType == UploadTypeLabels
	})).Return(nil)
	m.producer.On("PublishRescore", ctx, mock.MatchedBy(func(j queue.RescoreJob) bool {
		return j.UserID == "user-1" && j.Reason == UploadTypeLabels
	})).Return(nil)

	csv := "phone,label\n0851234567,VIP Client\n"
	summary, err := newIngestService(m).IngestLabels(ctx, "user-1", strings.NewReader(csv))

	assert.NoError(t, err)
	assert.Equal(t, 1, summary.ProcessedCount)
	assert.Equal(t, 0, summary.SkippedCount)
	m.producer.AssertCalled(t, "PublishRescore", ctx, mock.Anything)
}

func TestIngestLabelsSkipsUnknownLabelsAndPhones(t *testing.T) {
	ctx := context.Background()
	m := defaultIngestMocks()

	m.labels.On("FindActiveByLabel", ctx, "user-1", "Nope").Return(nil, entity.ErrLabelNotFound)
	m.syncs.On("Append", ctx, mock.MatchedBy(func(ev *entity.SyncEvent) bool {
		return ev.Status == entity.SyncPartial
	})).Return(nil)
	m.producer.On("PublishRescore", ctx, mock.Anything).Return(nil)

	csv := "0851234567,Nope\n"
	summary, err := newIngestService(m).IngestLabels(ctx, "user-1", strings.NewReader(csv))

	assert.NoError(t, err)
	assert.Equal(t, 0, summary.ProcessedCount)
	assert.Equal(t, 1, summary.SkippedCount)
	m.leads.AssertNotCalled(t, "ApplyLabelTriple", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestResultsRecomputesMetricsAbsolutely(t *testing.T) {
	ctx := context.Background()
	m := defaultIngestMocks()

	m.campaigns.On("FindByID", ctx, "camp-1").Return(&entity.Campaign{ID: "camp-1", UserID: "user-1"}, nil)
	m.leads.On("FindByPhone", ctx, "user-1", mock.Anything).Return(&entity.Lead{ID: "l-1"}, nil)
	m.leads.On("MarkContacted", ctx, "l-1", ingestNow).Return(nil)
	m.leads.On("MarkReplied", ctx, "l-1", ingestNow).Return(nil)
	m.campaigns.On("UpdateMetrics", ctx, "camp-1", entity.CampaignMetrics{
		SentCount:    2, // one sent + one replied
		FailedCount:  1,
		RepliedCount: 1,
	}, ingestNow).Return(nil)
	m.syncs.On("Append", ctx, mock.Anything).Return(nil)
	m.producer.On("PublishRescore", ctx, mock.Anything).Return(nil)

	csv := "0851111111,sent\n0852222222,failed\n0853333333,replied\n"
	summary, err := newIngestService(m).IngestResults(ctx, "user-1", "camp-1", strings.NewReader(csv))

	assert.NoError(t, err)
	assert.Equal(t, 3, summary.ProcessedCount)
	// Metrics are SET from the file, so re-running the upload converges.
	m.campaigns.AssertCalled(t, "UpdateMetrics", ctx, "camp-1", mock.Anything, ingestNow)
}

func TestIngestResultsFailedRowsDoNotMarkContacted(t *testing.T) {
	ctx := context.Background()
	m := defaultIngestMocks()

	m.campaigns.On("FindByID", ctx, "camp-1").Return(&entity.Campaign{ID: "camp-1", UserID: "user-1"}, nil)
	m.leads.On("FindByPhone", ctx, "user-1", "851111111").Return(&entity.Lead{ID: "l-1"}, nil)
	m.campaigns.On("UpdateMetrics", ctx, "camp-1", mock.Anything, ingestNow).Return(nil)
	m.syncs.On("Append", ctx, mock.Anything).Return(nil)
	m.producer.On("PublishRescore", ctx, mock.Anything).Return(nil)

	csv := "0851111111,failed\n"
	_, err := newIngestService(m).IngestResults(ctx, "user-1", "camp-1", strings.NewReader(csv))

	assert.NoError(t, err)
	m.leads.AssertNotCalled(t, "MarkContacted", mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestResultsHonorsRowTimestamp(t *testing.T) {
	ctx := context.Background()
	m := defaultIngestMocks()
	at := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

	m.campaigns.On("FindByID", ctx, "camp-1").Return(&entity.Campaign{ID: "camp-1", UserID: "user-1"}, nil)
	m.leads.On("FindByPhone", ctx, "user-1", "851111111").Return(&entity.Lead{ID: "l-1"}, nil)
	m.leads.On("MarkContacted", ctx, "l-1", at).Return(nil)
	m.campaigns.On("UpdateMetrics", ctx, "camp-1", mock.Anything, ingestNow).Return(nil)
	m.syncs.On("Append", ctx, mock.Anything).Return(nil)
	m.producer.On("PublishRescore", ctx, mock.Anything).Return(nil)

	csv := "0851111111,sent,2026-03-10T09:30:00Z\n"
	_, err := newIngestService(m).IngestResults(ctx, "user-1", "camp-1", strings.NewReader(csv))

	assert.NoError(t, err)
	m.leads.AssertCalled(t, "MarkContacted", ctx, "l-1", at)
}

func TestIngestNewScrapesUpsertsColdLeads(t *testing.T) {
	ctx := context.Background()
	m := defaultIngestMocks()

	m.leads.On("Upsert", ctx, mock.MatchedBy(func(l *entity.Lead) bool {
		return l.PhoneNumber == "851234567" &&
			l.Segment == entity.SegmentCold &&
			l.Status == entity.StatusNew &&
			len(l.WhatsAppGroupsRaw) == 2 &&
			l.Source == "march-scrape"
	})).Return(nil)
	m.syncs.On("Append", ctx, mock.Anything).Return(nil)
	m.producer.On("PublishRescore", ctx, mock.Anything).Return(nil)

	csv := "phone,first,last,groups\n0851234567,Aoife,Byrne,clients;leads\n"
	summary, err := newIngestService(m).IngestNewScrapes(ctx, "user-1", "march-scrape", strings.NewReader(csv))

	assert.NoError(t, err)
	assert.Equal(t, 1, summary.ProcessedCount)
	assert.Equal(t, 1, summary.Breakdown["COLD"])
}

func TestIngestNewScrapesAssignsLeadIdentity(t *testing.T) {
	ctx := context.Background()
	m := defaultIngestMocks()

	var captured *entity.Lead
	m.leads.On("Upsert", ctx, mock.MatchedBy(func(l *entity.Lead) bool {
		captured = l
		return true
	})).Return(nil)
	m.syncs.On("Append", ctx, mock.Anything).Return(nil)
	m.producer.On("PublishRescore", ctx, mock.Anything).Return(nil)

	_, err := newIngestService(m).IngestNewScrapes(ctx, "user-1", "", strings.NewReader("0851234567,Aoife,Byrne\n"))

	assert.NoError(t, err)
	if assert.NotNil(t, captured) {
		// The insert half of the upsert writes these columns verbatim, so
		// a scraped lead must arrive with a real id and timestamps.
		assert.NotEmpty(t, captured.ID)
		assert.False(t, captured.CreatedAt.IsZero())
		assert.False(t, captured.UpdatedAt.IsZero())
	}
}

func TestIngestQueueFailureIsExternalServiceError(t *testing.T) {
	ctx := context.Background()
	m := defaultIngestMocks()

	m.leads.On("Upsert", ctx, mock.Anything).Return(nil)
	m.syncs.On("Append", ctx, mock.Anything).Return(nil)
	m.producer.On("PublishRescore", ctx, mock.Anything).Return(errors.New("broker down"))

	csv := "0851234567,Aoife,Byrne\n"
	_, err := newIngestService(m).IngestNewScrapes(ctx, "user-1", "", strings.NewReader(csv))

	// Rows are stored; only the rescore hand-off failed.
	assert.True(t, IsExternalServiceError(err))
	m.leads.AssertCalled(t, "Upsert", ctx, mock.Anything)
}

func TestIngestFailureNotifiesOperatorAndRecordsEvent(t *testing.T) {
	ctx := context.Background()
	m := defaultIngestMocks()

	notifier := new(mockNotifier)
	notifier.On("NotifyIngestFailure", "user-1", UploadTypeResults, mock.Anything).Return(nil)

	m.campaigns.On("FindByID", ctx, "camp-x").Return(nil, entity.ErrCampaignNotFound)
	m.syncs.On("Append", ctx, mock.MatchedBy(func(ev *entity.SyncEvent) bool {
		return ev.Status == entity.SyncFailed
	})).Return(nil)

	s := newIngestService(m)
	s.Notifier = notifier

	_, err := s.IngestResults(ctx, "user-1", "camp-x", strings.NewReader("0851,sent\n"))

	assert.Error(t, err)
	notifier.AssertCalled(t, "NotifyIngestFailure", "user-1", UploadTypeResults, mock.Anything)
	m.syncs.AssertCalled(t, "Append", ctx, mock.Anything)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyIngestFailure(userID, uploadType string, cause error) error {
	args := m.Called(userID, uploadType, cause)
	return args.Error(0)
}

func (m *mockNotifier) NotifySyncReminder(c *entity.Campaign) error {
	args := m.Called(c)
	return args.Error(0)
}
