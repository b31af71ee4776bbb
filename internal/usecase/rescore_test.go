package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/wavelead/crm-engine/internal/entity"
)

func newTestRescorer(leads *MockLeadRepository, groups *MockGroupRepository, rules *MockRuleRepository) *Rescorer {
	r := NewRescorer(leads, groups, rules, ScoreConfig{})
	r.Now = func() time.Time { return scoreNow }
	return r
}

func TestRescoreLeadStoresScoreAndSegment(t *testing.T) {
	ctx := context.Background()
	leads := new(MockLeadRepository)
	groups := new(MockGroupRepository)
	rules := new(MockRuleRepository)

	lead := &entity.Lead{ID: "l-1", UserID: "user-1", ReplyReceived: true, PositiveSignalGroups: []string{"clients"}}
	leads.On("FindByID", ctx, "l-1").Return(lead, nil)
	groups.On("ListByUser", ctx, "user-1").Return(entity.DefaultGroups("user-1"), nil)
	rules.On("ListByUser", ctx, "user-1").Return(entity.DefaultRules("user-1"), nil)
	// clients 25 + replied 25 = 50 -> WARM
	leads.On("UpdateScore", ctx, "l-1", 50, entity.SegmentWarm).Return(nil)

	result, err := newTestRescorer(leads, groups, rules).RescoreLead(ctx, "l-1")

	assert.NoError(t, err)
	assert.Equal(t, 50, result.Score)
	assert.Equal(t, entity.SegmentWarm, result.Segment)
	leads.AssertCalled(t, "UpdateScore", ctx, "l-1", 50, entity.SegmentWarm)
}

func TestRescoreAllWalksChunksAndSkipsUnchanged(t *testing.T) {
	ctx := context.Background()
	leads := new(MockLeadRepository)
	groups := new(MockGroupRepository)
	rules := new(MockRuleRepository)

	groups.On("ListByUser", ctx, "user-1").Return(entity.DefaultGroups("user-1"), nil)
	rules.On("ListByUser", ctx, "user-1").Return(entity.DefaultRules("user-1"), nil)

	changed := &entity.Lead{ID: "l-1", UserID: "user-1", ReplyReceived: true, LeadScore: 0, Segment: entity.SegmentCold}
	// Already holds the score the engine would compute: no write expected.
	unchanged := &entity.Lead{ID: "l-2", UserID: "user-1", LeadScore: 0, Segment: entity.SegmentDead}

	leads.On("ListChunk", ctx, "user-1", 0, 2).Return([]*entity.Lead{changed, unchanged}, nil)
	leads.On("ListChunk", ctx, "user-1", 2, 2).Return([]*entity.Lead{}, nil)
	leads.On("UpdateScore", ctx, "l-1", 25, entity.SegmentCold).Return(nil)

	r := newTestRescorer(leads, groups, rules)
	r.ChunkSize = 2

	processed, err := r.RescoreAll(ctx, "user-1")

	assert.NoError(t, err)
	assert.Equal(t, 2, processed)
	leads.AssertCalled(t, "UpdateScore", ctx, "l-1", 25, entity.SegmentCold)
	leads.AssertNotCalled(t, "UpdateScore", ctx, "l-2", mock.Anything, mock.Anything)
}

func TestRescoreAllRegistrySnapshotTakenOnce(t *testing.T) {
	ctx := context.Background()
	leads := new(MockLeadRepository)
	groups := new(MockGroupRepository)
	rules := new(MockRuleRepository)

	groups.On("ListByUser", ctx, "user-1").Return([]*entity.WhatsAppGroup{}, nil)
	rules.On("ListByUser", ctx, "user-1").Return([]*entity.EngagementRule{}, nil)
	leads.On("ListChunk", ctx, "user-1", 0, 200).Return([]*entity.Lead{}, nil)

	_, err := newTestRescorer(leads, groups, rules).RescoreAll(ctx, "user-1")

	assert.NoError(t, err)
	groups.AssertNumberOfCalls(t, "ListByUser", 1)
	rules.AssertNumberOfCalls(t, "ListByUser", 1)
}
