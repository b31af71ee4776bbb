package queue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/wavelead/crm-engine/internal/entity"
)

type mockScoreService struct {
	mock.Mock
}

func (m *mockScoreService) RescoreAll(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *mockScoreService) RescoreLead(ctx context.Context, leadID string) (*entity.ScoreResult, error) {
	args := m.Called(ctx, leadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ScoreResult), args.Error(1)
}

func TestProcessRoutesSingleLeadJobs(t *testing.T) {
	ctx := context.Background()
	scores := new(mockScoreService)
	scores.On("RescoreLead", ctx, "lead-1").Return(&entity.ScoreResult{Score: 70, Segment: entity.SegmentHot}, nil)

	count, err := NewWorker(nil, scores).process(ctx, RescoreJob{UserID: "user-1", LeadID: "lead-1", Reason: "manual"})

	assert.NoError(t, err)
	assert.Equal(t, 1, count)
	scores.AssertNotCalled(t, "RescoreAll", mock.Anything, mock.Anything)
}

func TestProcessRunsFullPassWithoutLeadID(t *testing.T) {
	ctx := context.Background()
	scores := new(mockScoreService)
	scores.On("RescoreAll", ctx, "user-1").Return(7, nil)

	count, err := NewWorker(nil, scores).process(ctx, RescoreJob{UserID: "user-1", Reason: "new_scrapes"})

	assert.NoError(t, err)
	assert.Equal(t, 7, count)
	scores.AssertNotCalled(t, "RescoreLead", mock.Anything, mock.Anything)
}
