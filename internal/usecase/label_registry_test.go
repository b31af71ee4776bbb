package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/wavelead/crm-engine/internal/entity"
)

func segPtr(s entity.Segment) *entity.Segment            { return &s }
func statusPtr(s entity.LeadStatus) *entity.LeadStatus   { return &s }
func engPtr(e entity.EngagementLevel) *entity.EngagementLevel { return &e }

func TestCreateLabelMapping(t *testing.T) {
	ctx := context.Background()
	repo := new(MockLabelRepository)
	repo.On("FindActiveByLabel", ctx, "user-1", "VIP Client").Return(nil, entity.ErrLabelNotFound)
	repo.On("Create", ctx, mock.MatchedBy(func(m *entity.LabelMapping) bool {
		return m.WhatsAppLabelName == "VIP Client" && m.IsActive
	})).Return(nil)

	registry := NewLabelRegistry(repo, new(MockLeadRepository))
	mapping, err := registry.Create(ctx, "user-1", CreateLabelInput{
		WhatsAppLabelName: "VIP Client",
		Segment:           segPtr(entity.SegmentHot),
		Status:            statusPtr(entity.StatusActive),
	})

	assert.NoError(t, err)
	assert.Equal(t, entity.SegmentHot, *mapping.Segment)
	assert.Nil(t, mapping.EngagementLevel)
}

func TestCreateDuplicateActiveLabelConflicts(t *testing.T) {
	ctx := context.Background()
	existing := entity.NewLabelMapping("user-1", "VIP Client", segPtr(entity.SegmentHot), nil, nil)

	repo := new(MockLabelRepository)
	repo.On("FindActiveByLabel", ctx, "user-1", "VIP Client").Return(existing, nil)

	registry := NewLabelRegistry(repo, new(MockLeadRepository))
	_, err := registry.Create(ctx, "user-1", CreateLabelInput{WhatsAppLabelName: "VIP Client"})

	assert.True(t, IsConflictError(err))
	assert.Equal(t, "DUPLICATE_LABEL", err.(*ConflictError).Code)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDeleteLabelBlockedWhileInUse(t *testing.T) {
	ctx := context.Background()
	mapping := entity.NewLabelMapping("user-1", "VIP Client", segPtr(entity.SegmentHot), statusPtr(entity.StatusActive), nil)
	mapping.ID = "label-1"

	repo := new(MockLabelRepository)
	repo.On("FindByID", ctx, "label-1").Return(mapping, nil)

	leads := new(MockLeadRepository)
	leads.On("CountMatchingTriple", ctx, "user-1", mapping.Segment, mapping.Status, mapping.EngagementLevel).Return(12, nil)

	registry := NewLabelRegistry(repo, leads)
	err := registry.Delete(ctx, "label-1")

	assert.True(t, IsConflictError(err))
	assert.Equal(t, "LABEL_IN_USE", err.(*ConflictError).Code)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeleteUnusedLabelSucceeds(t *testing.T) {
	ctx := context.Background()
	mapping := entity.NewLabelMapping("user-1", "Old Label", nil, nil, engPtr(entity.EngagementDisengaged))
	mapping.ID = "label-2"

	repo := new(MockLabelRepository)
	repo.On("FindByID", ctx, "label-2").Return(mapping, nil)
	repo.On("Delete", ctx, "label-2").Return(nil)

	leads := new(MockLeadRepository)
	leads.On("CountMatchingTriple", ctx, "user-1", mapping.Segment, mapping.Status, mapping.EngagementLevel).Return(0, nil)

	registry := NewLabelRegistry(repo, leads)
	assert.NoError(t, registry.Delete(ctx, "label-2"))
}

func TestArchiveIsTheInUseAlternative(t *testing.T) {
	ctx := context.Background()
	repo := new(MockLabelRepository)
	repo.On("SetActive", ctx, "label-1", false).Return(nil)
	repo.On("SetActive", ctx, "label-1", true).Return(nil)

	registry := NewLabelRegistry(repo, new(MockLeadRepository))
	assert.NoError(t, registry.Archive(ctx, "label-1"))
	assert.NoError(t, registry.Reactivate(ctx, "label-1"))
}

func TestUpdateLabelRenameWarns(t *testing.T) {
	ctx := context.Background()
	mapping := entity.NewLabelMapping("user-1", "VIP Client", segPtr(entity.SegmentHot), nil, nil)
	mapping.ID = "label-1"

	repo := new(MockLabelRepository)
	repo.On("FindByID", ctx, "label-1").Return(mapping, nil)
	repo.On("Update", ctx, mock.Anything).Return(nil)

	registry := NewLabelRegistry(repo, new(MockLeadRepository))
	newName := "Premium Client"
	out, err := registry.Update(ctx, "label-1", UpdateLabelInput{WhatsAppLabelName: &newName})

	assert.NoError(t, err)
	assert.Contains(t, out.RenameWarning, "VIP Client")
	assert.Equal(t, "Premium Client", out.Mapping.WhatsAppLabelName)
}

func TestCreateLabelRejectsInvalidTriple(t *testing.T) {
	registry := NewLabelRegistry(new(MockLabelRepository), new(MockLeadRepository))

	bad := entity.Segment("LUKEWARM")
	_, err := registry.Create(context.Background(), "user-1", CreateLabelInput{
		WhatsAppLabelName: "x",
		Segment:           &bad,
	})
	assert.True(t, IsValidationError(err))
}
