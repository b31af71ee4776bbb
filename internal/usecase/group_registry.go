package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/wavelead/crm-engine/internal/entity"
)

type CreateGroupInput struct {
	GroupName   string `json:"group_name"`
	ScoreValue  int    `json:"score_value"`
	Description string `json:"description,omitempty"`
}

type UpdateGroupInput struct {
	GroupName   *string `json:"group_name,omitempty"`
	ScoreValue  *int    `json:"score_value,omitempty"`
	Description *string `json:"description,omitempty"`
}

// GroupRegistry owns the WhatsApp group -> score mappings and enforces the
// 50-point positive budget per user.
type GroupRegistry struct {
	Repo GroupRepositoryInterface
}

func NewGroupRegistry(repo GroupRepositoryInterface) *GroupRegistry {
	return &GroupRegistry{Repo: repo}
}

func (g *GroupRegistry) List(ctx context.Context, userID string) ([]*entity.WhatsAppGroup, error) {
	return g.Repo.ListByUser(ctx, userID)
}

func (g *GroupRegistry) Create(ctx context.Context, userID string, input CreateGroupInput) (*entity.WhatsAppGroup, error) {
	if errs := validateGroupInput(input.GroupName, input.ScoreValue); len(errs) > 0 {
		return nil, errs
	}

	if err := g.checkBudget(ctx, userID, "", input.ScoreValue); err != nil {
		return nil, err
	}

	group := entity.NewWhatsAppGroup(userID, strings.TrimSpace(input.GroupName), input.ScoreValue, input.Description)
	if input.Description == "" {
		group.Description = fmt.Sprintf("Group with score of +%d", input.ScoreValue)
	}

	if err := g.Repo.Create(ctx, group); err != nil {
		if err == entity.ErrGroupBudgetExceeded {
			return nil, budgetError(input.ScoreValue)
		}
		return nil, err
	}
	return group, nil
}

func (g *GroupRegistry) Update(ctx context.Context, id string, input UpdateGroupInput) (*entity.WhatsAppGroup, error) {
	group, err := g.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.GroupName != nil {
		group.GroupName = strings.TrimSpace(*input.GroupName)
	}
	if input.ScoreValue != nil {
		group.ScoreValue = *input.ScoreValue
	}
	if input.Description != nil {
		group.Description = *input.Description
	}

	if errs := validateGroupInput(group.GroupName, group.ScoreValue); len(errs) > 0 {
		return nil, errs
	}

	// Budget is computed against the total excluding the row being edited.
	if err := g.checkBudget(ctx, group.UserID, group.ID, group.ScoreValue); err != nil {
		return nil, err
	}

	if err := g.Repo.Update(ctx, group); err != nil {
		if err == entity.ErrGroupBudgetExceeded {
			return nil, budgetError(group.ScoreValue)
		}
		return nil, err
	}
	return group, nil
}

// Delete is a hard delete. Leads keep their historical group lists, so there
// is no referential check here.
func (g *GroupRegistry) Delete(ctx context.Context, id string) error {
	return g.Repo.Delete(ctx, id)
}

// ResetToDefault restores the 3 canonical groups. Delete and insert run in a
// single transaction; a failure surfaces as fatal instead of being retried.
func (g *GroupRegistry) ResetToDefault(ctx context.Context, userID string) ([]*entity.WhatsAppGroup, error) {
	defaults := entity.DefaultGroups(userID)
	if err := g.Repo.ReplaceAll(ctx, userID, defaults); err != nil {
		return nil, err
	}
	return defaults, nil
}

func (g *GroupRegistry) checkBudget(ctx context.Context, userID, excludeID string, newScore int) error {
	if newScore <= 0 {
		return nil
	}
	total, err := g.Repo.SumPositiveScores(ctx, userID, excludeID)
	if err != nil {
		return err
	}
	if total+newScore > entity.GroupBudgetMax {
		return budgetError(newScore)
	}
	return nil
}

func budgetError(score int) error {
	return ValidationErrors{{
		Field:   "score_value",
		Message: fmt.Sprintf("adding %d points would exceed the %d-point group budget", score, entity.GroupBudgetMax),
	}}
}

func validateGroupInput(name string, score int) ValidationErrors {
	var errs ValidationErrors
	if strings.TrimSpace(name) == "" {
		errs = append(errs, ValidationError{"group_name", "is required"})
	}
	if score < -entity.GroupBudgetMax || score > entity.GroupBudgetMax {
		errs = append(errs, ValidationError{"score_value", fmt.Sprintf("must be between -%d and %d", entity.GroupBudgetMax, entity.GroupBudgetMax)})
	} else if score == 0 {
		errs = append(errs, ValidationError{"score_value", "must not be zero"})
	}
	return errs
}
