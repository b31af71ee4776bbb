package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/wavelead/crm-engine/internal/entity"
)

type CreateRuleInput struct {
	RuleName         string                  `json:"rule_name"`
	RuleType         entity.RuleType         `json:"rule_type"`
	Points           int                     `json:"points"`
	TriggerCondition entity.TriggerCondition `json:"trigger_condition"`
	Description      string                  `json:"description,omitempty"`
	Active           *bool                   `json:"active,omitempty"`
}

type UpdateRuleInput struct {
	RuleName         *string                  `json:"rule_name,omitempty"`
	RuleType         *entity.RuleType         `json:"rule_type,omitempty"`
	Points           *int                     `json:"points,omitempty"`
	TriggerCondition *entity.TriggerCondition `json:"trigger_condition,omitempty"`
	Description      *string                  `json:"description,omitempty"`
	Active           *bool                    `json:"active,omitempty"`
}

// RuleBudget is reported alongside every mutating call. Unlike the group
// budget it is advisory: deviations warn, never block.
type RuleBudget struct {
	BonusTotal   int    `json:"bonus_total"`
	PenaltyTotal int    `json:"penalty_total"`
	Warning      string `json:"warning,omitempty"`
}

type RuleOutput struct {
	Rule   *entity.EngagementRule `json:"rule"`
	Budget RuleBudget             `json:"budget"`
}

type RuleRegistry struct {
	Repo RuleRepositoryInterface
}

func NewRuleRegistry(repo RuleRepositoryInterface) *RuleRegistry {
	return &RuleRegistry{Repo: repo}
}

func (r *RuleRegistry) List(ctx context.Context, userID string) ([]*entity.EngagementRule, error) {
	return r.Repo.ListByUser(ctx, userID)
}

func (r *RuleRegistry) Create(ctx context.Context, userID string, input CreateRuleInput) (*RuleOutput, error) {
	if errs := validateRuleInput(input.RuleName, input.RuleType, input.Points); len(errs) > 0 {
		return nil, errs
	}

	rule := entity.NewEngagementRule(userID, strings.TrimSpace(input.RuleName), input.RuleType, input.Points, input.TriggerCondition, input.Description)
	if input.Active != nil {
		rule.Active = *input.Active
	}

	if err := r.Repo.Create(ctx, rule); err != nil {
		return nil, err
	}

	budget, err := r.budget(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &RuleOutput{Rule: rule, Budget: budget}, nil
}

func (r *RuleRegistry) Update(ctx context.Context, id string, input UpdateRuleInput) (*RuleOutput, error) {
	rule, err := r.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.RuleName != nil {
		rule.RuleName = strings.TrimSpace(*input.RuleName)
	}
	if input.RuleType != nil {
		rule.RuleType = *input.RuleType
	}
	if input.Points != nil {
		rule.Points = *input.Points
	}
	if input.TriggerCondition != nil {
		rule.Condition = *input.TriggerCondition
	}
	if input.Description != nil {
		rule.Description = *input.Description
	}
	if input.Active != nil {
		rule.Active = *input.Active
	}

	if errs := validateRuleInput(rule.RuleName, rule.RuleType, rule.Points); len(errs) > 0 {
		return nil, errs
	}

	if err := r.Repo.Update(ctx, rule); err != nil {
		return nil, err
	}

	budget, err := r.budget(ctx, rule.UserID)
	if err != nil {
		return nil, err
	}
	return &RuleOutput{Rule: rule, Budget: budget}, nil
}

func (r *RuleRegistry) Delete(ctx context.Context, id string) error {
	return r.Repo.Delete(ctx, id)
}

func (r *RuleRegistry) ResetToDefault(ctx context.Context, userID string) ([]*entity.EngagementRule, error) {
	defaults := entity.DefaultRules(userID)
	if err := r.Repo.ReplaceAll(ctx, userID, defaults); err != nil {
		return nil, err
	}
	return defaults, nil
}

func (r *RuleRegistry) budget(ctx context.Context, userID string) (RuleBudget, error) {
	rules, err := r.Repo.ListByUser(ctx, userID)
	if err != nil {
		return RuleBudget{}, err
	}

	var b RuleBudget
	for _, rule := range rules {
		if !rule.Active {
			continue
		}
		if rule.Points > 0 {
			b.BonusTotal += rule.Points
		} else {
			b.PenaltyTotal += rule.Points
		}
	}

	switch {
	case b.BonusTotal > entity.BonusBudgetMax && b.PenaltyTotal < entity.PenaltyBudgetMin:
		b.Warning = fmt.Sprintf("bonus total %d exceeds %d and penalty total %d is below %d", b.BonusTotal, entity.BonusBudgetMax, b.PenaltyTotal, entity.PenaltyBudgetMin)
	case b.BonusTotal > entity.BonusBudgetMax:
		b.Warning = fmt.Sprintf("bonus total %d exceeds the advisory budget of %d", b.BonusTotal, entity.BonusBudgetMax)
	case b.PenaltyTotal < entity.PenaltyBudgetMin:
		b.Warning = fmt.Sprintf("penalty total %d is below the advisory floor of %d", b.PenaltyTotal, entity.PenaltyBudgetMin)
	}
	return b, nil
}

func validateRuleInput(name string, ruleType entity.RuleType, points int) ValidationErrors {
	var errs ValidationErrors
	if strings.TrimSpace(name) == "" {
		errs = append(errs, ValidationError{"rule_name", "is required"})
	}
	switch ruleType {
	case entity.RuleBonus:
		if points <= 0 {
			errs = append(errs, ValidationError{"points", "bonus rules need positive points"})
		}
	case entity.RulePenalty:
		if points >= 0 {
			errs = append(errs, ValidationError{"points", "penalty rules need negative points"})
		}
	default:
		errs = append(errs, ValidationError{"rule_type", "must be bonus or penalty"})
	}
	return errs
}
