package usecase

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/wavelead/crm-engine/internal/entity"
	"github.com/wavelead/crm-engine/internal/infra/http/middleware"
	"github.com/wavelead/crm-engine/internal/infra/integration/n8n"
)

type CreateCampaignInput struct {
	Name              string               `json:"name"`
	TargetSegment     entity.Segment       `json:"target_segment"`
	ContactFilter     entity.ContactFilter `json:"contact_filter"`
	SelectedGroupIDs  []string             `json:"selected_groups,omitempty"`
	BudgetEUR         *float64             `json:"budget_eur,omitempty"`
	ExpectedReplyRate *float64             `json:"expected_reply_rate,omitempty"`
	SyncReminderDays  int                  `json:"sync_reminder_frequency,omitempty"`
}

type CreateCampaignOutput struct {
	Campaign *entity.Campaign `json:"campaign"`
	// Non-fatal problems the operator must see: leads_count inconsistency,
	// webhook failure. Never silently dropped.
	Warnings []string `json:"warnings,omitempty"`
}

type CampaignRates struct {
	ReplyRate   float64 `json:"reply_rate"`
	FailureRate float64 `json:"failure_rate"`
}

// CampaignService implements eligibility selection and the campaign
// lifecycle. The eligible count is frozen into leads_count at creation time
// (snapshot semantics) and never live-recomputed.
type CampaignService struct {
	Campaigns CampaignRepositoryInterface
	Leads     LeadRepositoryInterface
	Groups    GroupRepositoryInterface
	Webhook   CampaignWebhookInterface // optional
	Now       func() time.Time
}

func NewCampaignService(campaigns CampaignRepositoryInterface, leads LeadRepositoryInterface, groups GroupRepositoryInterface, webhook CampaignWebhookInterface) *CampaignService {
	return &CampaignService{
		Campaigns: campaigns,
		Leads:     leads,
		Groups:    groups,
		Webhook:   webhook,
		Now:       time.Now,
	}
}

// SelectEligibleLeads applies the targeting predicate: segment match, not
// do-not-contact, outside the recency window, and (when groups are selected)
// membership in at least one selected group.
func (s *CampaignService) SelectEligibleLeads(ctx context.Context, userID string, segment entity.Segment, filter entity.ContactFilter, groupIDs []string) ([]*entity.Lead, error) {
	names, err := s.groupNames(ctx, groupIDs)
	if err != nil {
		return nil, err
	}
	return s.Leads.SelectEligible(ctx, EligibilityQuery{
		UserID:     userID,
		Segment:    segment,
		Filter:     filter,
		GroupNames: names,
		Now:        s.Now(),
	})
}

func (s *CampaignService) CreateCampaign(ctx context.Context, userID string, input CreateCampaignInput) (*CreateCampaignOutput, error) {
	if errs := validateCampaignInput(input); len(errs) > 0 {
		return nil, errs
	}

	campaign := entity.NewCampaign(userID, strings.TrimSpace(input.Name), input.TargetSegment, input.ContactFilter)
	campaign.BudgetEUR = input.BudgetEUR
	campaign.ExpectedReplyRate = input.ExpectedReplyRate
	campaign.SyncReminderFrequency = input.SyncReminderDays

	if err := s.Campaigns.Create(ctx, campaign); err != nil {
		return nil, err
	}
	middleware.RecordCampaignCreated()

	out := &CreateCampaignOutput{Campaign: campaign}

	if len(input.SelectedGroupIDs) > 0 {
		if err := s.Campaigns.AttachGroups(ctx, campaign.ID, input.SelectedGroupIDs); err != nil {
			s.reportInconsistency(out, "attach_groups", err)
		} else {
			campaign.SelectedGroups = input.SelectedGroupIDs
		}
	}

	// Count-then-update runs after the insert. A failure here leaves the
	// campaign with leads_count=0, which is recoverable, not a rollback.
	names, err := s.groupNames(ctx, input.SelectedGroupIDs)
	if err == nil {
		var count int
		count, err = s.Leads.CountEligible(ctx, EligibilityQuery{
			UserID:     userID,
			Segment:    input.TargetSegment,
			Filter:     input.ContactFilter,
			GroupNames: names,
			Now:        s.Now(),
		})
		if err == nil {
			if err = s.Campaigns.UpdateLeadsCount(ctx, campaign.ID, count); err == nil {
				campaign.LeadsCount = count
			}
		}
	}
	if err != nil {
		s.reportInconsistency(out, "leads_count", err)
	}

	s.notifyWebhook(ctx, campaign, out)

	return out, nil
}

func (s *CampaignService) notifyWebhook(ctx context.Context, campaign *entity.Campaign, out *CreateCampaignOutput) {
	if s.Webhook == nil {
		return
	}

	payload := n8n.CampaignPayload{
		CampaignName:  campaign.CampaignName,
		TargetSegment: string(campaign.TargetSegment),
		ContactFilter: n8n.ContactFilter{
			Type: string(campaign.ContactFilter.Type),
			Days: campaign.ContactFilter.Days,
		},
		UserID:    campaign.UserID,
		Timestamp: s.Now().Format(time.RFC3339),
		StartDate: s.Now().Format("2006-01-02"),
	}
	if campaign.BudgetEUR != nil {
		payload.BudgetEUR = *campaign.BudgetEUR
	}
	if campaign.ExpectedReplyRate != nil {
		payload.ExpectedReplyRate = *campaign.ExpectedReplyRate
	}

	status := entity.WebhookSuccess
	if _, err := s.Webhook.NotifyCampaignCreated(ctx, payload); err != nil {
		status = entity.WebhookFailed
		middleware.RecordWebhookFailure("campaign")
		out.Warnings = append(out.Warnings, "campaign webhook failed: "+err.Error())
		log.Printf("campaign webhook failed for %s: %v", campaign.ID, err)
	}
	if err := s.Campaigns.UpdateWebhookStatus(ctx, campaign.ID, status); err != nil {
		s.reportInconsistency(out, "webhook_status", err)
	} else {
		out.Campaign.WebhookStatus = status
	}
}

func (s *CampaignService) reportInconsistency(out *CreateCampaignOutput, op string, cause error) {
	inc := &InconsistencyError{Op: op, Message: cause.Error()}
	middleware.RecordInconsistency(op)
	log.Printf("⚠️ %v", inc)
	out.Warnings = append(out.Warnings, inc.Error())
}

func (s *CampaignService) List(ctx context.Context, userID string, limit int) ([]*entity.Campaign, error) {
	return s.Campaigns.List(ctx, userID, limit)
}

func (s *CampaignService) Get(ctx context.Context, id string) (*entity.Campaign, error) {
	return s.Campaigns.FindByID(ctx, id)
}

// Delete is irreversible and does not cascade to leads.
func (s *CampaignService) Delete(ctx context.Context, id string) error {
	return s.Campaigns.Delete(ctx, id)
}

func (s *CampaignService) GroupsForCampaign(ctx context.Context, campaignID string) ([]*entity.WhatsAppGroup, error) {
	return s.Campaigns.GroupsForCampaign(ctx, campaignID)
}

func (s *CampaignService) Averages(ctx context.Context, userID, excludeCampaignID string) (*UserAverages, error) {
	return s.Campaigns.Averages(ctx, userID, excludeCampaignID)
}

// Rates returns display-rounded derived metrics; storage keeps counts only.
func (s *CampaignService) Rates(c *entity.Campaign) CampaignRates {
	return CampaignRates{
		ReplyRate:   entity.RoundRate(c.Metrics.ReplyRate()),
		FailureRate: entity.RoundRate(c.Metrics.FailureRate()),
	}
}

func (s *CampaignService) groupNames(ctx context.Context, groupIDs []string) ([]string, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(groupIDs))
	for _, id := range groupIDs {
		group, err := s.Groups.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		names = append(names, group.GroupName)
	}
	return names, nil
}

func validateCampaignInput(input CreateCampaignInput) ValidationErrors {
	var errs ValidationErrors
	if strings.TrimSpace(input.Name) == "" {
		errs = append(errs, ValidationError{"name", "is required"})
	}
	if !input.TargetSegment.Valid() {
		errs = append(errs, ValidationError{"target_segment", "must be HOT, WARM, COLD or DEAD"})
	}
	if input.ContactFilter.Type == entity.FilterSkipDays && input.ContactFilter.Days < 0 {
		errs = append(errs, ValidationError{"contact_filter.days", "must not be negative"})
	}
	if input.BudgetEUR != nil && *input.BudgetEUR < 0 {
		errs = append(errs, ValidationError{"budget_eur", "must not be negative"})
	}
	return errs
}
