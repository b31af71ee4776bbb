package usecase

import (
	"context"
	"strings"

	"github.com/wavelead/crm-engine/internal/entity"
)

type CreateLabelInput struct {
	WhatsAppLabelName string                  `json:"whatsapp_label_name"`
	Segment           *entity.Segment         `json:"crm_segment,omitempty"`
	Status            *entity.LeadStatus      `json:"crm_status,omitempty"`
	EngagementLevel   *entity.EngagementLevel `json:"engagement_level,omitempty"`
}

type UpdateLabelInput struct {
	WhatsAppLabelName *string                 `json:"whatsapp_label_name,omitempty"`
	Segment           *entity.Segment         `json:"crm_segment,omitempty"`
	Status            *entity.LeadStatus      `json:"crm_status,omitempty"`
	EngagementLevel   *entity.EngagementLevel `json:"engagement_level,omitempty"`
}

type UpdateLabelOutput struct {
	Mapping *entity.LabelMapping `json:"mapping"`
	// Set when the label name changed: future uploads keyed on the old name
	// silently stop matching. The operator decides, we only warn.
	RenameWarning string `json:"rename_warning,omitempty"`
}

type LabelRegistry struct {
	Repo  LabelRepositoryInterface
	Leads LeadRepositoryInterface
}

func NewLabelRegistry(repo LabelRepositoryInterface, leads LeadRepositoryInterface) *LabelRegistry {
	return &LabelRegistry{Repo: repo, Leads: leads}
}

func (l *LabelRegistry) List(ctx context.Context, userID string) ([]*entity.LabelMapping, error) {
	return l.Repo.ListByUser(ctx, userID)
}

// ListWithLeadCounts approximates per-label usage by counting leads that
// carry the mapping's exact (segment, status, engagement) triple.
func (l *LabelRegistry) ListWithLeadCounts(ctx context.Context, userID string) ([]*entity.LabelMapping, error) {
	mappings, err := l.Repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, m := range mappings {
		count, err := l.Leads.CountMatchingTriple(ctx, userID, m.Segment, m.Status, m.EngagementLevel)
		if err != nil {
			m.LeadCount = 0
			continue
		}
		m.LeadCount = count
	}
	return mappings, nil
}

func (l *LabelRegistry) Create(ctx context.Context, userID string, input CreateLabelInput) (*entity.LabelMapping, error) {
	name := strings.TrimSpace(input.WhatsAppLabelName)
	if name == "" {
		return nil, ValidationErrors{{Field: "whatsapp_label_name", Message: "is required"}}
	}
	if errs := validateTriple(input.Segment, input.Status, input.EngagementLevel); len(errs) > 0 {
		return nil, errs
	}

	// Label names are case-sensitive and must match exactly, so uniqueness is
	// checked without folding.
	if existing, err := l.Repo.FindActiveByLabel(ctx, userID, name); err == nil && existing != nil {
		return nil, &ConflictError{Code: "DUPLICATE_LABEL", Message: entity.ErrDuplicateLabel.Error()}
	}

	mapping := entity.NewLabelMapping(userID, name, input.Segment, input.Status, input.EngagementLevel)
	if err := l.Repo.Create(ctx, mapping); err != nil {
		return nil, err
	}
	return mapping, nil
}

func (l *LabelRegistry) Update(ctx context.Context, id string, input UpdateLabelInput) (*UpdateLabelOutput, error) {
	mapping, err := l.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	out := &UpdateLabelOutput{}
	if input.WhatsAppLabelName != nil {
		name := strings.TrimSpace(*input.WhatsAppLabelName)
		if name == "" {
			return nil, ValidationErrors{{Field: "whatsapp_label_name", Message: "is required"}}
		}
		if name != mapping.WhatsAppLabelName {
			out.RenameWarning = "uploads keyed on '" + mapping.WhatsAppLabelName + "' will no longer match; already-classified leads keep their values"
		}
		mapping.WhatsAppLabelName = name
	}
	if input.Segment != nil {
		mapping.Segment = input.Segment
	}
	if input.Status != nil {
		mapping.Status = input.Status
	}
	if input.EngagementLevel != nil {
		mapping.EngagementLevel = input.EngagementLevel
	}
	if errs := validateTriple(mapping.Segment, mapping.Status, mapping.EngagementLevel); len(errs) > 0 {
		return nil, errs
	}

	if err := l.Repo.Update(ctx, mapping); err != nil {
		return nil, err
	}
	out.Mapping = mapping
	return out, nil
}

// Delete refuses to remove a mapping that still has matching leads; the
// caller archives instead.
func (l *LabelRegistry) Delete(ctx context.Context, id string) error {
	mapping, err := l.Repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	count, err := l.Leads.CountMatchingTriple(ctx, mapping.UserID, mapping.Segment, mapping.Status, mapping.EngagementLevel)
	if err != nil {
		return err
	}
	if count > 0 {
		return &ConflictError{Code: "LABEL_IN_USE", Message: entity.ErrLabelInUse.Error()}
	}

	return l.Repo.Delete(ctx, id)
}

func (l *LabelRegistry) Archive(ctx context.Context, id string) error {
	return l.Repo.SetActive(ctx, id, false)
}

func (l *LabelRegistry) Reactivate(ctx context.Context, id string) error {
	return l.Repo.SetActive(ctx, id, true)
}

func validateTriple(segment *entity.Segment, status *entity.LeadStatus, engagement *entity.EngagementLevel) ValidationErrors {
	var errs ValidationErrors
	if segment != nil && !segment.Valid() {
		errs = append(errs, ValidationError{"crm_segment", "must be HOT, WARM, COLD or DEAD"})
	}
	if status != nil {
		switch *status {
		case entity.StatusNew, entity.StatusActive, entity.StatusInactive, entity.StatusNotInterested:
		default:
			errs = append(errs, ValidationError{"crm_status", "must be NEW, ACTIVE, INACTIVE or NOT_INTERESTED"})
		}
	}
	if engagement != nil {
		switch *engagement {
		case entity.EngagementNone, entity.EngagementEngaged, entity.EngagementDisengaged:
		default:
			errs = append(errs, ValidationError{"engagement_level", "must be NONE, ENGAGED or DISENGAGED"})
		}
	}
	return errs
}
