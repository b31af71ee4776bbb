package entity

import (
	"time"

	"github.com/google/uuid"
)

// LabelMapping translates a raw WhatsApp label string into the CRM triple
// (segment, status, engagement level). Matching at ingestion time is exact
// and case-sensitive. Archived mappings keep their row and the values already
// written to leads but stop matching future uploads.
type LabelMapping struct {
	ID                string           `json:"id"`
	UserID            string           `json:"user_id"`
	WhatsAppLabelName string           `json:"whatsapp_label_name"`
	Segment           *Segment         `json:"crm_segment,omitempty"`
	Status            *LeadStatus      `json:"crm_status,omitempty"`
	EngagementLevel   *EngagementLevel `json:"engagement_level,omitempty"`
	IsActive          bool             `json:"is_active"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`

	// Approximated by counting leads that carry the exact triple.
	LeadCount int `json:"lead_count,omitempty"`
}

func NewLabelMapping(userID, label string, segment *Segment, status *LeadStatus, engagement *EngagementLevel) *LabelMapping {
	now := time.Now()
	return &LabelMapping{
		ID:                uuid.New().String(),
		UserID:            userID,
		WhatsAppLabelName: label,
		Segment:           segment,
		Status:            status,
		EngagementLevel:   engagement,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}
