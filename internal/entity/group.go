package entity

import (
	"time"

	"github.com/google/uuid"
)

// GroupBudgetMax caps the sum of positive score values per user so the group
// component of a lead score stays inside its 0-50 half of the 0-100 scale.
const GroupBudgetMax = 50

// WhatsAppGroup maps a group name (exact, case-sensitive) to the points a
// lead earns for being a member.
type WhatsAppGroup struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	GroupName   string    `json:"group_name"`
	ScoreValue  int       `json:"score_value"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Filled by the lead-count listing only, never persisted.
	LeadCount int `json:"lead_count,omitempty"`
}

func NewWhatsAppGroup(userID, name string, score int, description string) *WhatsAppGroup {
	now := time.Now()
	return &WhatsAppGroup{
		ID:          uuid.New().String(),
		UserID:      userID,
		GroupName:   name,
		ScoreValue:  score,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// DefaultGroups is the canonical 3-group registry restored by Reset to
// Default. Together they consume the full 50-point budget.
func DefaultGroups(userID string) []*WhatsAppGroup {
	return []*WhatsAppGroup{
		NewWhatsAppGroup(userID, "clients", 25, "Active paying clients - highest priority"),
		NewWhatsAppGroup(userID, "leads", 15, "New potential leads - medium priority"),
		NewWhatsAppGroup(userID, "old clients", 10, "Previous clients to re-engage - lower priority"),
	}
}
