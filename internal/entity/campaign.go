package entity

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type CampaignStatus string

const (
	CampaignCreated   CampaignStatus = "CREATED"
	CampaignActive    CampaignStatus = "ACTIVE"
	CampaignCompleted CampaignStatus = "COMPLETED"
)

type WebhookStatus string

const (
	WebhookPendingSync WebhookStatus = "PENDING_SHEETS_SYNC"
	WebhookSuccess     WebhookStatus = "SUCCESS"
	WebhookFailed      WebhookStatus = "FAILED"
)

type FilterType string

const (
	FilterSkipDays FilterType = "skip_days"
	FilterNone     FilterType = "none"
)

// ContactFilter excludes leads contacted within the last Days days.
// Days == 0 means no recency restriction.
type ContactFilter struct {
	Type FilterType `json:"type"`
	Days int        `json:"days"`
}

// Cutoff returns the exclusive upper bound for LastContactedDate and whether
// the filter restricts anything at all.
func (f ContactFilter) Cutoff(now time.Time) (time.Time, bool) {
	if f.Type != FilterSkipDays || f.Days <= 0 {
		return time.Time{}, false
	}
	return now.AddDate(0, 0, -f.Days), true
}

// CampaignMetrics is populated asynchronously by result uploads.
type CampaignMetrics struct {
	SentCount     int `json:"sent_count"`
	FailedCount   int `json:"failed_count"`
	RepliedCount  int `json:"replied_count"`
	BookingsCount int `json:"bookings_count"`
}

// ReplyRate is replied/sent as a percentage, 0 when nothing was sent.
func (m CampaignMetrics) ReplyRate() float64 {
	if m.SentCount == 0 {
		return 0
	}
	return float64(m.RepliedCount) / float64(m.SentCount) * 100
}

// FailureRate is failed/(sent+failed) as a percentage, 0 with no attempts.
func (m CampaignMetrics) FailureRate() float64 {
	attempts := m.SentCount + m.FailedCount
	if attempts == 0 {
		return 0
	}
	return float64(m.FailedCount) / float64(attempts) * 100
}

// RoundRate rounds for display; storage keeps full precision.
func RoundRate(rate float64) float64 {
	return math.Round(rate*10) / 10
}

// Campaign is a named outreach batch. LeadsCount is a snapshot of the
// eligible set at creation time and is never live-recomputed.
type Campaign struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	CampaignName  string          `json:"campaign_name"`
	Description   string          `json:"description,omitempty"`
	TargetSegment Segment         `json:"target_segment"`
	ContactFilter ContactFilter   `json:"contact_filter"`
	SelectedGroups []string       `json:"selected_groups,omitempty"`
	LeadsCount    int             `json:"leads_count"`
	BudgetEUR     *float64        `json:"budget_eur,omitempty"`
	ExpectedReplyRate *float64    `json:"expected_reply_rate,omitempty"`
	Metrics       CampaignMetrics `json:"metrics"`
	Status        CampaignStatus  `json:"status"`
	WebhookStatus WebhookStatus   `json:"webhook_status"`

	StartDate              *time.Time `json:"start_date,omitempty"`
	LastSyncedDate         *time.Time `json:"last_synced_date,omitempty"`
	SyncReminderFrequency  int        `json:"sync_reminder_frequency,omitempty"` // days
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

func NewCampaign(userID, name string, segment Segment, filter ContactFilter) *Campaign {
	now := time.Now()
	start := now
	return &Campaign{
		ID:            uuid.New().String(),
		UserID:        userID,
		CampaignName:  name,
		TargetSegment: segment,
		ContactFilter: filter,
		Status:        CampaignCreated,
		WebhookStatus: WebhookPendingSync,
		StartDate:     &start,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
