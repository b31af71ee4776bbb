package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Segment string

const (
	SegmentHot  Segment = "HOT"
	SegmentWarm Segment = "WARM"
	SegmentCold Segment = "COLD"
	SegmentDead Segment = "DEAD"
)

func (s Segment) Valid() bool {
	switch s {
	case SegmentHot, SegmentWarm, SegmentCold, SegmentDead:
		return true
	}
	return false
}

type LeadStatus string

const (
	StatusNew           LeadStatus = "NEW"
	StatusActive        LeadStatus = "ACTIVE"
	StatusInactive      LeadStatus = "INACTIVE"
	StatusNotInterested LeadStatus = "NOT_INTERESTED"
)

type EngagementLevel string

const (
	EngagementNone       EngagementLevel = "NONE"
	EngagementEngaged    EngagementLevel = "ENGAGED"
	EngagementDisengaged EngagementLevel = "DISENGAGED"
)

// Lead is the contact record. Leads are never hard-deleted by the
// application; DoNotContact flags them out of every campaign instead.
type Lead struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	PhoneNumber string `json:"phone_number"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`

	Segment         Segment         `json:"segment"`
	LeadScore       int             `json:"lead_score"`
	Status          LeadStatus      `json:"status,omitempty"`
	EngagementLevel EngagementLevel `json:"engagement_level,omitempty"`

	ReplyReceived      bool       `json:"reply_received"`
	ContactCount       int        `json:"contact_count"`
	FirstContactedDate *time.Time `json:"first_contacted_date,omitempty"`
	LastContactedDate  *time.Time `json:"last_contacted_date,omitempty"`
	LastReplyDate      *time.Time `json:"last_reply_date,omitempty"`

	DoNotContact       bool   `json:"do_not_contact"`
	DoNotContactReason string `json:"do_not_contact_reason,omitempty"`

	// Group membership as delivered by the scraper. PositiveSignalGroups is
	// the only list that feeds the group score component.
	WhatsAppGroupsRaw    []string `json:"whatsapp_groups_raw,omitempty"`
	PositiveSignalGroups []string `json:"positive_signal_groups,omitempty"`
	NegativeSignalGroups []string `json:"negative_signal_groups,omitempty"`
	NeutralSignalGroups  []string `json:"neutral_signal_groups,omitempty"`
	IntentGroups         []string `json:"intent_groups,omitempty"`
	CustomGroups         []string `json:"custom_groups,omitempty"`
	GroupNetScore        int      `json:"group_net_score"`
	TotalGroupsCount     int      `json:"total_groups_count"`

	Source    string    `json:"scrape_source,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewLead builds a fresh contact record. Scraped leads always enter the
// pipeline as COLD/NEW; scoring promotes them later.
func NewLead(userID, phoneNumber string) *Lead {
	now := time.Now()
	return &Lead{
		ID:              uuid.New().String(),
		UserID:          userID,
		PhoneNumber:     phoneNumber,
		Segment:         SegmentCold,
		Status:          StatusNew,
		EngagementLevel: EngagementNone,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// ScoreResult is the outcome of scoring one lead.
type ScoreResult struct {
	Score               int     `json:"score"`
	Segment             Segment `json:"segment"`
	GroupComponent      int     `json:"group_component"`
	EngagementComponent int     `json:"engagement_component"`
}

// IsActive is the "active lead" predicate used by every dashboard count.
func (l *Lead) IsActive() bool {
	return l.Status != StatusNotInterested && !l.DoNotContact
}

func (l *Lead) HasFullName() bool {
	return strings.TrimSpace(l.FirstName) != "" && strings.TrimSpace(l.LastName) != ""
}

// trunkCountryCode is folded out of international numbers so that
// "+353 85..." and "085..." key the same lead.
const trunkCountryCode = "353"

// NormalizePhone reduces any formatting of a number to canonical subscriber
// digits: non-digits dropped, the "00"/"+" international prefix and the
// country code folded away, the trunk zero stripped. The result is the
// upsert and result-matching key.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	if strings.HasPrefix(digits, "00") {
		digits = digits[2:]
	}
	if strings.HasPrefix(digits, trunkCountryCode) && len(digits) > len(trunkCountryCode)+5 {
		digits = digits[len(trunkCountryCode):]
	}
	return strings.TrimPrefix(digits, "0")
}
