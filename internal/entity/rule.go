package entity

import (
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"
)

type RuleType string

const (
	RuleBonus   RuleType = "bonus"
	RulePenalty RuleType = "penalty"
)

// Advisory budget for the engagement component, mirroring the group budget.
// Deviations warn, never block.
const (
	BonusBudgetMax   = 50
	PenaltyBudgetMin = -25
)

// TriggerKind is the closed set of conditions the scoring engine can
// evaluate. The original system stored free-text SQL fragments evaluated by
// an external workflow; here they are typed so evaluation stays safe and
// testable. Anything we cannot parse becomes KindNever and scores zero.
type TriggerKind string

const (
	KindReplied                 TriggerKind = "replied"
	KindRecentReply             TriggerKind = "recent_reply"
	KindProfileComplete         TriggerKind = "profile_complete"
	KindNoResponseAfterContacts TriggerKind = "no_response_after_contacts"
	KindNever                   TriggerKind = "never"
)

type TriggerCondition struct {
	Kind TriggerKind `json:"kind"`
	Days int         `json:"days,omitempty"`  // recent_reply window
	Min  int         `json:"min,omitempty"`   // no_response_after_contacts threshold
}

// Evaluate reports whether the condition holds for the lead at the given
// instant. The clock is injected so recency windows are testable.
func (c TriggerCondition) Evaluate(lead *Lead, now time.Time) bool {
	switch c.Kind {
	case KindReplied:
		return lead.ReplyReceived
	case KindRecentReply:
		if lead.LastReplyDate == nil {
			return false
		}
		return now.Sub(*lead.LastReplyDate) <= time.Duration(c.Days)*24*time.Hour
	case KindProfileComplete:
		return lead.HasFullName()
	case KindNoResponseAfterContacts:
		return lead.ContactCount >= c.Min && !lead.ReplyReceived
	default:
		return false
	}
}

var (
	recentReplyRe  = regexp.MustCompile(`last_reply_date\s*>\s*NOW\(\)\s*-\s*INTERVAL\s*'(\d+) days?'`)
	contactCountRe = regexp.MustCompile(`contact_count\s*>=\s*(\d+)\s*AND\s*reply_received\s*=\s*false`)
	repliedRe      = regexp.MustCompile(`^\s*reply_received\s*=\s*true\s*$`)
	profileRe      = regexp.MustCompile(`first_name\s+IS\s+NOT\s+NULL\s+AND\s+last_name\s+IS\s+NOT\s+NULL`)
)

// ParseTriggerCondition recognises the condition strings carried over from
// the legacy seed data. Unknown expressions are deliberately mapped to
// KindNever instead of being interpreted.
func ParseTriggerCondition(expr string) TriggerCondition {
	if repliedRe.MatchString(expr) {
		return TriggerCondition{Kind: KindReplied}
	}
	if m := recentReplyRe.FindStringSubmatch(expr); m != nil {
		days, _ := strconv.Atoi(m[1])
		return TriggerCondition{Kind: KindRecentReply, Days: days}
	}
	if profileRe.MatchString(expr) {
		return TriggerCondition{Kind: KindProfileComplete}
	}
	if m := contactCountRe.FindStringSubmatch(expr); m != nil {
		min, _ := strconv.Atoi(m[1])
		return TriggerCondition{Kind: KindNoResponseAfterContacts, Min: min}
	}
	return TriggerCondition{Kind: KindNever}
}

// EngagementRule adds or subtracts points from the engagement component of a
// lead score when its condition holds.
type EngagementRule struct {
	ID          string           `json:"id"`
	UserID      string           `json:"user_id"`
	RuleName    string           `json:"rule_name"`
	RuleType    RuleType         `json:"rule_type"`
	Points      int              `json:"points"`
	Condition   TriggerCondition `json:"trigger_condition"`
	Description string           `json:"description,omitempty"`
	Active      bool             `json:"active"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func NewEngagementRule(userID, name string, ruleType RuleType, points int, cond TriggerCondition, description string) *EngagementRule {
	now := time.Now()
	return &EngagementRule{
		ID:          uuid.New().String(),
		UserID:      userID,
		RuleName:    name,
		RuleType:    ruleType,
		Points:      points,
		Condition:   cond,
		Description: description,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// DefaultRules is the canonical rule set restored by Reset to Default:
// +50 total bonus, -15 penalty.
func DefaultRules(userID string) []*EngagementRule {
	return []*EngagementRule{
		NewEngagementRule(userID, "Replied to Message", RuleBonus, 25,
			TriggerCondition{Kind: KindReplied}, "Lead replied to our message"),
		NewEngagementRule(userID, "Recent Reply", RuleBonus, 15,
			TriggerCondition{Kind: KindRecentReply, Days: 7}, "Lead replied within the last 7 days"),
		NewEngagementRule(userID, "Profile Complete", RuleBonus, 10,
			TriggerCondition{Kind: KindProfileComplete}, "Lead has complete profile information"),
		NewEngagementRule(userID, "No Response After 3 Contacts", RulePenalty, -15,
			TriggerCondition{Kind: KindNoResponseAfterContacts, Min: 3}, "Lead has been contacted 3+ times without response"),
	}
}
