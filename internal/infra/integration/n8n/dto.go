package n8n

type ContactFilter struct {
	Type string `json:"type"`
	Days int    `json:"days"`
}

// CampaignPayload mirrors the body the automation workflow expects when a
// campaign is created.
type CampaignPayload struct {
	CampaignName      string        `json:"campaign_name"`
	TargetSegment     string        `json:"target_segment"`
	BudgetEUR         float64       `json:"budget_eur"`
	ExpectedReplyRate float64       `json:"expected_reply_rate"`
	ContactFilter     ContactFilter `json:"contact_filter"`
	UserID            string        `json:"user_id"`
	Timestamp         string        `json:"timestamp"`
	StartDate         string        `json:"start_date"`
}

type CampaignResponse struct {
	Success       bool   `json:"success"`
	CampaignID    string `json:"campaign_id,omitempty"`
	EligibleLeads int    `json:"eligible_leads,omitempty"`
	Message       string `json:"message,omitempty"`
	Error         string `json:"error,omitempty"`
}
