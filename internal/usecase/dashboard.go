package usecase

import (
	"context"
	"math"
	"time"
)

// ActionableMetrics backs the dashboard "what to do next" card: how many
// leads can still be messaged, what is currently running, who replied.
type ActionableMetrics struct {
	ContactableLeads  int        `json:"contactable_leads"`
	ActiveCampaigns   int        `json:"active_campaigns"`
	RepliedCount      int        `json:"replied_count"`
	RepliedPercentage int        `json:"replied_percentage"`
	LastSyncTime      *time.Time `json:"last_sync_time"`
}

type Dashboard struct {
	Leads     LeadRepositoryInterface
	Campaigns CampaignRepositoryInterface
	Syncs     SyncEventRepositoryInterface
}

func NewDashboard(leads LeadRepositoryInterface, campaigns CampaignRepositoryInterface, syncs SyncEventRepositoryInterface) *Dashboard {
	return &Dashboard{
		Leads:     leads,
		Campaigns: campaigns,
		Syncs:     syncs,
	}
}

// Actionable aggregates the card. The replied percentage is taken over the
// contactable pool and rounded to a whole number for display.
func (d *Dashboard) Actionable(ctx context.Context, userID string) (*ActionableMetrics, error) {
	counts, err := d.Leads.ActionableCounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	active, err := d.Campaigns.CountActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	latest, err := d.Syncs.Latest(ctx, userID)
	if err != nil {
		return nil, err
	}

	metrics := &ActionableMetrics{
		ContactableLeads: counts.Contactable,
		ActiveCampaigns:  active,
		RepliedCount:     counts.Replied,
	}
	if counts.Contactable > 0 {
		metrics.RepliedPercentage = int(math.Round(float64(counts.Replied) / float64(counts.Contactable) * 100))
	}
	if latest != nil {
		metrics.LastSyncTime = &latest.Timestamp
	}
	return metrics, nil
}
