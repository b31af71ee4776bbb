package worker

import (
	"context"
	"log"
	"time"

	"github.com/wavelead/crm-engine/internal/entity"
	"github.com/wavelead/crm-engine/internal/usecase"
)

// SyncReminderWorker periodically looks for active campaigns whose results
// have not been uploaded within their reminder window and nudges the
// operator by email.
type SyncReminderWorker struct {
	campaigns    usecase.CampaignRepositoryInterface
	notifier     usecase.OperatorNotifier
	tickInterval time.Duration
}

func NewSyncReminderWorker(campaigns usecase.CampaignRepositoryInterface, notifier usecase.OperatorNotifier) *SyncReminderWorker {
	return &SyncReminderWorker{
		campaigns:    campaigns,
		notifier:     notifier,
		tickInterval: 6 * time.Hour,
	}
}

func (w *SyncReminderWorker) Start(ctx context.Context) {
	log.Println("🕒 Sync reminder worker started")

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.remind(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("⚠️ Sync reminder worker stopped")
			return
		case <-ticker.C:
			w.remind(ctx)
		}
	}
}

func (w *SyncReminderWorker) remind(ctx context.Context) {
	stale, err := w.campaigns.ListStale(ctx, time.Now())
	if err != nil {
		log.Printf("❌ sync reminders: query failed: %v", err)
		return
	}

	for _, c := range stale {
		if c.Status != entity.CampaignActive && c.Status != entity.CampaignCreated {
			continue
		}
		if err := w.notifier.NotifySyncReminder(c); err != nil {
			log.Printf("⚠️ sync reminder for campaign %s failed: %v", c.ID, err)
			continue
		}
		log.Printf("📧 sync reminder sent for campaign '%s'", c.CampaignName)
	}
}
