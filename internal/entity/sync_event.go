package entity

import (
	"time"

	"github.com/google/uuid"
)

type SyncStatus string

const (
	SyncSuccess SyncStatus = "success"
	SyncPartial SyncStatus = "partial"
	SyncFailed  SyncStatus = "failed"
)

// SyncEvent is the append-only record of one bulk-ingestion run.
type SyncEvent struct {
	ID               string         `json:"id"`
	UserID           string         `json:"user_id"`
	Status           SyncStatus     `json:"status"`
	UploadType       string         `json:"upload_type"`
	TotalLeads       int            `json:"total_leads"`
	SegmentBreakdown map[string]int `json:"segment_breakdown,omitempty"`
	Timestamp        time.Time      `json:"timestamp"`
}

func NewSyncEvent(userID, uploadType string, status SyncStatus, totalLeads int, breakdown map[string]int) *SyncEvent {
	return &SyncEvent{
		ID:               uuid.New().String(),
		UserID:           userID,
		Status:           status,
		UploadType:       uploadType,
		TotalLeads:       totalLeads,
		SegmentBreakdown: breakdown,
		Timestamp:        time.Now(),
	}
}
