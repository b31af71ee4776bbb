package database

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/wavelead/crm-engine/internal/entity"
)

type SyncEventRepository struct {
	DB *sql.DB
}

func NewSyncEventRepository(db *sql.DB) *SyncEventRepository {
	return &SyncEventRepository{DB: db}
}

func (r *SyncEventRepository) Append(ctx context.Context, ev *entity.SyncEvent) error {
	breakdown, err := json.Marshal(ev.SegmentBreakdown)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO sync_events (id, user_id, status, upload_type, total_leads, segment_breakdown, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.DB.ExecContext(ctx, query,
		ev.ID, ev.UserID, ev.Status, ev.UploadType, ev.TotalLeads, breakdown, ev.Timestamp,
	)
	return err
}

// Latest returns the most recent event, or nil when nothing was ever synced.
func (r *SyncEventRepository) Latest(ctx context.Context, userID string) (*entity.SyncEvent, error) {
	query := `
		SELECT id, user_id, status, upload_type, total_leads, segment_breakdown, timestamp
		FROM sync_events
		WHERE user_id = $1
		ORDER BY timestamp DESC
		LIMIT 1
	`
	var ev entity.SyncEvent
	var breakdown []byte
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(
		&ev.ID, &ev.UserID, &ev.Status, &ev.UploadType, &ev.TotalLeads, &breakdown, &ev.Timestamp,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(breakdown) > 0 {
		_ = json.Unmarshal(breakdown, &ev.SegmentBreakdown)
	}
	return &ev, nil
}
