package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/wavelead/crm-engine/internal/entity"
	"github.com/wavelead/crm-engine/internal/usecase"
)

type CampaignRepository struct {
	DB *sql.DB
}

func NewCampaignRepository(db *sql.DB) *CampaignRepository {
	return &CampaignRepository{DB: db}
}

const campaignColumns = `
	id, user_id, campaign_name, description, target_segment, contact_filter,
	leads_count, budget_eur, expected_reply_rate, metrics, status, webhook_status,
	start_date, last_synced_date, sync_reminder_frequency, created_at, updated_at`

func (r *CampaignRepository) List(ctx context.Context, userID string, limit int) ([]*entity.Campaign, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []*entity.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

func (r *CampaignRepository) FindByID(ctx context.Context, id string) (*entity.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`

	c, err := scanCampaign(r.DB.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, entity.ErrCampaignNotFound
	}
	return c, err
}

func (r *CampaignRepository) Create(ctx context.Context, c *entity.Campaign) error {
	filter, err := json.Marshal(c.ContactFilter)
	if err != nil {
		return err
	}
	metrics, err := json.Marshal(c.Metrics)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO campaigns
			(id, user_id, campaign_name, description, target_segment, contact_filter,
			 leads_count, budget_eur, expected_reply_rate, metrics, status, webhook_status,
			 start_date, last_synced_date, sync_reminder_frequency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err = r.DB.ExecContext(ctx, query,
		c.ID, c.UserID, c.CampaignName, c.Description, c.TargetSegment, filter,
		c.LeadsCount, c.BudgetEUR, c.ExpectedReplyRate, metrics, c.Status, c.WebhookStatus,
		c.StartDate, c.LastSyncedDate, c.SyncReminderFrequency, c.CreatedAt, c.UpdatedAt,
	)
	return err
}

func (r *CampaignRepository) UpdateLeadsCount(ctx context.Context, id string, count int) error {
	return r.exec(ctx, `UPDATE campaigns SET leads_count = $2, updated_at = NOW() WHERE id = $1`, id, count)
}

func (r *CampaignRepository) UpdateWebhookStatus(ctx context.Context, id string, status entity.WebhookStatus) error {
	return r.exec(ctx, `UPDATE campaigns SET webhook_status = $2, updated_at = NOW() WHERE id = $1`, id, status)
}

// UpdateMetrics overwrites the whole metrics document. Result ingestion
// recomputes counts from the uploaded file, so the write is idempotent.
func (r *CampaignRepository) UpdateMetrics(ctx context.Context, id string, m entity.CampaignMetrics, syncedAt time.Time) error {
	metrics, err := json.Marshal(m)
	if err != nil {
		return err
	}
	query := `
		UPDATE campaigns
		SET metrics = $2, last_synced_date = $3, status = 'ACTIVE', updated_at = NOW()
		WHERE id = $1 AND status <> 'COMPLETED'
	`
	res, err := r.DB.ExecContext(ctx, query, id, metrics, syncedAt)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Completed campaigns still accept metric syncs, just not a status change.
		return r.exec(ctx,
			`UPDATE campaigns SET metrics = $2, last_synced_date = $3, updated_at = NOW() WHERE id = $1`,
			id, metrics, syncedAt)
	}
	return nil
}

func (r *CampaignRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM campaign_groups WHERE campaign_id = $1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrCampaignNotFound
	}
	return tx.Commit()
}

func (r *CampaignRepository) AttachGroups(ctx context.Context, campaignID string, groupIDs []string) error {
	if len(groupIDs) == 0 {
		return nil
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insert := `INSERT INTO campaign_groups (campaign_id, group_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	for _, groupID := range groupIDs {
		if _, err := tx.ExecContext(ctx, insert, campaignID, groupID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *CampaignRepository) GroupsForCampaign(ctx context.Context, campaignID string) ([]*entity.WhatsAppGroup, error) {
	query := `
		SELECT g.id, g.user_id, g.group_name, g.score_value, g.description, g.created_at, g.updated_at
		FROM user_whatsapp_groups g
		JOIN campaign_groups cg ON cg.group_id = g.id
		WHERE cg.campaign_id = $1
		ORDER BY g.group_name ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []*entity.WhatsAppGroup
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// Averages aggregates historical reply and conversion rates across the user's
// campaigns, optionally excluding one (the campaign being displayed).
func (r *CampaignRepository) Averages(ctx context.Context, userID, excludeCampaignID string) (*usecase.UserAverages, error) {
	query := `
		SELECT metrics FROM campaigns
		WHERE user_id = $1 AND ($2 = '' OR id::text <> $2)
	`
	rows, err := r.DB.QueryContext(ctx, query, userID, excludeCampaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	avg := &usecase.UserAverages{}
	var replySum, convSum float64
	var counted int
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var m entity.CampaignMetrics
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &m)
		}
		if m.SentCount == 0 {
			continue
		}
		replySum += m.ReplyRate()
		convSum += float64(m.BookingsCount) / float64(m.SentCount) * 100
		counted++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	avg.CampaignCount = counted
	if counted > 0 {
		avg.AvgReplyRate = entity.RoundRate(replySum / float64(counted))
		avg.AvgConversionRate = entity.RoundRate(convSum / float64(counted))
	}
	return avg, nil
}

// CountActive counts campaigns still in flight: created but not yet synced,
// or actively collecting results.
func (r *CampaignRepository) CountActive(ctx context.Context, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM campaigns WHERE user_id = $1 AND status IN ('CREATED', 'ACTIVE')`
	var count int
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(&count)
	return count, err
}

// ListStale finds campaigns overdue for a results sync as of the given
// instant, per their own reminder frequency.
func (r *CampaignRepository) ListStale(ctx context.Context, olderThan time.Time) ([]*entity.Campaign, error) {
	query := `
		SELECT ` + campaignColumns + ` FROM campaigns
		WHERE sync_reminder_frequency > 0
		  AND status IN ('CREATED', 'ACTIVE')
		  AND COALESCE(last_synced_date, start_date, created_at)
		      < $1::timestamptz - make_interval(days => sync_reminder_frequency)
	`
	rows, err := r.DB.QueryContext(ctx, query, olderThan)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []*entity.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

func (r *CampaignRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrCampaignNotFound
	}
	return nil
}

func scanCampaign(row rowScanner) (*entity.Campaign, error) {
	var c entity.Campaign
	var description sql.NullString
	var filter, metrics []byte
	var budget, expectedReply sql.NullFloat64
	var startDate, lastSynced sql.NullTime
	var reminderFreq sql.NullInt64

	err := row.Scan(
		&c.ID, &c.UserID, &c.CampaignName, &description, &c.TargetSegment, &filter,
		&c.LeadsCount, &budget, &expectedReply, &metrics, &c.Status, &c.WebhookStatus,
		&startDate, &lastSynced, &reminderFreq, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Description = description.String
	if len(filter) > 0 {
		_ = json.Unmarshal(filter, &c.ContactFilter)
	}
	if len(metrics) > 0 {
		_ = json.Unmarshal(metrics, &c.Metrics)
	}
	if budget.Valid {
		c.BudgetEUR = &budget.Float64
	}
	if expectedReply.Valid {
		c.ExpectedReplyRate = &expectedReply.Float64
	}
	if startDate.Valid {
		c.StartDate = &startDate.Time
	}
	if lastSynced.Valid {
		c.LastSyncedDate = &lastSynced.Time
	}
	c.SyncReminderFrequency = int(reminderFreq.Int64)
	return &c, nil
}
