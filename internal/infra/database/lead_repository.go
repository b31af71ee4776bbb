package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/wavelead/crm-engine/internal/entity"
	"github.com/wavelead/crm-engine/internal/usecase"
)

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

const leadColumns = `
	id, user_id, phone_number, first_name, last_name,
	segment, lead_score, status, engagement_level,
	reply_received, contact_count, first_contacted_date, last_contacted_date, last_reply_date,
	do_not_contact, do_not_contact_reason,
	whatsapp_groups_raw, positive_signal_groups, negative_signal_groups, neutral_signal_groups,
	intent_groups, custom_groups, group_net_score, total_groups_count,
	scrape_source, notes, created_at, updated_at`

// activeLeadPredicate mirrors entity.Lead.IsActive in SQL.
const activeLeadPredicate = `(status IS DISTINCT FROM 'NOT_INTERESTED' AND do_not_contact = false)`

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`

	lead, err := scanLead(r.DB.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, entity.ErrLeadNotFound
	}
	return lead, err
}

func (r *LeadRepository) FindByPhone(ctx context.Context, userID, phoneDigits string) (*entity.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE user_id = $1 AND phone_number = $2`

	lead, err := scanLead(r.DB.QueryRowContext(ctx, query, userID, phoneDigits))
	if err == sql.ErrNoRows {
		return nil, entity.ErrLeadNotFound
	}
	return lead, err
}

// List serves the dashboard table: filters, search, hottest leads first.
func (r *LeadRepository) List(ctx context.Context, q usecase.LeadQuery) ([]*entity.Lead, int, error) {
	where := []string{"user_id = $1"}
	args := []any{q.UserID}

	if q.SearchTerm != "" {
		args = append(args, "%"+q.SearchTerm+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(first_name ILIKE $%d OR last_name ILIKE $%d OR phone_number ILIKE $%d)", n, n, n))
	}
	if q.SegmentFilter != "" {
		args = append(args, q.SegmentFilter)
		where = append(where, fmt.Sprintf("segment = $%d", len(args)))
	}
	if q.StatusFilter != "" {
		args = append(args, q.StatusFilter)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	switch q.ActivityFilter {
	case "never_contacted":
		where = append(where, "contact_count = 0")
	case "contacted":
		where = append(where, "contact_count > 0")
	case "replied":
		where = append(where, "reply_received = true")
	}

	cond := strings.Join(where, " AND ")

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	pageSize := q.PageSize
	if pageSize < 1 {
		pageSize = 50
	}
	args = append(args, pageSize, (page-1)*pageSize)
	query := fmt.Sprintf(
		`SELECT %s FROM leads WHERE %s ORDER BY lead_score DESC, created_at DESC LIMIT $%d OFFSET $%d`,
		leadColumns, cond, len(args)-1, len(args),
	)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	leads, err := collectLeads(rows)
	return leads, total, err
}

// ListChunk pages through the full lead set in a stable order for rescoring.
func (r *LeadRepository) ListChunk(ctx context.Context, userID string, offset, limit int) ([]*entity.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE user_id = $1 ORDER BY id ASC LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectLeads(rows)
}

func (r *LeadRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads WHERE user_id = $1`, userID).Scan(&count)
	return count, err
}

// Upsert keys on (user_id, phone_number). A re-scrape refreshes names, group
// membership and source but never touches contact history or scores.
func (r *LeadRepository) Upsert(ctx context.Context, lead *entity.Lead) error {
	query := `
		INSERT INTO leads (` + strings.TrimSpace(leadColumns) + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28)
		ON CONFLICT (user_id, phone_number) DO UPDATE SET
			first_name             = CASE WHEN EXCLUDED.first_name <> '' THEN EXCLUDED.first_name ELSE leads.first_name END,
			last_name              = CASE WHEN EXCLUDED.last_name <> '' THEN EXCLUDED.last_name ELSE leads.last_name END,
			whatsapp_groups_raw    = EXCLUDED.whatsapp_groups_raw,
			positive_signal_groups = EXCLUDED.positive_signal_groups,
			negative_signal_groups = EXCLUDED.negative_signal_groups,
			neutral_signal_groups  = EXCLUDED.neutral_signal_groups,
			intent_groups          = EXCLUDED.intent_groups,
			custom_groups          = EXCLUDED.custom_groups,
			group_net_score        = EXCLUDED.group_net_score,
			total_groups_count     = EXCLUDED.total_groups_count,
			scrape_source          = EXCLUDED.scrape_source,
			updated_at             = NOW()
	`
	_, err := r.DB.ExecContext(ctx, query,
		lead.ID, lead.UserID, lead.PhoneNumber, lead.FirstName, lead.LastName,
		lead.Segment, lead.LeadScore, nullString(string(lead.Status)), nullString(string(lead.EngagementLevel)),
		lead.ReplyReceived, lead.ContactCount, lead.FirstContactedDate, lead.LastContactedDate, lead.LastReplyDate,
		lead.DoNotContact, lead.DoNotContactReason,
		pq.Array(lead.WhatsAppGroupsRaw), pq.Array(lead.PositiveSignalGroups),
		pq.Array(lead.NegativeSignalGroups), pq.Array(lead.NeutralSignalGroups),
		pq.Array(lead.IntentGroups), pq.Array(lead.CustomGroups),
		lead.GroupNetScore, lead.TotalGroupsCount,
		lead.Source, lead.Notes, lead.CreatedAt, lead.UpdatedAt,
	)
	return err
}

func (r *LeadRepository) UpdateScore(ctx context.Context, id string, score int, segment entity.Segment) error {
	query := `UPDATE leads SET lead_score = $2, segment = $3, updated_at = NOW() WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, id, score, segment)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrLeadNotFound
	}
	return nil
}

// ApplyLabelTriple writes only the dimensions the mapping defines; nil fields
// leave the lead's current value alone.
func (r *LeadRepository) ApplyLabelTriple(ctx context.Context, id string, segment *entity.Segment, status *entity.LeadStatus, engagement *entity.EngagementLevel) error {
	query := `
		UPDATE leads SET
			segment          = COALESCE($2, segment),
			status           = COALESCE($3, status),
			engagement_level = COALESCE($4, engagement_level),
			updated_at       = NOW()
		WHERE id = $1
	`
	res, err := r.DB.ExecContext(ctx, query, id, nullSegment(segment), nullStatus(status), nullEngagement(engagement))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrLeadNotFound
	}
	return nil
}

// MarkContacted is idempotent per timestamp: re-uploading the same results
// file does not inflate contact_count.
func (r *LeadRepository) MarkContacted(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE leads SET
			contact_count = contact_count + CASE WHEN last_contacted_date IS DISTINCT FROM $2 THEN 1 ELSE 0 END,
			first_contacted_date = COALESCE(first_contacted_date, $2),
			last_contacted_date  = GREATEST(COALESCE(last_contacted_date, $2), $2),
			updated_at = NOW()
		WHERE id = $1
	`
	res, err := r.DB.ExecContext(ctx, query, id, at)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrLeadNotFound
	}
	return nil
}

func (r *LeadRepository) MarkReplied(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE leads SET
			reply_received   = true,
			last_reply_date  = GREATEST(COALESCE(last_reply_date, $2), $2),
			engagement_level = 'ENGAGED',
			updated_at = NOW()
		WHERE id = $1
	`
	res, err := r.DB.ExecContext(ctx, query, id, at)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrLeadNotFound
	}
	return nil
}

func (r *LeadRepository) SelectEligible(ctx context.Context, q usecase.EligibilityQuery) ([]*entity.Lead, error) {
	cond, args := eligibilityWhere(q)
	query := fmt.Sprintf(`SELECT %s FROM leads WHERE %s ORDER BY lead_score DESC`, leadColumns, cond)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectLeads(rows)
}

func (r *LeadRepository) CountEligible(ctx context.Context, q usecase.EligibilityQuery) (int, error) {
	cond, args := eligibilityWhere(q)
	var count int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads WHERE `+cond, args...).Scan(&count)
	return count, err
}

// eligibilityWhere builds the campaign targeting predicate: segment match,
// never do-not-contact, optionally outside the recency window, optionally a
// member of at least one selected group.
func eligibilityWhere(q usecase.EligibilityQuery) (string, []any) {
	where := []string{"user_id = $1", "segment = $2", "do_not_contact = false"}
	args := []any{q.UserID, q.Segment}

	if cutoff, ok := q.Filter.Cutoff(q.Now); ok {
		args = append(args, cutoff)
		where = append(where, fmt.Sprintf("(last_contacted_date IS NULL OR last_contacted_date < $%d)", len(args)))
	}
	if len(q.GroupNames) > 0 {
		args = append(args, pq.Array(q.GroupNames))
		n := len(args)
		where = append(where, fmt.Sprintf("(whatsapp_groups_raw && $%d OR positive_signal_groups && $%d)", n, n))
	}
	return strings.Join(where, " AND "), args
}

func (r *LeadRepository) CountMatchingTriple(ctx context.Context, userID string, segment *entity.Segment, status *entity.LeadStatus, engagement *entity.EngagementLevel) (int, error) {
	query := `
		SELECT COUNT(*) FROM leads
		WHERE user_id = $1
		  AND ($2::text IS NULL OR segment = $2)
		  AND ($3::text IS NULL OR status = $3)
		  AND ($4::text IS NULL OR engagement_level = $4)
	`
	var count int
	err := r.DB.QueryRowContext(ctx, query, userID, nullSegment(segment), nullStatus(status), nullEngagement(engagement)).Scan(&count)
	return count, err
}

func (r *LeadRepository) CountByGroupName(ctx context.Context, userID, groupName string) (int, error) {
	query := `
		SELECT COUNT(*) FROM leads
		WHERE user_id = $1
		  AND ($2 = ANY(whatsapp_groups_raw) OR $2 = ANY(positive_signal_groups))
	`
	var count int
	err := r.DB.QueryRowContext(ctx, query, userID, groupName).Scan(&count)
	return count, err
}

// PipelineMetrics computes the dashboard headline numbers in one pass.
// Rates and averages are over active leads only.
// ActionableCounts counts the contactable pool and its repliers in one pass.
// Contactable deliberately ignores segment and status; only the do-not-contact
// flag removes a lead from the pool.
func (r *LeadRepository) ActionableCounts(ctx context.Context, userID string) (usecase.ActionableCounts, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE do_not_contact = false),
			COUNT(*) FILTER (WHERE do_not_contact = false AND reply_received = true)
		FROM leads
		WHERE user_id = $1
	`
	var counts usecase.ActionableCounts
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(&counts.Contactable, &counts.Replied)
	return counts, err
}

func (r *LeadRepository) PipelineMetrics(ctx context.Context, userID string) (*usecase.PipelineMetrics, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE ` + activeLeadPredicate + `),
			COUNT(*) FILTER (WHERE ` + activeLeadPredicate + ` AND segment = 'HOT'),
			COUNT(*) FILTER (WHERE ` + activeLeadPredicate + ` AND reply_received = true),
			COALESCE(SUM(lead_score) FILTER (WHERE ` + activeLeadPredicate + `), 0)
		FROM leads
		WHERE user_id = $1
	`
	var m usecase.PipelineMetrics
	var replied, scoreSum int
	if err := r.DB.QueryRowContext(ctx, query, userID).Scan(
		&m.TotalLeads, &m.TotalActiveLeads, &m.HotLeads, &replied, &scoreSum,
	); err != nil {
		return nil, err
	}

	if m.TotalActiveLeads > 0 {
		m.ReplyRate = entity.RoundRate(float64(replied) / float64(m.TotalActiveLeads) * 100)
		m.AverageScore = entity.RoundRate(float64(scoreSum) / float64(m.TotalActiveLeads))
	}
	return &m, nil
}

// SegmentDistribution returns active-lead counts per segment in HOT, WARM,
// COLD, DEAD order, with percentage shares.
func (r *LeadRepository) SegmentDistribution(ctx context.Context, userID string) ([]usecase.SegmentShare, error) {
	query := `
		SELECT segment, COUNT(*) FROM leads
		WHERE user_id = $1 AND ` + activeLeadPredicate + `
		GROUP BY segment
	`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[entity.Segment]int{}
	total := 0
	for rows.Next() {
		var segment entity.Segment
		var count int
		if err := rows.Scan(&segment, &count); err != nil {
			return nil, err
		}
		counts[segment] = count
		total += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	order := []entity.Segment{entity.SegmentHot, entity.SegmentWarm, entity.SegmentCold, entity.SegmentDead}
	shares := make([]usecase.SegmentShare, 0, len(order))
	for _, segment := range order {
		share := usecase.SegmentShare{Segment: segment, Count: counts[segment]}
		if total > 0 {
			share.Percentage = entity.RoundRate(float64(share.Count) / float64(total) * 100)
		}
		shares = append(shares, share)
	}
	return shares, nil
}

func collectLeads(rows *sql.Rows) ([]*entity.Lead, error) {
	var leads []*entity.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

func scanLead(row rowScanner) (*entity.Lead, error) {
	var l entity.Lead
	var firstName, lastName, status, engagement, dncReason, source, notes sql.NullString
	var firstContacted, lastContacted, lastReply sql.NullTime

	err := row.Scan(
		&l.ID, &l.UserID, &l.PhoneNumber, &firstName, &lastName,
		&l.Segment, &l.LeadScore, &status, &engagement,
		&l.ReplyReceived, &l.ContactCount, &firstContacted, &lastContacted, &lastReply,
		&l.DoNotContact, &dncReason,
		pq.Array(&l.WhatsAppGroupsRaw), pq.Array(&l.PositiveSignalGroups),
		pq.Array(&l.NegativeSignalGroups), pq.Array(&l.NeutralSignalGroups),
		pq.Array(&l.IntentGroups), pq.Array(&l.CustomGroups),
		&l.GroupNetScore, &l.TotalGroupsCount,
		&source, &notes, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	l.FirstName = firstName.String
	l.LastName = lastName.String
	l.Status = entity.LeadStatus(status.String)
	l.EngagementLevel = entity.EngagementLevel(engagement.String)
	l.DoNotContactReason = dncReason.String
	l.Source = source.String
	l.Notes = notes.String
	if firstContacted.Valid {
		l.FirstContactedDate = &firstContacted.Time
	}
	if lastContacted.Valid {
		l.LastContactedDate = &lastContacted.Time
	}
	if lastReply.Valid {
		l.LastReplyDate = &lastReply.Time
	}
	return &l, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
