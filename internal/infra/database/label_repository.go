package database

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/wavelead/crm-engine/internal/entity"
)

type LabelRepository struct {
	DB *sql.DB
}

func NewLabelRepository(db *sql.DB) *LabelRepository {
	return &LabelRepository{DB: db}
}

const labelColumns = `id, user_id, whatsapp_label_name, crm_segment, crm_status, engagement_level, is_active, created_at, updated_at`

func (r *LabelRepository) ListByUser(ctx context.Context, userID string) ([]*entity.LabelMapping, error) {
	query := `SELECT ` + labelColumns + ` FROM user_label_mappings WHERE user_id = $1 ORDER BY created_at ASC`

	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mappings []*entity.LabelMapping
	for rows.Next() {
		m, err := scanLabel(rows)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}

func (r *LabelRepository) FindByID(ctx context.Context, id string) (*entity.LabelMapping, error) {
	query := `SELECT ` + labelColumns + ` FROM user_label_mappings WHERE id = $1`

	m, err := scanLabel(r.DB.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, entity.ErrLabelNotFound
	}
	return m, err
}

// FindActiveByLabel matches exactly and case-sensitively; archived mappings
// never match.
func (r *LabelRepository) FindActiveByLabel(ctx context.Context, userID, label string) (*entity.LabelMapping, error) {
	query := `
		SELECT ` + labelColumns + ` FROM user_label_mappings
		WHERE user_id = $1 AND whatsapp_label_name = $2 AND is_active = true
	`

	m, err := scanLabel(r.DB.QueryRowContext(ctx, query, userID, label))
	if err == sql.ErrNoRows {
		return nil, entity.ErrLabelNotFound
	}
	return m, err
}

func (r *LabelRepository) Create(ctx context.Context, m *entity.LabelMapping) error {
	query := `
		INSERT INTO user_label_mappings
			(id, user_id, whatsapp_label_name, crm_segment, crm_status, engagement_level, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.DB.ExecContext(ctx, query,
		m.ID, m.UserID, m.WhatsAppLabelName,
		nullSegment(m.Segment), nullStatus(m.Status), nullEngagement(m.EngagementLevel),
		m.IsActive, m.CreatedAt, m.UpdatedAt,
	)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return entity.ErrDuplicateLabel
	}
	return err
}

func (r *LabelRepository) Update(ctx context.Context, m *entity.LabelMapping) error {
	query := `
		UPDATE user_label_mappings
		SET whatsapp_label_name = $2, crm_segment = $3, crm_status = $4, engagement_level = $5, updated_at = NOW()
		WHERE id = $1
	`
	res, err := r.DB.ExecContext(ctx, query,
		m.ID, m.WhatsAppLabelName,
		nullSegment(m.Segment), nullStatus(m.Status), nullEngagement(m.EngagementLevel),
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return entity.ErrDuplicateLabel
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrLabelNotFound
	}
	return nil
}

func (r *LabelRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM user_label_mappings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrLabelNotFound
	}
	return nil
}

func (r *LabelRepository) SetActive(ctx context.Context, id string, active bool) error {
	query := `UPDATE user_label_mappings SET is_active = $2, updated_at = NOW() WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, id, active)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrLabelNotFound
	}
	return nil
}

func scanLabel(row rowScanner) (*entity.LabelMapping, error) {
	var m entity.LabelMapping
	var segment, status, engagement sql.NullString
	err := row.Scan(
		&m.ID, &m.UserID, &m.WhatsAppLabelName,
		&segment, &status, &engagement,
		&m.IsActive, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if segment.Valid {
		s := entity.Segment(segment.String)
		m.Segment = &s
	}
	if status.Valid {
		s := entity.LeadStatus(status.String)
		m.Status = &s
	}
	if engagement.Valid {
		e := entity.EngagementLevel(engagement.String)
		m.EngagementLevel = &e
	}
	return &m, nil
}

func nullSegment(s *entity.Segment) any {
	if s == nil {
		return nil
	}
	return string(*s)
}

func nullStatus(s *entity.LeadStatus) any {
	if s == nil {
		return nil
	}
	return string(*s)
}

func nullEngagement(e *entity.EngagementLevel) any {
	if e == nil {
		return nil
	}
	return string(*e)
}
