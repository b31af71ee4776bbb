package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/wavelead/crm-engine/internal/entity"
)

type GroupRepository struct {
	DB *sql.DB
}

func NewGroupRepository(db *sql.DB) *GroupRepository {
	return &GroupRepository{DB: db}
}

const groupColumns = `id, user_id, group_name, score_value, description, created_at, updated_at`

func (r *GroupRepository) ListByUser(ctx context.Context, userID string) ([]*entity.WhatsAppGroup, error) {
	query := `SELECT ` + groupColumns + ` FROM user_whatsapp_groups WHERE user_id = $1 ORDER BY created_at ASC`

	rows, err := r.DB.QueryContext(ctx, query, userID)
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

// ListWithLeadCounts attaches the number of leads that mention each group in
// any of their membership lists.
func (r *GroupRepository) ListWithLeadCounts(ctx context.Context, userID string) ([]*entity.WhatsAppGroup, error) {
	groups, err := r.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	countQuery := `
		SELECT COUNT(*) FROM leads
		WHERE user_id = $1
		  AND ($2 = ANY(whatsapp_groups_raw)
		    OR $2 = ANY(positive_signal_groups)
		    OR $2 = ANY(negative_signal_groups)
		    OR $2 = ANY(neutral_signal_groups))
	`
	for _, g := range groups {
		if err := r.DB.QueryRowContext(ctx, countQuery, userID, g.GroupName).Scan(&g.LeadCount); err != nil {
			g.LeadCount = 0
		}
	}
	return groups, nil
}

func (r *GroupRepository) FindByID(ctx context.Context, id string) (*entity.WhatsAppGroup, error) {
	query := `SELECT ` + groupColumns + ` FROM user_whatsapp_groups WHERE id = $1`

	g, err := scanGroup(r.DB.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, entity.ErrGroupNotFound
	}
	return g, err
}

func (r *GroupRepository) SumPositiveScores(ctx context.Context, userID, excludeID string) (int, error) {
	query := `
		SELECT COALESCE(SUM(score_value), 0) FROM user_whatsapp_groups
		WHERE user_id = $1 AND score_value > 0 AND ($2 = '' OR id::text <> $2)
	`
	var total int
	err := r.DB.QueryRowContext(ctx, query, userID, excludeID).Scan(&total)
	return total, err
}

// Create inserts inside a transaction that re-checks the budget under an
// advisory lock, so concurrent creates cannot race past the 50-point cap.
func (r *GroupRepository) Create(ctx context.Context, g *entity.WhatsAppGroup) error {
	return r.withBudgetLock(ctx, g.UserID, "", g.ScoreValue, func(tx *sql.Tx) error {
		query := `
			INSERT INTO user_whatsapp_groups (id, user_id, group_name, score_value, description, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		_, err := tx.ExecContext(ctx, query, g.ID, g.UserID, g.GroupName, g.ScoreValue, g.Description, g.CreatedAt, g.UpdatedAt)
		return err
	})
}

func (r *GroupRepository) Update(ctx context.Context, g *entity.WhatsAppGroup) error {
	return r.withBudgetLock(ctx, g.UserID, g.ID, g.ScoreValue, func(tx *sql.Tx) error {
		query := `
			UPDATE user_whatsapp_groups
			SET group_name = $2, score_value = $3, description = $4, updated_at = NOW()
			WHERE id = $1
		`
		res, err := tx.ExecContext(ctx, query, g.ID, g.GroupName, g.ScoreValue, g.Description)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return entity.ErrGroupNotFound
		}
		return nil
	})
}

func (r *GroupRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM user_whatsapp_groups WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrGroupNotFound
	}
	return nil
}

// ReplaceAll implements Reset to Default: delete everything, insert the
// canonical set, one transaction. Either the old registry or the new one,
// never a mix.
func (r *GroupRepository) ReplaceAll(ctx context.Context, userID string, groups []*entity.WhatsAppGroup) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_whatsapp_groups WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("reset: delete failed: %w", err)
	}

	insert := `
		INSERT INTO user_whatsapp_groups (id, user_id, group_name, score_value, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, g := range groups {
		if _, err := tx.ExecContext(ctx, insert, g.ID, g.UserID, g.GroupName, g.ScoreValue, g.Description, g.CreatedAt, g.UpdatedAt); err != nil {
			return fmt.Errorf("reset: insert failed: %w", err)
		}
	}

	return tx.Commit()
}

func (r *GroupRepository) withBudgetLock(ctx context.Context, userID, excludeID string, newScore int, write func(tx *sql.Tx) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, userID); err != nil {
		return err
	}

	if newScore > 0 {
		var total int
		query := `
			SELECT COALESCE(SUM(score_value), 0) FROM user_whatsapp_groups
			WHERE user_id = $1 AND score_value > 0 AND ($2 = '' OR id::text <> $2)
		`
		if err := tx.QueryRowContext(ctx, query, userID, excludeID).Scan(&total); err != nil {
			return err
		}
		if total+newScore > entity.GroupBudgetMax {
			return entity.ErrGroupBudgetExceeded
		}
	}

	if err := write(tx); err != nil {
		return err
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGroup(row rowScanner) (*entity.WhatsAppGroup, error) {
	var g entity.WhatsAppGroup
	var description sql.NullString
	err := row.Scan(&g.ID, &g.UserID, &g.GroupName, &g.ScoreValue, &description, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	g.Description = description.String
	return &g, nil
}
