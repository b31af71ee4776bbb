package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/wavelead/crm-engine/internal/entity"
)

type RuleRepository struct {
	DB *sql.DB
}

func NewRuleRepository(db *sql.DB) *RuleRepository {
	return &RuleRepository{DB: db}
}

const ruleColumns = `id, user_id, rule_name, rule_type, points, trigger_condition, description, active, created_at, updated_at`

func (r *RuleRepository) ListByUser(ctx context.Context, userID string) ([]*entity.EngagementRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM engagement_rules WHERE user_id = $1 ORDER BY created_at ASC`

	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*entity.EngagementRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func (r *RuleRepository) FindByID(ctx context.Context, id string) (*entity.EngagementRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM engagement_rules WHERE id = $1`

	rule, err := scanRule(r.DB.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, entity.ErrRuleNotFound
	}
	return rule, err
}

func (r *RuleRepository) Create(ctx context.Context, rule *entity.EngagementRule) error {
	cond, err := json.Marshal(rule.Condition)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO engagement_rules
			(id, user_id, rule_name, rule_type, points, trigger_condition, description, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = r.DB.ExecContext(ctx, query,
		rule.ID, rule.UserID, rule.RuleName, rule.RuleType, rule.Points,
		cond, rule.Description, rule.Active, rule.CreatedAt, rule.UpdatedAt,
	)
	return err
}

func (r *RuleRepository) Update(ctx context.Context, rule *entity.EngagementRule) error {
	cond, err := json.Marshal(rule.Condition)
	if err != nil {
		return err
	}
	query := `
		UPDATE engagement_rules
		SET rule_name = $2, rule_type = $3, points = $4, trigger_condition = $5, description = $6, active = $7, updated_at = NOW()
		WHERE id = $1
	`
	res, err := r.DB.ExecContext(ctx, query,
		rule.ID, rule.RuleName, rule.RuleType, rule.Points, cond, rule.Description, rule.Active,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrRuleNotFound
	}
	return nil
}

func (r *RuleRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM engagement_rules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrRuleNotFound
	}
	return nil
}

func (r *RuleRepository) ReplaceAll(ctx context.Context, userID string, rules []*entity.EngagementRule) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM engagement_rules WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("reset: delete failed: %w", err)
	}

	insert := `
		INSERT INTO engagement_rules
			(id, user_id, rule_name, rule_type, points, trigger_condition, description, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	for _, rule := range rules {
		cond, err := json.Marshal(rule.Condition)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, insert,
			rule.ID, rule.UserID, rule.RuleName, rule.RuleType, rule.Points,
			cond, rule.Description, rule.Active, rule.CreatedAt, rule.UpdatedAt,
		); err != nil {
			return fmt.Errorf("reset: insert failed: %w", err)
		}
	}

	return tx.Commit()
}

func scanRule(row rowScanner) (*entity.EngagementRule, error) {
	var rule entity.EngagementRule
	var cond []byte
	var description sql.NullString
	err := row.Scan(
		&rule.ID, &rule.UserID, &rule.RuleName, &rule.RuleType, &rule.Points,
		&cond, &description, &rule.Active, &rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rule.Description = description.String

	// Legacy rows carry raw SQL fragments instead of a JSON condition.
	if err := json.Unmarshal(cond, &rule.Condition); err != nil {
		rule.Condition = entity.ParseTriggerCondition(string(cond))
	}
	return &rule, nil
}
