package platformrule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medrec/registry/internal/platform/apperr"
	"github.com/medrec/registry/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

const ruleCols = `id, key, rule_data, description, created_at, updated_at`

func scanRule(row pgx.Row) (*Rule, error) {
	var rule Rule
	var data []byte
	err := row.Scan(&rule.ID, &rule.Key, &data, &rule.Description, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &rule.RuleData); err != nil {
			return nil, fmt.Errorf("decode rule_data: %w", err)
		}
	}
	return &rule, nil
}

func (r *repoPG) Create(ctx context.Context, rule *Rule) error {
	data, err := json.Marshal(rule.RuleData)
	if err != nil {
		return fmt.Errorf("encode rule_data: %w", err)
	}
	err = r.conn(ctx).QueryRow(ctx, `
		INSERT INTO platform_rules (key, rule_data, description)
		VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`,
		rule.Key, data, rule.Description).Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)
	if isUniqueViolation(err) {
		return apperr.Conflict("platform rule with key %s already exists", rule.Key)
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id int) (*Rule, error) {
	rule, err := scanRule(r.conn(ctx).QueryRow(ctx,
		`SELECT `+ruleCols+` FROM platform_rules WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("platform rule %d not found", id)
	}
	return rule, err
}

func (r *repoPG) GetByKey(ctx context.Context, key string) (*Rule, error) {
	rule, err := scanRule(r.conn(ctx).QueryRow(ctx,
		`SELECT `+ruleCols+` FROM platform_rules WHERE key = $1`, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("platform rule %s not found", key)
	}
	return rule, err
}

func (r *repoPG) Update(ctx context.Context, rule *Rule) error {
	data, err := json.Marshal(rule.RuleData)
	if err != nil {
		return fmt.Errorf("encode rule_data: %w", err)
	}
	_, err = r.conn(ctx).Exec(ctx, `
		UPDATE platform_rules SET key=$2, rule_data=$3, description=$4, updated_at=NOW()
		WHERE id = $1`, rule.ID, rule.Key, data, rule.Description)
	if isUniqueViolation(err) {
		return apperr.Conflict("platform rule with key %s already exists", rule.Key)
	}
	return err
}

func (r *repoPG) Delete(ctx context.Context, id int) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM platform_rules WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Rule, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM platform_rules`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+ruleCols+` FROM platform_rules ORDER BY key LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rule)
	}
	return items, total, rows.Err()
}
