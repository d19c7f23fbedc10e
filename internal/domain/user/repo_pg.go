package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
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

const userCols = `id, sub, first_name, last_name, middle_name, iin, date_of_birth,
	client_roles, enabled, specializations, served_areas, served_clinics, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var roles, specializations, areas, clinics []byte
	err := row.Scan(&u.ID, &u.Sub, &u.FirstName, &u.LastName, &u.MiddleName, &u.IIN, &u.DateOfBirth,
		&roles, &u.Enabled, &specializations, &areas, &clinics, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	for _, pair := range []struct {
		raw []byte
		dst *[]string
	}{
		{roles, &u.ClientRoles},
		{specializations, &u.Specializations},
		{areas, &u.ServedAreas},
		{clinics, &u.ServedClinics},
	} {
		if len(pair.raw) > 0 {
			if err := json.Unmarshal(pair.raw, pair.dst); err != nil {
				return nil, fmt.Errorf("decode user list field: %w", err)
			}
		}
	}
	return &u, nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("user %s not found", id)
	}
	return u, err
}

func (r *repoPG) GetBySub(ctx context.Context, sub string) (*User, error) {
	u, err := scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE sub = $1`, sub))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("user with sub %s not found", sub)
	}
	return u, err
}

func (r *repoPG) List(ctx context.Context, params map[string]string, limit, offset int) ([]*User, int, error) {
	where := `WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if v := params["enabled"]; v != "" {
		where += fmt.Sprintf(" AND enabled = $%d", idx)
		args = append(args, v == "true")
		idx++
	}
	if v := params["role"]; v != "" {
		where += fmt.Sprintf(" AND client_roles @> $%d", idx)
		role, _ := json.Marshal([]string{v})
		args = append(args, role)
		idx++
	}
	if v := params["iin"]; v != "" {
		where += fmt.Sprintf(" AND iin = $%d", idx)
		args = append(args, v)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM users `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + userCols + ` FROM users ` + where +
		fmt.Sprintf(` ORDER BY last_name NULLS LAST, first_name LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, u)
	}
	return items, total, rows.Err()
}

func (r *repoPG) Upsert(ctx context.Context, u *User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	encode := func(v []string) ([]byte, error) {
		if v == nil {
			v = []string{}
		}
		return json.Marshal(v)
	}
	roles, err := encode(u.ClientRoles)
	if err != nil {
		return err
	}
	specializations, err := encode(u.Specializations)
	if err != nil {
		return err
	}
	areas, err := encode(u.ServedAreas)
	if err != nil {
		return err
	}
	clinics, err := encode(u.ServedClinics)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO users (id, sub, first_name, last_name, middle_name, iin, date_of_birth,
			client_roles, enabled, specializations, served_areas, served_clinics)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (sub) DO UPDATE SET
			first_name=EXCLUDED.first_name, last_name=EXCLUDED.last_name,
			middle_name=EXCLUDED.middle_name, iin=EXCLUDED.iin,
			date_of_birth=EXCLUDED.date_of_birth, client_roles=EXCLUDED.client_roles,
			enabled=EXCLUDED.enabled, specializations=EXCLUDED.specializations,
			served_areas=EXCLUDED.served_areas, served_clinics=EXCLUDED.served_clinics,
			updated_at=NOW()`,
		u.ID, u.Sub, u.FirstName, u.LastName, u.MiddleName, u.IIN, u.DateOfBirth,
		roles, u.Enabled, specializations, areas, clinics)
	return err
}

func (r *repoPG) DeleteBySub(ctx context.Context, sub string) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM users WHERE sub = $1`, sub)
	return err
}
