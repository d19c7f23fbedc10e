package patient

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

const patientCols = `id, iin, last_name, first_name, middle_name, date_of_birth,
	attachment_data, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var attachment []byte
	err := row.Scan(&p.ID, &p.IIN, &p.LastName, &p.FirstName, &p.MiddleName, &p.DateOfBirth,
		&attachment, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(attachment) > 0 {
		if err := json.Unmarshal(attachment, &p.AttachmentData); err != nil {
			return nil, fmt.Errorf("decode attachment_data: %w", err)
		}
	}
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	attachment, err := json.Marshal(p.AttachmentData)
	if err != nil {
		return fmt.Errorf("encode attachment_data: %w", err)
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO patients (id, iin, last_name, first_name, middle_name, date_of_birth, attachment_data)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		p.ID, p.IIN, p.LastName, p.FirstName, p.MiddleName, p.DateOfBirth, attachment)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("patient %s not found", id)
	}
	return p, err
}

func (r *repoPG) GetByIIN(ctx context.Context, iin string) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE iin = $1`, iin))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("patient with iin %s not found", iin)
	}
	return p, err
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients SET iin=$2, last_name=$3, first_name=$4, middle_name=$5,
			date_of_birth=$6, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.IIN, p.LastName, p.FirstName, p.MiddleName, p.DateOfBirth)
	return err
}

func (r *repoPG) UpdateAttachmentData(ctx context.Context, id uuid.UUID, data map[string]interface{}) error {
	attachment, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode attachment_data: %w", err)
	}
	_, err = r.conn(ctx).Exec(ctx,
		`UPDATE patients SET attachment_data=$2, updated_at=NOW() WHERE id = $1`, id, attachment)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	return err
}

func (r *repoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Patient, int, error) {
	where := `WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if iin := params["iin"]; iin != "" {
		where += fmt.Sprintf(" AND iin = $%d", idx)
		args = append(args, iin)
		idx++
	}
	if q := params["query"]; q != "" {
		where += fmt.Sprintf(" AND (last_name || ' ' || first_name || ' ' || COALESCE(middle_name, '') || ' ' || iin) ILIKE $%d", idx)
		args = append(args, "%"+q+"%")
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patients `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + patientCols + ` FROM patients ` + where +
		fmt.Sprintf(` ORDER BY last_name, first_name LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}
