package sickleave

import (
	"context"
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

const sickLeaveCols = `id, patient_id, patient_address, receive_date, receive_time, actual_datetime,
	received_from, is_repeat, workplace_name, disability_start_date, disability_end_date,
	status, reason, work_capacity, area, specialization, specialist, notes,
	is_primary, parent_id, created_at, updated_at`

func scanSickLeave(row pgx.Row) (*SickLeave, error) {
	var l SickLeave
	err := row.Scan(&l.ID, &l.PatientID, &l.PatientAddress, &l.ReceiveDate, &l.ReceiveTime, &l.ActualDatetime,
		&l.ReceivedFrom, &l.IsRepeat, &l.WorkplaceName, &l.DisabilityStartDate, &l.DisabilityEndDate,
		&l.Status, &l.Reason, &l.WorkCapacity, &l.Area, &l.Specialization, &l.Specialist, &l.Notes,
		&l.IsPrimary, &l.ParentID, &l.CreatedAt, &l.UpdatedAt)
	return &l, err
}

func (r *repoPG) Create(ctx context.Context, l *SickLeave) error {
	l.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO sick_leaves (id, patient_id, patient_address, receive_date, receive_time,
			actual_datetime, received_from, is_repeat, workplace_name, disability_start_date,
			disability_end_date, status, reason, work_capacity, area, specialization,
			specialist, notes, is_primary, parent_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`,
		l.ID, l.PatientID, l.PatientAddress, l.ReceiveDate, l.ReceiveTime,
		l.ActualDatetime, l.ReceivedFrom, l.IsRepeat, l.WorkplaceName, l.DisabilityStartDate,
		l.DisabilityEndDate, l.Status, l.Reason, l.WorkCapacity, l.Area, l.Specialization,
		l.Specialist, l.Notes, l.IsPrimary, l.ParentID)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*SickLeave, error) {
	l, err := scanSickLeave(r.conn(ctx).QueryRow(ctx, `SELECT `+sickLeaveCols+` FROM sick_leaves WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("sick leave %s not found", id)
	}
	return l, err
}

func (r *repoPG) Update(ctx context.Context, l *SickLeave) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE sick_leaves SET patient_address=$2, receive_date=$3, receive_time=$4,
			actual_datetime=$5, received_from=$6, is_repeat=$7, workplace_name=$8,
			disability_start_date=$9, disability_end_date=$10, status=$11, reason=$12,
			work_capacity=$13, area=$14, specialization=$15, specialist=$16, notes=$17,
			is_primary=$18, parent_id=$19, updated_at=NOW()
		WHERE id = $1`,
		l.ID, l.PatientAddress, l.ReceiveDate, l.ReceiveTime,
		l.ActualDatetime, l.ReceivedFrom, l.IsRepeat, l.WorkplaceName,
		l.DisabilityStartDate, l.DisabilityEndDate, l.Status, l.Reason,
		l.WorkCapacity, l.Area, l.Specialization, l.Specialist, l.Notes,
		l.IsPrimary, l.ParentID)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM sick_leaves WHERE id = $1`, id)
	return err
}

func (r *repoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*SickLeave, int, error) {
	where := `WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if v := params["status"]; v != "" {
		where += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, v)
		idx++
	}
	if v := params["area"]; v != "" {
		where += fmt.Sprintf(" AND area = $%d", idx)
		args = append(args, v)
		idx++
	}
	if v := params["specialist"]; v != "" {
		where += fmt.Sprintf(" AND LOWER(specialist) = LOWER($%d)", idx)
		args = append(args, v)
		idx++
	}
	if v := params["date_from"]; v != "" {
		where += fmt.Sprintf(" AND receive_date >= $%d", idx)
		args = append(args, v)
		idx++
	}
	if v := params["date_to"]; v != "" {
		where += fmt.Sprintf(" AND receive_date <= $%d", idx)
		args = append(args, v)
		idx++
	}
	if v := params["organization"]; v != "" {
		where += fmt.Sprintf(" AND patient_id IN (SELECT id FROM patients WHERE attachment_data->>'attached_clinic_id' = $%d)", idx)
		args = append(args, v)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM sick_leaves `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + sickLeaveCols + ` FROM sick_leaves ` + where +
		fmt.Sprintf(` ORDER BY receive_date DESC, created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collect(rows, total)
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*SickLeave, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM sick_leaves WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+sickLeaveCols+` FROM sick_leaves WHERE patient_id = $1 ORDER BY receive_date DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collect(rows, total)
}

func (r *repoPG) ActiveByPatient(ctx context.Context, patientID uuid.UUID) ([]*SickLeave, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+sickLeaveCols+` FROM sick_leaves WHERE patient_id = $1 AND status IN ('open','extension') ORDER BY receive_date DESC`,
		patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items, _, err := collect(rows, 0)
	return items, err
}

func (r *repoPG) ListExtensions(ctx context.Context, parentID uuid.UUID) ([]*SickLeave, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+sickLeaveCols+` FROM sick_leaves WHERE parent_id = $1 ORDER BY created_at`, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items, _, err := collect(rows, 0)
	return items, err
}

func (r *repoPG) CountByStatus(ctx context.Context) (*Stats, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT status, COUNT(*) FROM sick_leaves GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats Stats
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.Total += count
		switch status {
		case StatusOpen:
			stats.Open = count
		case StatusClosed:
			stats.Closed = count
		case StatusCancelled:
			stats.Cancelled = count
		case StatusExtension:
			stats.Extension = count
		}
	}
	return &stats, rows.Err()
}

func collect(rows pgx.Rows, total int) ([]*SickLeave, int, error) {
	var items []*SickLeave
	for rows.Next() {
		l, err := scanSickLeave(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, l)
	}
	return items, total, rows.Err()
}
