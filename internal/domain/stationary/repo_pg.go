package stationary

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

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

const assetCols = `id, bg_asset_id, card_number, patient_id, receive_date, receive_time,
	actual_datetime, received_from, is_repeat, stay_period_start, stay_period_end, stay_outcome,
	diagnosis, area, specialization, specialist, note, status, delivery_status,
	has_confirm, has_files, has_refusal, created_at, updated_at`

func scanAsset(row pgx.Row) (*Asset, error) {
	var a Asset
	err := row.Scan(&a.ID, &a.BGAssetID, &a.CardNumber, &a.PatientID, &a.ReceiveDate, &a.ReceiveTime,
		&a.ActualDatetime, &a.ReceivedFrom, &a.IsRepeat, &a.StayPeriodStart, &a.StayPeriodEnd, &a.StayOutcome,
		&a.Diagnosis, &a.Area, &a.Specialization, &a.Specialist, &a.Note, &a.Status, &a.DeliveryStatus,
		&a.HasConfirm, &a.HasFiles, &a.HasRefusal, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repoPG) Create(ctx context.Context, a *Asset) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO stationary_assets (id, bg_asset_id, card_number, patient_id, receive_date,
			receive_time, actual_datetime, received_from, is_repeat, stay_period_start,
			stay_period_end, stay_outcome, diagnosis, area, specialization, specialist,
			note, status, delivery_status, has_confirm, has_files, has_refusal)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)`,
		a.ID, a.BGAssetID, a.CardNumber, a.PatientID, a.ReceiveDate,
		a.ReceiveTime, a.ActualDatetime, a.ReceivedFrom, a.IsRepeat, a.StayPeriodStart,
		a.StayPeriodEnd, a.StayOutcome, a.Diagnosis, a.Area, a.Specialization, a.Specialist,
		a.Note, a.Status, a.DeliveryStatus, a.HasConfirm, a.HasFiles, a.HasRefusal)
	if isUniqueViolation(err) {
		return apperr.Conflict("stationary asset with bg id %s already exists", deref(a.BGAssetID))
	}
	return err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Asset, error) {
	a, err := scanAsset(r.conn(ctx).QueryRow(ctx, `SELECT `+assetCols+` FROM stationary_assets WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("stationary asset %s not found", id)
	}
	return a, err
}

func (r *repoPG) GetByBGAssetID(ctx context.Context, bgAssetID string) (*Asset, error) {
	a, err := scanAsset(r.conn(ctx).QueryRow(ctx,
		`SELECT `+assetCols+` FROM stationary_assets WHERE bg_asset_id = $1`, bgAssetID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("stationary asset with bg id %s not found", bgAssetID)
	}
	return a, err
}

func (r *repoPG) Update(ctx context.Context, a *Asset) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE stationary_assets SET card_number=$2, receive_date=$3, receive_time=$4,
			actual_datetime=$5, received_from=$6, is_repeat=$7, stay_period_start=$8,
			stay_period_end=$9, stay_outcome=$10, diagnosis=$11, area=$12, specialization=$13,
			specialist=$14, note=$15, status=$16, delivery_status=$17, has_confirm=$18,
			has_files=$19, has_refusal=$20, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.CardNumber, a.ReceiveDate, a.ReceiveTime,
		a.ActualDatetime, a.ReceivedFrom, a.IsRepeat, a.StayPeriodStart,
		a.StayPeriodEnd, a.StayOutcome, a.Diagnosis, a.Area, a.Specialization,
		a.Specialist, a.Note, a.Status, a.DeliveryStatus, a.HasConfirm,
		a.HasFiles, a.HasRefusal)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM stationary_assets WHERE id = $1`, id)
	return err
}

func (r *repoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Asset, int, error) {
	where := `WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if v := params["status"]; v != "" {
		where += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, v)
		idx++
	}
	if v := params["delivery_status"]; v != "" {
		where += fmt.Sprintf(" AND delivery_status = $%d", idx)
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
	if v := params["open_stay"]; v == "true" {
		where += " AND stay_period_end IS NULL"
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
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM stationary_assets `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + assetCols + ` FROM stationary_assets ` + where +
		fmt.Sprintf(` ORDER BY receive_date DESC, created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectAssets(rows, total)
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Asset, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM stationary_assets WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+assetCols+` FROM stationary_assets WHERE patient_id = $1 ORDER BY receive_date DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectAssets(rows, total)
}

func (r *repoPG) CountByStatus(ctx context.Context) (*Stats, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT status, COUNT(*) FROM stationary_assets GROUP BY status`)
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
		case StatusRegistered:
			stats.Registered = count
		case StatusConfirmed:
			stats.Confirmed = count
		case StatusRefused:
			stats.Refused = count
		case StatusCancelled:
			stats.Cancelled = count
		}
	}
	return &stats, rows.Err()
}

func collectAssets(rows pgx.Rows, total int) ([]*Asset, int, error) {
	var items []*Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}
