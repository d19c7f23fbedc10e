package emergency

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

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

const assetCols = `id, bg_asset_id, patient_id, patient_address, is_not_attached, receive_date,
	receive_time, actual_datetime, received_from, is_repeat, outcome, diagnoses, diagnosis_note,
	status, delivery_status, has_confirm, has_files, has_refusal, created_at, updated_at`

func scanAsset(row pgx.Row) (*Asset, error) {
	var a Asset
	var diagnoses []byte
	err := row.Scan(&a.ID, &a.BGAssetID, &a.PatientID, &a.PatientAddress, &a.IsNotAttached, &a.ReceiveDate,
		&a.ReceiveTime, &a.ActualDatetime, &a.ReceivedFrom, &a.IsRepeat, &a.Outcome, &diagnoses, &a.DiagnosisNote,
		&a.Status, &a.DeliveryStatus, &a.HasConfirm, &a.HasFiles, &a.HasRefusal, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(diagnoses) > 0 {
		if err := json.Unmarshal(diagnoses, &a.Diagnoses); err != nil {
			return nil, fmt.Errorf("decode diagnoses: %w", err)
		}
	}
	return &a, nil
}

func (r *repoPG) Create(ctx context.Context, a *Asset) error {
	a.ID = uuid.New()
	diagnoses, err := json.Marshal(a.Diagnoses)
	if err != nil {
		return fmt.Errorf("encode diagnoses: %w", err)
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO emergency_assets (id, bg_asset_id, patient_id, patient_address, is_not_attached,
			receive_date, receive_time, actual_datetime, received_from, is_repeat, outcome,
			diagnoses, diagnosis_note, status, delivery_status, has_confirm, has_files, has_refusal)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
		a.ID, a.BGAssetID, a.PatientID, a.PatientAddress, a.IsNotAttached,
		a.ReceiveDate, a.ReceiveTime, a.ActualDatetime, a.ReceivedFrom, a.IsRepeat, a.Outcome,
		diagnoses, a.DiagnosisNote, a.Status, a.DeliveryStatus, a.HasConfirm, a.HasFiles, a.HasRefusal)
	if isUniqueViolation(err) {
		return apperr.Conflict("emergency asset with bg id %s already exists", deref(a.BGAssetID))
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
	a, err := scanAsset(r.conn(ctx).QueryRow(ctx, `SELECT `+assetCols+` FROM emergency_assets WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("emergency asset %s not found", id)
	}
	return a, err
}

func (r *repoPG) GetByBGAssetID(ctx context.Context, bgAssetID string) (*Asset, error) {
	a, err := scanAsset(r.conn(ctx).QueryRow(ctx,
		`SELECT `+assetCols+` FROM emergency_assets WHERE bg_asset_id = $1`, bgAssetID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("emergency asset with bg id %s not found", bgAssetID)
	}
	return a, err
}

func (r *repoPG) Update(ctx context.Context, a *Asset) error {
	diagnoses, err := json.Marshal(a.Diagnoses)
	if err != nil {
		return fmt.Errorf("encode diagnoses: %w", err)
	}
	_, err = r.conn(ctx).Exec(ctx, `
		UPDATE emergency_assets SET patient_address=$2, is_not_attached=$3, receive_date=$4,
			receive_time=$5, actual_datetime=$6, received_from=$7, is_repeat=$8, outcome=$9,
			diagnoses=$10, diagnosis_note=$11, status=$12, delivery_status=$13,
			has_confirm=$14, has_files=$15, has_refusal=$16, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.PatientAddress, a.IsNotAttached, a.ReceiveDate,
		a.ReceiveTime, a.ActualDatetime, a.ReceivedFrom, a.IsRepeat, a.Outcome,
		diagnoses, a.DiagnosisNote, a.Status, a.DeliveryStatus,
		a.HasConfirm, a.HasFiles, a.HasRefusal)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM emergency_assets WHERE id = $1`, id)
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
	if v := params["outcome"]; v != "" {
		where += fmt.Sprintf(" AND outcome = $%d", idx)
		args = append(args, v)
		idx++
	}
	if v := params["organization"]; v != "" {
		where += fmt.Sprintf(" AND patient_id IN (SELECT id FROM patients WHERE attachment_data->>'attached_clinic_id' = $%d)", idx)
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

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM emergency_assets `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + assetCols + ` FROM emergency_assets ` + where +
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
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM emergency_assets WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+assetCols+` FROM emergency_assets WHERE patient_id = $1 ORDER BY receive_date DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectAssets(rows, total)
}

func (r *repoPG) CountByStatus(ctx context.Context) (*Stats, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT status, COUNT(*) FROM emergency_assets GROUP BY status`)
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
