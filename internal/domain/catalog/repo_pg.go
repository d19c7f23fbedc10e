package catalog

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

func conn(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// diagnosisRepoPG

type diagnosisRepoPG struct{ pool *pgxpool.Pool }

func NewDiagnosisRepoPG(pool *pgxpool.Pool) DiagnosisRepository {
	return &diagnosisRepoPG{pool: pool}
}

const diagnosisCols = `id, diagnosis_code, description, is_active, created_at, updated_at`

func scanDiagnosis(row pgx.Row) (*Diagnosis, error) {
	var d Diagnosis
	err := row.Scan(&d.ID, &d.DiagnosisCode, &d.Description, &d.IsActive, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *diagnosisRepoPG) Create(ctx context.Context, d *Diagnosis) error {
	err := conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO diagnoses (diagnosis_code, description, is_active)
		VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`,
		d.DiagnosisCode, d.Description, d.IsActive).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if isUniqueViolation(err) {
		return apperr.Conflict("diagnosis code %s already exists", d.DiagnosisCode)
	}
	return err
}

func (r *diagnosisRepoPG) GetByID(ctx context.Context, id int) (*Diagnosis, error) {
	d, err := scanDiagnosis(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+diagnosisCols+` FROM diagnoses WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("diagnosis %d not found", id)
	}
	return d, err
}

func (r *diagnosisRepoPG) GetByCode(ctx context.Context, code string) (*Diagnosis, error) {
	d, err := scanDiagnosis(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+diagnosisCols+` FROM diagnoses WHERE diagnosis_code = $1`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("diagnosis code %s not found", code)
	}
	return d, err
}

func (r *diagnosisRepoPG) Update(ctx context.Context, d *Diagnosis) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE diagnoses SET diagnosis_code=$2, description=$3, is_active=$4, updated_at=NOW()
		WHERE id = $1`, d.ID, d.DiagnosisCode, d.Description, d.IsActive)
	if isUniqueViolation(err) {
		return apperr.Conflict("diagnosis code %s already exists", d.DiagnosisCode)
	}
	return err
}

func (r *diagnosisRepoPG) Delete(ctx context.Context, id int) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM diagnoses WHERE id = $1`, id)
	return err
}

func (r *diagnosisRepoPG) List(ctx context.Context, params map[string]string, limit, offset int) ([]*Diagnosis, int, error) {
	where := `WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if v := params["is_active"]; v != "" {
		where += fmt.Sprintf(" AND is_active = $%d", idx)
		args = append(args, v == "true")
		idx++
	}
	if v := params["query"]; v != "" {
		where += fmt.Sprintf(" AND (diagnosis_code ILIKE $%d OR description ILIKE $%d)", idx, idx)
		args = append(args, "%"+v+"%")
		idx++
	}

	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM diagnoses `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + diagnosisCols + ` FROM diagnoses ` + where +
		fmt.Sprintf(` ORDER BY diagnosis_code LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Diagnosis
	for rows.Next() {
		d, err := scanDiagnosis(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, rows.Err()
}

const linkCols = `id, patient_id, diagnosis_id, date_diagnosed, comment, doctor_id, created_at`

func scanLink(row pgx.Row) (*PatientDiagnosis, error) {
	var l PatientDiagnosis
	err := row.Scan(&l.ID, &l.PatientID, &l.DiagnosisID, &l.DateDiagnosed, &l.Comment, &l.DoctorID, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *diagnosisRepoPG) CreateLink(ctx context.Context, l *PatientDiagnosis) error {
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO patients_diagnoses (patient_id, diagnosis_id, date_diagnosed, comment, doctor_id)
		VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`,
		l.PatientID, l.DiagnosisID, l.DateDiagnosed, l.Comment, l.DoctorID).Scan(&l.ID, &l.CreatedAt)
}

func (r *diagnosisRepoPG) GetLink(ctx context.Context, id int) (*PatientDiagnosis, error) {
	l, err := scanLink(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+linkCols+` FROM patients_diagnoses WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("patient diagnosis %d not found", id)
	}
	return l, err
}

func (r *diagnosisRepoPG) UpdateLink(ctx context.Context, l *PatientDiagnosis) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE patients_diagnoses SET date_diagnosed=$2, comment=$3, doctor_id=$4
		WHERE id = $1`, l.ID, l.DateDiagnosed, l.Comment, l.DoctorID)
	return err
}

func (r *diagnosisRepoPG) DeleteLink(ctx context.Context, id int) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM patients_diagnoses WHERE id = $1`, id)
	return err
}

func (r *diagnosisRepoPG) ListLinksByPatient(ctx context.Context, patientID uuid.UUID) ([]*PatientDiagnosis, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+linkCols+` FROM patients_diagnoses WHERE patient_id = $1 ORDER BY date_diagnosed DESC NULLS LAST`,
		patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*PatientDiagnosis
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

// documentRepoPG

type documentRepoPG struct{ pool *pgxpool.Pool }

func NewDocumentRepoPG(pool *pgxpool.Pool) DocumentRepository {
	return &documentRepoPG{pool: pool}
}

const documentCols = `id, patient_id, type, series, number, issued_by, issue_date, expiration_date, created_at, updated_at`

func scanDocument(row pgx.Row) (*IdentityDocument, error) {
	var d IdentityDocument
	err := row.Scan(&d.ID, &d.PatientID, &d.Type, &d.Series, &d.Number, &d.IssuedBy,
		&d.IssueDate, &d.ExpirationDate, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *documentRepoPG) Create(ctx context.Context, d *IdentityDocument) error {
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO identity_documents (patient_id, type, series, number, issued_by, issue_date, expiration_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at, updated_at`,
		d.PatientID, d.Type, d.Series, d.Number, d.IssuedBy, d.IssueDate, d.ExpirationDate).
		Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
}

func (r *documentRepoPG) GetByID(ctx context.Context, id int) (*IdentityDocument, error) {
	d, err := scanDocument(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+documentCols+` FROM identity_documents WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("identity document %d not found", id)
	}
	return d, err
}

func (r *documentRepoPG) Update(ctx context.Context, d *IdentityDocument) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE identity_documents SET type=$2, series=$3, number=$4, issued_by=$5,
			issue_date=$6, expiration_date=$7, updated_at=NOW()
		WHERE id = $1`, d.ID, d.Type, d.Series, d.Number, d.IssuedBy, d.IssueDate, d.ExpirationDate)
	return err
}

func (r *documentRepoPG) Delete(ctx context.Context, id int) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM identity_documents WHERE id = $1`, id)
	return err
}

func (r *documentRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*IdentityDocument, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+documentCols+` FROM identity_documents WHERE patient_id = $1 ORDER BY id`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items, _, err := collectDocuments(rows, 0)
	return items, err
}

func (r *documentRepoPG) List(ctx context.Context, params map[string]string, limit, offset int) ([]*IdentityDocument, int, error) {
	where := `WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if v := params["type"]; v != "" {
		where += fmt.Sprintf(" AND type = $%d", idx)
		args = append(args, v)
		idx++
	}
	if v := params["number"]; v != "" {
		where += fmt.Sprintf(" AND number = $%d", idx)
		args = append(args, v)
		idx++
	}

	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM identity_documents `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + documentCols + ` FROM identity_documents ` + where +
		fmt.Sprintf(` ORDER BY id LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectDocuments(rows, total)
}

func collectDocuments(rows pgx.Rows, total int) ([]*IdentityDocument, int, error) {
	var items []*IdentityDocument
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, rows.Err()
}

// organizationRepoPG

type organizationRepoPG struct{ pool *pgxpool.Pool }

func NewOrganizationRepoPG(pool *pgxpool.Pool) OrganizationRepository {
	return &organizationRepoPG{pool: pool}
}

const organizationCols = `id, code, name, address, lang, name_locales, address_locales, created_at, updated_at`

func scanOrganization(row pgx.Row) (*MedicalOrganization, error) {
	var o MedicalOrganization
	var nameLocales, addressLocales []byte
	err := row.Scan(&o.ID, &o.Code, &o.Name, &o.Address, &o.Lang, &nameLocales, &addressLocales,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(nameLocales) > 0 {
		if err := json.Unmarshal(nameLocales, &o.NameLocales); err != nil {
			return nil, fmt.Errorf("decode name_locales: %w", err)
		}
	}
	if len(addressLocales) > 0 {
		if err := json.Unmarshal(addressLocales, &o.AddressLocales); err != nil {
			return nil, fmt.Errorf("decode address_locales: %w", err)
		}
	}
	return &o, nil
}

func (r *organizationRepoPG) Create(ctx context.Context, o *MedicalOrganization) error {
	nameLocales, err := json.Marshal(o.NameLocales)
	if err != nil {
		return fmt.Errorf("encode name_locales: %w", err)
	}
	addressLocales, err := json.Marshal(o.AddressLocales)
	if err != nil {
		return fmt.Errorf("encode address_locales: %w", err)
	}
	err = conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO medical_organizations (code, name, address, lang, name_locales, address_locales)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at, updated_at`,
		o.Code, o.Name, o.Address, o.Lang, nameLocales, addressLocales).
		Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if isUniqueViolation(err) {
		return apperr.Conflict("medical organization with code %s or name %s already exists", o.Code, o.Name)
	}
	return err
}

func (r *organizationRepoPG) GetByID(ctx context.Context, id int) (*MedicalOrganization, error) {
	o, err := scanOrganization(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+organizationCols+` FROM medical_organizations WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("medical organization %d not found", id)
	}
	return o, err
}

func (r *organizationRepoPG) GetByCode(ctx context.Context, code string) (*MedicalOrganization, error) {
	o, err := scanOrganization(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+organizationCols+` FROM medical_organizations WHERE code = $1`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("medical organization %s not found", code)
	}
	return o, err
}

func (r *organizationRepoPG) Update(ctx context.Context, o *MedicalOrganization) error {
	nameLocales, err := json.Marshal(o.NameLocales)
	if err != nil {
		return fmt.Errorf("encode name_locales: %w", err)
	}
	addressLocales, err := json.Marshal(o.AddressLocales)
	if err != nil {
		return fmt.Errorf("encode address_locales: %w", err)
	}
	_, err = conn(ctx, r.pool).Exec(ctx, `
		UPDATE medical_organizations SET code=$2, name=$3, address=$4, lang=$5,
			name_locales=$6, address_locales=$7, updated_at=NOW()
		WHERE id = $1`, o.ID, o.Code, o.Name, o.Address, o.Lang, nameLocales, addressLocales)
	if isUniqueViolation(err) {
		return apperr.Conflict("medical organization with code %s or name %s already exists", o.Code, o.Name)
	}
	return err
}

func (r *organizationRepoPG) Delete(ctx context.Context, id int) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM medical_organizations WHERE id = $1`, id)
	return err
}

func (r *organizationRepoPG) List(ctx context.Context, params map[string]string, limit, offset int) ([]*MedicalOrganization, int, error) {
	where := `WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if v := params["query"]; v != "" {
		where += fmt.Sprintf(" AND (code ILIKE $%d OR name ILIKE $%d)", idx, idx)
		args = append(args, "%"+v+"%")
		idx++
	}

	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM medical_organizations `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + organizationCols + ` FROM medical_organizations ` + where +
		fmt.Sprintf(` ORDER BY name LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*MedicalOrganization
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, o)
	}
	return items, total, rows.Err()
}
