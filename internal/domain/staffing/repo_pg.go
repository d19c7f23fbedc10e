package staffing

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

const assignmentCols = `id, specialist_name, specialization, area_number, area_type, department,
	start_date, end_date, reception_hours_per_day, reception_minutes_per_day,
	area_hours_per_day, area_minutes_per_day, status, notes, created_at, updated_at`

func scanAssignment(row pgx.Row) (*Assignment, error) {
	var a Assignment
	err := row.Scan(&a.ID, &a.SpecialistName, &a.Specialization, &a.AreaNumber, &a.AreaType, &a.Department,
		&a.StartDate, &a.EndDate, &a.ReceptionHoursPerDay, &a.ReceptionMinutesPerDay,
		&a.AreaHoursPerDay, &a.AreaMinutesPerDay, &a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r *repoPG) Create(ctx context.Context, a *Assignment) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO staff_assignments (id, specialist_name, specialization, area_number, area_type,
			department, start_date, end_date, reception_hours_per_day, reception_minutes_per_day,
			area_hours_per_day, area_minutes_per_day, status, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		a.ID, a.SpecialistName, a.Specialization, a.AreaNumber, a.AreaType,
		a.Department, a.StartDate, a.EndDate, a.ReceptionHoursPerDay, a.ReceptionMinutesPerDay,
		a.AreaHoursPerDay, a.AreaMinutesPerDay, a.Status, a.Notes)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Assignment, error) {
	a, err := scanAssignment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+assignmentCols+` FROM staff_assignments WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("staff assignment %s not found", id)
	}
	return a, err
}

func (r *repoPG) Update(ctx context.Context, a *Assignment) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE staff_assignments SET specialist_name=$2, specialization=$3, area_number=$4,
			area_type=$5, department=$6, start_date=$7, end_date=$8,
			reception_hours_per_day=$9, reception_minutes_per_day=$10,
			area_hours_per_day=$11, area_minutes_per_day=$12, status=$13, notes=$14, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.SpecialistName, a.Specialization, a.AreaNumber,
		a.AreaType, a.Department, a.StartDate, a.EndDate,
		a.ReceptionHoursPerDay, a.ReceptionMinutesPerDay,
		a.AreaHoursPerDay, a.AreaMinutesPerDay, a.Status, a.Notes)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM staff_assignments WHERE id = $1`, id)
	return err
}

func (r *repoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Assignment, int, error) {
	where := `WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if v := params["specialist_name"]; v != "" {
		where += fmt.Sprintf(" AND LOWER(specialist_name) = LOWER($%d)", idx)
		args = append(args, v)
		idx++
	}
	if v := params["area_number"]; v != "" {
		where += fmt.Sprintf(" AND area_number = $%d", idx)
		args = append(args, v)
		idx++
	}
	if v := params["department"]; v != "" {
		where += fmt.Sprintf(" AND department = $%d", idx)
		args = append(args, v)
		idx++
	}
	if v := params["specialization"]; v != "" {
		where += fmt.Sprintf(" AND specialization = $%d", idx)
		args = append(args, v)
		idx++
	}
	if v := params["status"]; v != "" {
		where += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, v)
		idx++
	}
	if params["current"] == "true" {
		where += " AND status = 'active' AND start_date <= CURRENT_DATE AND (end_date IS NULL OR end_date >= CURRENT_DATE)"
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM staff_assignments `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + assignmentCols + ` FROM staff_assignments ` + where +
		fmt.Sprintf(` ORDER BY start_date DESC, created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

// FindConflicts returns active assignments of the same specialist and area
// whose interval overlaps the queried one. The SQL predicate mirrors
// Overlaps in model.go.
func (r *repoPG) FindConflicts(ctx context.Context, q ConflictQuery) ([]*Assignment, error) {
	where := `WHERE LOWER(specialist_name) = LOWER($1) AND area_number = $2 AND status = 'active'`
	args := []interface{}{q.SpecialistName, q.AreaNumber}
	idx := 3

	if q.ExcludeID != nil {
		where += fmt.Sprintf(" AND id != $%d", idx)
		args = append(args, *q.ExcludeID)
		idx++
	}

	if q.EndDate != nil {
		where += fmt.Sprintf(" AND start_date <= $%d AND (end_date IS NULL OR end_date >= $%d)", idx, idx+1)
		args = append(args, *q.EndDate, q.StartDate)
	} else {
		where += fmt.Sprintf(" AND (end_date IS NULL OR end_date >= $%d)", idx)
		args = append(args, q.StartDate)
	}

	rows, err := r.conn(ctx).Query(ctx, `SELECT `+assignmentCols+` FROM staff_assignments `+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *repoPG) CountByStatus(ctx context.Context) (*Stats, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT status, COUNT(*) FROM staff_assignments GROUP BY status`)
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
		case StatusActive:
			stats.Active = count
		case StatusInactive:
			stats.Inactive = count
		case StatusSuspended:
			stats.Suspended = count
		case StatusCompleted:
			stats.Completed = count
		}
	}
	return &stats, rows.Err()
}
