package staffing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medrec/registry/internal/platform/apperr"
	"github.com/medrec/registry/internal/platform/db"
)

const (
	maxDailyMinutes    = 24 * 60
	maxActivityMinutes = 12 * 60
)

type Service struct {
	repo Repository
	pool *pgxpool.Pool
}

// NewService creates the staffing service. pool may be nil in tests; conflict
// checks then run without transactional locking.
func NewService(repo Repository, pool *pgxpool.Pool) *Service {
	return &Service{repo: repo, pool: pool}
}

// withAssignmentLock serializes writers for one (specialist, area) pair so
// the conflict check and the following write observe a consistent state.
func (s *Service) withAssignmentLock(ctx context.Context, specialist, area string, fn func(ctx context.Context) error) error {
	if s.pool == nil {
		return fn(ctx)
	}
	return db.WithTx(ctx, s.pool, func(ctx context.Context) error {
		if err := db.AcquireAdvisoryLock(ctx, db.AdvisoryLockKey(specialist, area)); err != nil {
			return err
		}
		return fn(ctx)
	})
}

func validateWorkload(a *Assignment) error {
	reception := a.ReceptionHoursPerDay*60 + a.ReceptionMinutesPerDay
	area := a.AreaHoursPerDay*60 + a.AreaMinutesPerDay
	if reception < 0 || area < 0 {
		return apperr.Validation("work time cannot be negative")
	}
	if reception > maxActivityMinutes {
		return apperr.Validation("reception time cannot exceed 12 hours per day")
	}
	if area > maxActivityMinutes {
		return apperr.Validation("area work time cannot exceed 12 hours per day")
	}
	if reception+area > maxDailyMinutes {
		return apperr.Validation("total work time cannot exceed 24 hours per day")
	}
	return nil
}

func validateDates(start time.Time, end *time.Time) error {
	if end != nil && end.Before(start) {
		return apperr.Validation("end_date cannot be before start_date")
	}
	return nil
}

func (s *Service) checkConflicts(ctx context.Context, q ConflictQuery) error {
	conflicts, err := s.repo.FindConflicts(ctx, q)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return apperr.Conflict("specialist %s already has an active assignment for area %s in the given period",
			q.SpecialistName, q.AreaNumber)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, a *Assignment) error {
	if strings.TrimSpace(a.SpecialistName) == "" {
		return apperr.Validation("specialist_name is required")
	}
	if strings.TrimSpace(a.AreaNumber) == "" {
		return apperr.Validation("area_number is required")
	}
	if a.StartDate.IsZero() {
		return apperr.Validation("start_date is required")
	}
	if err := validateDates(a.StartDate, a.EndDate); err != nil {
		return err
	}
	if err := validateWorkload(a); err != nil {
		return err
	}
	if a.Status == "" {
		a.Status = StatusActive
	}

	return s.withAssignmentLock(ctx, a.SpecialistName, a.AreaNumber, func(ctx context.Context) error {
		if err := s.checkConflicts(ctx, ConflictQuery{
			SpecialistName: a.SpecialistName,
			AreaNumber:     a.AreaNumber,
			StartDate:      a.StartDate,
			EndDate:        a.EndDate,
		}); err != nil {
			return err
		}
		return s.repo.Create(ctx, a)
	})
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Assignment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, a *Assignment) error {
	existing, err := s.repo.GetByID(ctx, a.ID)
	if err != nil {
		return err
	}
	if existing.Status == StatusCompleted {
		return apperr.Validation("completed assignment cannot be modified")
	}
	if err := validateDates(a.StartDate, a.EndDate); err != nil {
		return err
	}
	if err := validateWorkload(a); err != nil {
		return err
	}

	return s.withAssignmentLock(ctx, a.SpecialistName, a.AreaNumber, func(ctx context.Context) error {
		if err := s.checkConflicts(ctx, ConflictQuery{
			SpecialistName: a.SpecialistName,
			AreaNumber:     a.AreaNumber,
			StartDate:      a.StartDate,
			EndDate:        a.EndDate,
			ExcludeID:      &a.ID,
		}); err != nil {
			return err
		}
		return s.repo.Update(ctx, a)
	})
}

// Complete closes the assignment. Completed is terminal.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, endDate time.Time) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a.Status == StatusCompleted {
		return apperr.Validation("assignment is already completed")
	}
	if endDate.Before(a.StartDate) {
		return apperr.Validation("end_date cannot be before start_date")
	}
	a.EndDate = &endDate
	a.Status = StatusCompleted
	appendNote(a, fmt.Sprintf("Completed on %s", endDate.Format("2006-01-02")))
	return s.repo.Update(ctx, a)
}

// Extend moves the end date of an active or suspended assignment.
func (s *Service) Extend(ctx context.Context, id uuid.UUID, newEndDate time.Time, reason string) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a.Status != StatusActive && a.Status != StatusSuspended {
		return apperr.Validation("only active or suspended assignments can be extended")
	}
	if !newEndDate.After(a.StartDate) {
		return apperr.Validation("new end_date must be after start_date")
	}

	return s.withAssignmentLock(ctx, a.SpecialistName, a.AreaNumber, func(ctx context.Context) error {
		if err := s.checkConflicts(ctx, ConflictQuery{
			SpecialistName: a.SpecialistName,
			AreaNumber:     a.AreaNumber,
			StartDate:      a.StartDate,
			EndDate:        &newEndDate,
			ExcludeID:      &a.ID,
		}); err != nil {
			return err
		}
		a.EndDate = &newEndDate
		note := fmt.Sprintf("Extended until %s", newEndDate.Format("2006-01-02"))
		if reason != "" {
			note += ": " + reason
		}
		appendNote(a, note)
		return s.repo.Update(ctx, a)
	})
}

// Suspend pauses an active assignment.
func (s *Service) Suspend(ctx context.Context, id uuid.UUID, reason string) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a.Status != StatusActive {
		return apperr.Validation("only active assignments can be suspended")
	}
	a.Status = StatusSuspended
	note := "Suspended"
	if reason != "" {
		note += ": " + reason
	}
	appendNote(a, note)
	return s.repo.Update(ctx, a)
}

// Activate resumes an inactive or suspended assignment.
func (s *Service) Activate(ctx context.Context, id uuid.UUID) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a.Status != StatusInactive && a.Status != StatusSuspended {
		return apperr.Validation("only inactive or suspended assignments can be activated")
	}

	return s.withAssignmentLock(ctx, a.SpecialistName, a.AreaNumber, func(ctx context.Context) error {
		if err := s.checkConflicts(ctx, ConflictQuery{
			SpecialistName: a.SpecialistName,
			AreaNumber:     a.AreaNumber,
			StartDate:      a.StartDate,
			EndDate:        a.EndDate,
			ExcludeID:      &a.ID,
		}); err != nil {
			return err
		}
		a.Status = StatusActive
		return s.repo.Update(ctx, a)
	})
}

// Delete removes an assignment. A currently running active assignment must be
// completed or suspended first.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a.Status == StatusActive && a.IsCurrent(time.Now()) {
		return apperr.Validation("active current assignment cannot be deleted")
	}
	return s.repo.Delete(ctx, id)
}

// AddNote appends a note line to the assignment.
func (s *Service) AddNote(ctx context.Context, id uuid.UUID, note string) error {
	if strings.TrimSpace(note) == "" {
		return apperr.Validation("note is required")
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	appendNote(a, note)
	return s.repo.Update(ctx, a)
}

func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Assignment, int, error) {
	return s.repo.Search(ctx, params, limit, offset)
}

func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	return s.repo.CountByStatus(ctx)
}

func appendNote(a *Assignment, note string) {
	if a.Notes == nil || *a.Notes == "" {
		a.Notes = &note
		return
	}
	combined := *a.Notes + "\n" + note
	a.Notes = &combined
}
