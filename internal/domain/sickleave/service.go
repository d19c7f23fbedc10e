package sickleave

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medrec/registry/internal/domain/patient"
	"github.com/medrec/registry/internal/platform/apperr"
)

// PatientDirectory resolves and updates patients on behalf of sick leaves.
// Implemented by the patient service.
type PatientDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
	GetByIIN(ctx context.Context, iin string) (*patient.Patient, error)
	Attach(ctx context.Context, id uuid.UUID, clinicID string) error
}

// OrganizationDirectory verifies medical organization codes. Implemented by
// the catalog service.
type OrganizationDirectory interface {
	ExistsByCode(ctx context.Context, code string) (bool, error)
}

type Service struct {
	repo     Repository
	patients PatientDirectory
	orgs     OrganizationDirectory
}

func NewService(repo Repository, patients PatientDirectory, orgs OrganizationDirectory) *Service {
	return &Service{repo: repo, patients: patients, orgs: orgs}
}

func validateDisabilityDates(start time.Time, end *time.Time) error {
	if end != nil && end.Before(start) {
		return apperr.Validation("disability_end_date cannot be before disability_start_date")
	}
	return nil
}

// Create registers a sick leave for the patient identified by iin. When iin
// is empty, the patient id on the record is used as is.
func (s *Service) Create(ctx context.Context, l *SickLeave, iin string) error {
	if iin != "" {
		p, err := s.patients.GetByIIN(ctx, iin)
		if err != nil {
			return err
		}
		l.PatientID = p.ID
	}
	if l.PatientID == uuid.Nil {
		return apperr.Validation("patient_id or iin is required")
	}
	if l.ReceiveDate.IsZero() {
		return apperr.Validation("receive_date is required")
	}
	if l.DisabilityStartDate.IsZero() {
		return apperr.Validation("disability_start_date is required")
	}
	if err := validateDisabilityDates(l.DisabilityStartDate, l.DisabilityEndDate); err != nil {
		return err
	}
	if l.Status == "" {
		l.Status = StatusOpen
	}
	if l.ParentID != nil {
		parent, err := s.repo.GetByID(ctx, *l.ParentID)
		if err != nil {
			return err
		}
		if parent.PatientID != l.PatientID {
			return apperr.Validation("extension must belong to the same patient as its parent")
		}
		l.IsPrimary = false
	} else if !l.IsRepeat {
		l.IsPrimary = true
	}
	return s.repo.Create(ctx, l)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*SickLeave, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, l *SickLeave) error {
	existing, err := s.repo.GetByID(ctx, l.ID)
	if err != nil {
		return err
	}
	if existing.Status == StatusCancelled {
		return apperr.Validation("cancelled sick leave cannot be modified")
	}
	if err := validateDisabilityDates(l.DisabilityStartDate, l.DisabilityEndDate); err != nil {
		return err
	}
	return s.repo.Update(ctx, l)
}

// Close ends an open sick leave.
func (s *Service) Close(ctx context.Context, id uuid.UUID, endDate time.Time, note string) error {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if l.Status != StatusOpen {
		return apperr.Validation("only open sick leave can be closed")
	}
	if endDate.Before(l.DisabilityStartDate) {
		return apperr.Validation("disability_end_date cannot be before disability_start_date")
	}
	l.DisabilityEndDate = &endDate
	l.Status = StatusClosed
	if note != "" {
		appendNote(l, note)
	}
	return s.repo.Update(ctx, l)
}

// Extend moves the disability end date of an open or already extended leave
// and marks it as an extension.
func (s *Service) Extend(ctx context.Context, id uuid.UUID, newEndDate time.Time, reason string) error {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if l.Status != StatusOpen && l.Status != StatusExtension {
		return apperr.Validation("only open or extended sick leave can be extended")
	}
	if !newEndDate.After(l.DisabilityStartDate) {
		return apperr.Validation("new end date must be after disability_start_date")
	}
	l.DisabilityEndDate = &newEndDate
	l.Status = StatusExtension
	note := fmt.Sprintf("Extended until %s", newEndDate.Format("2006-01-02"))
	if reason != "" {
		note += ": " + reason
	}
	appendNote(l, note)
	return s.repo.Update(ctx, l)
}

// Cancel voids a sick leave. Cancelling twice is rejected.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string) error {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if l.Status == StatusCancelled {
		return apperr.Validation("sick leave is already cancelled")
	}
	l.Status = StatusCancelled
	prependNote(l, "Cancelled: "+reason)
	return s.repo.Update(ctx, l)
}

// Transfer moves the leave's patient to another medical organization.
func (s *Service) Transfer(ctx context.Context, id uuid.UUID, orgCode string) error {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	p, err := s.patients.Get(ctx, l.PatientID)
	if err != nil {
		return err
	}
	if p.AttachedClinicID() == orgCode {
		return apperr.Validation("patient is already attached to organization %s", orgCode)
	}
	exists, err := s.orgs.ExistsByCode(ctx, orgCode)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.NotFound("medical organization %s not found", orgCode)
	}
	if err := s.patients.Attach(ctx, p.ID, orgCode); err != nil {
		return err
	}
	appendNote(l, fmt.Sprintf("Transferred to organization %s on %s", orgCode, time.Now().Format("2006-01-02")))
	return s.repo.Update(ctx, l)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*SickLeave, int, error) {
	return s.repo.Search(ctx, params, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*SickLeave, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ActiveByPatient(ctx context.Context, patientID uuid.UUID) ([]*SickLeave, error) {
	return s.repo.ActiveByPatient(ctx, patientID)
}

func (s *Service) GetExtensions(ctx context.Context, parentID uuid.UUID) ([]*SickLeave, error) {
	if _, err := s.repo.GetByID(ctx, parentID); err != nil {
		return nil, err
	}
	return s.repo.ListExtensions(ctx, parentID)
}

func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	return s.repo.CountByStatus(ctx)
}

func appendNote(l *SickLeave, note string) {
	if l.Notes == nil || *l.Notes == "" {
		l.Notes = &note
		return
	}
	combined := *l.Notes + "\n" + note
	l.Notes = &combined
}

func prependNote(l *SickLeave, note string) {
	if l.Notes == nil || *l.Notes == "" {
		l.Notes = &note
		return
	}
	combined := note + "\n" + *l.Notes
	l.Notes = &combined
}
