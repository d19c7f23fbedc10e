package stationary

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/medrec/registry/internal/domain/patient"
	"github.com/medrec/registry/internal/platform/apperr"
)

// PatientDirectory resolves and updates patients on behalf of stationary
// assets. Implemented by the patient service.
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

func validStayPeriod(start time.Time, end *time.Time) error {
	if start.IsZero() {
		return apperr.Validation("stay_period_start is required")
	}
	if end != nil && end.Before(start) {
		return apperr.Validation("stay_period_end must not precede stay_period_start")
	}
	return nil
}

// Create registers a stationary asset for the patient identified by iin.
// When iin is empty the patient id on the record is used as is.
func (s *Service) Create(ctx context.Context, a *Asset, iin string) error {
	if iin != "" {
		p, err := s.patients.GetByIIN(ctx, iin)
		if err != nil {
			return err
		}
		a.PatientID = p.ID
	}
	if a.PatientID == uuid.Nil {
		return apperr.Validation("patient_id or iin is required")
	}
	if a.ReceiveDate.IsZero() {
		return apperr.Validation("receive_date is required")
	}
	if a.Diagnosis == "" {
		return apperr.Validation("diagnosis is required")
	}
	if err := validStayPeriod(a.StayPeriodStart, a.StayPeriodEnd); err != nil {
		return err
	}
	if a.BGAssetID != nil && *a.BGAssetID != "" {
		existing, err := s.repo.GetByBGAssetID(ctx, *a.BGAssetID)
		if err != nil && !apperr.IsNotFound(err) {
			return err
		}
		if existing != nil {
			return apperr.Conflict("stationary asset with bg id %s already exists", *a.BGAssetID)
		}
	}
	if a.Status == "" {
		a.Status = StatusRegistered
	}
	if a.DeliveryStatus == "" {
		a.DeliveryStatus = DeliveryReceivedAutomatically
	}
	return s.repo.Create(ctx, a)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Asset, error) {
	return s.repo.GetByID(ctx, id)
}

// Update applies field changes to an asset. Cancelled assets are immutable.
// The note replaces the previous one; transfers prepend instead.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in *Asset) (*Asset, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status == StatusCancelled {
		return nil, apperr.Validation("cannot update a cancelled asset")
	}
	if in.CardNumber != nil {
		a.CardNumber = in.CardNumber
	}
	if !in.StayPeriodStart.IsZero() {
		a.StayPeriodStart = in.StayPeriodStart
	}
	if in.StayPeriodEnd != nil {
		a.StayPeriodEnd = in.StayPeriodEnd
	}
	if err := validStayPeriod(a.StayPeriodStart, a.StayPeriodEnd); err != nil {
		return nil, err
	}
	if in.StayOutcome != nil {
		a.StayOutcome = in.StayOutcome
	}
	if in.Diagnosis != "" {
		a.Diagnosis = in.Diagnosis
	}
	if in.Area != "" {
		a.Area = in.Area
	}
	if in.Specialization != "" {
		a.Specialization = in.Specialization
	}
	if in.Specialist != "" {
		a.Specialist = in.Specialist
	}
	if in.Note != nil {
		a.Note = in.Note
	}
	if in.Status != "" {
		a.Status = in.Status
	}
	if in.DeliveryStatus != "" {
		a.DeliveryStatus = in.DeliveryStatus
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Confirm marks a registered asset as confirmed by the receiving hospital.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID) (*Asset, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusRegistered {
		return nil, apperr.Validation("only a registered asset can be confirmed, current status is %s", a.Status)
	}
	a.Status = StatusConfirmed
	a.HasConfirm = true
	if a.DeliveryStatus == DeliveryPending {
		a.DeliveryStatus = DeliveryDelivered
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Transfer hands the asset over to another organization. The asset goes back
// to the registered state and awaits delivery confirmation on the receiving
// side. When updateAttachment is set, the patient's clinic attachment moves
// with the asset.
func (s *Service) Transfer(ctx context.Context, id uuid.UUID, organizationCode, reason string, updateAttachment bool) (*Asset, error) {
	if organizationCode == "" {
		return nil, apperr.Validation("organization_code is required")
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status == StatusCancelled {
		return nil, apperr.Validation("cannot transfer a cancelled asset")
	}
	ok, err := s.orgs.ExistsByCode(ctx, organizationCode)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("medical organization %s not found", organizationCode)
	}
	if updateAttachment {
		if err := s.patients.Attach(ctx, a.PatientID, organizationCode); err != nil {
			return nil, err
		}
	}
	now := time.Now()
	a.Status = StatusRegistered
	a.DeliveryStatus = DeliveryPending
	a.HasConfirm = false
	a.ActualDatetime = &now
	note := fmt.Sprintf("Transferred to organization %s on %s", organizationCode, now.Format("2006-01-02"))
	if reason != "" {
		note += ". Reason: " + reason
	}
	a.Note = prependNote(a.Note, note)
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Asset, int, error) {
	return s.repo.Search(ctx, params, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Asset, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	return s.repo.CountByStatus(ctx)
}

// ImportFromFile loads a bureau stationary export and registers one asset per
// record. Records whose bg id is already known or whose patient IIN is not
// registered are skipped, not failed.
func (s *Service) ImportFromFile(ctx context.Context, r io.Reader) (*ImportResult, error) {
	var records []ImportRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, apperr.Validation("malformed import file: %v", err)
	}

	result := &ImportResult{}
	for i := range records {
		rec := &records[i]
		if rec.BGAssetID == "" || rec.PatientIIN == "" {
			result.SkippedNoPatient++
			continue
		}
		if _, err := s.repo.GetByBGAssetID(ctx, rec.BGAssetID); err == nil {
			result.SkippedExisting++
			continue
		} else if !apperr.IsNotFound(err) {
			return nil, err
		}
		p, err := s.patients.GetByIIN(ctx, rec.PatientIIN)
		if err != nil {
			if apperr.IsNotFound(err) {
				result.SkippedNoPatient++
				continue
			}
			return nil, err
		}
		receiveDate, err := time.Parse("2006-01-02", rec.ReceiveDate)
		if err != nil {
			return nil, apperr.Validation("record %s: bad receive_date %q", rec.BGAssetID, rec.ReceiveDate)
		}
		stayStart, err := time.Parse("2006-01-02", rec.StayPeriodStart)
		if err != nil {
			return nil, apperr.Validation("record %s: bad stay_period_start %q", rec.BGAssetID, rec.StayPeriodStart)
		}

		a := &Asset{
			BGAssetID:       &rec.BGAssetID,
			PatientID:       p.ID,
			ReceiveDate:     receiveDate,
			StayPeriodStart: stayStart,
			Diagnosis:       rec.Diagnosis,
			Area:            rec.Area,
			Specialization:  rec.Specialization,
			Specialist:      rec.Specialist,
			Status:          StatusRegistered,
			DeliveryStatus:  DeliveryReceivedAutomatically,
		}
		if rec.StayPeriodEnd != "" {
			stayEnd, err := time.Parse("2006-01-02", rec.StayPeriodEnd)
			if err != nil {
				return nil, apperr.Validation("record %s: bad stay_period_end %q", rec.BGAssetID, rec.StayPeriodEnd)
			}
			a.StayPeriodEnd = &stayEnd
		}
		if rec.CardNumber != "" {
			a.CardNumber = &rec.CardNumber
		}
		if rec.ReceiveTime != "" {
			a.ReceiveTime = &rec.ReceiveTime
		}
		if rec.ReceivedFrom != "" {
			a.ReceivedFrom = &rec.ReceivedFrom
		}
		if err := s.repo.Create(ctx, a); err != nil {
			return nil, err
		}
		result.Imported++
	}
	return result, nil
}

func prependNote(existing *string, note string) *string {
	if existing == nil || *existing == "" {
		return &note
	}
	combined := note + "\n" + *existing
	return &combined
}
