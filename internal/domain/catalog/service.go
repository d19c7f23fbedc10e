package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/medrec/registry/internal/platform/apperr"
)

const maxSeriesNumberLen = 20

func validDocType(t string) bool {
	switch t {
	case DocTypeIDCard, DocTypePassport, DocTypeBirthCert, DocTypeResidencePermit:
		return true
	}
	return false
}

type Service struct {
	diagnoses DiagnosisRepository
	documents DocumentRepository
	orgs      OrganizationRepository
}

func NewService(diagnoses DiagnosisRepository, documents DocumentRepository, orgs OrganizationRepository) *Service {
	return &Service{diagnoses: diagnoses, documents: documents, orgs: orgs}
}

// Diagnoses

func (s *Service) CreateDiagnosis(ctx context.Context, d *Diagnosis) error {
	if d.DiagnosisCode == "" {
		return apperr.Validation("diagnosis_code is required")
	}
	if d.Description == "" {
		return apperr.Validation("description is required")
	}
	return s.diagnoses.Create(ctx, d)
}

func (s *Service) GetDiagnosis(ctx context.Context, id int) (*Diagnosis, error) {
	return s.diagnoses.GetByID(ctx, id)
}

func (s *Service) GetDiagnosisByCode(ctx context.Context, code string) (*Diagnosis, error) {
	return s.diagnoses.GetByCode(ctx, code)
}

func (s *Service) UpdateDiagnosis(ctx context.Context, d *Diagnosis) error {
	if _, err := s.diagnoses.GetByID(ctx, d.ID); err != nil {
		return err
	}
	if d.DiagnosisCode == "" {
		return apperr.Validation("diagnosis_code is required")
	}
	return s.diagnoses.Update(ctx, d)
}

func (s *Service) DeleteDiagnosis(ctx context.Context, id int) error {
	if _, err := s.diagnoses.GetByID(ctx, id); err != nil {
		return err
	}
	return s.diagnoses.Delete(ctx, id)
}

func (s *Service) ListDiagnoses(ctx context.Context, params map[string]string, limit, offset int) ([]*Diagnosis, int, error) {
	return s.diagnoses.List(ctx, params, limit, offset)
}

// AddPatientDiagnosis links a catalog diagnosis to a patient. The diagnosis
// must exist and be active.
func (s *Service) AddPatientDiagnosis(ctx context.Context, l *PatientDiagnosis) error {
	if l.PatientID == uuid.Nil {
		return apperr.Validation("patient_id is required")
	}
	d, err := s.diagnoses.GetByID(ctx, l.DiagnosisID)
	if err != nil {
		return err
	}
	if !d.IsActive {
		return apperr.Validation("diagnosis %s is inactive", d.DiagnosisCode)
	}
	return s.diagnoses.CreateLink(ctx, l)
}

func (s *Service) UpdatePatientDiagnosis(ctx context.Context, l *PatientDiagnosis) error {
	if _, err := s.diagnoses.GetLink(ctx, l.ID); err != nil {
		return err
	}
	return s.diagnoses.UpdateLink(ctx, l)
}

func (s *Service) RemovePatientDiagnosis(ctx context.Context, id int) error {
	if _, err := s.diagnoses.GetLink(ctx, id); err != nil {
		return err
	}
	return s.diagnoses.DeleteLink(ctx, id)
}

func (s *Service) ListPatientDiagnoses(ctx context.Context, patientID uuid.UUID) ([]*PatientDiagnosis, error) {
	return s.diagnoses.ListLinksByPatient(ctx, patientID)
}

// Identity documents

func validateDocument(d *IdentityDocument) error {
	if d.PatientID == uuid.Nil {
		return apperr.Validation("patient_id is required")
	}
	if !validDocType(d.Type) {
		return apperr.Validation("unknown document type %q", d.Type)
	}
	if d.Number == "" {
		return apperr.Validation("number is required")
	}
	if len(d.Number) > maxSeriesNumberLen {
		return apperr.Validation("number exceeds %d characters", maxSeriesNumberLen)
	}
	if d.Series != nil && len(*d.Series) > maxSeriesNumberLen {
		return apperr.Validation("series exceeds %d characters", maxSeriesNumberLen)
	}
	if d.IssueDate != nil && d.ExpirationDate != nil && !d.ExpirationDate.After(*d.IssueDate) {
		return apperr.Validation("expiration_date must be after issue_date")
	}
	return nil
}

func (s *Service) CreateDocument(ctx context.Context, d *IdentityDocument) error {
	if err := validateDocument(d); err != nil {
		return err
	}
	return s.documents.Create(ctx, d)
}

func (s *Service) GetDocument(ctx context.Context, id int) (*IdentityDocument, error) {
	return s.documents.GetByID(ctx, id)
}

func (s *Service) UpdateDocument(ctx context.Context, d *IdentityDocument) error {
	existing, err := s.documents.GetByID(ctx, d.ID)
	if err != nil {
		return err
	}
	d.PatientID = existing.PatientID
	if err := validateDocument(d); err != nil {
		return err
	}
	return s.documents.Update(ctx, d)
}

func (s *Service) DeleteDocument(ctx context.Context, id int) error {
	if _, err := s.documents.GetByID(ctx, id); err != nil {
		return err
	}
	return s.documents.Delete(ctx, id)
}

func (s *Service) ListDocumentsByPatient(ctx context.Context, patientID uuid.UUID) ([]*IdentityDocument, error) {
	return s.documents.ListByPatient(ctx, patientID)
}

func (s *Service) ListDocuments(ctx context.Context, params map[string]string, limit, offset int) ([]*IdentityDocument, int, error) {
	return s.documents.List(ctx, params, limit, offset)
}

// Medical organizations

func (s *Service) CreateOrganization(ctx context.Context, o *MedicalOrganization) error {
	if o.Code == "" {
		return apperr.Validation("code is required")
	}
	if o.Name == "" {
		return apperr.Validation("name is required")
	}
	return s.orgs.Create(ctx, o)
}

func (s *Service) GetOrganization(ctx context.Context, id int) (*MedicalOrganization, error) {
	return s.orgs.GetByID(ctx, id)
}

func (s *Service) GetOrganizationByCode(ctx context.Context, code string) (*MedicalOrganization, error) {
	return s.orgs.GetByCode(ctx, code)
}

// ExistsByCode reports whether an organization with the given code is
// registered. Used by transfer flows in other packages.
func (s *Service) ExistsByCode(ctx context.Context, code string) (bool, error) {
	_, err := s.orgs.GetByCode(ctx, code)
	if apperr.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) UpdateOrganization(ctx context.Context, o *MedicalOrganization) error {
	if _, err := s.orgs.GetByID(ctx, o.ID); err != nil {
		return err
	}
	if o.Code == "" || o.Name == "" {
		return apperr.Validation("code and name are required")
	}
	return s.orgs.Update(ctx, o)
}

func (s *Service) DeleteOrganization(ctx context.Context, id int) error {
	if _, err := s.orgs.GetByID(ctx, id); err != nil {
		return err
	}
	return s.orgs.Delete(ctx, id)
}

func (s *Service) ListOrganizations(ctx context.Context, params map[string]string, limit, offset int) ([]*MedicalOrganization, int, error) {
	return s.orgs.List(ctx, params, limit, offset)
}
