package catalog

import (
	"context"

	"github.com/google/uuid"
)

// DiagnosisRepository defines storage operations for the diagnosis catalog
// and the patient-diagnosis links.
type DiagnosisRepository interface {
	Create(ctx context.Context, d *Diagnosis) error
	GetByID(ctx context.Context, id int) (*Diagnosis, error)
	GetByCode(ctx context.Context, code string) (*Diagnosis, error)
	Update(ctx context.Context, d *Diagnosis) error
	Delete(ctx context.Context, id int) error
	List(ctx context.Context, params map[string]string, limit, offset int) ([]*Diagnosis, int, error)

	CreateLink(ctx context.Context, l *PatientDiagnosis) error
	GetLink(ctx context.Context, id int) (*PatientDiagnosis, error)
	UpdateLink(ctx context.Context, l *PatientDiagnosis) error
	DeleteLink(ctx context.Context, id int) error
	ListLinksByPatient(ctx context.Context, patientID uuid.UUID) ([]*PatientDiagnosis, error)
}

// DocumentRepository defines storage operations for identity documents.
type DocumentRepository interface {
	Create(ctx context.Context, d *IdentityDocument) error
	GetByID(ctx context.Context, id int) (*IdentityDocument, error)
	Update(ctx context.Context, d *IdentityDocument) error
	Delete(ctx context.Context, id int) error
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*IdentityDocument, error)
	List(ctx context.Context, params map[string]string, limit, offset int) ([]*IdentityDocument, int, error)
}

// OrganizationRepository defines storage operations for medical
// organizations.
type OrganizationRepository interface {
	Create(ctx context.Context, o *MedicalOrganization) error
	GetByID(ctx context.Context, id int) (*MedicalOrganization, error)
	GetByCode(ctx context.Context, code string) (*MedicalOrganization, error)
	Update(ctx context.Context, o *MedicalOrganization) error
	Delete(ctx context.Context, id int) error
	List(ctx context.Context, params map[string]string, limit, offset int) ([]*MedicalOrganization, int, error)
}
