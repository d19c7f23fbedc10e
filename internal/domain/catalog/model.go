package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Identity document types.
const (
	DocTypeIDCard          = "id_card"
	DocTypePassport        = "passport"
	DocTypeBirthCert       = "birth_certificate"
	DocTypeResidencePermit = "residence_permit"
)

// Diagnosis is a reference catalog entry keyed by its diagnosis code.
type Diagnosis struct {
	ID            int       `db:"id" json:"id"`
	DiagnosisCode string    `db:"diagnosis_code" json:"diagnosis_code"`
	Description   string    `db:"description" json:"description"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// PatientDiagnosis links a patient to a catalog diagnosis.
type PatientDiagnosis struct {
	ID            int        `db:"id" json:"id"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	DiagnosisID   int        `db:"diagnosis_id" json:"diagnosis_id"`
	DateDiagnosed *time.Time `db:"date_diagnosed" json:"date_diagnosed,omitempty"`
	Comment       *string    `db:"comment" json:"comment,omitempty"`
	DoctorID      *uuid.UUID `db:"doctor_id" json:"doctor_id,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// IdentityDocument is a patient's identity paper. Series and number are
// capped at 20 characters each.
type IdentityDocument struct {
	ID             int        `db:"id" json:"id"`
	PatientID      uuid.UUID  `db:"patient_id" json:"patient_id"`
	Type           string     `db:"type" json:"type"`
	Series         *string    `db:"series" json:"series,omitempty"`
	Number         string     `db:"number" json:"number"`
	IssuedBy       *string    `db:"issued_by" json:"issued_by,omitempty"`
	IssueDate      *time.Time `db:"issue_date" json:"issue_date,omitempty"`
	ExpirationDate *time.Time `db:"expiration_date" json:"expiration_date,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// IsExpired reports whether the document expired before the given moment.
func (d *IdentityDocument) IsExpired(at time.Time) bool {
	return d.ExpirationDate != nil && d.ExpirationDate.Before(at)
}

// MedicalOrganization is a clinic registered on the platform. The locales
// maps hold per-language name and address variants.
type MedicalOrganization struct {
	ID             int               `db:"id" json:"id"`
	Code           string            `db:"code" json:"code"`
	Name           string            `db:"name" json:"name"`
	Address        *string           `db:"address" json:"address,omitempty"`
	Lang           *string           `db:"lang" json:"lang,omitempty"`
	NameLocales    map[string]string `db:"name_locales" json:"name_locales,omitempty"`
	AddressLocales map[string]string `db:"address_locales" json:"address_locales,omitempty"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time         `db:"updated_at" json:"updated_at"`
}

// LocalizedName returns the name variant for lang, falling back to the
// default name.
func (o *MedicalOrganization) LocalizedName(lang string) string {
	if n, ok := o.NameLocales[lang]; ok && n != "" {
		return n
	}
	return o.Name
}
