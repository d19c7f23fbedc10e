package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patients table.
type Patient struct {
	ID             uuid.UUID              `db:"id" json:"id"`
	IIN            string                 `db:"iin" json:"iin"`
	LastName       string                 `db:"last_name" json:"last_name"`
	FirstName      string                 `db:"first_name" json:"first_name"`
	MiddleName     *string                `db:"middle_name" json:"middle_name,omitempty"`
	DateOfBirth    *time.Time             `db:"date_of_birth" json:"date_of_birth,omitempty"`
	AttachmentData map[string]interface{} `db:"attachment_data" json:"attachment_data,omitempty"`
	CreatedAt      time.Time              `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time              `db:"updated_at" json:"updated_at"`
}

// FullName returns "Last First Middle" with the middle name omitted when absent.
func (p *Patient) FullName() string {
	name := p.LastName + " " + p.FirstName
	if p.MiddleName != nil && *p.MiddleName != "" {
		name += " " + *p.MiddleName
	}
	return name
}

// AttachedClinicID returns the clinic id recorded in the attachment data,
// or empty when the patient is not attached.
func (p *Patient) AttachedClinicID() string {
	if p.AttachmentData == nil {
		return ""
	}
	id, _ := p.AttachmentData["attached_clinic_id"].(string)
	return id
}
