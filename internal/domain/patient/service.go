package patient

import (
	"context"

	"github.com/google/uuid"

	"github.com/medrec/registry/internal/platform/apperr"
	"github.com/medrec/registry/internal/platform/rpn"
)

// AttachmentRegister looks up clinic attachments in the regional population
// registry. Implemented by the rpn client.
type AttachmentRegister interface {
	GetAttachment(ctx context.Context, iin string) (*rpn.Attachment, error)
}

type Service struct {
	repo     Repository
	register AttachmentRegister
}

// NewService builds a patient service. register may be nil when no
// population registry is configured.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func NewServiceWithRegister(repo Repository, register AttachmentRegister) *Service {
	return &Service{repo: repo, register: register}
}

func (s *Service) Create(ctx context.Context, p *Patient) error {
	if len(p.IIN) != 12 {
		return apperr.Validation("iin must be 12 characters")
	}
	if p.LastName == "" || p.FirstName == "" {
		return apperr.Validation("last_name and first_name are required")
	}
	if existing, err := s.repo.GetByIIN(ctx, p.IIN); err == nil && existing != nil {
		return apperr.Conflict("patient with iin %s already exists", p.IIN)
	} else if err != nil && !apperr.IsNotFound(err) {
		return err
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByIIN(ctx context.Context, iin string) (*Patient, error) {
	return s.repo.GetByIIN(ctx, iin)
}

func (s *Service) Update(ctx context.Context, p *Patient) error {
	if _, err := s.repo.GetByID(ctx, p.ID); err != nil {
		return err
	}
	return s.repo.Update(ctx, p)
}

// Attach records the patient's clinic attachment, preserving any other
// attachment fields already stored.
func (s *Service) Attach(ctx context.Context, id uuid.UUID, clinicID string) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	data := p.AttachmentData
	if data == nil {
		data = map[string]interface{}{}
	}
	data["attached_clinic_id"] = clinicID
	return s.repo.UpdateAttachmentData(ctx, id, data)
}

// RefreshAttachment pulls the patient's clinic attachment from the
// population registry and stores it. A patient missing from the registry
// keeps the locally recorded attachment.
func (s *Service) RefreshAttachment(ctx context.Context, id uuid.UUID) (*Patient, error) {
	if s.register == nil {
		return nil, apperr.Unavailable("population registry is not configured", nil)
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	att, err := s.register.GetAttachment(ctx, p.IIN)
	if err != nil {
		return nil, apperr.Unavailable("population registry lookup failed, try again later", err)
	}
	if att == nil {
		return p, nil
	}

	data := p.AttachmentData
	if data == nil {
		data = map[string]interface{}{}
	}
	data["attached_clinic_id"] = att.ClinicID
	data["attached_clinic_name"] = att.ClinicName
	data["attached_date"] = att.AttachedDate
	data["active"] = att.Active
	if err := s.repo.UpdateAttachmentData(ctx, id, data); err != nil {
		return nil, err
	}
	p.AttachmentData = data
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Patient, int, error) {
	return s.repo.Search(ctx, params, limit, offset)
}
