package user

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medrec/registry/internal/platform/apperr"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetBySub(ctx context.Context, sub string) (*User, error) {
	return s.repo.GetBySub(ctx, sub)
}

func (s *Service) List(ctx context.Context, params map[string]string, limit, offset int) ([]*User, int, error) {
	return s.repo.List(ctx, params, limit, offset)
}

// EventPayload is the body of an account event published by the identity
// platform.
type EventPayload struct {
	FirstName       *string  `json:"first_name"`
	LastName        *string  `json:"last_name"`
	MiddleName      *string  `json:"middle_name"`
	IIN             *string  `json:"iin"`
	DateOfBirth     *string  `json:"date_of_birth"`
	ClientRoles     []string `json:"client_roles"`
	Enabled         bool     `json:"enabled"`
	Specializations []string `json:"specializations"`
	ServedAreas     []string `json:"served_areas"`
	ServedClinics   []string `json:"served_clinics"`
}

// Apply upserts the projection from an account event.
func (s *Service) Apply(ctx context.Context, sub string, p *EventPayload) error {
	if sub == "" {
		return apperr.Validation("event sub is required")
	}
	u := &User{
		Sub:             sub,
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		MiddleName:      p.MiddleName,
		IIN:             p.IIN,
		ClientRoles:     p.ClientRoles,
		Enabled:         p.Enabled,
		Specializations: p.Specializations,
		ServedAreas:     p.ServedAreas,
		ServedClinics:   p.ServedClinics,
	}
	if p.DateOfBirth != nil && *p.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", *p.DateOfBirth)
		if err != nil {
			return apperr.Validation("bad date_of_birth %q", *p.DateOfBirth)
		}
		u.DateOfBirth = &dob
	}
	if existing, err := s.repo.GetBySub(ctx, sub); err == nil {
		u.ID = existing.ID
	} else if !apperr.IsNotFound(err) {
		return err
	}
	return s.repo.Upsert(ctx, u)
}

// Remove drops the projection for the given sub. Removing an unknown sub is
// not an error.
func (s *Service) Remove(ctx context.Context, sub string) error {
	if sub == "" {
		return apperr.Validation("event sub is required")
	}
	return s.repo.DeleteBySub(ctx, sub)
}
