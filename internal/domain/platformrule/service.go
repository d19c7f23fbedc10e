package platformrule

import (
	"context"

	"github.com/medrec/registry/internal/platform/apperr"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func validate(r *Rule) error {
	if r.Key == "" {
		return apperr.Validation("key is required")
	}
	if r.Description != nil && len(*r.Description) > maxDescriptionLen {
		return apperr.Validation("description exceeds %d characters", maxDescriptionLen)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, r *Rule) error {
	if err := validate(r); err != nil {
		return err
	}
	return s.repo.Create(ctx, r)
}

func (s *Service) Get(ctx context.Context, id int) (*Rule, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByKey(ctx context.Context, key string) (*Rule, error) {
	return s.repo.GetByKey(ctx, key)
}

func (s *Service) Update(ctx context.Context, r *Rule) error {
	if _, err := s.repo.GetByID(ctx, r.ID); err != nil {
		return err
	}
	if err := validate(r); err != nil {
		return err
	}
	return s.repo.Update(ctx, r)
}

func (s *Service) Delete(ctx context.Context, id int) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Rule, int, error) {
	return s.repo.List(ctx, limit, offset)
}
