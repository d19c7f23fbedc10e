package sickleave

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines storage operations for sick leaves.
type Repository interface {
	Create(ctx context.Context, l *SickLeave) error
	GetByID(ctx context.Context, id uuid.UUID) (*SickLeave, error)
	Update(ctx context.Context, l *SickLeave) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*SickLeave, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*SickLeave, int, error)
	ActiveByPatient(ctx context.Context, patientID uuid.UUID) ([]*SickLeave, error)
	ListExtensions(ctx context.Context, parentID uuid.UUID) ([]*SickLeave, error)
	CountByStatus(ctx context.Context) (*Stats, error)
}
