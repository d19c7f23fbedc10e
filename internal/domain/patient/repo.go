package patient

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines storage operations for patients.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByIIN(ctx context.Context, iin string) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	UpdateAttachmentData(ctx context.Context, id uuid.UUID, data map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Patient, int, error)
}
