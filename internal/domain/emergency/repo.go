package emergency

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines storage operations for emergency assets.
type Repository interface {
	Create(ctx context.Context, a *Asset) error
	GetByID(ctx context.Context, id uuid.UUID) (*Asset, error)
	GetByBGAssetID(ctx context.Context, bgAssetID string) (*Asset, error)
	Update(ctx context.Context, a *Asset) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Asset, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Asset, int, error)
	CountByStatus(ctx context.Context) (*Stats, error)
}
