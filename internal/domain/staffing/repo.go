package staffing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ConflictQuery describes the interval checked against active assignments
// of the same specialist and area.
type ConflictQuery struct {
	SpecialistName string
	AreaNumber     string
	StartDate      time.Time
	EndDate        *time.Time
	ExcludeID      *uuid.UUID
}

// Repository defines storage operations for staff assignments.
type Repository interface {
	Create(ctx context.Context, a *Assignment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Assignment, error)
	Update(ctx context.Context, a *Assignment) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Assignment, int, error)
	FindConflicts(ctx context.Context, q ConflictQuery) ([]*Assignment, error)
	CountByStatus(ctx context.Context) (*Stats, error)
}
