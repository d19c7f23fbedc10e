package user

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines storage operations for the user projection. Upsert and
// DeleteBySub exist for the event consumer.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetBySub(ctx context.Context, sub string) (*User, error)
	List(ctx context.Context, params map[string]string, limit, offset int) ([]*User, int, error)
	Upsert(ctx context.Context, u *User) error
	DeleteBySub(ctx context.Context, sub string) error
}
