package platformrule

import "context"

// Repository defines storage operations for platform rules.
type Repository interface {
	Create(ctx context.Context, r *Rule) error
	GetByID(ctx context.Context, id int) (*Rule, error)
	GetByKey(ctx context.Context, key string) (*Rule, error)
	Update(ctx context.Context, r *Rule) error
	Delete(ctx context.Context, id int) error
	List(ctx context.Context, limit, offset int) ([]*Rule, int, error)
}
