package user

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/medrec/registry/internal/platform/apperr"
)

type mockRepo struct {
	users map[string]*User
}

func newMockRepo() *mockRepo {
	return &mockRepo{users: make(map[string]*User)}
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, apperr.NotFound("user %s not found", id)
}

func (m *mockRepo) GetBySub(_ context.Context, sub string) (*User, error) {
	u, ok := m.users[sub]
	if !ok {
		return nil, apperr.NotFound("user with sub %s not found", sub)
	}
	return u, nil
}

func (m *mockRepo) List(_ context.Context, params map[string]string, limit, offset int) ([]*User, int, error) {
	var items []*User
	for _, u := range m.users {
		items = append(items, u)
	}
	return items, len(items), nil
}

func (m *mockRepo) Upsert(_ context.Context, u *User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	m.users[u.Sub] = u
	return nil
}

func (m *mockRepo) DeleteBySub(_ context.Context, sub string) error {
	delete(m.users, sub)
	return nil
}

func strptr(s string) *string { return &s }

func TestApply_CreatesProjection(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	payload := &EventPayload{
		FirstName:   strptr("Aigerim"),
		LastName:    strptr("Satpaeva"),
		IIN:         strptr("880101300123"),
		DateOfBirth: strptr("1988-01-01"),
		ClientRoles: []string{"physician"},
		Enabled:     true,
	}
	if err := svc.Apply(context.Background(), "sub-1", payload); err != nil {
		t.Fatalf("apply: %v", err)
	}

	u, err := svc.GetBySub(context.Background(), "sub-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u.DateOfBirth == nil || u.DateOfBirth.Year() != 1988 {
		t.Errorf("expected parsed date of birth, got %v", u.DateOfBirth)
	}
	if !u.HasRole("physician") {
		t.Error("expected physician role")
	}
}

func TestApply_UpdateKeepsID(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	if err := svc.Apply(ctx, "sub-1", &EventPayload{FirstName: strptr("Old"), Enabled: true}); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	original, _ := svc.GetBySub(ctx, "sub-1")

	if err := svc.Apply(ctx, "sub-1", &EventPayload{FirstName: strptr("New"), Enabled: false}); err != nil {
		t.Fatalf("second apply: %v", err)
	}
	updated, _ := svc.GetBySub(ctx, "sub-1")
	if updated.ID != original.ID {
		t.Errorf("expected stable id on update, got %s vs %s", updated.ID, original.ID)
	}
	if updated.FirstName == nil || *updated.FirstName != "New" {
		t.Errorf("expected updated first name, got %v", updated.FirstName)
	}
	if updated.Enabled {
		t.Error("expected user disabled")
	}
}

func TestApply_Validation(t *testing.T) {
	svc := NewService(newMockRepo())
	if err := svc.Apply(context.Background(), "", &EventPayload{}); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for empty sub, got %v", err)
	}
	err := svc.Apply(context.Background(), "sub-1", &EventPayload{DateOfBirth: strptr("01.01.1988")})
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error for bad date, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	if err := svc.Apply(ctx, "sub-1", &EventPayload{Enabled: true}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := svc.Remove(ctx, "sub-1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := svc.GetBySub(ctx, "sub-1"); !apperr.IsNotFound(err) {
		t.Errorf("expected not found after remove, got %v", err)
	}
	if err := svc.Remove(ctx, "sub-1"); err != nil {
		t.Errorf("removing unknown sub should not fail, got %v", err)
	}
}

func TestHasRole(t *testing.T) {
	u := &User{ClientRoles: []string{"nurse", "registrar"}}
	if !u.HasRole("nurse") {
		t.Error("expected nurse role")
	}
	if u.HasRole("admin") {
		t.Error("unexpected admin role")
	}
}
