package platformrule

import (
	"context"
	"strings"
	"testing"

	"github.com/medrec/registry/internal/platform/apperr"
)

type mockRepo struct {
	nextID int
	rules  map[int]*Rule
}

func newMockRepo() *mockRepo {
	return &mockRepo{rules: make(map[int]*Rule)}
}

func (m *mockRepo) Create(_ context.Context, r *Rule) error {
	for _, existing := range m.rules {
		if existing.Key == r.Key {
			return apperr.Conflict("platform rule with key %s already exists", r.Key)
		}
	}
	m.nextID++
	r.ID = m.nextID
	m.rules[r.ID] = r
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id int) (*Rule, error) {
	r, ok := m.rules[id]
	if !ok {
		return nil, apperr.NotFound("platform rule %d not found", id)
	}
	return r, nil
}

func (m *mockRepo) GetByKey(_ context.Context, key string) (*Rule, error) {
	for _, r := range m.rules {
		if r.Key == key {
			return r, nil
		}
	}
	return nil, apperr.NotFound("platform rule %s not found", key)
}

func (m *mockRepo) Update(_ context.Context, r *Rule) error {
	m.rules[r.ID] = r
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id int) error {
	delete(m.rules, id)
	return nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Rule, int, error) {
	var items []*Rule
	for _, r := range m.rules {
		items = append(items, r)
	}
	return items, len(items), nil
}

func TestCreate_DuplicateKey(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	first := &Rule{Key: "sick_leave.max_duration_days", RuleData: map[string]interface{}{"value": 30}}
	if err := svc.Create(ctx, first); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := svc.Create(ctx, &Rule{Key: "sick_leave.max_duration_days"})
	if !apperr.IsConflict(err) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := NewService(newMockRepo())
	if err := svc.Create(context.Background(), &Rule{}); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for empty key, got %v", err)
	}

	long := strings.Repeat("x", maxDescriptionLen+1)
	err := svc.Create(context.Background(), &Rule{Key: "k", Description: &long})
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error for long description, got %v", err)
	}
}

func TestGetByKey(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	r := &Rule{Key: "emergency.auto_confirm", RuleData: map[string]interface{}{"enabled": true}}
	if err := svc.Create(ctx, r); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := svc.GetByKey(ctx, "emergency.auto_confirm")
	if err != nil {
		t.Fatalf("get by key: %v", err)
	}
	if got.ID != r.ID {
		t.Errorf("expected id %d, got %d", r.ID, got.ID)
	}
	if _, err := svc.GetByKey(ctx, "missing"); !apperr.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestUpdate_UnknownRule(t *testing.T) {
	svc := NewService(newMockRepo())
	err := svc.Update(context.Background(), &Rule{ID: 99, Key: "k"})
	if !apperr.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}
