package emergency

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: uniqueViolation, ConstraintName: "emergency_assets_bg_asset_id_key"}

	if !isUniqueViolation(dup) {
		t.Error("expected duplicate key error to be detected")
	}
	if !isUniqueViolation(fmt.Errorf("exec insert: %w", dup)) {
		t.Error("expected wrapped duplicate key error to be detected")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Error("foreign key violation must not be treated as a duplicate")
	}
	if isUniqueViolation(errors.New("connection reset")) {
		t.Error("plain error must not be treated as a duplicate")
	}
}

func TestDeref(t *testing.T) {
	s := "bg-42"
	if deref(&s) != "bg-42" {
		t.Errorf("expected bg-42, got %q", deref(&s))
	}
	if deref(nil) != "" {
		t.Errorf("expected empty string for nil, got %q", deref(nil))
	}
}
