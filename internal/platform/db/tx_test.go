package db

import (
	"context"
	"testing"
)

func TestAdvisoryLockKey_Normalization(t *testing.T) {
	a := AdvisoryLockKey("Dr. Aliya Bekova", "12")
	b := AdvisoryLockKey("dr. aliya bekova ", "12")
	if a != b {
		t.Errorf("expected case/space-insensitive keys to match: %q vs %q", a, b)
	}

	c := AdvisoryLockKey("dr. aliya bekova", "13")
	if a == c {
		t.Error("different areas must produce different keys")
	}
}

func TestTxFromContext_Empty(t *testing.T) {
	if tx := TxFromContext(context.Background()); tx != nil {
		t.Error("expected nil transaction on a plain context")
	}
}

func TestAcquireAdvisoryLock_RequiresTx(t *testing.T) {
	err := AcquireAdvisoryLock(context.Background(), "specialist:1")
	if err == nil {
		t.Fatal("expected error when no transaction is active")
	}
}
