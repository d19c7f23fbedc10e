package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

const txKey contextKey = "db_tx"

// TxFromContext retrieves the active transaction from context, if any.
// Repositories prefer it over the pool so that multi-statement operations
// run atomically.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey).(pgx.Tx)
	return tx
}

// WithTx runs fn inside a transaction. The transaction is placed in the
// context passed to fn so repository calls join it. Commit happens only
// when fn returns nil.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, txKey, tx)); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// AdvisoryLockKey builds a stable, case-insensitive lock key from its parts.
func AdvisoryLockKey(parts ...string) string {
	lowered := make([]string, len(parts))
	for i, p := range parts {
		lowered[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return strings.Join(lowered, ":")
}

// AcquireAdvisoryLock takes a transaction-scoped advisory lock on key.
// It must be called inside WithTx; the lock is released when the
// transaction ends. Concurrent writers for the same key serialize here,
// which closes the gap between a conflict check and the following write.
func AcquireAdvisoryLock(ctx context.Context, key string) error {
	tx := TxFromContext(ctx)
	if tx == nil {
		return fmt.Errorf("advisory lock requires an active transaction")
	}
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", key); err != nil {
		return fmt.Errorf("acquire advisory lock %q: %w", key, err)
	}
	return nil
}
