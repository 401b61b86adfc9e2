package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// writerLockID keys the advisory lock taken by every write transaction.
const writerLockID int64 = 0x65737464 // "estd"

// PostgresBackend persists keys in the kv_store table created by the migrations.
// Values are stored as JSONB.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

func NewPostgresBackend(pool *pgxpool.Pool) *PostgresBackend {
	return &PostgresBackend{pool: pool}
}

func (b *PostgresBackend) View(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := b.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly, IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("failed to begin read transaction: %w", err)
	}
	defer tx.Rollback(ctx)
	return fn(readOnly{&pgTx{tx: tx}})
}

func (b *PostgresBackend) Update(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Row locks cannot cover keys that have no row yet, so writers from every process
	// queue on one advisory lock held until commit.
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", writerLockID); err != nil {
		return fmt.Errorf("failed to acquire writer lock: %w", err)
	}
	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close is a no-op; the pool belongs to the caller.
func (b *PostgresBackend) Close() error { return nil }

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := t.tx.QueryRow(ctx, "SELECT value::text FROM kv_store WHERE key = $1", key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return []byte(value), true, nil
}

func (t *pgTx) Put(ctx context.Context, key string, value []byte) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2::jsonb, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, key, string(value))
	if err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}

func (t *pgTx) Delete(ctx context.Context, key string) error {
	if _, err := t.tx.Exec(ctx, "DELETE FROM kv_store WHERE key = $1", key); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}
