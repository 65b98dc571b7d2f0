package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// writeLockID is the advisory lock shared by every writable transaction.
// Taking it serializes mutating ledger calls the same way the previous
// host environment serialized contract invocations, so ledger code never
// has to reason about interleaved writers.
const writeLockID = 0x4b5a4c44 // "KZLD"

const schema = `
CREATE TABLE IF NOT EXISTS ledger_kv (
    key   TEXT PRIMARY KEY,
    value JSONB NOT NULL
)`

// PG is the PostgreSQL-backed Store.
type PG struct {
	pool *pgxpool.Pool
}

// NewPG ensures the backing table exists and returns a PG store.
func NewPG(ctx context.Context, pool *pgxpool.Pool) (*PG, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("create ledger_kv table: %w", err)
	}
	return &PG{pool: pool}, nil
}

// View runs fn in a read-only transaction.
func (s *PG) View(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return fmt.Errorf("begin read transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, &pgTx{tx: tx, readOnly: true}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Update runs fn in a writable transaction holding the global advisory
// lock. Either every write commits or none do.
func (s *PG) Update(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	// Ensure the transaction is always resolved.
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, writeLockID); err != nil {
		return fmt.Errorf("acquire write lock: %w", err)
	}
	if err = fn(ctx, &pgTx{tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type pgTx struct {
	tx       pgx.Tx
	readOnly bool
}

func (t *pgTx) Get(ctx context.Context, key string, dst any) (bool, error) {
	var raw []byte
	err := t.tx.QueryRow(ctx,
		`SELECT value FROM ledger_kv WHERE key = $1`, key,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %q: %w", key, err)
	}
	if err := decode(key, raw, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (t *pgTx) Put(ctx context.Context, key string, v any) error {
	if t.readOnly {
		return ErrReadOnly
	}
	raw, err := encode(key, v)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx,
		`INSERT INTO ledger_kv (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		key, raw,
	)
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

func (t *pgTx) Delete(ctx context.Context, key string) error {
	if t.readOnly {
		return ErrReadOnly
	}
	if _, err := t.tx.Exec(ctx, `DELETE FROM ledger_kv WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

func (t *pgTx) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT key FROM ledger_kv WHERE key LIKE $1 || '%' ORDER BY key`, prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("keys %q: %w", prefix, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
