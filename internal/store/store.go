// Package store provides the persisted key-value layer backing all ledgers.
// Every value is a JSON-encoded Go struct keyed by a string; a ledger
// operation runs its whole read-validate-write cycle inside one transaction
// so that a failure leaves the key space exactly as it was.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrReadOnly is returned when a mutation is attempted inside View.
var ErrReadOnly = errors.New("store: transaction is read-only")

// Tx is the view of the key space available inside a transaction.
type Tx interface {
	// Get decodes the value at key into dst and reports whether the key
	// exists. An absent key is not an error.
	Get(ctx context.Context, key string, dst any) (bool, error)

	// Put stores the JSON encoding of v at key, replacing any prior value.
	Put(ctx context.Context, key string, v any) error

	// Delete removes key. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error

	// Keys returns all keys with the given prefix in lexical order.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Store runs closures against the key space transactionally.
type Store interface {
	// View runs fn in a read-only transaction.
	View(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// Update runs fn in a writable transaction. All writes become visible
	// together when fn returns nil; any error discards every write.
	// Updates are serialized against each other.
	Update(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

func encode(key string, v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %q: %w", key, err)
	}
	return raw, nil
}

func decode(key string, raw []byte, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %q: %w", key, err)
	}
	return nil
}
