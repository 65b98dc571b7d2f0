package store

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Memory is a map-backed Store used by tests and local development. Update
// stages writes in an overlay that is applied only when the closure returns
// nil, giving the same all-or-nothing behavior as the PostgreSQL store.
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (s *Memory) View(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(ctx, &memTx{store: s, readOnly: true})
}

func (s *Memory) Update(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{
		store:   s,
		staged:  make(map[string][]byte),
		deleted: make(map[string]bool),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for k := range tx.deleted {
		delete(s.data, k)
	}
	for k, v := range tx.staged {
		s.data[k] = v
	}
	return nil
}

type memTx struct {
	store    *Memory
	readOnly bool
	staged   map[string][]byte
	deleted  map[string]bool
}

func (t *memTx) Get(ctx context.Context, key string, dst any) (bool, error) {
	if t.deleted[key] {
		return false, nil
	}
	raw, ok := t.staged[key]
	if !ok {
		raw, ok = t.store.data[key]
	}
	if !ok {
		return false, nil
	}
	if err := decode(key, raw, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (t *memTx) Put(ctx context.Context, key string, v any) error {
	if t.readOnly {
		return ErrReadOnly
	}
	raw, err := encode(key, v)
	if err != nil {
		return err
	}
	delete(t.deleted, key)
	t.staged[key] = raw
	return nil
}

func (t *memTx) Delete(ctx context.Context, key string) error {
	if t.readOnly {
		return ErrReadOnly
	}
	delete(t.staged, key)
	t.deleted[key] = true
	return nil
}

func (t *memTx) Keys(ctx context.Context, prefix string) ([]string, error) {
	seen := make(map[string]bool)
	for k := range t.store.data {
		if strings.HasPrefix(k, prefix) && !t.deleted[k] {
			seen[k] = true
		}
	}
	for k := range t.staged {
		if strings.HasPrefix(k, prefix) {
			seen[k] = true
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
