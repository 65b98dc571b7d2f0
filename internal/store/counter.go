package store

import "context"

// Counter allocates strictly increasing identifiers from a persisted key.
// It is the only writer of that key; ids are never reused.
type Counter struct {
	key string
}

// NewCounter returns a counter backed by the given key.
func NewCounter(key string) Counter {
	return Counter{key: key}
}

// Next increments the counter and returns the new value. An absent key
// counts as zero, so the first issued id is 1.
func (c Counter) Next(ctx context.Context, tx Tx) (uint64, error) {
	var n uint64
	if _, err := tx.Get(ctx, c.key, &n); err != nil {
		return 0, err
	}
	n++
	if err := tx.Put(ctx, c.key, n); err != nil {
		return 0, err
	}
	return n, nil
}

// Current returns the last issued value without consuming one.
func (c Counter) Current(ctx context.Context, tx Tx) (uint64, error) {
	var n uint64
	if _, err := tx.Get(ctx, c.key, &n); err != nil {
		return 0, err
	}
	return n, nil
}
