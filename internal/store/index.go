package store

import "context"

// Relation indexes are denormalized ordered lists mirroring a one-to-many
// relationship (attendees of an event, tokens of an owner). They are stored
// as JSON arrays; an absent key reads as an empty list, never an error.

// IndexList returns the entries at key in insertion order.
func IndexList[T any](ctx context.Context, tx Tx, key string) ([]T, error) {
	var items []T
	if _, err := tx.Get(ctx, key, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// IndexAppend adds v to the end of the list at key.
func IndexAppend[T any](ctx context.Context, tx Tx, key string, v T) error {
	items, err := IndexList[T](ctx, tx, key)
	if err != nil {
		return err
	}
	return tx.Put(ctx, key, append(items, v))
}

// IndexRemoveFirst rewrites the list at key without the first entry equal
// to v, reporting whether an entry was removed. Linear in the list length,
// which is fine at the scale these lists reach.
func IndexRemoveFirst[T comparable](ctx context.Context, tx Tx, key string, v T) (bool, error) {
	items, err := IndexList[T](ctx, tx, key)
	if err != nil {
		return false, err
	}
	out := make([]T, 0, len(items))
	removed := false
	for _, item := range items {
		if !removed && item == v {
			removed = true
			continue
		}
		out = append(out, item)
	}
	if !removed {
		return false, nil
	}
	return true, tx.Put(ctx, key, out)
}
