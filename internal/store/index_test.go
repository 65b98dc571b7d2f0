package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexListAbsentIsEmpty(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()

	require.NoError(t, st.View(ctx, func(ctx context.Context, tx Tx) error {
		items, err := IndexList[string](ctx, tx, "missing")
		require.NoError(t, err)
		assert.Empty(t, items)
		assert.NotNil(t, items)
		return nil
	}))
}

func TestIndexAppendPreservesOrder(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()

	require.NoError(t, st.Update(ctx, func(ctx context.Context, tx Tx) error {
		for _, v := range []string{"alice", "bob", "carol"} {
			require.NoError(t, IndexAppend(ctx, tx, "idx", v))
		}
		return nil
	}))

	require.NoError(t, st.View(ctx, func(ctx context.Context, tx Tx) error {
		items, err := IndexList[string](ctx, tx, "idx")
		require.NoError(t, err)
		assert.Equal(t, []string{"alice", "bob", "carol"}, items)
		return nil
	}))
}

func TestIndexRemoveFirstMatchOnly(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()

	require.NoError(t, st.Update(ctx, func(ctx context.Context, tx Tx) error {
		for _, v := range []uint64{10, 20, 10, 30} {
			require.NoError(t, IndexAppend(ctx, tx, "idx", v))
		}
		removed, err := IndexRemoveFirst(ctx, tx, "idx", uint64(10))
		require.NoError(t, err)
		assert.True(t, removed)
		return nil
	}))

	require.NoError(t, st.View(ctx, func(ctx context.Context, tx Tx) error {
		items, err := IndexList[uint64](ctx, tx, "idx")
		require.NoError(t, err)
		assert.Equal(t, []uint64{20, 10, 30}, items)
		return nil
	}))
}

func TestIndexRemoveFirstNoMatch(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()

	require.NoError(t, st.Update(ctx, func(ctx context.Context, tx Tx) error {
		require.NoError(t, IndexAppend(ctx, tx, "idx", uint64(1)))
		removed, err := IndexRemoveFirst(ctx, tx, "idx", uint64(99))
		require.NoError(t, err)
		assert.False(t, removed)

		removed, err = IndexRemoveFirst(ctx, tx, "absent", uint64(1))
		require.NoError(t, err)
		assert.False(t, removed)
		return nil
	}))
}
